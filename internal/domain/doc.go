// Package domain defines the core registration types for the CareConnect
// intake service.
//
// Types in this package are pure value objects with no behavior beyond
// formatting, no database dependencies, and no HTTP concerns. They are the
// shared language between handlers, services, and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - Column names are allowed (they're metadata, not behavior)
//   - Constants and enums belong here
package domain
