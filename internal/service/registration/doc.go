// Package registration implements intake and read-back of registrant records.
//
// The service owns the rules a submission must satisfy before it reaches the
// store: required fields are present after trimming, optional fields default
// to the empty string, and the creation timestamp is stamped by the server.
// Storage is reached only through the Repository interface defined in
// repository.go. The service never imports net/http or database/sql directly.
package registration
