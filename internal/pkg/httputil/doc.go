// Package httputil provides shared HTTP response helpers for handlers.
//
// Every handler should use these helpers instead of writing raw
// http.ResponseWriter calls. This keeps the {success, message|error}
// envelope, content types, and error logging consistent across endpoints.
package httputil
