// Package errors defines error types for toolbridge.
//
// Typed errors carry the server, tool or process context of a failure, and
// sentinel errors mark the conditions callers commonly branch on. All typed
// errors support unwrapping and can be checked with errors.Is, errors.As and
// errors.AsType.
package errors
