// Package errors defines the sentinel error values shared across the storage
// core. Expected conditions are reported through boolean or nil returns; these
// sentinels mark the few cases where the cause matters to the caller.
package errors

// Error is a const-friendly error kind.
type Error string

func (e Error) Error() string { return string(e) }
