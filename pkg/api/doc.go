// Package api defines the domain types, request/response payloads, and the
// error taxonomy shared by the service, storage, and transport layers.
//
// Request payloads carry explicit validation: every required field is
// enumerated per endpoint and checked before any handler logic runs, so a
// missing or ill-typed field always produces a structured 400 rather than a
// nil dereference deep in the stack.
package api
