// Package api provides the HTTP handlers for the task API: JSON
// request/response shapes, error-to-status mapping, and the glue between
// the router and the service layer. Handlers hold no business logic; they
// decode, delegate, and encode.
package api
