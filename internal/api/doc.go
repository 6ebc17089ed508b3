// Package api contains API handler implementations.
//
// The rest subpackage exposes every domain service as a JSON HTTP API.
// Handlers decode input, delegate to a domain service, and translate
// domain error codes to HTTP statuses; session-scoped endpoints verify
// the bearer token and read the caller identity from request context.
package api
