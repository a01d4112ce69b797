// Package middleware holds the HTTP middleware of the ledger API. Every
// constructor returns a Middleware, which is what chi's Use and With accept.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler
