// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() in
	// the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// -----------------------------------------------------------------------------
// Transport Ports
// -----------------------------------------------------------------------------

// Request is one call to the Attio REST API (value type).
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is marshalled to JSON when non-nil.
	Body any

	// Idempotent marks requests that are safe to retry after a rate limit
	// response. Creates and patches must leave it false.
	Idempotent bool
}

// Transport sends requests to the Attio API.
type Transport interface {
	// Do sends req and returns the 2xx response body. Error responses are
	// returned as *apierr.Error when recognised.
	Do(ctx context.Context, req Request) (json.RawMessage, error)
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Metrics records transport measurements.
type Metrics interface {
	ObserveRequest(method string, status int, d time.Duration)
	RateLimited()
	Retried()
}
