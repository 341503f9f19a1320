package ports

import "context"

// Outcome tags the result of one backend call.
type Outcome int

const (
	// OutcomeOK means a 2xx status; Body holds the raw payload.
	OutcomeOK Outcome = iota
	// OutcomeUnauthorized means the backend rejected the propagated credential.
	OutcomeUnauthorized
	// OutcomeFailed means any other non-2xx status.
	OutcomeFailed
)

// Result is the tagged outcome of a single backend call. Exactly one
// attempt is made per call; there is no retry at this layer.
type Result struct {
	Outcome Outcome
	Status  int
	Body    []byte
	// URL is the resolved target, kept for failure logs.
	URL string
}

// Upstream is the outbound call surface the aggregator depends on.
// Satisfied by *upstream.Client; faked in tests.
type Upstream interface {
	Get(ctx context.Context, service, path, bearer string) (Result, error)
}
