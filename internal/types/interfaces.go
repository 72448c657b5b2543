package types

import "context"

// Synthesizer produces a ResearchResult for a query.
// Generate is synchronous from the caller's point of view; implementations may
// block on the network. Backend failures are returned as *GenerationError.
type Synthesizer interface {
	Generate(ctx context.Context, query string) (ResearchResult, error)
}

// Latency describes how long a synthesizer is expected to take.
type Latency int

const (
	// LatencyInstant means the answer is computed locally with no real delay.
	LatencyInstant Latency = iota
	// LatencyVariable means the answer depends on a slow or remote backend.
	LatencyVariable
)

func (l Latency) String() string {
	if l == LatencyInstant {
		return "instant"
	}
	return "variable"
}

// LatencyHinter is implemented by synthesizers that know their latency class.
// Synthesizers that do not implement it are treated as LatencyVariable.
type LatencyHinter interface {
	Latency() Latency
}

// LatencyOf returns the latency class of s.
func LatencyOf(s Synthesizer) Latency {
	if h, ok := s.(LatencyHinter); ok {
		return h.Latency()
	}
	return LatencyVariable
}
