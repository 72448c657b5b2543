package types

import (
	"context"
	"errors"
	"fmt"
)

// InvalidStateError reports a turn operation invoked out of sequence.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: %s called while session is %s", e.Op, e.Status)
}

// GenerationKind classifies synthesizer failures.
type GenerationKind string

const (
	GenerationAuth      GenerationKind = "auth"
	GenerationNetwork   GenerationKind = "network"
	GenerationRateLimit GenerationKind = "rate_limit"
	GenerationMalformed GenerationKind = "malformed"
	GenerationCanceled  GenerationKind = "canceled"
	GenerationUnknown   GenerationKind = "unknown"
)

// GenerationError is returned by a Synthesizer when the backend fails.
type GenerationError struct {
	Kind  GenerationKind
	Query string
	Err   error
}

// NewGenerationError wraps err with a failure kind.
func NewGenerationError(kind GenerationKind, query string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Query: query, Err: err}
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("generation failed (%s)", e.Kind)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// AsGenerationError converts any synthesizer failure into a *GenerationError.
// Context cancellation keeps its identity through Unwrap.
func AsGenerationError(query string, err error) *GenerationError {
	if err == nil {
		return nil
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	if errors.Is(err, context.Canceled) {
		return NewGenerationError(GenerationCanceled, query, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewGenerationError(GenerationNetwork, query, err)
	}
	return NewGenerationError(GenerationUnknown, query, err)
}
