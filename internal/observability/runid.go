// ABOUTME: Run identifiers shared by logs, spans, and published events of one invocation
// ABOUTME: Generates UUIDs and carries them through context

package observability

import (
	"context"

	"github.com/google/uuid"
)

// runIDKey is the context key for storing run IDs.
type runIDKey struct{}

// RunID identifies one scan invocation.
type RunID string

// String returns the string representation of the run ID.
func (r RunID) String() string {
	return string(r)
}

// NewRunID generates a new time-ordered run ID.
func NewRunID() RunID {
	id, err := uuid.NewV7()
	if err != nil {
		return RunID(uuid.New().String())
	}
	return RunID(id.String())
}

// WithRunID returns a new context with the run ID attached.
func WithRunID(ctx context.Context, id RunID) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext extracts the run ID from the context.
// Returns an empty RunID if none is present.
func RunIDFromContext(ctx context.Context) RunID {
	id, ok := ctx.Value(runIDKey{}).(RunID)
	if !ok {
		return ""
	}
	return id
}
