package operation

import (
	"context"

	"github.com/byte4ever/gitstate/filestate"
)

// Kind identifies an operation type. Dependencies are
// declared by kind, not by instance.
type Kind string

// Operation is one reversible change to a target.
// Instances are single-use per apply/undo cycle.
type Operation interface {
	// Kind returns the operation type.
	Kind() Kind

	// Target returns the node the operation acts on.
	Target() *filestate.Target

	// Dependencies lists the kinds that must run first
	// on the same target or one of its ancestors.
	Dependencies() []Kind

	// Apply performs the change. Internal state
	// needed by Undo is recorded only after success.
	Apply(ctx context.Context) error

	// Undo reverts what Apply created. It is a no-op
	// when Apply created nothing.
	Undo(ctx context.Context) error

	// Description is an imperative summary, e.g.
	// "Create directory".
	Description() string

	// DescribeBefore states the condition before
	// Apply.
	DescribeBefore() string

	// DescribeAfter states the condition after Apply.
	DescribeAfter() string
}
