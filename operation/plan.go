package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/byte4ever/gitstate/filestate"
)

const tracerName = "github.com/byte4ever/gitstate/operation"

// Plan is an ordered list of operations for one tree.
// Not safe for concurrent use.
type Plan struct {
	root    *filestate.Target
	ops     []Operation
	applied []Operation
}

// Step is a printable view of one planned operation.
type Step struct {
	Kind        Kind
	Path        string
	Description string
	Before      string
	After       string
}

// NewPlan walks root parents first, instantiates every
// applicable factory of reg for each target and orders
// the result.
func NewPlan(
	ctx context.Context,
	root *filestate.Target,
	reg *Registry,
) (*Plan, error) {
	const errCtx = "planning"

	_, span := otel.Tracer(tracerName).Start(
		ctx, "operation.plan",
		trace.WithAttributes(
			attribute.String("root", root.Path),
		),
	)
	defer span.End()

	var ops []Operation

	err := root.Walk(func(t *filestate.Target) error {
		for _, f := range reg.Factories() {
			ok, err := f.Applicable(t)
			if err != nil {
				return fmt.Errorf(
					"%s %s: %w", f.Kind, t.Path, err,
				)
			}

			if ok {
				ops = append(ops, f.New(t))
			}
		}

		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	ordered, err := Order(ops)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	span.SetAttributes(attribute.Int("operations", len(ordered)))

	slog.Info(
		"planned operations",
		"root", root.Path,
		"count", len(ordered),
	)

	return &Plan{root: root, ops: ordered}, nil
}

// Root returns the planned tree.
func (p *Plan) Root() *filestate.Target {
	return p.root
}

// Operations returns the planned operations in apply
// order.
func (p *Plan) Operations() []Operation {
	return p.ops
}

// Applied returns the operations applied so far, in
// apply order.
func (p *Plan) Applied() []Operation {
	return p.applied
}

// Steps describes the plan without touching disk.
func (p *Plan) Steps() []Step {
	steps := make([]Step, 0, len(p.ops))

	for _, op := range p.ops {
		steps = append(steps, Step{
			Kind:        op.Kind(),
			Path:        op.Target().Path,
			Description: op.Description(),
			Before:      op.DescribeBefore(),
			After:       op.DescribeAfter(),
		})
	}

	return steps
}

// Apply runs the operations in order and stops at the
// first failure. Operations applied before the failure
// stay recorded for Undo.
func (p *Plan) Apply(ctx context.Context) error {
	const errCtx = "applying plan"

	tracer := otel.Tracer(tracerName)

	for _, op := range p.ops {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		if slices.Contains(p.applied, op) {
			continue
		}

		opCtx, span := tracer.Start(
			ctx, "operation.apply",
			trace.WithAttributes(
				attribute.String("kind", string(op.Kind())),
				attribute.String("path", op.Target().Path),
			),
		)

		slog.Info(
			"applying operation",
			"kind", op.Kind(),
			"path", op.Target().Path,
			"description", op.Description(),
		)

		err := op.Apply(opCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()

			return fmt.Errorf(
				"%s: %s %s: %w",
				errCtx, op.Kind(), op.Target().Path, err,
			)
		}

		span.End()

		p.applied = append(p.applied, op)
	}

	return nil
}

// Undo reverts applied operations newest first. Every
// applied operation is undone at most once; failures are
// collected and the remaining operations still run.
func (p *Plan) Undo(ctx context.Context) error {
	const errCtx = "undoing plan"

	tracer := otel.Tracer(tracerName)

	var errs []error

	for i := len(p.applied) - 1; i >= 0; i-- {
		op := p.applied[i]

		opCtx, span := tracer.Start(
			ctx, "operation.undo",
			trace.WithAttributes(
				attribute.String("kind", string(op.Kind())),
				attribute.String("path", op.Target().Path),
			),
		)

		slog.Info(
			"undoing operation",
			"kind", op.Kind(),
			"path", op.Target().Path,
		)

		if err := op.Undo(opCtx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			errs = append(errs, fmt.Errorf(
				"%s %s: %w", op.Kind(), op.Target().Path, err,
			))
		}

		span.End()
	}

	p.applied = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
