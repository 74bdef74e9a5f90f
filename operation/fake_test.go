package operation_test

import (
	"context"
	"errors"
	"sync"

	"github.com/byte4ever/gitstate/filestate"
	"github.com/byte4ever/gitstate/operation"
)

var errFake = errors.New("fake failure")

// journal records apply and undo calls across fake
// operations.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, entry)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]string(nil), j.entries...)
}

type fakeOp struct {
	kind      operation.Kind
	target    *filestate.Target
	deps      []operation.Kind
	log       *journal
	applyErr  error
	undoErr   error
	applied   int
	undoCalls int
}

func (o *fakeOp) Kind() operation.Kind {
	return o.kind
}

func (o *fakeOp) Target() *filestate.Target {
	return o.target
}

func (o *fakeOp) Dependencies() []operation.Kind {
	return o.deps
}

func (o *fakeOp) Description() string {
	return "do " + string(o.kind)
}

func (o *fakeOp) DescribeBefore() string {
	return "before"
}

func (o *fakeOp) DescribeAfter() string {
	return "after"
}

func (o *fakeOp) Apply(context.Context) error {
	if o.applyErr != nil {
		return o.applyErr
	}

	o.applied++
	o.log.add("apply " + string(o.kind) + " " + o.target.Name())

	return nil
}

func (o *fakeOp) Undo(context.Context) error {
	o.undoCalls++
	o.log.add("undo " + string(o.kind) + " " + o.target.Name())

	return o.undoErr
}
