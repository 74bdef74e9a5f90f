package operation

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrDependencyCycle is returned when operations depend
// on each other.
var ErrDependencyCycle = errors.New("dependency cycle")

// dependsOn reports whether b must run after a: a's kind
// is declared by b and a acts on b's target or one of
// its ancestors.
func dependsOn(b, a Operation) bool {
	if a == b || !slices.Contains(b.Dependencies(), a.Kind()) {
		return false
	}

	return a.Target() == b.Target() ||
		a.Target().IsAncestorOf(b.Target())
}

// Order sorts ops so that every operation follows the
// operations it depends on. Among ready operations the
// lowest input index runs first. Dependencies on kinds
// absent from ops are considered satisfied.
func Order(ops []Operation) ([]Operation, error) {
	const errCtx = "ordering operations"

	pending := make([]int, len(ops))
	next := make([][]int, len(ops))

	for bi, b := range ops {
		for ai, a := range ops {
			if dependsOn(b, a) {
				pending[bi]++
				next[ai] = append(next[ai], bi)
			}
		}
	}

	done := make([]bool, len(ops))
	ordered := make([]Operation, 0, len(ops))

	for len(ordered) < len(ops) {
		pick := -1

		for i := range ops {
			if !done[i] && pending[i] == 0 {
				pick = i

				break
			}
		}

		if pick < 0 {
			return nil, fmt.Errorf(
				"%s: %w between %s",
				errCtx, ErrDependencyCycle, blocked(ops, done),
			)
		}

		done[pick] = true
		ordered = append(ordered, ops[pick])

		for _, n := range next[pick] {
			pending[n]--
		}
	}

	return ordered, nil
}

func blocked(ops []Operation, done []bool) string {
	var names []string

	for i, op := range ops {
		if !done[i] {
			names = append(names, fmt.Sprintf(
				"%s(%s)", op.Kind(), op.Target().Path,
			))
		}
	}

	return strings.Join(names, ", ")
}
