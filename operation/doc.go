// Package operation turns a desired-state tree into an
// ordered plan of reversible changes.
//
// Each Operation acts on one filestate.Target. A Factory
// decides from current disk state whether its operation
// is needed for a target; NewPlan walks the tree, keeps
// the applicable ones and orders them so that every
// operation runs after the operations it depends on.
// Plan.Apply runs them in order and stops at the first
// failure; Plan.Undo reverts what was applied, newest
// first.
//
// Operations only undo what they themselves created.
// State observed as already present is never touched.
package operation
