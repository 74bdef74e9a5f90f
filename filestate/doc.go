// Package filestate models the desired state of a filesystem tree. A Target
// is one node of the tree (directory or file) carrying typed options that
// operations read to decide what must change on disk.
//
// Options are declared in an OptionRegistry keyed by a stable OptionKey.
// LoadConfig decodes a YAML description of the tree, rejects unknown option
// keys and runs each option's validator before any operation is planned.
package filestate
