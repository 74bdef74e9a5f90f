package filestate

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Structural keys of a configuration node. Every other
// key is treated as an option.
const (
	keyName     = "name"
	keyType     = "type"
	keyChildren = "children"
)

// LoadConfigFile reads the YAML file at path and builds
// the tree rooted at root. See LoadConfig.
func LoadConfigFile(
	path string,
	root string,
	reg *OptionRegistry,
) (*Target, error) {
	const errCtx = "loading config file"

	data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, path, err,
		)
	}

	tree, err := LoadConfig(data, root, reg)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, path, err,
		)
	}

	return tree, nil
}

// LoadConfig decodes a YAML tree description. The top
// node describes root itself (its name key is ignored);
// every child needs a name that becomes a path segment
// below its parent. Option values are validated against
// reg.
//
// Example:
//
//	children:
//	  - name: service
//	    git:
//	      remote:
//	        - name: origin
//	          url:
//	            pattern: git@github.com:org/{name}.git
func LoadConfig(
	data []byte,
	root string,
	reg *OptionRegistry,
) (*Target, error) {
	const errCtx = "loading config"

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf(
			"%s: decoding yaml: %w", errCtx, err,
		)
	}

	node := NewValue(raw)

	kind, err := nodeKind(node)
	if err != nil {
		return nil, fmt.Errorf("%s: root: %w", errCtx, err)
	}

	tree, err := NewTarget(root, kind)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: resolving root: %w", errCtx, err,
		)
	}

	if err := fillTarget(tree, node, reg); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return tree, nil
}

func fillTarget(
	tgt *Target,
	node Value,
	reg *OptionRegistry,
) error {
	for key, raw := range node.Dict() {
		switch key {
		case keyName, keyType, keyChildren:
			continue
		default:
		}

		val := NewValue(raw)
		if err := reg.Validate(OptionKey(key), val); err != nil {
			return fmt.Errorf("%s: %w", tgt.Path, err)
		}

		tgt.SetOption(OptionKey(key), val)
	}

	children, ok := node.Get(keyChildren)
	if !ok || children.IsNil() {
		return nil
	}

	if !children.IsList() {
		return fmt.Errorf(
			"%s: children must be a list", tgt.Path,
		)
	}

	for i, rawChild := range children.List() {
		child := NewValue(rawChild)
		if !child.IsDict() {
			return fmt.Errorf(
				"%s: child %d must be a mapping",
				tgt.Path, i,
			)
		}

		name, err := nodeName(child)
		if err != nil {
			return fmt.Errorf(
				"%s: child %d: %w", tgt.Path, i, err,
			)
		}

		kind, err := nodeKind(child)
		if err != nil {
			return fmt.Errorf(
				"%s: child %s: %w", tgt.Path, name, err,
			)
		}

		if err := fillTarget(
			tgt.AddChild(name, kind), child, reg,
		); err != nil {
			return err
		}
	}

	return nil
}

func nodeName(node Value) (string, error) {
	val, ok := node.Get(keyName)
	if !ok || !val.IsString() || val.String() == "" {
		return "", fmt.Errorf("name must be a non-empty string")
	}

	name := val.String()
	if strings.ContainsAny(name, `/\`) || name == "." ||
		name == ".." {
		return "", fmt.Errorf(
			"name %q must be a single path segment", name,
		)
	}

	return name, nil
}

func nodeKind(node Value) (Kind, error) {
	val, ok := node.Get(keyType)
	if !ok || val.IsNil() {
		return KindDirectory, nil
	}

	switch Kind(val.String()) {
	case KindDirectory:
		return KindDirectory, nil
	case KindFile:
		return KindFile, nil
	default:
		return "", fmt.Errorf(
			"type must be %q or %q, got %v",
			KindDirectory, KindFile, val.Raw(),
		)
	}
}
