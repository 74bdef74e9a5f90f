package filestate

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownOption is returned when a configuration node
// uses an option key that no registry entry declares.
var ErrUnknownOption = errors.New("unknown option")

// OptionKey identifies an option in configuration files
// and in the registry.
type OptionKey string

// OptionShouldExist controls whether a target must be
// present on disk. Absent means true.
const OptionShouldExist OptionKey = "should_exist"

// Option declares a configuration key and how its value
// is validated at load time.
type Option struct {
	Key OptionKey
	// Validate checks a raw value. Nil accepts anything.
	Validate func(Value) error
}

// OptionRegistry holds the options a configuration may
// use.
type OptionRegistry struct {
	options map[OptionKey]Option
}

// NewOptionRegistry returns an empty registry.
func NewOptionRegistry() *OptionRegistry {
	return &OptionRegistry{
		options: make(map[OptionKey]Option),
	}
}

// DefaultOptionRegistry returns a registry holding the
// built-in options.
func DefaultOptionRegistry() *OptionRegistry {
	reg := NewOptionRegistry()

	// A fresh registry cannot hold a duplicate.
	_ = reg.Register(Option{ //nolint:errcheck
		Key:      OptionShouldExist,
		Validate: validateBool(OptionShouldExist),
	})

	return reg
}

// Register adds opt. Registering the same key twice is
// an error.
func (r *OptionRegistry) Register(opt Option) error {
	const errCtx = "registering option"

	if opt.Key == "" {
		return fmt.Errorf("%s: empty key", errCtx)
	}

	if _, exists := r.options[opt.Key]; exists {
		return fmt.Errorf(
			"%s: %q is already registered",
			errCtx, opt.Key,
		)
	}

	r.options[opt.Key] = opt

	return nil
}

// Keys returns the registered keys in sorted order.
func (r *OptionRegistry) Keys() []OptionKey {
	keys := make([]OptionKey, 0, len(r.options))
	for key := range r.options {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})

	return keys
}

// Validate checks that key is registered and that val
// passes its validator.
func (r *OptionRegistry) Validate(
	key OptionKey,
	val Value,
) error {
	opt, ok := r.options[key]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownOption, key)
	}

	if opt.Validate == nil {
		return nil
	}

	if err := opt.Validate(val); err != nil {
		return fmt.Errorf("option %q: %w", key, err)
	}

	return nil
}

func validateBool(key OptionKey) func(Value) error {
	return func(val Value) error {
		if !val.IsBool() {
			return fmt.Errorf(
				"%s must be a boolean, got %T",
				key, val.Raw(),
			)
		}

		return nil
	}
}
