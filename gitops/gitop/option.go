package gitop

import (
	"errors"
	"fmt"

	"github.com/byte4ever/gitstate/filestate"
	"github.com/byte4ever/gitstate/templating"
)

// OptionGit is the option key holding the git
// configuration of a target.
const OptionGit filestate.OptionKey = "git"

// Keys of the structured git configuration.
const (
	keyRemote  = "remote"
	keyName    = "name"
	keyURL     = "url"
	keyCreate  = "create"
	keyPattern = "pattern"
)

// ErrInvalidConfig is returned for malformed git
// option values.
var ErrInvalidConfig = errors.New("invalid git option")

// Text is a configuration string, either literal or a
// pattern expanded against the target.
type Text struct {
	Value     string
	IsPattern bool
}

// Resolve returns the literal value or the expanded
// pattern.
func (x Text) Resolve(vars map[string]string) (string, error) {
	if !x.IsPattern {
		return x.Value, nil
	}

	return templating.ExpandPattern(x.Value, vars)
}

// RemoteConfig declares one remote.
type RemoteConfig struct {
	Name Text
	URL  Text
	// Create asks the hosting provider to create the
	// repository behind URL when it does not exist.
	Create bool
}

// Config is the parsed git option.
type Config struct {
	// Enabled is false only for "git: false".
	Enabled bool
	// Structured is true when the option is a mapping.
	Structured bool
	Remotes    []RemoteConfig
}

// ParseConfig decodes a git option value.
func ParseConfig(v filestate.Value) (Config, error) {
	if v.IsBool() {
		return Config{Enabled: v.Bool()}, nil
	}

	if !v.IsDict() {
		return Config{}, fmt.Errorf(
			"%w: expected bool or mapping, got %T",
			ErrInvalidConfig, v.Raw(),
		)
	}

	cfg := Config{Enabled: true, Structured: true}

	for key := range v.Dict() {
		if key != keyRemote {
			return Config{}, fmt.Errorf(
				"%w: unknown key %q", ErrInvalidConfig, key,
			)
		}
	}

	remotes, ok := v.Get(keyRemote)
	if !ok || remotes.IsNil() {
		return cfg, nil
	}

	if !remotes.IsList() {
		return Config{}, fmt.Errorf(
			"%w: %s must be a list", ErrInvalidConfig, keyRemote,
		)
	}

	for i, raw := range remotes.List() {
		rc, err := parseRemote(filestate.NewValue(raw))
		if err != nil {
			return Config{}, fmt.Errorf(
				"%s[%d]: %w", keyRemote, i, err,
			)
		}

		cfg.Remotes = append(cfg.Remotes, rc)
	}

	return cfg, nil
}

func parseRemote(v filestate.Value) (RemoteConfig, error) {
	if !v.IsDict() {
		return RemoteConfig{}, fmt.Errorf(
			"%w: remote must be a mapping", ErrInvalidConfig,
		)
	}

	var rc RemoteConfig

	for key := range v.Dict() {
		switch key {
		case keyName, keyURL, keyCreate:
		default:
			return RemoteConfig{}, fmt.Errorf(
				"%w: unknown remote key %q",
				ErrInvalidConfig, key,
			)
		}
	}

	var err error

	if rc.Name, err = parseText(v, keyName); err != nil {
		return RemoteConfig{}, err
	}

	if rc.URL, err = parseText(v, keyURL); err != nil {
		return RemoteConfig{}, err
	}

	if create, ok := v.Get(keyCreate); ok {
		if !create.IsBool() {
			return RemoteConfig{}, fmt.Errorf(
				"%w: %s must be a bool",
				ErrInvalidConfig, keyCreate,
			)
		}

		rc.Create = create.Bool()
	}

	return rc, nil
}

func parseText(v filestate.Value, key string) (Text, error) {
	field, ok := v.Get(key)
	if !ok {
		return Text{}, fmt.Errorf(
			"%w: missing %s", ErrInvalidConfig, key,
		)
	}

	if field.IsString() && field.String() != "" {
		return Text{Value: field.String()}, nil
	}

	if pattern, ok := field.Get(keyPattern); ok &&
		pattern.IsString() && pattern.String() != "" {
		err := templating.CheckPattern(
			pattern.String(), patternVarNames...,
		)
		if err != nil {
			return Text{}, fmt.Errorf(
				"%w: %s: %w", ErrInvalidConfig, key, err,
			)
		}

		return Text{Value: pattern.String(), IsPattern: true}, nil
	}

	return Text{}, fmt.Errorf(
		"%w: %s must be a string or {%s: string}",
		ErrInvalidConfig, key, keyPattern,
	)
}

// ConfigOf returns the git configuration of t. The
// second result is false when t has no git option.
func ConfigOf(t *filestate.Target) (Config, bool, error) {
	v, ok := t.Option(OptionGit)
	if !ok {
		return Config{}, false, nil
	}

	cfg, err := ParseConfig(v)
	if err != nil {
		return Config{}, true, fmt.Errorf(
			"%s: %w", t.Path, err,
		)
	}

	return cfg, true, nil
}

// Pattern variable names.
const (
	VarName = "name"
	VarPath = "path"
)

var patternVarNames = []string{VarName, VarPath}

// PatternVars returns the pattern variables of t.
func PatternVars(t *filestate.Target) map[string]string {
	return map[string]string{
		VarName: t.Name(),
		VarPath: t.Path,
	}
}

// RegisterOptions adds the git option to reg.
func RegisterOptions(reg *filestate.OptionRegistry) error {
	return reg.Register(filestate.Option{
		Key: OptionGit,
		Validate: func(v filestate.Value) error {
			_, err := ParseConfig(v)

			return err
		},
	})
}
