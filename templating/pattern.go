package templating

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/valyala/fasttemplate"
)

// ErrUnknownVariable is returned when a pattern refers
// to a variable missing from the substitution map.
var ErrUnknownVariable = errors.New("unknown pattern variable")

// Pattern tags. Patterns use single braces, as in
// "git@github.com:org/{name}.git".
const (
	PatternStartTag = "{"
	PatternEndTag   = "}"
)

// ExpandPattern substitutes {VAR} placeholders in
// pattern with values from vars. Unlike stamping, an
// unknown variable is an error rather than being kept
// verbatim.
func ExpandPattern(
	pattern string,
	vars map[string]string,
) (string, error) {
	const errCtx = "expanding pattern"

	out, err := fasttemplate.ExecuteFuncStringWithErr(
		pattern,
		PatternStartTag,
		PatternEndTag,
		func(w io.Writer, tag string) (int, error) {
			val, ok := vars[tag]
			if !ok {
				return 0, fmt.Errorf(
					"%w %q (known: %s)",
					ErrUnknownVariable,
					tag,
					strings.Join(sortedKeys(vars), ", "),
				)
			}

			return w.Write([]byte(val))
		},
	)
	if err != nil {
		return "", fmt.Errorf(
			"%s %q: %w", errCtx, pattern, err,
		)
	}

	return out, nil
}

// CheckPattern reports an ErrUnknownVariable error when
// pattern refers to a variable outside names. Nothing is
// expanded.
func CheckPattern(pattern string, names ...string) error {
	vars := make(map[string]string, len(names))
	for _, name := range names {
		vars[name] = ""
	}

	_, err := ExpandPattern(pattern, vars)

	return err
}

func sortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
