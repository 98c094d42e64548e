package statusline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/drummonds/slideframe/internal/logging"
)

// TagPolicy decides how an element with several tags picks its value.
type TagPolicy string

const (
	// PolicyFirst uses the first tag with a non-empty value.
	PolicyFirst TagPolicy = "first"
	// PolicyConcat joins every non-empty tag value with the tag separator.
	PolicyConcat TagPolicy = "concat"
)

// ParsePolicy maps a config value onto a TagPolicy; empty means first.
func ParsePolicy(s string) (TagPolicy, error) {
	switch TagPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFirst:
		return PolicyFirst, nil
	case PolicyConcat:
		return PolicyConcat, nil
	default:
		return "", fmt.Errorf("unknown tag policy %q (want first or concat)", s)
	}
}

// Lookup returns the raw value of a metadata tag, or "" when absent.
type Lookup interface {
	Lookup(tag string) string
}

// ElementSpec is the uncompiled form of one status line element.
type ElementSpec struct {
	Tags         []string
	Policy       TagPolicy
	TagSeparator string
	Conversions  []CaseConversion
	Patterns     []Pattern
}

// Spec describes the whole status line.
type Spec struct {
	Elements []ElementSpec
	Line     []Pattern
	Settings LineSettings
	// Strict turns an invalid pattern into a Compile error instead of
	// disabling that one rule.
	Strict bool
}

type element struct {
	ElementSpec
	chain []Replacement
}

// Formatter builds status lines from metadata. It is compiled once per
// run; invalid rules are dropped at compile time, never retried.
type Formatter struct {
	elements []element
	line     []Replacement
	settings LineSettings
}

// Compile prepares spec for repeated use.
func Compile(spec Spec, logger *slog.Logger) (*Formatter, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	f := &Formatter{settings: spec.Settings}

	compile := func(idx int, patterns []Pattern) ([]Replacement, error) {
		chain := make([]Replacement, 0, len(patterns))
		for _, p := range patterns {
			r, err := CompilePattern(p)
			if err != nil {
				perr := &PatternError{Element: idx, Pattern: p.Regex, Err: err}
				if spec.Strict {
					return nil, perr
				}
				logger.Warn("status line rule disabled", logging.Error(perr))
				continue
			}
			chain = append(chain, r)
		}
		return chain, nil
	}

	for i, es := range spec.Elements {
		chain, err := compile(i, es.Patterns)
		if err != nil {
			return nil, err
		}
		if es.Policy == "" {
			es.Policy = PolicyFirst
		}
		f.elements = append(f.elements, element{ElementSpec: es, chain: chain})
	}

	line, err := compile(-1, spec.Line)
	if err != nil {
		return nil, err
	}
	f.line = line
	return f, nil
}

// Value is the evaluation of one element, kept for diagnostics.
type Value struct {
	Tags  string
	Raw   string
	Found bool
	Text  string
}

// Values evaluates every element against tags, in order.
func (f *Formatter) Values(tags Lookup) []Value {
	out := make([]Value, 0, len(f.elements))
	for _, el := range f.elements {
		v := Value{Tags: strings.Join(el.Tags, " | ")}
		v.Raw, v.Found = el.lookup(tags)
		if v.Found {
			v.Text = Transform(v.Raw, el.Conversions, el.chain)
		}
		out = append(out, v)
	}
	return out
}

// Format returns the status line for tags. With HideEmpty unset, an
// element whose tags are missing still contributes an empty item so line
// rules can rely on positions.
func (f *Formatter) Format(tags Lookup) string {
	values := f.Values(tags)
	items := make([]string, 0, len(values))
	for _, v := range values {
		if !v.Found && f.settings.HideEmpty {
			continue
		}
		items = append(items, v.Text)
	}
	return Assemble(items, f.settings, f.line)
}

func (el element) lookup(tags Lookup) (string, bool) {
	if tags == nil {
		return "", false
	}
	switch el.Policy {
	case PolicyConcat:
		var parts []string
		for _, t := range el.Tags {
			if v := tags.Lookup(t); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, el.TagSeparator), true
	default:
		for _, t := range el.Tags {
			if v := tags.Lookup(t); v != "" {
				return v, true
			}
		}
		return "", false
	}
}
