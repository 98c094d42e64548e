package statusline

import (
	"fmt"
	"regexp"
)

// Pattern is an uncompiled regex substitution. Replace may reference
// numbered ($1) or named (${name}) groups of Regex.
type Pattern struct {
	Regex   string
	Replace string
}

// Replacement is a compiled Pattern.
type Replacement struct {
	re       *regexp.Regexp
	template string
}

// PatternError reports a pattern that failed to compile. Element is -1
// for line level patterns.
type PatternError struct {
	Element int
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e.Element < 0 {
		return fmt.Sprintf("status_line.replace: invalid regex %q: %v", e.Pattern, e.Err)
	}
	return fmt.Sprintf("status_line.element[%d].replace: invalid regex %q: %v", e.Element, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// CompilePattern compiles p.
func CompilePattern(p Pattern) (Replacement, error) {
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return Replacement{}, err
	}
	return Replacement{re: re, template: p.Replace}, nil
}

// MustCompile is CompilePattern for patterns known to be valid.
func MustCompile(regex, replace string) Replacement {
	r, err := CompilePattern(Pattern{Regex: regex, Replace: replace})
	if err != nil {
		panic(err)
	}
	return r
}

// Apply substitutes every match in s. A pattern that does not match
// returns s unchanged.
func (r Replacement) Apply(s string) string {
	if r.re == nil {
		return s
	}
	return r.re.ReplaceAllString(s, r.template)
}

func (r Replacement) String() string {
	if r.re == nil {
		return ""
	}
	return r.re.String()
}

// Transform turns a raw tag value into display text. Case conversions
// always run first, then each replacement in order on the whole output
// of the previous step.
func Transform(raw string, conversions []CaseConversion, chain []Replacement) string {
	value := raw
	for _, c := range conversions {
		value = c.Apply(value)
	}
	return applyChain(value, chain)
}

func applyChain(s string, chain []Replacement) string {
	for _, r := range chain {
		s = r.Apply(s)
	}
	return s
}
