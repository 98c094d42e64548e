package statusline

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Case names a letter case convention.
type Case string

const (
	CaseNone     Case = ""
	CaseUpper    Case = "upper"
	CaseLower    Case = "lower"
	CaseTitle    Case = "title"
	CaseSentence Case = "sentence"
	CaseFlat     Case = "flat"
	CaseSnake    Case = "snake"
	CaseKebab    Case = "kebab"
	CaseCamel    Case = "camel"
)

var knownCases = []Case{CaseUpper, CaseLower, CaseTitle, CaseSentence, CaseFlat, CaseSnake, CaseKebab, CaseCamel}

// ParseCase accepts a case name in any spelling ("Title", "snake_case",
// "UPPER") and returns the matching Case.
func ParseCase(name string) (Case, error) {
	flat := strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
	if flat == "" {
		return CaseNone, nil
	}
	if trimmed := strings.TrimSuffix(flat, "case"); trimmed != "" {
		flat = trimmed
	}
	for _, c := range knownCases {
		if string(c) == flat {
			return c, nil
		}
	}
	return CaseNone, fmt.Errorf("unknown case %q", name)
}

// CaseConversion converts text written in From into To. From only decides
// how the input is split into words; an empty From converts the whole
// string in place where the target case allows it.
type CaseConversion struct {
	From Case
	To   Case
}

// Capitalize is the conversion applied by the `capitalize` shorthand:
// upper case input rewritten as Title Case.
var Capitalize = CaseConversion{From: CaseUpper, To: CaseTitle}

// Apply converts s.
func (c CaseConversion) Apply(s string) string {
	if c.To == CaseNone {
		return s
	}
	if c.From == CaseNone {
		switch c.To {
		case CaseUpper:
			return cases.Upper(language.Und).String(s)
		case CaseLower:
			return cases.Lower(language.Und).String(s)
		case CaseTitle:
			return cases.Title(language.Und).String(s)
		}
	}
	return joinWords(splitWords(s, c.From), c.To)
}

func splitWords(s string, from Case) []string {
	switch from {
	case CaseSnake:
		return strings.FieldsFunc(s, func(r rune) bool { return r == '_' || unicode.IsSpace(r) })
	case CaseKebab:
		return strings.FieldsFunc(s, func(r rune) bool { return r == '-' || unicode.IsSpace(r) })
	case CaseCamel:
		var words []string
		for _, field := range strings.Fields(s) {
			words = append(words, splitCamel(field)...)
		}
		return words
	default:
		return strings.Fields(s)
	}
}

func splitCamel(s string) []string {
	var (
		words []string
		start int
		prev  rune
	)
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(prev) {
			words = append(words, s[start:i])
			start = i
		}
		prev = r
	}
	return append(words, s[start:])
}

func joinWords(words []string, to Case) string {
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)
	title := cases.Title(language.Und)

	out := make([]string, len(words))
	for i, w := range words {
		switch to {
		case CaseUpper:
			out[i] = upper.String(w)
		case CaseTitle:
			out[i] = title.String(w)
		case CaseSentence:
			if i == 0 {
				out[i] = title.String(w)
			} else {
				out[i] = lower.String(w)
			}
		case CaseCamel:
			if i == 0 {
				out[i] = lower.String(w)
			} else {
				out[i] = title.String(w)
			}
		default:
			out[i] = lower.String(w)
		}
	}

	switch to {
	case CaseFlat, CaseCamel:
		return strings.Join(out, "")
	case CaseSnake:
		return strings.Join(out, "_")
	case CaseKebab:
		return strings.Join(out, "-")
	default:
		return strings.Join(out, " ")
	}
}
