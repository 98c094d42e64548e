package statusline

import "strings"

// DefaultSeparator joins status line items unless configured otherwise.
const DefaultSeparator = ", "

// LineSettings controls how element values are joined into one line.
type LineSettings struct {
	Separator string
	Uniquify  bool
	HideEmpty bool
}

// DefaultLineSettings hides empty values and drops repeats.
func DefaultLineSettings() LineSettings {
	return LineSettings{Separator: DefaultSeparator, Uniquify: true, HideEmpty: true}
}

// Assemble joins values into the status line. Empty values are dropped
// when HideEmpty is set, later repeats of a surviving value are dropped
// when Uniquify is set, and rules then run over the joined string. No
// other cleanup happens: leftover separators are for the rules to handle.
func Assemble(values []string, settings LineSettings, rules []Replacement) string {
	kept := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if settings.HideEmpty && v == "" {
			continue
		}
		if settings.Uniquify {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
		}
		kept = append(kept, v)
	}
	return applyChain(strings.Join(kept, settings.Separator), rules)
}
