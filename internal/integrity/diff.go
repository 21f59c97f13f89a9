package integrity

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// diffContext is the number of unchanged lines shown around each hunk.
const diffContext = 3

// unifiedDiff renders a classic unified diff between the baselined backup
// and the current content of a mutated section. Returns an empty string when
// difflib cannot produce a patch; the deviation itself still stands.
func unifiedDiff(name, baseline, current string) string {
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(baseline),
		B:        difflib.SplitLines(current),
		FromFile: name + " (baseline)",
		ToFile:   name + " (current)",
		Context:  diffContext,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return strings.TrimRight(s, "\n")
}
