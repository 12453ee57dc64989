// Package compare aligns the prompts of one application as stored in two
// environments and classifies every prompt name.
package compare

import (
	"fmt"
	"slices"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/JaimeStill/promptrepo/internal/document"
)

// Kind classifies a prompt name across both sides.
type Kind string

const (
	KindOnlyLeft  Kind = "only_left"
	KindOnlyRight Kind = "only_right"
	KindIdentical Kind = "identical"
	KindModified  Kind = "modified"
)

const (
	StatusIdentical = "identical"
	StatusModified  = "modified"

	diffContext = 3
)

// OnlyIn is the status of a prompt present only on the side with label.
func OnlyIn(label string) string {
	return "only in " + label
}

// Entry is the comparable view of one prompt.
type Entry struct {
	Content            string  `json:"content"`
	Description        *string `json:"description,omitempty"`
	LocationIdentifier *string `json:"location_identifier,omitempty"`
}

// Result is the comparison of one prompt name.
type Result struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Status  string `json:"status"`
	Changes int    `json:"changes"`
	Diff    string `json:"diff,omitempty"`
	Left    *Entry `json:"left,omitempty"`
	Right   *Entry `json:"right,omitempty"`
}

// Summary counts results by kind.
type Summary struct {
	OnlyLeft  int `json:"only_left"`
	OnlyRight int `json:"only_right"`
	Identical int `json:"identical"`
	Modified  int `json:"modified"`
	Changes   int `json:"changes"`
}

// NamedMap indexes an application's prompts by name. A later prompt with a
// duplicate name replaces the earlier one. A nil application yields an empty map.
func NamedMap(app *document.Application) map[string]Entry {
	out := make(map[string]Entry)
	if app == nil {
		return out
	}
	for _, p := range app.Prompts {
		out[p.Name] = Entry{
			Content:            document.JoinContent(p.Content),
			Description:        p.Description,
			LocationIdentifier: p.LocationIdentifier,
		}
	}
	return out
}

// Compare classifies every prompt name found in a or b. Results are ordered
// by name. Only content is compared; description and location differences
// do not make a prompt modified.
func Compare(a, b *document.Application, labelA, labelB string) ([]Result, error) {
	left := NamedMap(a)
	right := NamedMap(b)

	names := make([]string, 0, len(left)+len(right))
	for name := range left {
		names = append(names, name)
	}
	for name := range right {
		if _, ok := left[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	results := make([]Result, 0, len(names))
	for _, name := range names {
		l, inLeft := left[name]
		r, inRight := right[name]

		switch {
		case !inRight:
			results = append(results, Result{
				Name: name, Kind: KindOnlyLeft, Status: OnlyIn(labelA), Changes: 1, Left: &l,
			})
		case !inLeft:
			results = append(results, Result{
				Name: name, Kind: KindOnlyRight, Status: OnlyIn(labelB), Changes: 1, Right: &r,
			})
		case l.Content == r.Content:
			results = append(results, Result{
				Name: name, Kind: KindIdentical, Status: StatusIdentical, Left: &l, Right: &r,
			})
		default:
			diff, err := Diff(l.Content, r.Content, labelA, labelB)
			if err != nil {
				return nil, fmt.Errorf("diff %s: %w", name, err)
			}
			results = append(results, Result{
				Name:    name,
				Kind:    KindModified,
				Status:  StatusModified,
				Changes: CountChanges(l.Content, r.Content),
				Diff:    diff,
				Left:    &l,
				Right:   &r,
			})
		}
	}
	return results, nil
}

// Diff renders a unified line diff from a to b.
func Diff(a, b, labelA, labelB string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        lines(a),
		B:        lines(b),
		FromFile: labelA,
		ToFile:   labelB,
		Context:  diffContext,
	})
}

// CountChanges counts the lines removed from a plus the lines added in b.
// Empty content has no lines.
func CountChanges(a, b string) int {
	n := 0
	for _, op := range difflib.NewMatcher(lines(a), lines(b)).GetOpCodes() {
		switch op.Tag {
		case 'd':
			n += op.I2 - op.I1
		case 'i':
			n += op.J2 - op.J1
		case 'r':
			n += op.I2 - op.I1 + op.J2 - op.J1
		}
	}
	return n
}

func lines(s string) []string {
	if s == "" {
		return nil
	}
	return difflib.SplitLines(s)
}

// Summarize counts results by kind and totals their changes.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Kind {
		case KindOnlyLeft:
			s.OnlyLeft++
		case KindOnlyRight:
			s.OnlyRight++
		case KindIdentical:
			s.Identical++
		case KindModified:
			s.Modified++
		}
		s.Changes += r.Changes
	}
	return s
}

// Differs reports whether any result is not identical.
func (s Summary) Differs() bool {
	return s.OnlyLeft+s.OnlyRight+s.Modified > 0
}
