// Package resolve locates a target member in an extracted source model, or
// ranks near-miss candidates by name similarity when no exact match exists.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/testsmith/testsmith/internal/model"
)

const (
	// similarityThreshold is the minimum score for a name to be suggested.
	similarityThreshold = 0.4

	// maxSuggestions caps how many candidates a MemberNotFoundError carries.
	maxSuggestions = 5
)

// Suggestion is one ranked candidate for a misspelled target name.
type Suggestion struct {
	Name       string
	Similarity float64
}

// MemberNotFoundError reports that no member matched the target name. It
// carries up to five candidates ranked by descending similarity.
type MemberNotFoundError struct {
	Target      string
	Suggestions []Suggestion
}

func (e *MemberNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("member %q not found", e.Target)
	}
	names := make([]string, len(e.Suggestions))
	for i, s := range e.Suggestions {
		names[i] = s.Name
	}
	return fmt.Sprintf("member %q not found, did you mean: %s", e.Target, strings.Join(names, ", "))
}

// Resolve returns the first member of m whose name equals targetName,
// searching top-level functions and then each declared type's members in
// declaration order. When no exact match exists it fails with a
// *MemberNotFoundError carrying ranked suggestions.
func Resolve(m *model.SourceModel, targetName string) (*model.MemberDescriptor, error) {
	candidates := declarationOrder(m)
	for _, c := range candidates {
		if c.Name == targetName {
			return c, nil
		}
	}

	var suggestions []Suggestion
	seen := make(map[string]struct{})
	for _, c := range candidates {
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		if score := Similarity(targetName, c.Name); score >= similarityThreshold {
			suggestions = append(suggestions, Suggestion{Name: c.Name, Similarity: score})
		}
	}
	// Descending similarity; ties keep declaration order.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Similarity > suggestions[j].Similarity
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return nil, &MemberNotFoundError{Target: targetName, Suggestions: suggestions}
}

// declarationOrder lists every member of the model in source order: top-level
// functions first, then each type's constructors and methods merged by line.
func declarationOrder(m *model.SourceModel) []*model.MemberDescriptor {
	var out []*model.MemberDescriptor
	for i := range m.TopLevelFunctions {
		out = append(out, &m.TopLevelFunctions[i])
	}
	for i := range m.DeclaredTypes {
		ty := &m.DeclaredTypes[i]
		start := len(out)
		for j := range ty.Constructors {
			out = append(out, &ty.Constructors[j])
		}
		for j := range ty.Members {
			out = append(out, &ty.Members[j])
		}
		within := out[start:]
		sort.SliceStable(within, func(a, b int) bool {
			return within[a].StartLine < within[b].StartLine
		})
	}
	return out
}

// Similarity returns a normalized name-similarity score in [0, 1], computed
// as 1 - editDistance(a, b) / max(len(a), len(b)). Identical strings score
// 1.0; the score is symmetric and decreases as edit distance grows.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.Distance(a, b, nil)
	return 1.0 - float64(dist)/float64(longest)
}
