// Package style derives a compact style profile from a user-supplied example
// test, so generated tests can follow the same conventions.
package style

import (
	"regexp"
	"sort"
	"strings"

	"github.com/testsmith/testsmith/internal/model"
)

const (
	minimalRatio  = 0.1
	detailedRatio = 0.3
)

var (
	// assertionCallRe matches assertion-style call identifiers across the
	// supported frameworks (JUnit assert*/verify, pytest/unittest assert*,
	// testing-style expect*/fail).
	assertionCallRe = regexp.MustCompile(`\b(assert\w*|require\w*|expect\w*|verify|fail)\s*\(`)

	// testHeaderRe matches the start of a test-method block.
	testHeaderRe = regexp.MustCompile(`^\s*(?:@Test\b|@pytest\.|def\s+test\w*|(?:public\s+)?void\s+test\w*|fun\s+test\w*)`)

	// boundaryRe matches boundary sentinels: zero, negative numbers, empty
	// strings and empty collection constructors.
	boundaryRe = regexp.MustCompile(`\b0\b|-\d|""|''|\[\s*\]|emptyList\(|emptyMap\(|Collections\.empty`)
)

// Profile derives a StyleProfile from example test text. It never fails:
// text without recognizable test constructs yields the permissive default.
func Profile(exampleText string) model.StyleProfile {
	p := model.DefaultStyleProfile()
	lines := strings.Split(exampleText, "\n")

	commentLines, codeLines := 0, 0
	keywords := make(map[string]struct{})
	boundary := false
	var headerIdx []int

	for i, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if isComment(t) {
			commentLines++
			continue
		}
		codeLines++
		hasAssertion := false
		for _, mt := range assertionCallRe.FindAllStringSubmatch(line, -1) {
			keywords[mt[1]] = struct{}{}
			hasAssertion = true
		}
		if hasAssertion && boundaryRe.MatchString(line) {
			boundary = true
		}
		if testHeaderRe.MatchString(line) {
			headerIdx = append(headerIdx, i)
		}
	}

	if codeLines > 0 {
		ratio := float64(commentLines) / float64(codeLines)
		switch {
		case ratio < minimalRatio:
			p.CommentVerbosity = model.VerbosityMinimal
		case ratio > detailedRatio:
			p.CommentVerbosity = model.VerbosityDetailed
		}
	}

	// An annotation header and the signature right under it open one block,
	// not two.
	var merged []int
	for _, idx := range headerIdx {
		if len(merged) > 0 {
			prev := merged[len(merged)-1]
			if idx-prev <= 2 && strings.HasPrefix(strings.TrimSpace(lines[prev]), "@") {
				continue
			}
		}
		merged = append(merged, idx)
	}
	headerIdx = merged

	if n := len(headerIdx); n > 0 {
		total := 0
		for k, start := range headerIdx {
			end := len(lines)
			if k+1 < n {
				end = headerIdx[k+1]
			}
			block := strings.Join(lines[start:end], "\n")
			total += len(assertionCallRe.FindAllString(block, -1))
		}
		if float64(total)/float64(n) <= 1 {
			p.AssertionsPerTest = model.SingleAssertion
		}
	}

	p.IncludesBoundaryCases = boundary
	if len(keywords) > 0 {
		p.AssertionKeywords = make([]string, 0, len(keywords))
		for k := range keywords {
			p.AssertionKeywords = append(p.AssertionKeywords, k)
		}
		sort.Strings(p.AssertionKeywords)
	}
	return p
}

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*") ||
		strings.HasPrefix(trimmed, "#")
}
