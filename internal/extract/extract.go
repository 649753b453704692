// Package extract builds a structured model of a source file's declarations
// using a structural scan: declaration boundaries are located by brace
// matching or indentation, signatures by pattern matching, with comments and
// string literals excluded from all structural matching.
package extract

import (
	"fmt"
	"strings"

	"github.com/testsmith/testsmith/internal/model"
)

// ParseError reports that source text contained no recognizable declaration
// of the expected kind for the declared language.
type ParseError struct {
	Language model.Language
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s source: %s", e.Language, e.Reason)
}

// Extract parses one source file's text into a SourceModel. It fails with a
// *ParseError when the text contains no recognizable type or function
// declaration for the declared language.
func Extract(sourceText string, lang model.Language) (*model.SourceModel, error) {
	switch lang {
	case model.Java, model.Kotlin:
		return extractBrace(sourceText, lang)
	case model.Python:
		return extractIndent(sourceText)
	default:
		return nil, &ParseError{Language: lang, Reason: "unsupported language"}
	}
}

// lineAt returns the 1-based line number of byte offset off in src.
func lineAt(src string, off int) int {
	return 1 + strings.Count(src[:off], "\n")
}

// scrapeImports collects import statements line by line from the original
// (unstripped) source, in order.
func scrapeImports(src string, f model.Family) []string {
	var imports []string
	for _, line := range strings.Split(src, "\n") {
		t := strings.TrimSpace(line)
		switch f {
		case model.BraceDelimited:
			if strings.HasPrefix(t, "import ") {
				imports = append(imports, strings.TrimSuffix(t, ";"))
			}
		case model.IndentDelimited:
			if strings.HasPrefix(t, "import ") || strings.HasPrefix(t, "from ") {
				imports = append(imports, t)
			}
		}
	}
	return imports
}

// matchDelim returns the offset just past the delimiter closing the one at
// open (e.g. the '(' or '{' at src[open]), or -1 if unbalanced.
func matchDelim(src string, open int, openCh, closeCh byte) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep at nesting depth zero with respect to
// (), [], <> and {}.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '<', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '>':
			// Only close a generic bracket; `->` in function types must not
			// drive the depth negative.
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// collapseWhitespace replaces runs of whitespace with a single space and trims.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
