package validate

import (
	"regexp"
	"strings"

	"github.com/testsmith/testsmith/internal/extract"
	"github.com/testsmith/testsmith/internal/model"
)

// heuristicCheck is one named structural check. The name doubles as the
// diagnostic when the check fails.
type heuristicCheck struct {
	name string
	fn   func(text string, lang model.Language, frameworkID string) bool
}

var heuristicChecks = []heuristicCheck{
	{"balanced delimiters", checkBalancedDelimiters},
	{"framework markers", checkFrameworkMarkers},
	{"test declaration", checkTestDeclaration},
	{"unterminated string literal", checkTerminatedStrings},
	{"statement termination", checkStatementTermination},
}

// heuristicValidate runs the checks in order and reports the first failure.
func heuristicValidate(text string, lang model.Language, frameworkID string) model.ValidationResult {
	for _, c := range heuristicChecks {
		if !c.fn(text, lang, frameworkID) {
			return model.ValidationResult{
				SyntaxValid: false,
				Diagnostic:  c.name,
				MethodUsed:  model.Heuristic,
			}
		}
	}
	return model.ValidationResult{SyntaxValid: true, MethodUsed: model.Heuristic}
}

var delimPairs = [...][2]byte{{'{', '}'}, {'(', ')'}, {'[', ']'}}

func checkBalancedDelimiters(text string, lang model.Language, _ string) bool {
	stripped := extract.Strip(text, lang.Family())
	for _, pair := range delimPairs {
		depth := 0
		for i := 0; i < len(stripped); i++ {
			switch stripped[i] {
			case pair[0]:
				depth++
			case pair[1]:
				depth--
				if depth < 0 {
					return false
				}
			}
		}
		if depth != 0 {
			return false
		}
	}
	return true
}

// frameworkMarkers holds substrings, any one of which marks text as belonging
// to the framework.
var frameworkMarkers = map[string][]string{
	"junit":    {"org.junit", "@Test"},
	"pytest":   {"import pytest", "def test_"},
	"unittest": {"import unittest", "unittest.TestCase"},
}

func checkFrameworkMarkers(text string, _ model.Language, frameworkID string) bool {
	markers, ok := frameworkMarkers[frameworkID]
	if !ok {
		return true
	}
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

var (
	braceTestDeclRe  = regexp.MustCompile(`@Test\b|\bvoid\s+test\w*\s*\(|\bfun\s+test\w*\s*\(`)
	indentTestDeclRe = regexp.MustCompile(`(?m)^\s*def\s+test\w*\s*\(`)
)

func checkTestDeclaration(text string, lang model.Language, _ string) bool {
	if lang.Family() == model.IndentDelimited {
		return indentTestDeclRe.MatchString(text)
	}
	return braceTestDeclRe.MatchString(text)
}

func checkTerminatedStrings(text string, lang model.Language, _ string) bool {
	return !extract.HasUnterminatedString(text, lang.Family())
}

// statementContinuations are line endings after which no terminator is
// expected: an open delimiter, a separator, or a binary operator that carries
// the statement onto the next line.
var statementContinuations = []string{
	";", "{", "}", "(", ",", ":", "->", "&&", "||", "+", "=", ")", ">", "<",
}

// checkStatementTermination flags Java lines that look like statements but
// carry no terminator. Kotlin and Python have no mandatory terminator, so
// they always pass.
func checkStatementTermination(text string, lang model.Language, _ string) bool {
	if lang != model.Java {
		return true
	}
	stripped := extract.Strip(text, lang.Family())
	for _, line := range strings.Split(stripped, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "@") {
			continue
		}
		terminated := false
		for _, suffix := range statementContinuations {
			if strings.HasSuffix(t, suffix) {
				terminated = true
				break
			}
		}
		if !terminated {
			return false
		}
	}
	return true
}
