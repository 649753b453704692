package generate

import (
	"fmt"
	"strings"

	"github.com/testsmith/testsmith/internal/model"
)

// frameworkNames maps framework identifiers to the names used in prompts.
var frameworkNames = map[string]string{
	"junit":    "JUnit 4",
	"pytest":   "pytest",
	"unittest": "unittest",
}

// BuildPrompt renders a generation request into the user prompt. The prompt
// is self-contained: structure summary, target, style constraints, hint, and
// the full source text.
func BuildPrompt(req *model.GenerationRequest) string {
	var b strings.Builder

	framework := frameworkNames[req.FrameworkID]
	if framework == "" {
		framework = req.FrameworkID
	}
	fmt.Fprintf(&b, "Write %s unit tests for the %s source file below.\n\n", framework, req.Model.Language)

	if req.Model.Package != "" {
		fmt.Fprintf(&b, "Package: %s\n", req.Model.Package)
	}
	if len(req.Model.Imports) > 0 {
		fmt.Fprintf(&b, "Imports: %s\n", strings.Join(req.Model.Imports, ", "))
	}
	for i := range req.Model.DeclaredTypes {
		dt := &req.Model.DeclaredTypes[i]
		fmt.Fprintf(&b, "Type %s:\n", dt.Name)
		for j := range dt.Constructors {
			fmt.Fprintf(&b, "  constructor %s\n", signature(&dt.Constructors[j]))
		}
		for j := range dt.Members {
			fmt.Fprintf(&b, "  %s\n", signature(&dt.Members[j]))
		}
	}
	if len(req.Model.TopLevelFunctions) > 0 {
		b.WriteString("Top-level functions:\n")
		for i := range req.Model.TopLevelFunctions {
			fmt.Fprintf(&b, "  %s\n", signature(&req.Model.TopLevelFunctions[i]))
		}
	}

	if req.TargetMember != nil {
		fmt.Fprintf(&b, "\nGenerate tests only for %s. Ignore every other member.\n",
			signature(req.TargetMember))
	} else {
		b.WriteString("\nGenerate tests covering every public member.\n")
	}

	if req.StyleProfile != nil {
		writeStyleConstraints(&b, req.StyleProfile)
	}
	if req.FreeTextHint != "" {
		fmt.Fprintf(&b, "\nAdditional guidance: %s\n", req.FreeTextHint)
	}

	fmt.Fprintf(&b, "\nSource:\n```%s\n%s\n```\n", req.Model.Language, strings.TrimRight(req.Model.SourceText, "\n"))
	b.WriteString("\nReturn only the test source code.\n")
	return b.String()
}

func writeStyleConstraints(b *strings.Builder, p *model.StyleProfile) {
	b.WriteString("\nMatch this test style:\n")
	switch p.CommentVerbosity {
	case model.VerbosityMinimal:
		b.WriteString("  - few or no comments\n")
	case model.VerbosityDetailed:
		b.WriteString("  - thorough comments explaining each step\n")
	default:
		b.WriteString("  - occasional comments where intent is unclear\n")
	}
	if p.AssertionsPerTest == model.SingleAssertion {
		b.WriteString("  - one assertion per test method\n")
	} else {
		b.WriteString("  - multiple assertions per test method where natural\n")
	}
	if p.IncludesBoundaryCases {
		b.WriteString("  - include boundary cases (zero, negative, empty inputs)\n")
	}
	if len(p.AssertionKeywords) > 0 {
		fmt.Fprintf(b, "  - prefer these assertions: %s\n", strings.Join(p.AssertionKeywords, ", "))
	}
}

// signature renders a member as name(params) with the declared return type.
func signature(m *model.MemberDescriptor) string {
	params := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		if p.Type != "" {
			params[i] = p.Name + ": " + p.Type
		} else {
			params[i] = p.Name
		}
	}
	s := fmt.Sprintf("%s(%s)", m.Name, strings.Join(params, ", "))
	if m.ReturnType != "" {
		s += " -> " + m.ReturnType
	}
	if m.Static {
		s = "static " + s
	}
	return s
}

// StripFences removes a surrounding markdown code fence from generated text,
// language tag included. Text without a fence is returned trimmed.
func StripFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	lines := strings.Split(t, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
