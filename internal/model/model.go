// Package model defines core data structures for testsmith.
package model

// Language identifies a supported source language.
type Language string

const (
	Java   Language = "java"
	Kotlin Language = "kotlin"
	Python Language = "python"
)

// Family is the structural family a language belongs to. Brace-delimited
// languages share one declaration scanner, indentation-delimited another.
type Family string

const (
	BraceDelimited  Family = "brace"
	IndentDelimited Family = "indent"
)

// Family returns the structural family for the language.
func (l Language) Family() Family {
	if l == Python {
		return IndentDelimited
	}
	return BraceDelimited
}

// extensionMap maps file extensions to languages.
var extensionMap = map[string]Language{
	".java": Java,
	".kt":   Kotlin,
	".py":   Python,
}

// ForExtension returns the language for a file extension, or "" if unsupported.
func ForExtension(ext string) Language {
	return extensionMap[ext]
}

// Visibility is the declared access level of a member.
type Visibility string

const (
	Public    Visibility = "public"
	Private   Visibility = "private"
	Protected Visibility = "protected"
	Package   Visibility = "package"
)

// Parameter is a single declared parameter. Type is "" when the language
// permits untyped parameters and none was declared.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// MemberDescriptor describes one method, function, or constructor.
// Name is always non-empty and StartLine <= EndLine.
type MemberDescriptor struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters,omitempty"`
	ReturnType string      `json:"returnType,omitempty"`
	Visibility Visibility  `json:"visibility"`
	Static     bool        `json:"static,omitempty"`
	StartLine  int         `json:"startLine"`
	EndLine    int         `json:"endLine"`
}

// TypeDescriptor describes one declared type and its members in source order.
type TypeDescriptor struct {
	Name         string             `json:"name"`
	Members      []MemberDescriptor `json:"members,omitempty"`
	Constructors []MemberDescriptor `json:"constructors,omitempty"`
	StartLine    int                `json:"startLine"`
	EndLine      int                `json:"endLine"`
}

// SourceModel is the structured description of one source file. It is built
// once per file and never mutated after extraction.
type SourceModel struct {
	Language          Language           `json:"language"`
	Package           string             `json:"package,omitempty"`
	DeclaredTypes     []TypeDescriptor   `json:"declaredTypes,omitempty"`
	TopLevelFunctions []MemberDescriptor `json:"topLevelFunctions,omitempty"`
	Imports           []string           `json:"imports,omitempty"`

	// SourceText is the full original file text, carried so the generation
	// request is self-contained.
	SourceText string `json:"sourceText,omitempty"`
}

// MemberCount returns the total number of members across declared types and
// top-level functions, constructors included.
func (m *SourceModel) MemberCount() int {
	n := len(m.TopLevelFunctions)
	for i := range m.DeclaredTypes {
		n += len(m.DeclaredTypes[i].Members) + len(m.DeclaredTypes[i].Constructors)
	}
	return n
}

// CommentVerbosity classifies how heavily an example test is commented.
type CommentVerbosity string

const (
	VerbosityMinimal  CommentVerbosity = "minimal"
	VerbosityStandard CommentVerbosity = "standard"
	VerbosityDetailed CommentVerbosity = "detailed"
)

// AssertionCardinality classifies how many assertions an example test makes
// per test method.
type AssertionCardinality string

const (
	SingleAssertion    AssertionCardinality = "single"
	MultipleAssertions AssertionCardinality = "multiple"
)

// StyleProfile is a compact summary of an example test's conventions, used to
// bias generated output toward the same conventions. Derived, never mutated.
type StyleProfile struct {
	CommentVerbosity      CommentVerbosity     `json:"commentVerbosity"`
	AssertionsPerTest     AssertionCardinality `json:"assertionsPerTest"`
	IncludesBoundaryCases bool                 `json:"includesBoundaryCases"`
	AssertionKeywords     []string             `json:"assertionKeywords,omitempty"` // sorted, distinct
}

// DefaultStyleProfile returns the most permissive profile, used when no
// example was given or the example contains no recognizable test constructs.
func DefaultStyleProfile() StyleProfile {
	return StyleProfile{
		CommentVerbosity:  VerbosityStandard,
		AssertionsPerTest: MultipleAssertions,
	}
}

// GenerationRequest is the full, self-contained input handed to the external
// generation capability. It carries no live references back into the pipeline.
type GenerationRequest struct {
	Model        SourceModel       `json:"model"`
	TargetMember *MemberDescriptor `json:"targetMember,omitempty"`
	StyleProfile *StyleProfile     `json:"styleProfile,omitempty"`
	FreeTextHint string            `json:"freeTextHint,omitempty"`
	FrameworkID  string            `json:"frameworkId"`
}

// ValidationMethod says which tier produced a validation verdict.
type ValidationMethod string

const (
	NativeToolchain ValidationMethod = "nativeToolchain"
	Heuristic       ValidationMethod = "heuristic"
)

// ValidationResult is the outcome of syntax validation of generated test code.
type ValidationResult struct {
	SyntaxValid bool             `json:"syntaxValid"`
	Diagnostic  string           `json:"diagnostic,omitempty"`
	MethodUsed  ValidationMethod `json:"methodUsed"`
}
