package extract

import (
	"regexp"
	"strings"

	"github.com/testsmith/testsmith/internal/model"
)

var (
	pyClassRe = regexp.MustCompile(`^([ \t]*)class\s+([A-Za-z_]\w*)`)
	pyDefRe   = regexp.MustCompile(`^([ \t]*)(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
)

// pyDecl is one class or def declaration found in pass one.
type pyDecl struct {
	isClass    bool
	name       string
	indent     int
	startLine  int
	endLine    int
	params     []model.Parameter
	returnType string
}

func extractIndent(src string) (*model.SourceModel, error) {
	stripped, _ := stripLiterals(src, model.IndentDelimited)
	lines := strings.Split(stripped, "\n")

	var decls []pyDecl
	for idx, line := range lines {
		if mt := pyClassRe.FindStringSubmatch(line); mt != nil {
			decls = append(decls, pyDecl{
				isClass:   true,
				name:      mt[2],
				indent:    indentWidth(mt[1]),
				startLine: idx + 1,
			})
			continue
		}
		mt := pyDefRe.FindStringSubmatchIndex(line)
		if mt == nil {
			continue
		}
		d := pyDecl{
			name:      line[mt[4]:mt[5]],
			indent:    indentWidth(line[mt[2]:mt[3]]),
			startLine: idx + 1,
		}
		// The parameter list may span lines; rejoin enough of the source to
		// balance the parentheses.
		stop := idx + 40
		if stop > len(lines) {
			stop = len(lines)
		}
		header := strings.Join(lines[idx:stop], "\n")
		openParen := mt[1] - 1
		if closeParen := matchDelim(header, openParen, '(', ')'); closeParen > 0 {
			d.params = parsePythonParams(header[openParen+1 : closeParen-1])
			d.returnType = pyReturnType(header[closeParen:])
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return nil, &ParseError{Language: model.Python, Reason: "no class or function declaration found"}
	}

	for i := range decls {
		decls[i].endLine = pyBlockEnd(lines, decls[i].startLine, decls[i].indent)
	}

	m := &model.SourceModel{
		Language:   model.Python,
		SourceText: src,
		Imports:    scrapeImports(src, model.IndentDelimited),
	}
	typeIdx := make(map[int]int)
	for i := range decls {
		d := &decls[i]
		if d.isClass {
			m.DeclaredTypes = append(m.DeclaredTypes, model.TypeDescriptor{
				Name:      d.name,
				StartLine: d.startLine,
				EndLine:   d.endLine,
			})
			typeIdx[i] = len(m.DeclaredTypes) - 1
			continue
		}
		md := model.MemberDescriptor{
			Name:       d.name,
			Parameters: d.params,
			ReturnType: d.returnType,
			Visibility: pyVisibility(d.name),
			StartLine:  d.startLine,
			EndLine:    d.endLine,
		}
		enc := pyEnclosing(decls, i)
		switch {
		case enc < 0:
			m.TopLevelFunctions = append(m.TopLevelFunctions, md)
		case decls[enc].isClass:
			ti := typeIdx[enc]
			if d.name == "__init__" {
				m.DeclaredTypes[ti].Constructors = append(m.DeclaredTypes[ti].Constructors, md)
			} else {
				m.DeclaredTypes[ti].Members = append(m.DeclaredTypes[ti].Members, md)
			}
		default:
			// Function nested inside another function body: not a testable
			// unit on its own.
		}
	}
	return m, nil
}

// pyEnclosing returns the index of the innermost declaration whose block
// contains decls[i], or -1 when the declaration is at module level.
func pyEnclosing(decls []pyDecl, i int) int {
	d := &decls[i]
	for j := i - 1; j >= 0; j-- {
		e := &decls[j]
		if e.indent < d.indent && e.startLine < d.startLine && e.endLine >= d.startLine {
			return j
		}
	}
	return -1
}

// pyBlockEnd returns the 1-based last non-blank line of the block opened at
// startLine: the block ends before the next non-blank line indented at or
// below the declaration's own indent.
func pyBlockEnd(lines []string, startLine, indent int) int {
	end := startLine
	for i := startLine; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if indentWidth(line[:len(line)-len(strings.TrimLeft(line, " \t"))]) <= indent {
			break
		}
		end = i + 1
	}
	return end
}

// pyReturnType extracts the `-> Type` annotation between the parameter list
// and the block colon.
func pyReturnType(afterParams string) string {
	colon := strings.IndexByte(afterParams, ':')
	if colon < 0 {
		return ""
	}
	header := strings.TrimSpace(afterParams[:colon])
	if !strings.HasPrefix(header, "->") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "->"))
}

func pyVisibility(name string) model.Visibility {
	if name == "__init__" {
		return model.Public
	}
	if strings.HasPrefix(name, "_") {
		return model.Private
	}
	return model.Public
}

func parsePythonParams(list string) []model.Parameter {
	list = collapseWhitespace(list)
	if list == "" {
		return nil
	}
	var params []model.Parameter
	for _, part := range splitTopLevel(list, ',') {
		part = strings.TrimSpace(splitTopLevel(part, '=')[0])
		if part == "" || part == "/" || strings.HasPrefix(part, "*") {
			continue
		}
		nameType := splitTopLevel(part, ':')
		p := model.Parameter{Name: strings.TrimSpace(nameType[0])}
		if len(nameType) > 1 {
			p.Type = strings.TrimSpace(strings.Join(nameType[1:], ":"))
		}
		params = append(params, p)
	}
	return params
}

// indentWidth measures leading whitespace with tabs counted as eight columns.
func indentWidth(ws string) int {
	w := 0
	for i := 0; i < len(ws); i++ {
		if ws[i] == '\t' {
			w += 8
		} else {
			w++
		}
	}
	return w
}
