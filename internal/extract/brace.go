package extract

import (
	"regexp"
	"strings"

	"github.com/testsmith/testsmith/internal/model"
)

var (
	bracePackageRe = regexp.MustCompile(`(?m)^[ \t]*package\s+([A-Za-z_][\w.]*)`)

	braceTypeRe = regexp.MustCompile(`(?m)^[ \t]*(?:(public|private|protected|internal)\s+)?` +
		`(?:(?:abstract|final|static|sealed|open|data|inner|annotation|companion)\s+)*` +
		`(?:class|interface|enum|object)\s+([A-Za-z_]\w*)`)

	javaMethodRe = regexp.MustCompile(`(?m)^[ \t]*(?:(public|private|protected)\s+)?` +
		`((?:(?:static|final|abstract|synchronized|native|default|strictfp)\s+)*)` +
		`(?:<[^<>]*>\s+)?([\w$.]+(?:<[^(){};]*>)?(?:\[\])*)\s+([A-Za-z_$]\w*)\s*\(`)

	kotlinFunRe = regexp.MustCompile(`(?m)^[ \t]*(?:(public|private|protected|internal)\s+)?` +
		`((?:(?:override|open|final|suspend|inline|operator|infix|tailrec|abstract|external)\s+)*)` +
		`fun\s+(?:<[^<>]*>\s+)?(?:[\w.]+\.)?([A-Za-z_]\w*)\s*\(`)

	kotlinCtorRe = regexp.MustCompile(`(?m)^[ \t]*(?:(public|private|protected|internal)\s+)?constructor\s*\(`)
)

// braceKeywords are tokens that look like a return type or member name in a
// structural match but introduce statements instead.
var braceKeywords = map[string]bool{
	"if": true, "else": true, "while": true, "for": true, "switch": true,
	"return": true, "new": true, "catch": true, "throw": true, "throws": true,
	"do": true, "case": true, "try": true, "assert": true, "super": true,
	"this": true, "break": true, "continue": true, "when": true,
	"val": true, "var": true, "fun": true, "package": true, "import": true,
}

func extractBrace(src string, lang model.Language) (*model.SourceModel, error) {
	stripped, _ := stripLiterals(src, model.BraceDelimited)

	m := &model.SourceModel{
		Language:   lang,
		SourceText: src,
		Imports:    scrapeImports(src, model.BraceDelimited),
	}
	if pkg := bracePackageRe.FindStringSubmatch(stripped); pkg != nil {
		m.Package = pkg[1]
	}

	m.DeclaredTypes = braceTypes(stripped, 0, len(stripped), lang)
	if lang == model.Kotlin {
		m.TopLevelFunctions = kotlinFunctions(stripped, 0, len(stripped))
	}

	if len(m.DeclaredTypes) == 0 && len(m.TopLevelFunctions) == 0 {
		return nil, &ParseError{Language: lang, Reason: "no class or function declaration found"}
	}
	return m, nil
}

// braceDepths returns the brace depth, relative to lo, at each of the given
// sorted absolute offsets within s[lo:hi].
func braceDepths(s string, lo, hi int, offs []int) []int {
	depths := make([]int, len(offs))
	depth := 0
	j := 0
	for i := lo; i < hi && j < len(offs); i++ {
		for j < len(offs) && offs[j] == i {
			depths[j] = depth
			j++
		}
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depths
}

// braceTypes finds type declarations at brace depth zero within s[lo:hi] and
// recurses into their bodies, returning the flattened list in source order.
func braceTypes(s string, lo, hi int, lang model.Language) []model.TypeDescriptor {
	matches := braceTypeRe.FindAllStringSubmatchIndex(s[lo:hi], -1)
	if matches == nil {
		return nil
	}
	offs := make([]int, len(matches))
	for k, mt := range matches {
		offs[k] = lo + mt[0]
	}
	depths := braceDepths(s, lo, hi, offs)

	var types []model.TypeDescriptor
	for k, mt := range matches {
		if depths[k] != 0 {
			continue
		}
		name := s[lo+mt[4] : lo+mt[5]]
		td := model.TypeDescriptor{Name: name, StartLine: lineAt(s, lo+mt[0])}

		declEnd := lo + mt[1]
		var primaryCtor *model.MemberDescriptor
		if lang == model.Kotlin {
			p := skipGenerics(s, declEnd)
			if p < hi && s[p] == '(' {
				if closeParen := matchDelim(s[:hi], p, '(', ')'); closeParen > 0 {
					primaryCtor = &model.MemberDescriptor{
						Name:       name,
						Parameters: parseKotlinParams(s[p+1 : closeParen-1]),
						Visibility: model.Public,
						StartLine:  td.StartLine,
						EndLine:    lineAt(s, closeParen-1),
					}
					declEnd = closeParen
				}
			}
		}

		open := braceBodyOpen(s, declEnd, hi, lang)
		if open < 0 {
			// Body-less declaration, e.g. a Kotlin data class.
			td.EndLine = td.StartLine
			if primaryCtor != nil {
				td.Constructors = []model.MemberDescriptor{*primaryCtor}
			}
			types = append(types, td)
			continue
		}
		end := matchDelim(s[:hi], open, '{', '}')
		if end < 0 {
			end = hi
		}
		td.EndLine = lineAt(s, end-1)

		bodyLo, bodyHi := open+1, end-1
		td.Members, td.Constructors = braceMembers(s, bodyLo, bodyHi, lang, name)
		if primaryCtor != nil {
			td.Constructors = append([]model.MemberDescriptor{*primaryCtor}, td.Constructors...)
		}
		types = append(types, td)
		types = append(types, braceTypes(s, bodyLo, bodyHi, lang)...)
	}
	return types
}

func braceMembers(s string, lo, hi int, lang model.Language, typeName string) (members, ctors []model.MemberDescriptor) {
	if lang == model.Kotlin {
		return kotlinFunctions(s, lo, hi), kotlinSecondaryCtors(s, lo, hi, typeName)
	}
	return javaMethods(s, lo, hi), javaCtors(s, lo, hi, typeName)
}

func javaMethods(s string, lo, hi int) []model.MemberDescriptor {
	matches := javaMethodRe.FindAllStringSubmatchIndex(s[lo:hi], -1)
	offs := make([]int, len(matches))
	for k, mt := range matches {
		offs[k] = lo + mt[0]
	}
	depths := braceDepths(s, lo, hi, offs)

	var out []model.MemberDescriptor
	for k, mt := range matches {
		if depths[k] != 0 {
			continue
		}
		retType := s[lo+mt[6] : lo+mt[7]]
		name := s[lo+mt[8] : lo+mt[9]]
		if braceKeywords[retType] || braceKeywords[name] {
			continue
		}
		openParen := lo + mt[1] - 1
		closeParen := matchDelim(s[:hi], openParen, '(', ')')
		if closeParen < 0 {
			continue
		}
		md := model.MemberDescriptor{
			Name:       name,
			Parameters: parseJavaParams(s[openParen+1 : closeParen-1]),
			ReturnType: retType,
			Visibility: javaVisibility(group(s, lo, mt, 1)),
			Static:     strings.Contains(group(s, lo, mt, 2), "static"),
			StartLine:  lineAt(s, lo+mt[0]),
		}
		md.EndLine = lineAt(s, memberEnd(s, closeParen, hi)-1)
		out = append(out, md)
	}
	return out
}

func javaCtors(s string, lo, hi int, typeName string) []model.MemberDescriptor {
	ctorRe := regexp.MustCompile(`(?m)^[ \t]*(?:(public|private|protected)\s+)?` + regexp.QuoteMeta(typeName) + `\s*\(`)
	matches := ctorRe.FindAllStringSubmatchIndex(s[lo:hi], -1)
	offs := make([]int, len(matches))
	for k, mt := range matches {
		offs[k] = lo + mt[0]
	}
	depths := braceDepths(s, lo, hi, offs)

	var out []model.MemberDescriptor
	for k, mt := range matches {
		if depths[k] != 0 {
			continue
		}
		openParen := lo + mt[1] - 1
		closeParen := matchDelim(s[:hi], openParen, '(', ')')
		if closeParen < 0 {
			continue
		}
		md := model.MemberDescriptor{
			Name:       typeName,
			Parameters: parseJavaParams(s[openParen+1 : closeParen-1]),
			Visibility: javaVisibility(group(s, lo, mt, 1)),
			StartLine:  lineAt(s, lo+mt[0]),
		}
		md.EndLine = lineAt(s, memberEnd(s, closeParen, hi)-1)
		out = append(out, md)
	}
	return out
}

func kotlinFunctions(s string, lo, hi int) []model.MemberDescriptor {
	matches := kotlinFunRe.FindAllStringSubmatchIndex(s[lo:hi], -1)
	offs := make([]int, len(matches))
	for k, mt := range matches {
		offs[k] = lo + mt[0]
	}
	depths := braceDepths(s, lo, hi, offs)

	var out []model.MemberDescriptor
	for k, mt := range matches {
		if depths[k] != 0 {
			continue
		}
		name := s[lo+mt[6] : lo+mt[7]]
		if braceKeywords[name] {
			continue
		}
		openParen := lo + mt[1] - 1
		closeParen := matchDelim(s[:hi], openParen, '(', ')')
		if closeParen < 0 {
			continue
		}
		md := model.MemberDescriptor{
			Name:       name,
			Parameters: parseKotlinParams(s[openParen+1 : closeParen-1]),
			ReturnType: kotlinReturnType(s, closeParen, hi),
			Visibility: kotlinVisibility(group(s, lo, mt, 1)),
			StartLine:  lineAt(s, lo+mt[0]),
		}
		md.EndLine = lineAt(s, kotlinMemberEnd(s, closeParen, hi)-1)
		out = append(out, md)
	}
	return out
}

func kotlinSecondaryCtors(s string, lo, hi int, typeName string) []model.MemberDescriptor {
	matches := kotlinCtorRe.FindAllStringSubmatchIndex(s[lo:hi], -1)
	offs := make([]int, len(matches))
	for k, mt := range matches {
		offs[k] = lo + mt[0]
	}
	depths := braceDepths(s, lo, hi, offs)

	var out []model.MemberDescriptor
	for k, mt := range matches {
		if depths[k] != 0 {
			continue
		}
		openParen := lo + mt[1] - 1
		closeParen := matchDelim(s[:hi], openParen, '(', ')')
		if closeParen < 0 {
			continue
		}
		md := model.MemberDescriptor{
			Name:       typeName,
			Parameters: parseKotlinParams(s[openParen+1 : closeParen-1]),
			Visibility: kotlinVisibility(group(s, lo, mt, 1)),
			StartLine:  lineAt(s, lo+mt[0]),
		}
		md.EndLine = lineAt(s, kotlinMemberEnd(s, closeParen, hi)-1)
		out = append(out, md)
	}
	return out
}

// braceBodyOpen finds the '{' opening a type body after its declaration
// header, or -1 when the declaration has no body (possible in Kotlin). The
// header continues across lines while inside parentheses or when the next
// line resumes it with ':', ',' or the brace itself.
func braceBodyOpen(s string, from, hi int, lang model.Language) int {
	if lang != model.Kotlin {
		if open := strings.IndexByte(s[from:hi], '{'); open >= 0 {
			return from + open
		}
		return -1
	}
	depth := 0
	for i := from; i < hi; i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '{':
			if depth == 0 {
				return i
			}
		case '\n':
			if depth > 0 {
				continue
			}
			j := i
			for j < hi && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < hi && (s[j] == '{' || s[j] == ':' || s[j] == ',') {
				i = j - 1
				continue
			}
			return -1
		}
	}
	return -1
}

// group returns the text of capture group g in a submatch index slice, or ""
// when the group did not participate.
func group(s string, lo int, mt []int, g int) string {
	if mt[2*g] < 0 {
		return ""
	}
	return s[lo+mt[2*g] : lo+mt[2*g+1]]
}

// memberEnd finds the offset just past the end of a Java member whose
// parameter list closes at closeParen: the matching '}' of its body, or the
// terminating ';' of an abstract or interface declaration.
func memberEnd(s string, closeParen, hi int) int {
	for i := closeParen; i < hi; i++ {
		switch s[i] {
		case '{':
			if e := matchDelim(s[:hi], i, '{', '}'); e > 0 {
				return e
			}
			return hi
		case ';':
			return i + 1
		}
	}
	return hi
}

// kotlinMemberEnd is memberEnd for Kotlin, where an expression-bodied
// function ends at its line rather than at a brace or semicolon.
func kotlinMemberEnd(s string, closeParen, hi int) int {
	for i := closeParen; i < hi; i++ {
		switch s[i] {
		case '{':
			if e := matchDelim(s[:hi], i, '{', '}'); e > 0 {
				return e
			}
			return hi
		case '=':
			for i < hi && s[i] != '\n' {
				i++
			}
			return i
		case '\n':
			return i
		}
	}
	return hi
}

// kotlinReturnType extracts the `: Type` annotation between a function's
// parameter list and its body, if present.
func kotlinReturnType(s string, closeParen, hi int) string {
	end := closeParen
	for end < hi && s[end] != '{' && s[end] != '=' && s[end] != '\n' {
		end++
	}
	header := strings.TrimSpace(s[closeParen:end])
	if !strings.HasPrefix(header, ":") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, ":"))
}

func skipGenerics(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if i < len(s) && s[i] == '<' {
		if e := matchDelim(s, i, '<', '>'); e > 0 {
			i = e
		}
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	return i
}

func javaVisibility(keyword string) model.Visibility {
	switch keyword {
	case "public":
		return model.Public
	case "private":
		return model.Private
	case "protected":
		return model.Protected
	default:
		return model.Package
	}
}

func kotlinVisibility(keyword string) model.Visibility {
	switch keyword {
	case "private":
		return model.Private
	case "protected":
		return model.Protected
	case "internal":
		return model.Package
	default:
		return model.Public
	}
}

func parseJavaParams(list string) []model.Parameter {
	list = collapseWhitespace(list)
	if list == "" {
		return nil
	}
	var params []model.Parameter
	for _, part := range splitTopLevel(list, ',') {
		fields := strings.Fields(part)
		var kept []string
		for _, f := range fields {
			if strings.HasPrefix(f, "@") || f == "final" {
				continue
			}
			kept = append(kept, f)
		}
		if len(kept) == 0 {
			continue
		}
		p := model.Parameter{Name: kept[len(kept)-1]}
		p.Type = strings.Join(kept[:len(kept)-1], " ")
		params = append(params, p)
	}
	return params
}

func parseKotlinParams(list string) []model.Parameter {
	list = collapseWhitespace(list)
	if list == "" {
		return nil
	}
	var params []model.Parameter
	for _, part := range splitTopLevel(list, ',') {
		part = strings.TrimSpace(splitTopLevel(part, '=')[0])
		for _, mod := range []string{"vararg ", "crossinline ", "noinline ", "private ", "protected ", "internal ", "public ", "override ", "val ", "var "} {
			part = strings.TrimPrefix(part, mod)
		}
		if part == "" {
			continue
		}
		nameType := splitTopLevel(part, ':')
		p := model.Parameter{Name: strings.TrimSpace(nameType[0])}
		if len(nameType) > 1 {
			p.Type = strings.TrimSpace(strings.Join(nameType[1:], ":"))
		}
		if p.Name == "" {
			continue
		}
		params = append(params, p)
	}
	return params
}
