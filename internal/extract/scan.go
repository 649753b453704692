package extract

import "github.com/testsmith/testsmith/internal/model"

// stripLiterals blanks out comments and string/char literals, preserving
// newlines and byte offsets, so structural scans can never match inside them.
// The second return reports whether a string literal was left unterminated.
func stripLiterals(src string, f model.Family) (string, bool) {
	if f == model.IndentDelimited {
		return stripIndentFamily(src)
	}
	return stripBraceFamily(src)
}

// Strip returns src with comments and string literals replaced by spaces.
// Line structure is preserved exactly.
func Strip(src string, f model.Family) string {
	s, _ := stripLiterals(src, f)
	return s
}

// HasUnterminatedString reports whether src contains a string literal that is
// never closed before end of line (or end of input for multi-line literals).
func HasUnterminatedString(src string, f model.Family) bool {
	_, unterminated := stripLiterals(src, f)
	return unterminated
}

func stripBraceFamily(src string) (string, bool) {
	out := []byte(src)
	unterminated := false
	i, n := 0, len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				out[i] = ' '
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			out[i], out[i+1] = ' ', ' '
			i += 2
			for i < n {
				if src[i] == '*' && i+1 < n && src[i+1] == '/' {
					out[i], out[i+1] = ' ', ' '
					i += 2
					break
				}
				if src[i] != '\n' {
					out[i] = ' '
				}
				i++
			}
		case c == '"' && i+2 < n && src[i+1] == '"' && src[i+2] == '"':
			// Raw string (Kotlin) or text block (Java). May span lines.
			var closed bool
			i, closed = blankTriple(src, out, i, '"')
			if !closed {
				unterminated = true
			}
		case c == '"' || c == '\'':
			var closed bool
			i, closed = blankSingleLine(src, out, i)
			if !closed {
				unterminated = true
			}
		default:
			i++
		}
	}
	return string(out), unterminated
}

func stripIndentFamily(src string) (string, bool) {
	out := []byte(src)
	unterminated := false
	i, n := 0, len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '#':
			for i < n && src[i] != '\n' {
				out[i] = ' '
				i++
			}
		case (c == '"' || c == '\'') && i+2 < n && src[i+1] == c && src[i+2] == c:
			var closed bool
			i, closed = blankTriple(src, out, i, c)
			if !closed {
				unterminated = true
			}
		case c == '"' || c == '\'':
			var closed bool
			i, closed = blankSingleLine(src, out, i)
			if !closed {
				unterminated = true
			}
		default:
			i++
		}
	}
	return string(out), unterminated
}

// blankSingleLine blanks a quoted literal that must close on the same line.
// Returns the index after the literal and whether it was closed.
func blankSingleLine(src string, out []byte, i int) (int, bool) {
	n := len(src)
	quote := src[i]
	out[i] = ' '
	i++
	for i < n {
		switch {
		case src[i] == '\\' && i+1 < n:
			out[i] = ' '
			if src[i+1] != '\n' {
				out[i+1] = ' '
			}
			i += 2
		case src[i] == quote:
			out[i] = ' '
			return i + 1, true
		case src[i] == '\n':
			return i, false
		default:
			out[i] = ' '
			i++
		}
	}
	return i, false
}

// blankTriple blanks a triple-quoted literal, which may span lines.
func blankTriple(src string, out []byte, i int, quote byte) (int, bool) {
	n := len(src)
	out[i], out[i+1], out[i+2] = ' ', ' ', ' '
	i += 3
	for i < n {
		if src[i] == quote && i+2 < n && src[i+1] == quote && src[i+2] == quote {
			out[i], out[i+1], out[i+2] = ' ', ' ', ' '
			return i + 3, true
		}
		if src[i] != '\n' {
			out[i] = ' '
		}
		i++
	}
	return i, false
}
