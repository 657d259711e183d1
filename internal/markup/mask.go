package markup

import "bytes"

// maskFill replaces expression bytes before the grammar sees them. It is a
// valid unquoted attribute value character and carries no markup meaning.
const maskFill = '_'

// maskExpressions returns a copy of src where the inside of every {...}
// expression in markup is overwritten with maskFill. Braces stay in place
// and the length is unchanged, so offsets from a parse of the masked text
// index the original source. Script and style bodies and comments are not
// touched.
//
// The HTML grammar has no notion of template expressions: unquoted values
// stop at whitespace and a '>' inside an arrow function ends the tag. Masked,
// an expression reads as a single attribute value or a run of text.
func maskExpressions(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	i := 0
	for i < len(src) {
		switch {
		case src[i] == '{':
			end := expressionEnd(src, i)
			maskRange(src, out, i, end)
			i = end
		case bytes.HasPrefix(src[i:], []byte("<!--")):
			end := bytes.Index(src[i+4:], []byte("-->"))
			if end < 0 {
				return out
			}
			i += 4 + end + 3
		case src[i] == '<' && i+1 < len(src) && (src[i+1] == '/' || tagName(src[i+1:]) != ""):
			i = skipTag(src, out, i)
		default:
			i++
		}
	}
	return out
}

// skipTag steps over a tag starting at src[i], masking expressions inside
// it, and over the body of a raw-text element it opens.
func skipTag(src, out []byte, i int) int {
	name := tagName(src[i+1:])
	j := i + 1
	var quote byte
	for j < len(src) {
		c := src[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				j++
			} else if c == '{' {
				end := expressionEnd(src, j)
				maskRange(src, out, j, end)
				j = end
			} else {
				j++
			}
			continue
		case c == '"' || c == '\'':
			quote = c
		case c == '{':
			end := expressionEnd(src, j)
			maskRange(src, out, j, end)
			j = end
			continue
		case c == '>':
			j++
			if name == "script" || name == "style" {
				return skipRawText(src, j, name)
			}
			return j
		}
		j++
	}
	return j
}

func skipRawText(src []byte, i int, name string) int {
	closing := []byte("</" + name)
	end := bytes.Index(bytes.ToLower(src[i:]), closing)
	if end < 0 {
		return len(src)
	}
	return i + end
}

// tagName reads the name at the start of b; it is empty unless b starts
// with a letter.
func tagName(b []byte) string {
	if len(b) == 0 || !(b[0] >= 'a' && b[0] <= 'z' || b[0] >= 'A' && b[0] <= 'Z') {
		return ""
	}
	n := 0
	for n < len(b) && (b[n] >= 'a' && b[n] <= 'z' || b[n] >= 'A' && b[n] <= 'Z' || b[n] >= '0' && b[n] <= '9' || b[n] == ':' || b[n] == '-') {
		n++
	}
	return string(bytes.ToLower(b[:n]))
}

// maskRange fills the expression src[start:end] between its braces. An
// unterminated expression is filled to the end.
func maskRange(src, out []byte, start, end int) {
	if end-1 > start && src[end-1] == '}' {
		end--
	}
	for k := start + 1; k < end; k++ {
		out[k] = maskFill
	}
}

// expressionEnd returns the offset just past the brace that closes the
// expression opened at src[start]. String literals and nested braces are
// skipped. An unterminated expression runs to the end of src.
func expressionEnd(src []byte, start int) int {
	depth := 0
	for i := start; i < len(src); i++ {
		switch c := src[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '"', '\'', '`':
			i = stringEnd(src, i)
		}
	}
	return len(src)
}

// stringEnd returns the offset of the quote closing the literal at src[start].
func stringEnd(src []byte, start int) int {
	q := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case q:
			return i
		case '\n':
			if q != '`' {
				return i
			}
		}
	}
	return len(src) - 1
}
