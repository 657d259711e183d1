package objlit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

type frame struct {
	object    bool
	path      string
	expectKey bool
	key       string // most recent key, names nested containers
}

// rewrite turns a loose object literal into strict JSON and records key order
// per object path. Arrays share their parent's path with their elements.
func rewrite(text string) (string, map[string][]string, error) {
	out := make([]byte, 0, len(text)+32)
	order := make(map[string][]string)
	var stack []*frame

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}
	childPath := func() string {
		f := top()
		switch {
		case f == nil:
			return ""
		case !f.object:
			return f.path
		case f.path == "":
			return f.key
		default:
			return f.path + "." + f.key
		}
	}
	addKey := func(f *frame, key string) {
		f.key = key
		f.expectKey = false
		for _, k := range order[f.path] {
			if k == key {
				return
			}
		}
		order[f.path] = append(order[f.path], key)
	}

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case isSpace(c):
			out = append(out, c)
			i++

		case c == '{' || c == '[':
			f := &frame{object: c == '{', path: childPath(), expectKey: c == '{'}
			if f.object {
				if _, ok := order[f.path]; !ok {
					order[f.path] = []string{}
				}
			}
			stack = append(stack, f)
			out = append(out, c)
			i++

		case c == '}' || c == ']':
			f := top()
			if f == nil || f.object != (c == '}') {
				return "", nil, fmt.Errorf("unexpected %q at offset %d", c, i)
			}
			stack = stack[:len(stack)-1]
			out = dropTrailingComma(out)
			out = append(out, c)
			i++

		case c == ',':
			if f := top(); f != nil && f.object {
				f.expectKey = true
			}
			out = append(out, c)
			i++

		case c == ':':
			out = append(out, c)
			i++

		case c == '"' || c == '\'':
			s, n, err := quoted(text[i:])
			if err != nil {
				return "", nil, fmt.Errorf("offset %d: %w", i, err)
			}
			if f := top(); f != nil && f.object && f.expectKey {
				addKey(f, s)
			}
			out = appendJSONString(out, s)
			i += n

		default:
			if f := top(); f != nil && f.object && f.expectKey {
				n := keyLen(text[i:])
				addKey(f, text[i:i+n])
				out = appendJSONString(out, text[i:i+n])
				i += n
				continue
			}
			n := valueLen(text[i:])
			word := strings.TrimRight(text[i:i+n], " \t")
			if isLiteral(word) {
				out = append(out, word...)
			} else {
				out = appendJSONString(out, word)
			}
			out = append(out, text[i+len(word):i+n]...)
			i += n
		}
	}
	if len(stack) > 0 {
		return "", nil, errors.New("unbalanced braces")
	}
	return string(out), order, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLiteral(word string) bool {
	switch word {
	case "true", "false", "null":
		return true
	}
	return jsonNumber.MatchString(word)
}

// keyLen measures a bareword key: it stops at whitespace or structure.
func keyLen(s string) int {
	n := strings.IndexAny(s, " \t\r\n:,{}[]\"'")
	if n < 0 {
		return len(s)
	}
	if n == 0 {
		return 1
	}
	return n
}

// valueLen measures a bareword value, which may contain spaces.
func valueLen(s string) int {
	n := strings.IndexAny(s, ",{}[]\r\n")
	if n < 0 {
		return len(s)
	}
	if n == 0 {
		return 1
	}
	return n
}

// quoted decodes a single or double quoted string starting at s[0] and
// returns its content and the number of bytes consumed.
func quoted(s string) (string, int, error) {
	q := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == q:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(s):
			i++
			switch e := s[i]; e {
			case '\'', '"', '\\', '/':
				b.WriteByte(e)
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errors.New("unterminated string")
}

func appendJSONString(out []byte, s string) []byte {
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			out = append(out, '\\', c)
		case '\n':
			out = append(out, '\\', 'n')
		case '\r':
			out = append(out, '\\', 'r')
		case '\t':
			out = append(out, '\\', 't')
		default:
			out = append(out, c)
		}
	}
	return append(out, '"')
}

func dropTrailingComma(out []byte) []byte {
	for j := len(out) - 1; j >= 0; j-- {
		if isSpace(out[j]) {
			continue
		}
		if out[j] == ',' {
			return append(out[:j], out[j+1:]...)
		}
		break
	}
	return out
}
