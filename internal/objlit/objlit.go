// Package objlit parses the loosely quoted object literals emitted by image
// pipelines (`{img:{src:'/a.png',w:10},sources:{avif:"/a.avif 1w"}}`) into
// strict data.
//
// The text is first rewritten into strict JSON: every key is quoted, single
// quoted and bareword values become double quoted strings and trailing commas
// are dropped. The result is then handed to ojg's strict parser, so anything
// the rewrite cannot make valid is reported as a *ParseError.
package objlit

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/oj"
)

// ParseError reports text that could not be turned into strict data.
type ParseError struct {
	Text string // original input
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed parsing string to object: %s: %v", e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is the decoded value plus the insertion order of every object's keys.
// ojg decodes objects into maps, which forget order; consumers that care
// (alternate formats are listed in generation order) ask Keys for it.
type Result struct {
	Data  any
	order map[string][]string
}

// Keys returns the keys of the object at path in source order.
// An empty path names the top-level object.
func (r *Result) Keys(path ...string) []string {
	return r.order[strings.Join(path, ".")]
}

// Parse rewrites text into strict JSON and decodes it.
func Parse(text string) (*Result, error) {
	strict, order, err := rewrite(text)
	if err != nil {
		return nil, &ParseError{Text: text, Err: err}
	}
	data, err := oj.ParseString(strict)
	if err != nil {
		return nil, &ParseError{Text: text, Err: err}
	}
	return &Result{Data: data, order: order}, nil
}

// StripModule removes the statement syntax around a default-exported literal:
// a leading "export default" and a trailing ";".
func StripModule(code string) string {
	code = strings.TrimSpace(code)
	code = strings.TrimPrefix(code, "export default")
	code = strings.TrimSpace(code)
	code = strings.TrimSuffix(code, ";")
	return strings.TrimSpace(code)
}
