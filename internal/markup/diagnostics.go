package markup

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError locates a region the grammar could not parse.
type SyntaxError struct {
	Filename string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed, in bytes
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line+1, e.Column+1, e.Message)
}

// SyntaxErrors returns all ERROR/MISSING locations in the parsed tree.
// Template syntax the HTML grammar does not know shows up here; callers
// report it as a warning, not a failure.
func (d *Document) SyntaxErrors() []SyntaxError {
	if d.tree == nil || !d.HasErrors {
		return nil
	}
	var offsets []uint32
	var msgs []string
	collectErrors(d.tree.RootNode(), func(n *sitter.Node, msg string) {
		offsets = append(offsets, n.StartByte())
		msgs = append(msgs, msg)
	})

	// Rows in the tree count masked text; locate against the real source.
	lines := []int{0}
	for i, c := range d.Source {
		if c == '\n' {
			lines = append(lines, i+1)
		}
	}
	errs := make([]SyntaxError, len(offsets))
	for i, off := range offsets {
		line := sort.Search(len(lines), func(j int) bool { return lines[j] > int(off) }) - 1
		errs[i] = SyntaxError{
			Filename: d.Filename,
			Line:     uint32(line),
			Column:   off - uint32(lines[line]),
			Message:  msgs[i],
		}
	}
	return errs
}

// collectErrors reports all ERROR/MISSING nodes in the tree.
func collectErrors(node *sitter.Node, report func(*sitter.Node, string)) {
	if node.IsError() || node.IsMissing() {
		msg := "syntax error"
		if node.IsMissing() {
			msg = "missing " + node.Type()
		}
		report(node, msg)
		return // don't recurse into error children
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			collectErrors(child, report)
		}
	}
}
