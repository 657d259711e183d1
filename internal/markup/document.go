// Package markup holds the parsed view of a templated document: a tree of
// elements with byte offsets into the original source, and the attribute
// accessors the rewriters read from it.
package markup

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Kind classifies a Node.
type Kind int

const (
	KindDocument Kind = iota
	KindElement
	KindScript
	KindOther
)

// AttrKind says how an attribute's value was written.
type AttrKind int

const (
	// Literal is inline text, quoted or not: src="./a.png".
	Literal AttrKind = iota
	// Expression is a single embedded expression: src={photo}.
	Expression
	// Bare is an attribute without a value: <img hidden>.
	Bare
)

// Attribute is one attribute of an element, in source order.
// Start/End cover the whole `name=value` text. For Literal attributes Value is
// the text between the quotes; for Expression attributes it is the trimmed
// expression between the braces.
type Attribute struct {
	Name       string
	Kind       AttrKind
	Value      string
	Start      int
	End        int
	ValueStart int
	ValueEnd   int
}

// Raw returns the attribute exactly as written.
func (a Attribute) Raw(source []byte) string {
	return string(source[a.Start:a.End])
}

// Node is an element (or other construct) with its byte range.
// Offsets are monotonic and non-overlapping across siblings.
type Node struct {
	Kind  Kind
	Name  string
	Start int
	End   int
	// TagEnd is the offset just past the opening tag.
	TagEnd int
	// ContentStart/ContentEnd bound the raw text of a script element.
	ContentStart int
	ContentEnd   int
	SelfClosing  bool
	// Closed is set when the element has a matching end tag.
	Closed   bool
	Attrs    []Attribute
	Children []*Node
}

// Attr returns the attribute called name, if present.
func (n *Node) Attr(name string) (Attribute, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// LiteralAttr returns the value of a literal attribute called name.
// Expression and bare attributes report false.
func (n *Node) LiteralAttr(name string) (string, bool) {
	a, ok := n.Attr(name)
	if !ok || a.Kind != Literal {
		return "", false
	}
	return a.Value, true
}

// ElementEnd is the end of the range that replaces the whole element. An
// element left open by the source only owns its opening tag.
func (n *Node) ElementEnd() int {
	if n.SelfClosing || n.Closed {
		return n.End
	}
	return n.TagEnd
}

// Document is an immutable source buffer plus its parsed tree.
type Document struct {
	Filename  string
	Source    []byte
	Root      *Node
	HasErrors bool

	tree *sitter.Tree
}

// Walk visits n and its descendants depth-first in document order.
// Returning false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// InstanceScript returns the top-level <script> that is not a module-context
// script, or nil.
func (d *Document) InstanceScript() *Node {
	for _, c := range d.Root.Children {
		if c.Kind != KindScript {
			continue
		}
		if v, ok := c.LiteralAttr("context"); ok && strings.EqualFold(v, "module") {
			continue
		}
		if _, ok := c.Attr("module"); ok {
			continue
		}
		return c
	}
	return nil
}
