package markup

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tshtml "github.com/smacker/go-tree-sitter/html"
)

// Parse parses source with the tree-sitter HTML grammar and converts the
// concrete syntax tree into a Document. {...} expressions are masked first
// (see maskExpressions) so each one is a single token to the grammar.
// Syntax errors do not fail the parse; they only set HasErrors.
func Parse(ctx context.Context, filename string, source []byte) (*Document, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tshtml.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, maskExpressions(source))
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", filename, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root for %s", filename)
	}

	doc := &Document{
		Filename:  filename,
		Source:    source,
		HasErrors: root.HasError(),
		tree:      tree,
		Root: &Node{
			Kind:  KindDocument,
			Start: int(root.StartByte()),
			End:   int(root.EndByte()),
		},
	}
	doc.Root.Children = convertChildren(root, source)
	return doc, nil
}

func convertChildren(n *sitter.Node, src []byte) []*Node {
	var out []*Node
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if c := convert(child, src); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func convert(n *sitter.Node, src []byte) *Node {
	switch n.Type() {
	case "element":
		return convertElement(n, src)
	case "script_element", "style_element":
		return convertRaw(n, src)
	case "start_tag", "self_closing_tag":
		// A tag the grammar could not fit into an element (error recovery).
		// It owns only itself.
		node := &Node{Kind: KindElement, Start: int(n.StartByte()), End: int(n.EndByte())}
		node.SelfClosing = n.Type() == "self_closing_tag"
		node.TagEnd = node.End
		node.Name, node.Attrs = readTag(n, src)
		return node
	case "text", "comment", "doctype", "entity", "raw_text":
		return nil
	default:
		// ERROR and anything unexpected: keep elements nested inside.
		children := convertChildren(n, src)
		if len(children) == 0 {
			return nil
		}
		return &Node{
			Kind:     KindOther,
			Start:    int(n.StartByte()),
			End:      int(n.EndByte()),
			Children: children,
		}
	}
}

func convertElement(n *sitter.Node, src []byte) *Node {
	node := &Node{
		Kind:  KindElement,
		Start: int(n.StartByte()),
		End:   int(n.EndByte()),
	}
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "start_tag", "self_closing_tag":
			node.SelfClosing = child.Type() == "self_closing_tag"
			node.TagEnd = int(child.EndByte())
			node.Name, node.Attrs = readTag(child, src)
		case "end_tag":
			// Error recovery may insert a zero-width end tag that is not in
			// the source.
			node.Closed = !child.IsMissing() && child.EndByte() > child.StartByte()
		case "erroneous_end_tag":
		default:
			if c := convert(child, src); c != nil {
				node.Children = append(node.Children, c)
			}
		}
	}
	return node
}

func convertRaw(n *sitter.Node, src []byte) *Node {
	node := &Node{
		Kind:  KindScript,
		Start: int(n.StartByte()),
		End:   int(n.EndByte()),
	}
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "start_tag":
			node.TagEnd = int(child.EndByte())
			node.Name, node.Attrs = readTag(child, src)
			node.ContentStart = node.TagEnd
			node.ContentEnd = node.TagEnd
		case "raw_text":
			node.ContentStart = int(child.StartByte())
			node.ContentEnd = int(child.EndByte())
		}
	}
	if node.Name != "script" {
		node.Kind = KindOther
	}
	return node
}

func readTag(tag *sitter.Node, src []byte) (string, []Attribute) {
	var name string
	var attrs []Attribute
	count := int(tag.NamedChildCount())
	for i := 0; i < count; i++ {
		child := tag.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "tag_name":
			name = child.Content(src)
		case "attribute":
			attrs = append(attrs, readAttribute(child, src))
		}
	}
	return name, attrs
}

func readAttribute(n *sitter.Node, src []byte) Attribute {
	a := Attribute{
		Kind:  Bare,
		Start: int(n.StartByte()),
		End:   int(n.EndByte()),
	}
	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "attribute_name":
			a.Name = child.Content(src)
		case "attribute_value":
			a.setValue(int(child.StartByte()), int(child.EndByte()), src)
		case "quoted_attribute_value":
			// Strip the quotes; the inner attribute_value is absent for "".
			start, end := int(child.StartByte())+1, int(child.EndByte())-1
			if end < start {
				end = start
			}
			a.setValue(start, end, src)
		}
	}
	return a
}

func (a *Attribute) setValue(start, end int, src []byte) {
	a.ValueStart, a.ValueEnd = start, end
	raw := string(src[start:end])
	if expr, ok := expression(raw); ok {
		a.Kind = Expression
		a.Value = expr
		return
	}
	a.Kind = Literal
	a.Value = raw
}

// expression reports whether raw is exactly one {braced} expression.
func expression(raw string) (string, bool) {
	if len(raw) < 2 || raw[0] != '{' || raw[len(raw)-1] != '}' {
		return "", false
	}
	if expressionEnd([]byte(raw), 0) != len(raw) {
		return "", false // "{a}-{b}" is a template, not one expression
	}
	return strings.TrimSpace(raw[1 : len(raw)-1]), true
}
