package content

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads a full HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}
	return doc, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(src string) (*html.Node, error) {
	return Parse(strings.NewReader(src))
}

// Body returns the body element of a parsed document, or nil.
func Body(doc *html.Node) *html.Node {
	return find(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
}

// Render serialises a node and its subtree.
func Render(node *html.Node) (string, error) {
	if node == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", fmt.Errorf("content: render: %w", err)
	}
	return buf.String(), nil
}

// RenderChildren serialises the children of node (its inner HTML).
func RenderChildren(node *html.Node) (string, error) {
	if node == nil {
		return "", nil
	}
	var buf bytes.Buffer
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", fmt.Errorf("content: render: %w", err)
		}
	}
	return buf.String(), nil
}

// IsTemplate reports whether node is a template element.
func IsTemplate(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	return node.DataAtom == atom.Template || strings.EqualFold(node.Data, "template")
}

// Clone deep-copies node. visit, when non-nil, is invoked for every
// original/clone pair in document order.
func Clone(node *html.Node, visit func(original, clone *html.Node)) *html.Node {
	if node == nil {
		return nil
	}
	out := &html.Node{
		Type:      node.Type,
		DataAtom:  node.DataAtom,
		Data:      node.Data,
		Namespace: node.Namespace,
	}
	if len(node.Attr) > 0 {
		out.Attr = append([]html.Attribute(nil), node.Attr...)
	}
	if visit != nil {
		visit(node, out)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		out.AppendChild(Clone(child, visit))
	}
	return out
}

// AttrName returns the qualified name of attr: `ns:key` for foreign
// attributes such as `xlink:href`, the bare key otherwise.
func AttrName(attr html.Attribute) string {
	if attr.Namespace == "" {
		return attr.Key
	}
	return attr.Namespace + ":" + attr.Key
}

// Attr returns the value of the attribute with the given qualified name.
func Attr(node *html.Node, name string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attr {
		if AttrName(attr) == name {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttr adds or replaces an attribute. A new attribute on a foreign element
// keeps the namespace prefix of its qualified name.
func SetAttr(node *html.Node, name, value string) {
	for idx, attr := range node.Attr {
		if AttrName(attr) == name {
			node.Attr[idx].Val = value
			return
		}
	}
	attr := html.Attribute{Key: name, Val: value}
	if node.Namespace != "" {
		if ns, key, ok := strings.Cut(name, ":"); ok {
			attr.Namespace, attr.Key = ns, key
		}
	}
	node.Attr = append(node.Attr, attr)
}

// RemoveAttr drops an attribute if present.
func RemoveAttr(node *html.Node, name string) {
	out := node.Attr[:0]
	for _, attr := range node.Attr {
		if AttrName(attr) == name {
			continue
		}
		out = append(out, attr)
	}
	node.Attr = out
}

// ChildAt returns the child at position idx, or nil when out of range.
func ChildAt(node *html.Node, idx int) *html.Node {
	if node == nil || idx < 0 {
		return nil
	}
	child := node.FirstChild
	for i := 0; child != nil && i < idx; i++ {
		child = child.NextSibling
	}
	return child
}

// Children returns a snapshot of node's children.
func Children(node *html.Node) []*html.Node {
	var out []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, child)
	}
	return out
}

// SetText replaces the text of a text node, or the children of an element
// with a single text node.
func SetText(node *html.Node, text string) {
	switch node.Type {
	case html.TextNode, html.CommentNode:
		node.Data = text
	default:
		for node.FirstChild != nil {
			node.RemoveChild(node.FirstChild)
		}
		if text != "" {
			node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		}
	}
}

// ElementByID finds the first element under root carrying id.
func ElementByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return find(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		value, ok := Attr(n, "id")
		return ok && value == id
	})
}

// Root walks parents up to the topmost ancestor.
func Root(node *html.Node) *html.Node {
	for node != nil && node.Parent != nil {
		node = node.Parent
	}
	return node
}

// Contains reports whether node is ancestor itself or one of its descendants.
func Contains(ancestor, node *html.Node) bool {
	for ; node != nil; node = node.Parent {
		if node == ancestor {
			return true
		}
	}
	return false
}

// TopLevelTemplates returns node when it is a template, otherwise every
// template in its subtree that is not nested inside another template.
func TopLevelTemplates(node *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if IsTemplate(n) {
			out = append(out, n)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if node != nil {
		walk(node)
	}
	return out
}

// AllTemplates returns every template in node's subtree, node included, in
// document order.
func AllTemplates(node *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if IsTemplate(n) {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	if node != nil {
		walk(node)
	}
	return out
}

func find(node *html.Node, match func(*html.Node) bool) *html.Node {
	if node == nil {
		return nil
	}
	if match(node) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := find(child, match); found != nil {
			return found
		}
	}
	return nil
}
