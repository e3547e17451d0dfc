// Package fiscalxml holds the built-in structural rules for serialized fiscal documents.
package fiscalxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"tributa/internal/domain"
	"tributa/internal/fiscaldoc"
)

// Node is one parsed element.
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Child returns the first direct child named name.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find follows a slash-separated path of child names.
func (n *Node) Find(path string) *Node {
	cur := n
	for _, part := range strings.Split(path, "/") {
		cur = cur.Child(part)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// FindAll returns every node reachable by path, fanning out over repeated elements.
func (n *Node) FindAll(path string) []*Node {
	if n == nil {
		return nil
	}
	level := []*Node{n}
	for _, part := range strings.Split(path, "/") {
		var next []*Node
		for _, node := range level {
			for _, c := range node.Children {
				if c.Name == part {
					next = append(next, c)
				}
			}
		}
		level = next
	}
	return level
}

// Document is a parsed payload tagged with its kind.
type Document struct {
	Kind fiscaldoc.Kind
	Root *Node
	// Info is the inf* element under the root.
	Info *Node
}

// Parse decodes payload into a tree and infers the kind from the root element.
func Parse(payload []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	var stack []*Node
	var root *Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrMalformedXML, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				node.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", domain.ErrMalformedXML)
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrMalformedXML)
	}
	kind, ok := fiscaldoc.KindFromRoot(root.Name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown root element %q", domain.ErrInvalidDocument, root.Name)
	}
	return &Document{Kind: kind, Root: root, Info: root.Child(kind.InfoElement())}, nil
}

// Text returns the trimmed text at path below the info element, or "".
func (d *Document) Text(path string) string {
	n := d.Info.Find(path)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(n.Text)
}
