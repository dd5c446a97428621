// Package scene reads and writes i3d scene documents. The document is kept
// as a generic element tree so that everything the generator does not touch
// survives a load and save unchanged.
package scene

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	billy "gopkg.in/src-d/go-billy.v4"

	"forestgen/internal/store"
)

// Attribute names used across the scene.
const (
	AttrName        = "name"
	AttrNodeID      = "nodeId"
	AttrTranslation = "translation"
	AttrRotation    = "rotation"
)

// ElemTransformGroup is the element used for grouping nodes.
const ElemTransformGroup = "TransformGroup"

// Attr is a single attribute. Namespaced names keep their prefix, e.g.
// "xmlns:xsi".
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the document.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// NewNode returns an element with the given attributes, given as name/value
// pairs.
func NewNode(name string, attrs ...string) *Node {
	n := &Node{Name: name}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.SetAttr(attrs[i], attrs[i+1])
	}
	return n
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr updates name in place, or appends it when absent.
func (n *Node) SetAttr(name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Label returns the node's name attribute.
func (n *Node) Label() string {
	v, _ := n.Attr(AttrName)
	return v
}

// Clone deep-copies n.
func (n *Node) Clone() *Node {
	c := &Node{
		Name:  n.Name,
		Attrs: append([]Attr(nil), n.Attrs...),
		Text:  n.Text,
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Walk visits n and its descendants depth first. Returning false from fn
// stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first node, in document order, matching fn.
func (n *Node) Find(fn func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if fn(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindElement returns the first element called name.
func (n *Node) FindElement(name string) *Node {
	return n.Find(func(c *Node) bool { return c.Name == name })
}

// FindNamed returns the first node whose name attribute equals label.
func (n *Node) FindNamed(label string) *Node {
	return n.Find(func(c *Node) bool { return c.Label() == label })
}

// FindAttr returns the first element called elem whose attribute attr
// equals value.
func (n *Node) FindAttr(elem, attr, value string) *Node {
	return n.Find(func(c *Node) bool {
		if c.Name != elem {
			return false
		}
		v, ok := c.Attr(attr)
		return ok && v == value
	})
}

// Elements returns the direct children called name.
func (n *Node) Elements(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Document is a parsed scene.
type Document struct {
	Root *Node
}

// Decode parses a scene. Declared non-UTF-8 encodings are transcoded.
func Decode(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	doc := &Document{}
	var stack []*Node
	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode scene: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: qualified(t.Name)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, errors.New("decode scene: more than one root element")
				}
				doc.Root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].Name != qualified(t.Name) {
				return nil, fmt.Errorf("decode scene: unexpected </%s>", qualified(t.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			if s := strings.TrimSpace(string(t)); s != "" {
				stack[len(stack)-1].Text += s
			}
		}
	}
	if doc.Root == nil {
		return nil, errors.New("decode scene: no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("decode scene: unclosed <%s>", stack[len(stack)-1].Name)
	}
	return doc, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Encode writes the document as indented UTF-8 XML.
func (d *Document) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := io.WriteString(bw, `<?xml version="1.0" encoding="utf-8"?>`+"\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")
	if err := encodeNode(enc, d.Root); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	if _, err := io.WriteString(bw, "\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func encodeNode(enc *xml.Encoder, n *Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Name}}
	for _, a := range n.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := encodeNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Load reads the scene at name from fs.
func Load(fs billy.Filesystem, name string) (*Document, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Save writes the scene through st, keeping a backup of any file it replaces
// until the write succeeds.
func (d *Document) Save(st *store.Store, name string) error {
	return st.WriteFile(name, d.Encode)
}
