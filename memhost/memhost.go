// Package memhost is an in-memory host.Adapter. It keeps a plain node tree
// and a log of every mutation so renders can be inspected and compared.
package memhost

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/fibertree/host"
)

var (
	ErrForeignNode = errors.New("memhost: node was not created by this host")
	ErrNotChild    = errors.New("memhost: node is not a child of parent")
	ErrTextParent  = errors.New("memhost: text nodes cannot have children")
)

type NodeKind uint8

const (
	ElementNode NodeKind = iota
	TextNode
)

type Node struct {
	ID       int
	Kind     NodeKind
	Tag      string
	Text     string
	Attrs    map[string]string
	Style    map[string]string
	Children []*Node
	Parent   *Node
}

type OpKind uint8

const (
	OpCreate OpKind = iota
	OpCreateText
	OpAppend
	OpInsert
	OpRemove
	OpSetText
	OpSetAttrs
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpCreateText:
		return "createText"
	case OpAppend:
		return "append"
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpSetText:
		return "setText"
	case OpSetAttrs:
		return "setAttrs"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

// Op is one recorded host call. Target is the node the call mutated or
// created; Detail describes its arguments.
type Op struct {
	Kind   OpKind
	Target int
	Detail string
}

func (op Op) String() string {
	return fmt.Sprintf("%s #%d %s", op.Kind, op.Target, op.Detail)
}

type Host struct {
	nextID int
	ops    []Op
	nodes  mapset.Set[*Node]
}

var _ host.Adapter = (*Host)(nil)

func New() *Host {
	return &Host{nodes: mapset.NewThreadUnsafeSet[*Node]()}
}

// NewContainer creates a detached element to mount roots into. It is not
// recorded in the op log.
func (h *Host) NewContainer(tag string) *Node {
	return h.newNode(ElementNode, tag, "")
}

func (h *Host) newNode(kind NodeKind, tag, text string) *Node {
	h.nextID++
	n := &Node{ID: h.nextID, Kind: kind, Tag: tag, Text: text}
	h.nodes.Add(n)
	return n
}

func (h *Host) record(kind OpKind, target *Node, format string, args ...any) {
	h.ops = append(h.ops, Op{Kind: kind, Target: target.ID, Detail: fmt.Sprintf(format, args...)})
}

// Ops returns the operations recorded since the last Reset.
func (h *Host) Ops() []Op { return slices.Clone(h.ops) }

// Log returns Ops rendered as strings.
func (h *Host) Log() []string {
	out := make([]string, len(h.ops))
	for i, op := range h.ops {
		out[i] = op.String()
	}
	return out
}

// Counts tallies the recorded operations by kind.
func (h *Host) Counts() map[OpKind]int {
	counts := map[OpKind]int{}
	for _, op := range h.ops {
		counts[op.Kind]++
	}
	return counts
}

func (h *Host) Reset() { h.ops = h.ops[:0] }

// Owns reports whether n was created by h.
func (h *Host) Owns(n *Node) bool { return h.nodes.Contains(n) }

func (h *Host) node(n host.Node) *Node {
	nn, ok := n.(*Node)
	if !ok || !h.nodes.Contains(nn) {
		panic(fmt.Errorf("%w: %T", ErrForeignNode, n))
	}
	return nn
}

func (h *Host) CreateNode(kind string) host.Node {
	n := h.newNode(ElementNode, kind, "")
	h.record(OpCreate, n, "<%s>", kind)
	return n
}

func (h *Host) CreateText(content string) host.Node {
	n := h.newNode(TextNode, "", content)
	h.record(OpCreateText, n, "%q", content)
	return n
}

func (h *Host) AppendChild(parent, child host.Node) {
	p, c := h.node(parent), h.node(child)
	if p.Kind == TextNode {
		panic(ErrTextParent)
	}
	detach(c)
	c.Parent = p
	p.Children = append(p.Children, c)
	h.record(OpAppend, p, "#%d", c.ID)
}

func (h *Host) InsertBefore(parent, child, before host.Node) {
	p, c, b := h.node(parent), h.node(child), h.node(before)
	if p.Kind == TextNode {
		panic(ErrTextParent)
	}
	if b.Parent != p {
		panic(fmt.Errorf("%w: insert before #%d in #%d", ErrNotChild, b.ID, p.ID))
	}
	detach(c)
	idx := slices.Index(p.Children, b)
	c.Parent = p
	p.Children = slices.Insert(p.Children, idx, c)
	h.record(OpInsert, p, "#%d before #%d", c.ID, b.ID)
}

func (h *Host) RemoveChild(parent, child host.Node) {
	p, c := h.node(parent), h.node(child)
	if c.Parent != p {
		panic(fmt.Errorf("%w: remove #%d from #%d", ErrNotChild, c.ID, p.ID))
	}
	detach(c)
	h.record(OpRemove, p, "#%d", c.ID)
}

func detach(n *Node) {
	p := n.Parent
	if p == nil {
		return
	}
	if i := slices.Index(p.Children, n); i >= 0 {
		p.Children = slices.Delete(p.Children, i, i+1)
	}
	n.Parent = nil
}

// SetTextContent replaces the text of a text node, or every child of an
// element with a single text node.
func (h *Host) SetTextContent(node host.Node, content string) {
	n := h.node(node)
	h.record(OpSetText, n, "%q", content)

	if n.Kind == TextNode {
		n.Text = content
		return
	}
	for _, c := range n.Children {
		c.Parent = nil
	}
	n.Children = nil
	if content != "" {
		t := h.newNode(TextNode, "", content)
		t.Parent = n
		n.Children = []*Node{t}
	}
}

// ApplyAttributes sets or, for nil values, removes attributes. A style
// change carries a map of entries where an empty or nil value removes the
// entry.
func (h *Host) ApplyAttributes(node host.Node, changes []host.AttributeChange) {
	n := h.node(node)
	if n.Kind == TextNode {
		panic(fmt.Errorf("%w: attributes on #%d", ErrTextParent, n.ID))
	}

	keys := make([]string, 0, len(changes))
	for _, ch := range changes {
		keys = append(keys, ch.Key)
		if ch.Key == "style" {
			applyStyle(n, ch.Value)
			continue
		}
		if ch.Value == nil {
			delete(n.Attrs, ch.Key)
			continue
		}
		if n.Attrs == nil {
			n.Attrs = map[string]string{}
		}
		n.Attrs[ch.Key] = fmt.Sprint(ch.Value)
	}
	h.record(OpSetAttrs, n, "%v", keys)
}

func applyStyle(n *Node, v any) {
	if v == nil {
		n.Style = nil
		return
	}
	var entries map[string]any
	switch s := v.(type) {
	case map[string]any:
		entries = s
	case map[string]string:
		entries = make(map[string]any, len(s))
		for k, v := range s {
			entries[k] = v
		}
	default:
		panic(fmt.Errorf("memhost: unsupported style value %T", v))
	}

	for name, val := range entries {
		if val == nil || val == "" {
			delete(n.Style, name)
			continue
		}
		if n.Style == nil {
			n.Style = map[string]string{}
		}
		n.Style[name] = fmt.Sprint(val)
	}
}

// Attr returns the value of an attribute.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.Attrs[key]
	return v, ok
}

// TextContent concatenates the text of every text node under n.
func (n *Node) TextContent() string {
	if n.Kind == TextNode {
		return n.Text
	}
	var s string
	for _, c := range n.Children {
		s += c.TextContent()
	}
	return s
}

// Find returns the first node under n, n included, for which match is true.
func (n *Node) Find(match func(*Node) bool) *Node {
	if match(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// ByAttr finds the first element under n with attribute key set to value.
func (n *Node) ByAttr(key, value string) *Node {
	return n.Find(func(c *Node) bool {
		v, ok := c.Attrs[key]
		return ok && v == value
	})
}

// Fingerprint hashes the markup of n, a cheap way to compare trees.
func Fingerprint(n *Node) uint64 {
	return xxhash.Sum64String(Markup(n))
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
