// Package memhost is an in-memory host for the fiber reconciler. It keeps a
// plain node tree, records every mutation it is asked to perform and renders
// the tree as markup.
package memhost

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/fiberparty/fiber"
)

type NodeKind uint8

const (
	ContainerNode NodeKind = iota
	ElementNode
	TextNode
)

func (k NodeKind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return "container"
	}
}

type Node struct {
	ID       uint64
	Kind     NodeKind
	Tag      string
	Text     string
	Props    fiber.Props
	Parent   *Node
	Children []*Node
}

func (n *Node) String() string {
	switch n.Kind {
	case TextNode:
		return fmt.Sprintf("#%d %q", n.ID, n.Text)
	case ElementNode:
		return fmt.Sprintf("#%d <%s>", n.ID, n.Tag)
	default:
		return fmt.Sprintf("#%d container", n.ID)
	}
}

func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.Children, child)
}

func (n *Node) removeChild(child *Node) bool {
	i := n.indexOf(child)
	if i < 0 {
		return false
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	child.Parent = nil
	return true
}

func (n *Node) detach() {
	if n.Parent != nil {
		n.Parent.removeChild(n)
	}
}

// Subtree returns n and all of its descendants.
func (n *Node) Subtree() mapset.Set[*Node] {
	set := mapset.NewThreadUnsafeSet[*Node]()
	var walk func(*Node)
	walk = func(x *Node) {
		set.Add(x)
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return set
}

// Texts returns the text content of n's descendants in document order.
func (n *Node) Texts() []string {
	var out []string
	var walk func(*Node)
	walk = func(x *Node) {
		if x.Kind == TextNode {
			out = append(out, x.Text)
		}
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}

// ChildKeys returns the "id" prop, or text, of each direct child.
func (n *Node) ChildKeys() []string {
	out := make([]string, len(n.Children))
	for i, c := range n.Children {
		if c.Kind == TextNode {
			out[i] = c.Text
			continue
		}
		out[i] = fmt.Sprint(c.Props["id"])
	}
	return out
}

type Attr struct {
	Name  string
	Value string
}

// attrs lists the renderable props of n sorted by name.
func (n *Node) attrs() []Attr {
	out := make([]Attr, 0, len(n.Props))
	for k, v := range n.Props {
		if k == "children" || v == nil {
			continue
		}
		switch v.(type) {
		case func(), func(any):
			continue
		}
		out = append(out, Attr{Name: k, Value: fmt.Sprint(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Checksum hashes the markup of n.
func (n *Node) Checksum() uint64 {
	return xxhash.Sum64String(Markup(n))
}

type OpKind uint8

const (
	OpCreate OpKind = iota
	OpCreateText
	OpAppendInitial
	OpAppend
	OpInsert
	OpRemove
	OpUpdate
)

func (k OpKind) String() string {
	switch k {
	case OpCreate:
		return "create"
	case OpCreateText:
		return "createText"
	case OpAppendInitial:
		return "appendInitial"
	case OpAppend:
		return "append"
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpUpdate:
		return "update"
	default:
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
}

type Op struct {
	Kind   OpKind
	Node   *Node
	Parent *Node
	Before *Node
}

func (o Op) String() string {
	var sb strings.Builder
	sb.WriteString(o.Kind.String())
	sb.WriteString(" ")
	sb.WriteString(o.Node.String())
	if o.Parent != nil {
		sb.WriteString(" in ")
		sb.WriteString(o.Parent.String())
	}
	if o.Before != nil {
		sb.WriteString(" before ")
		sb.WriteString(o.Before.String())
	}
	return sb.String()
}

// MicrotaskQueue runs callbacks at the next microtask boundary. The
// scheduler package's Scheduler satisfies it.
type MicrotaskQueue interface {
	QueueMicrotask(fn func())
}

// Host implements fiber.Host over Node trees.
type Host struct {
	microtasks MicrotaskQueue
	nextID     uint64
	ops        []Op
	created    mapset.Set[*Node]
	removed    mapset.Set[*Node]
}

var _ fiber.Host = (*Host)(nil)

func New(microtasks MicrotaskQueue) *Host {
	return &Host{
		microtasks: microtasks,
		created:    mapset.NewThreadUnsafeSet[*Node](),
		removed:    mapset.NewThreadUnsafeSet[*Node](),
	}
}

func (h *Host) newNode(kind NodeKind) *Node {
	h.nextID++
	return &Node{ID: h.nextID, Kind: kind}
}

// NewContainer returns an empty root container node.
func (h *Host) NewContainer() *Node {
	return h.newNode(ContainerNode)
}

// Ops returns the mutations recorded since the last ResetOps.
func (h *Host) Ops() []Op {
	return h.ops
}

func (h *Host) ResetOps() {
	h.ops = nil
}

// CountOps counts recorded mutations of the given kinds.
func (h *Host) CountOps(kinds ...OpKind) int {
	n := 0
	for _, op := range h.ops {
		if slices.Contains(kinds, op.Kind) {
			n++
		}
	}
	return n
}

// Created is every instance the host has created.
func (h *Host) Created() mapset.Set[*Node] {
	return h.created
}

// Removed is every instance removed from its parent by RemoveChild.
func (h *Host) Removed() mapset.Set[*Node] {
	return h.removed
}

func (h *Host) record(op Op) {
	h.ops = append(h.ops, op)
}

func asNode(v any) *Node {
	n, ok := v.(*Node)
	if !ok || n == nil {
		panic(fmt.Sprintf("memhost: expected *Node, got %T", v))
	}
	return n
}

func (h *Host) CreateInstance(elementType string, props fiber.Props) fiber.Instance {
	n := h.newNode(ElementNode)
	n.Tag = elementType
	n.Props = props
	h.created.Add(n)
	h.record(Op{Kind: OpCreate, Node: n})
	return n
}

func (h *Host) CreateTextInstance(text string) fiber.Instance {
	n := h.newNode(TextNode)
	n.Text = text
	h.created.Add(n)
	h.record(Op{Kind: OpCreateText, Node: n})
	return n
}

func (h *Host) AppendInitialChild(parent, child fiber.Instance) {
	p, c := asNode(parent), asNode(child)
	c.detach()
	c.Parent = p
	p.Children = append(p.Children, c)
	h.record(Op{Kind: OpAppendInitial, Node: c, Parent: p})
}

func (h *Host) AppendChildToContainer(container fiber.Container, child fiber.Instance) {
	p, c := asNode(container), asNode(child)
	c.detach()
	c.Parent = p
	p.Children = append(p.Children, c)
	h.record(Op{Kind: OpAppend, Node: c, Parent: p})
}

func (h *Host) InsertChildToContainer(child fiber.Instance, container fiber.Container, before fiber.Instance) {
	p, c, b := asNode(container), asNode(child), asNode(before)
	c.detach()
	c.Parent = p
	if i := p.indexOf(b); i >= 0 {
		p.Children = slices.Insert(p.Children, i, c)
	} else {
		p.Children = append(p.Children, c)
	}
	h.record(Op{Kind: OpInsert, Node: c, Parent: p, Before: b})
}

func (h *Host) RemoveChild(child fiber.Instance, container fiber.Container) {
	p, c := asNode(container), asNode(child)
	if !p.removeChild(c) {
		return
	}
	for _, n := range c.Subtree().ToSlice() {
		h.removed.Add(n)
	}
	h.record(Op{Kind: OpRemove, Node: c, Parent: p})
}

func (h *Host) CommitUpdate(f *fiber.Fiber) {
	n := asNode(f.StateNode())
	if n.Kind == TextNode {
		n.Text = f.TextContent()
	} else {
		n.Props = f.MemoizedProps()
	}
	h.record(Op{Kind: OpUpdate, Node: n})
}

func (h *Host) ScheduleMicroTask(cb func()) {
	h.microtasks.QueueMicrotask(cb)
}
