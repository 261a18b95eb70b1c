package xmltree

import "strings"

// NodeID is a handle into a Tree's arena. It remains valid for the
// lifetime of the tree regardless of later edits.
type NodeID int32

// Nil is the zero-value handle returned when a lookup finds nothing.
const Nil NodeID = -1

// Kind classifies a node in the tree.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
	KindProcInst
	KindDirective
)

// Attr is a single attribute as written in the source, prefix included.
type Attr struct {
	Name  string
	Value string
}

type node struct {
	kind     Kind
	name     string // element tag or proc inst target, as written
	data     string // text, comment or directive payload
	attrs    []Attr
	parent   NodeID
	children []NodeID
	line     int32 // 1-based source line of the start tag, 0 if unknown
}

// Tree holds a parsed XML part. The zero value is not usable; obtain a
// tree from Parse or New.
type Tree struct {
	nodes  []node
	root   NodeID
	prolog []NodeID // comments and instructions before the root element
	epilog []NodeID // comments and instructions after it
}

// New returns an empty tree whose root is a fresh element with the given
// tag. It is used when a part is created from scratch, such as a comments
// part for a document that has none.
func New(rootTag string) *Tree {
	t := &Tree{root: Nil}
	t.root = t.NewElement(rootTag)
	return t
}

// Root returns the document element.
func (t *Tree) Root() NodeID { return t.root }

func (t *Tree) alloc(n node) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, n)
	return id
}

// NewElement allocates a detached element node.
func (t *Tree) NewElement(tag string) NodeID {
	return t.alloc(node{kind: KindElement, name: tag, parent: Nil})
}

// NewText allocates a detached text node.
func (t *Tree) NewText(data string) NodeID {
	return t.alloc(node{kind: KindText, data: data, parent: Nil})
}

// Kind reports the node's kind.
func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].kind }

// Tag returns an element's name as written in the source, for example
// "w:p". It returns "" for non-element nodes.
func (t *Tree) Tag(id NodeID) string {
	if t.nodes[id].kind != KindElement {
		return ""
	}
	return t.nodes[id].name
}

// SetTag renames an element in place, keeping attributes and children.
func (t *Tree) SetTag(id NodeID, tag string) { t.nodes[id].name = tag }

// Line returns the 1-based source line on which the element's start tag
// appeared, or 0 when unknown.
func (t *Tree) Line(id NodeID) int { return int(t.nodes[id].line) }

// Parent returns the node's parent, or Nil for the root and for nodes
// not yet attached.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns the node's children in document order. The returned
// slice is owned by the tree and must not be modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// Attr looks up an attribute by its written name.
func (t *Tree) Attr(id NodeID, name string) (string, bool) {
	for _, a := range t.nodes[id].attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns the node's attributes in source order. The returned
// slice is owned by the tree and must not be modified.
func (t *Tree) Attrs(id NodeID) []Attr { return t.nodes[id].attrs }

// SetAttr sets an attribute, replacing an existing one of the same name
// or appending it after the attributes already present.
func (t *Tree) SetAttr(id NodeID, name, value string) {
	n := &t.nodes[id]
	for i, a := range n.attrs {
		if a.Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

// AppendChild attaches child as the last child of parent. The child must
// be detached.
func (t *Tree) AppendChild(parent, child NodeID) {
	t.nodes[child].parent = parent
	t.nodes[parent].children = append(t.nodes[parent].children, child)
}

// InsertBefore attaches child immediately before ref among ref's
// siblings. If ref is not a child of parent the child is appended.
func (t *Tree) InsertBefore(parent, child, ref NodeID) {
	t.insertAt(parent, child, t.childIndex(parent, ref))
}

// InsertAfter attaches child immediately after ref among ref's siblings.
// If ref is not a child of parent the child is appended.
func (t *Tree) InsertAfter(parent, child, ref NodeID) {
	if i := t.childIndex(parent, ref); i >= 0 {
		t.insertAt(parent, child, i+1)
		return
	}
	t.insertAt(parent, child, -1)
}

// Wrap replaces id in its parent's child list with wrapper and reattaches
// id as wrapper's sole child. The wrapper must be detached.
func (t *Tree) Wrap(id, wrapper NodeID) {
	parent := t.nodes[id].parent
	i := t.childIndex(parent, id)
	t.nodes[parent].children[i] = wrapper
	t.nodes[wrapper].parent = parent
	t.nodes[wrapper].children = append(t.nodes[wrapper].children, id)
	t.nodes[id].parent = wrapper
}

func (t *Tree) childIndex(parent, child NodeID) int {
	for i, c := range t.nodes[parent].children {
		if c == child {
			return i
		}
	}
	return -1
}

func (t *Tree) insertAt(parent, child NodeID, i int) {
	t.nodes[child].parent = parent
	kids := t.nodes[parent].children
	if i < 0 || i >= len(kids) {
		t.nodes[parent].children = append(kids, child)
		return
	}
	kids = append(kids, Nil)
	copy(kids[i+1:], kids[i:])
	kids[i] = child
	t.nodes[parent].children = kids
}

// Text returns the concatenated character data of the node and its
// descendants, in document order. Comments and processing instructions
// contribute nothing.
func (t *Tree) Text(id NodeID) string {
	var sb strings.Builder
	t.appendText(&sb, id)
	return sb.String()
}

func (t *Tree) appendText(sb *strings.Builder, id NodeID) {
	n := &t.nodes[id]
	if n.kind == KindText {
		sb.WriteString(n.data)
		return
	}
	if n.kind != KindElement {
		return
	}
	for _, c := range n.children {
		t.appendText(sb, c)
	}
}

// Elements returns every element with the given written tag, in document
// order, starting at and including root.
func (t *Tree) Elements(tag string) []NodeID {
	return t.Descendants(t.root, tag)
}

// Descendants returns every element with the given written tag in the
// subtree rooted at id, in document order, including id itself when it
// matches.
func (t *Tree) Descendants(id NodeID, tag string) []NodeID {
	var out []NodeID
	t.walk(id, func(n NodeID) {
		if t.nodes[n].kind == KindElement && t.nodes[n].name == tag {
			out = append(out, n)
		}
	})
	return out
}

// ChildElements returns the direct element children of id carrying the
// given tag, in document order.
func (t *Tree) ChildElements(id NodeID, tag string) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].children {
		if t.nodes[c].kind == KindElement && t.nodes[c].name == tag {
			out = append(out, c)
		}
	}
	return out
}

// EachElement visits every element of the tree in document order.
func (t *Tree) EachElement(fn func(NodeID)) {
	t.walk(t.root, func(id NodeID) {
		if t.nodes[id].kind == KindElement {
			fn(id)
		}
	})
}

func (t *Tree) walk(id NodeID, fn func(NodeID)) {
	fn(id)
	if t.nodes[id].kind != KindElement {
		return
	}
	for _, c := range t.nodes[id].children {
		t.walk(c, fn)
	}
}

// Before reports whether a precedes b in document order. Both nodes must
// be attached under the same root; a node does not precede itself, and an
// ancestor precedes its descendants.
func (t *Tree) Before(a, b NodeID) bool {
	if a == b {
		return false
	}
	pa := t.path(a)
	pb := t.path(b)
	n := len(pa)
	if len(pb) < n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		if pa[i] != pb[i] {
			return pa[i] < pb[i]
		}
	}
	// One path is a prefix of the other: the shorter is the ancestor.
	return len(pa) < len(pb)
}

// path returns the child-index route from the root down to id.
func (t *Tree) path(id NodeID) []int {
	var rev []int
	for id != t.root {
		p := t.nodes[id].parent
		rev = append(rev, t.childIndex(p, id))
		id = p
	}
	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out
}
