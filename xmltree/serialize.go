package xmltree

import (
	"bytes"
	"strings"
)

// Declaration is the canonical XML declaration written ahead of every
// serialized part, matching the form Word itself produces.
const Declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\r\n"

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Serialize renders the tree as UTF-8 bytes. Element and attribute names
// are written exactly as they were parsed or created, and elements with
// no children are self-closed.
func (t *Tree) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteString(Declaration)
	for _, id := range t.prolog {
		t.writeNode(&buf, id)
	}
	t.writeNode(&buf, t.root)
	for _, id := range t.epilog {
		t.writeNode(&buf, id)
	}
	return buf.Bytes()
}

func (t *Tree) writeNode(buf *bytes.Buffer, id NodeID) {
	n := &t.nodes[id]
	switch n.kind {
	case KindElement:
		buf.WriteByte('<')
		buf.WriteString(n.name)
		for _, a := range n.attrs {
			buf.WriteByte(' ')
			buf.WriteString(a.Name)
			buf.WriteString(`="`)
			attrEscaper.WriteString(buf, a.Value)
			buf.WriteByte('"')
		}
		if len(n.children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.children {
			t.writeNode(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(n.name)
		buf.WriteByte('>')
	case KindText:
		textEscaper.WriteString(buf, n.data)
	case KindComment:
		buf.WriteString("<!--")
		buf.WriteString(n.data)
		buf.WriteString("-->")
	case KindProcInst:
		buf.WriteString("<?")
		buf.WriteString(n.name)
		if n.data != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.data)
		}
		buf.WriteString("?>")
	case KindDirective:
		buf.WriteString("<!")
		buf.WriteString(n.data)
		buf.WriteByte('>')
	}
}
