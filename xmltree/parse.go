package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// ErrMalformed reports content that could not be parsed as a single
// well-formed XML document.
var ErrMalformed = errors.New("xmltree: malformed xml")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse builds a tree from the encoded bytes of an XML part.
//
// Names are kept as written, so "w:p" stays "w:p" and no namespace
// resolution takes place. The XML declaration is dropped; Serialize
// always writes a canonical one. A UTF-16 part with a byte order mark is
// transcoded before parsing, and parts in other declared encodings are
// read through a charset reader, losing line metadata.
func Parse(data []byte) (*Tree, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	preconverted := false
	if enc := utf16ByBOM(data); enc != nil {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		data = out
		preconverted = true
	}

	misaligned := false
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = func(label string, r io.Reader) (io.Reader, error) {
		switch norm := strings.ToLower(strings.TrimSpace(label)); norm {
		case "", "utf-8", "utf8":
			return r, nil
		case "utf-16", "utf-16le", "utf-16be":
			if preconverted {
				return r, nil
			}
			fallthrough
		default:
			misaligned = true
			return charset.NewReaderLabel(label, r)
		}
	}

	t := &Tree{root: Nil}
	lineAt := lineIndex(data)
	var stack []NodeID
	for {
		off := d.InputOffset()
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch tk := tok.(type) {
		case xml.StartElement:
			id := t.alloc(node{
				kind:   KindElement,
				name:   writtenName(tk.Name),
				attrs:  attrList(tk.Attr),
				parent: Nil,
				line:   lineAt(off),
			})
			switch {
			case len(stack) > 0:
				t.AppendChild(stack[len(stack)-1], id)
			case t.root == Nil:
				t.root = id
			default:
				return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
			}
			stack = append(stack, id)
		case xml.EndElement:
			name := writtenName(tk.Name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected </%s>", ErrMalformed, name)
			}
			top := stack[len(stack)-1]
			if t.nodes[top].name != name {
				return nil, fmt.Errorf("%w: element <%s> closed by </%s>", ErrMalformed, t.nodes[top].name, name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(tk)) > 0 {
					return nil, fmt.Errorf("%w: character data outside root element", ErrMalformed)
				}
				continue
			}
			t.AppendChild(stack[len(stack)-1], t.NewText(string(tk)))
		case xml.Comment:
			t.attachMisc(stack, t.alloc(node{kind: KindComment, data: string(tk), parent: Nil}))
		case xml.ProcInst:
			if strings.EqualFold(tk.Target, "xml") {
				continue
			}
			t.attachMisc(stack, t.alloc(node{kind: KindProcInst, name: tk.Target, data: string(tk.Inst), parent: Nil}))
		case xml.Directive:
			t.attachMisc(stack, t.alloc(node{kind: KindDirective, data: string(tk), parent: Nil}))
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unclosed element <%s>", ErrMalformed, t.nodes[stack[len(stack)-1]].name)
	}
	if t.root == Nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	if misaligned {
		for i := range t.nodes {
			t.nodes[i].line = 0
		}
	}
	return t, nil
}

// attachMisc places a comment, processing instruction or directive either
// under the current open element or in the document prolog or epilog.
func (t *Tree) attachMisc(stack []NodeID, id NodeID) {
	switch {
	case len(stack) > 0:
		t.AppendChild(stack[len(stack)-1], id)
	case t.root == Nil:
		t.prolog = append(t.prolog, id)
	default:
		t.epilog = append(t.epilog, id)
	}
}

// writtenName reconstructs the source form of a name from a raw token,
// where the decoder reports the prefix in Space.
func writtenName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func attrList(attrs []xml.Attr) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		out[i] = Attr{Name: writtenName(a.Name), Value: a.Value}
	}
	return out
}

// lineIndex returns a lookup from byte offset to 1-based line number for
// the buffer the decoder consumes.
func lineIndex(data []byte) func(int64) int32 {
	var nl []int
	for i, b := range data {
		if b == '\n' {
			nl = append(nl, i)
		}
	}
	return func(off int64) int32 {
		return int32(sort.SearchInts(nl, int(off)) + 1)
	}
}

// utf16ByBOM reports the UTF-16 encoding to transcode from when the
// buffer opens with a byte order mark, or nil when it does not.
func utf16ByBOM(data []byte) encoding.Encoding {
	if len(data) < 2 {
		return nil
	}
	if (data[0] == 0xFE && data[1] == 0xFF) || (data[0] == 0xFF && data[1] == 0xFE) {
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	}
	return nil
}
