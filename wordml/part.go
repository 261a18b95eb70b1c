package wordml

import (
	"fmt"

	"github.com/inkfell/redline/xmltree"
)

// Part is a single XML part of the package. The raw bytes read from disk
// are kept until an edit dirties the part; a part that is never dirtied
// is never rewritten.
type Part struct {
	name  string
	raw   []byte
	tree  *xmltree.Tree
	dirty bool
}

// Name returns the slash-separated part name.
func (p *Part) Name() string { return p.name }

// Raw returns the bytes the part was loaded with, or the bytes last
// written by Save.
func (p *Part) Raw() []byte { return p.raw }

// Dirty reports whether the part has unsaved edits.
func (p *Part) Dirty() bool { return p.dirty }

// Tree parses the part on first use and returns its XML tree. The error
// wraps xmltree.ErrMalformed when the part is not well-formed.
func (p *Part) Tree() (*xmltree.Tree, error) {
	if p.tree != nil {
		return p.tree, nil
	}
	t, err := xmltree.Parse(p.raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	p.tree = t
	return t, nil
}

// MarkDirty flags the part for rewriting on the next Save.
func (p *Part) MarkDirty() { p.dirty = true }
