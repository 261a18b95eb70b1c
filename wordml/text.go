package wordml

import (
	"fmt"
	"strings"

	"github.com/inkfell/redline/xmltree"
)

// Paragraph is one non-empty paragraph of body text.
type Paragraph struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// bodyPart returns the main document part and its parsed tree.
func (d *Document) bodyPart() (*Part, *xmltree.Tree, error) {
	p, err := d.Part(DocumentPart)
	if err != nil {
		return nil, nil, err
	}
	tree, err := p.Tree()
	if err != nil {
		return nil, nil, err
	}
	return p, tree, nil
}

// FindParagraph resolves a location hint against the document body. The
// hint is first read as a 1-based source line; when no paragraph starts
// on that line it is read as a zero-based paragraph index, and the
// returned match says which interpretation held.
func (d *Document) FindParagraph(location int) (xmltree.NodeID, xmltree.Match, error) {
	_, tree, err := d.bodyPart()
	if err != nil {
		return xmltree.Nil, xmltree.MatchNone, err
	}
	id, match := tree.FindByTagLine("w:p", location)
	if match == xmltree.MatchNone {
		return xmltree.Nil, match, fmt.Errorf("%w: location %d", ErrLocationNotFound, location)
	}
	return id, match, nil
}

// Paragraphs extracts the document's visible paragraph text. Paragraphs
// whose text is empty after trimming are skipped; Index counts every
// paragraph, skipped or not, so it stays usable as a location hint.
func (d *Document) Paragraphs() ([]Paragraph, error) {
	_, tree, err := d.bodyPart()
	if err != nil {
		return nil, err
	}

	var out []Paragraph
	for i, p := range tree.Elements("w:p") {
		var sb strings.Builder
		for _, wt := range tree.Descendants(p, "w:t") {
			sb.WriteString(tree.Text(wt))
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		out = append(out, Paragraph{Index: i, Text: text})
	}
	return out, nil
}
