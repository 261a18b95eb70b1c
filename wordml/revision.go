package wordml

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/inkfell/redline/xmltree"
)

// rsidAttr is the revision session attribute checked and stamped by
// EnableTracking.
const rsidAttr = "w:rsidRDefault"

// EnableTracking stamps the document root with a four-digit hex revision
// session id so editors attribute later edits to a session. A root that
// already carries the attribute is left untouched, which keeps the part
// byte-identical across repeated calls.
func (d *Document) EnableTracking() (rsid string, changed bool, err error) {
	part, tree, err := d.bodyPart()
	if err != nil {
		return "", false, err
	}
	rsid, changed = d.ensureSession(part, tree)
	return rsid, changed, nil
}

// ensureSession stamps the root with a session id when it lacks one. The
// mutation operations call it so a tracked change never lands in a
// document without a session, whether or not EnableTracking ran first.
func (d *Document) ensureSession(part *Part, tree *xmltree.Tree) (string, bool) {
	root := tree.Root()
	if v, ok := tree.Attr(root, rsidAttr); ok {
		return v, false
	}

	rsid := fmt.Sprintf("%04X", rand.Intn(0x10000))
	tree.SetAttr(root, rsidAttr, rsid)
	part.MarkDirty()
	d.log.Debug("started revision session", zap.String("rsid", rsid))
	return rsid, true
}

// SuggestInsertion appends text to the paragraph at location as a
// tracked insertion. The new run arrives wrapped in w:ins carrying a
// revision id, the author and a date, so Word presents it as a change to
// accept or reject rather than settled text.
func (d *Document) SuggestInsertion(location int, text string) (xmltree.Match, error) {
	part, tree, err := d.bodyPart()
	if err != nil {
		return xmltree.MatchNone, err
	}
	p, match := tree.FindByTagLine("w:p", location)
	if match == xmltree.MatchNone {
		return match, fmt.Errorf("%w: location %d", ErrLocationNotFound, location)
	}

	id, err := d.nextRevisionID()
	if err != nil {
		return match, err
	}
	d.ensureSession(part, tree)

	ins := tree.NewElement("w:ins")
	d.stamp(tree, ins, id)
	tree.AppendChild(ins, newRun(tree, "w:t", text))
	tree.AppendChild(p, ins)
	part.MarkDirty()

	d.log.Debug("suggested insertion",
		zap.Int("location", location),
		zap.Int("revision", id),
		zap.Stringer("match", match))
	return match, nil
}

// SuggestDeletion marks every run of the paragraph at location as a
// tracked deletion. Each run is wrapped in w:del and its text elements
// renamed to w:delText with attributes intact. Nothing is physically
// removed, so rejecting the change restores the paragraph exactly.
func (d *Document) SuggestDeletion(location int) (xmltree.Match, error) {
	part, tree, err := d.bodyPart()
	if err != nil {
		return xmltree.MatchNone, err
	}
	p, match := tree.FindByTagLine("w:p", location)
	if match == xmltree.MatchNone {
		return match, fmt.Errorf("%w: location %d", ErrLocationNotFound, location)
	}

	runs := tree.ChildElements(p, "w:r")
	if len(runs) == 0 {
		// A paragraph with no runs has nothing to strike through.
		return match, nil
	}

	id, err := d.nextRevisionID()
	if err != nil {
		return match, err
	}
	d.ensureSession(part, tree)
	for _, run := range runs {
		del := tree.NewElement("w:del")
		d.stamp(tree, del, id)
		id++
		tree.Wrap(run, del)
		for _, wt := range tree.Descendants(run, "w:t") {
			tree.SetTag(wt, "w:delText")
		}
	}
	part.MarkDirty()

	d.log.Debug("suggested deletion",
		zap.Int("location", location),
		zap.Int("runs", len(runs)),
		zap.Stringer("match", match))
	return match, nil
}

// nextRevisionID allocates an identifier above every w:id already in the
// document body and comments part, keeping ids unique across both.
func (d *Document) nextRevisionID() (int, error) {
	maxID := 0
	for _, name := range []string{DocumentPart, CommentsPart} {
		part, err := d.Part(name)
		if err != nil {
			if errors.Is(err, ErrPartNotFound) {
				continue
			}
			return 0, err
		}
		tree, err := part.Tree()
		if err != nil {
			return 0, err
		}
		tree.EachElement(func(id xmltree.NodeID) {
			if v, ok := tree.Attr(id, "w:id"); ok {
				if n, err := strconv.Atoi(v); err == nil && n > maxID {
					maxID = n
				}
			}
		})
	}
	return maxID + 1, nil
}

// stamp sets the identifying attributes every tracked change carries.
func (d *Document) stamp(tree *xmltree.Tree, el xmltree.NodeID, id int) {
	tree.SetAttr(el, "w:id", strconv.Itoa(id))
	tree.SetAttr(el, "w:author", d.author)
	tree.SetAttr(el, "w:date", d.dateStamp())
}

// dateStamp renders the clock in the UTC form Word writes on revisions.
func (d *Document) dateStamp() string {
	return d.now().UTC().Format(time.RFC3339)
}

// newRun builds a w:r around a single text element, which is "w:t" for
// live text and "w:delText" for struck text. Text is normalized to NFC,
// and xml:space is preserved when edge whitespace would otherwise be
// dropped by consumers.
func newRun(tree *xmltree.Tree, textTag, text string) xmltree.NodeID {
	run := tree.NewElement("w:r")
	wt := tree.NewElement(textTag)
	text = norm.NFC.String(text)
	if needsPreserve(text) {
		tree.SetAttr(wt, "xml:space", "preserve")
	}
	if text != "" {
		tree.AppendChild(wt, tree.NewText(text))
	}
	tree.AppendChild(run, wt)
	return run
}

func needsPreserve(s string) bool {
	return s != strings.TrimSpace(s) || strings.ContainsAny(s, "\n\t")
}
