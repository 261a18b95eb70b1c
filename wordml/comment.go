package wordml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inkfell/redline/opc"
	"github.com/inkfell/redline/xmltree"
)

// CommentRef describes a comment that was just added.
type CommentRef struct {
	ID    int
	Match xmltree.Match
}

// AddComment anchors a comment to the single paragraph at location.
func (d *Document) AddComment(location int, text string) (CommentRef, error) {
	return d.AddCommentRange(location, location, text)
}

// AddCommentRange anchors a comment to the span from the paragraph at
// start through the paragraph at end. The comment body lands in the
// comments part, which is created and wired into the content types and
// relationship streams the first time a document gains a comment. The
// body part receives a range start marker, a range end marker and a
// reference run carrying the comment id.
func (d *Document) AddCommentRange(start, end int, text string) (CommentRef, error) {
	ref := CommentRef{Match: xmltree.MatchNone}

	part, tree, err := d.bodyPart()
	if err != nil {
		return ref, err
	}

	sp, sm := tree.FindByTagLine("w:p", start)
	if sm == xmltree.MatchNone {
		return ref, fmt.Errorf("%w: location %d", ErrLocationNotFound, start)
	}
	ep, em := sp, sm
	if end != start {
		ep, em = tree.FindByTagLine("w:p", end)
		if em == xmltree.MatchNone {
			return ref, fmt.Errorf("%w: location %d", ErrLocationNotFound, end)
		}
		if ep != sp && tree.Before(ep, sp) {
			return ref, fmt.Errorf("%w: %d..%d", ErrInvalidRange, start, end)
		}
	}
	ref.Match = combineMatch(sm, em)

	id, err := d.nextRevisionID()
	if err != nil {
		return ref, err
	}
	ref.ID = id
	d.ensureSession(part, tree)

	cpart, ctree, err := d.ensureComments()
	if err != nil {
		return ref, err
	}

	comment := ctree.NewElement("w:comment")
	ctree.SetAttr(comment, "w:id", strconv.Itoa(id))
	ctree.SetAttr(comment, "w:author", d.author)
	ctree.SetAttr(comment, "w:date", d.dateStamp())
	ctree.SetAttr(comment, "w:initials", d.initials)
	ctree.AppendChild(comment, commentBody(ctree, text))
	ctree.AppendChild(ctree.Root(), comment)
	cpart.MarkDirty()

	idAttr := strconv.Itoa(id)
	rs := tree.NewElement("w:commentRangeStart")
	tree.SetAttr(rs, "w:id", idAttr)
	insertRunLevel(tree, sp, rs)

	re := tree.NewElement("w:commentRangeEnd")
	tree.SetAttr(re, "w:id", idAttr)
	tree.AppendChild(ep, re)

	refRun := tree.NewElement("w:r")
	refEl := tree.NewElement("w:commentReference")
	tree.SetAttr(refEl, "w:id", idAttr)
	tree.AppendChild(refRun, refEl)
	tree.AppendChild(ep, refRun)
	part.MarkDirty()

	d.log.Debug("added comment",
		zap.Int("id", id),
		zap.Int("start", start),
		zap.Int("end", end),
		zap.Stringer("match", ref.Match))
	return ref, nil
}

// ensureComments returns the comments part, creating an empty one and
// wiring it into the package on first use.
func (d *Document) ensureComments() (*Part, *xmltree.Tree, error) {
	part, err := d.Part(CommentsPart)
	if err == nil {
		tree, terr := part.Tree()
		if terr != nil {
			return nil, nil, terr
		}
		return part, tree, nil
	}
	if !errors.Is(err, ErrPartNotFound) {
		return nil, nil, err
	}

	tree := xmltree.New("w:comments")
	tree.SetAttr(tree.Root(), "xmlns:w", NamespaceWordML)
	part = d.CreatePart(CommentsPart, tree)

	if err := d.registerCommentsContentType(); err != nil {
		return nil, nil, err
	}
	if err := d.registerCommentsRelationship(); err != nil {
		return nil, nil, err
	}
	d.log.Debug("created comments part")
	return part, tree, nil
}

// registerCommentsContentType adds the comments override to the content
// types stream. A package that has no content types stream at all is
// left as-is; packing such a package fails on its own terms.
func (d *Document) registerCommentsContentType() error {
	part, err := d.Part(opc.ContentTypesPart)
	if errors.Is(err, ErrPartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	tree, err := part.Tree()
	if err != nil {
		return err
	}

	root := tree.Root()
	partName := "/" + CommentsPart
	for _, o := range tree.ChildElements(root, "Override") {
		if v, _ := tree.Attr(o, "PartName"); v == partName {
			return nil
		}
	}

	o := tree.NewElement("Override")
	tree.SetAttr(o, "PartName", partName)
	tree.SetAttr(o, "ContentType", opc.TypeComments)
	tree.AppendChild(root, o)
	part.MarkDirty()
	return nil
}

// registerCommentsRelationship points the main document at the comments
// part, creating the relationship stream when the package lacks one.
func (d *Document) registerCommentsRelationship() error {
	part, err := d.Part(DocumentRelsPart)
	if errors.Is(err, ErrPartNotFound) {
		tree := xmltree.New("Relationships")
		tree.SetAttr(tree.Root(), "xmlns", NamespaceRelationships)
		part = d.CreatePart(DocumentRelsPart, tree)
	} else if err != nil {
		return err
	}
	tree, err := part.Tree()
	if err != nil {
		return err
	}

	root := tree.Root()
	maxID := 0
	for _, rel := range tree.ChildElements(root, "Relationship") {
		if v, _ := tree.Attr(rel, "Type"); v == RelTypeComments {
			return nil
		}
		if v, ok := tree.Attr(rel, "Id"); ok {
			if n, err := strconv.Atoi(strings.TrimPrefix(v, "rId")); err == nil && n > maxID {
				maxID = n
			}
		}
	}

	rel := tree.NewElement("Relationship")
	tree.SetAttr(rel, "Id", fmt.Sprintf("rId%d", maxID+1))
	tree.SetAttr(rel, "Type", RelTypeComments)
	tree.SetAttr(rel, "Target", "comments.xml")
	tree.AppendChild(root, rel)
	part.MarkDirty()
	return nil
}

// commentBody builds the single paragraph a comment displays.
func commentBody(tree *xmltree.Tree, text string) xmltree.NodeID {
	p := tree.NewElement("w:p")
	tree.AppendChild(p, newRun(tree, "w:t", text))
	return p
}

// insertRunLevel places el at the start of paragraph p's run-level
// content, which means after the paragraph properties when present.
func insertRunLevel(tree *xmltree.Tree, p, el xmltree.NodeID) {
	if pPr := tree.ChildElements(p, "w:pPr"); len(pPr) > 0 {
		tree.InsertAfter(p, el, pPr[0])
		return
	}
	kids := tree.Children(p)
	if len(kids) == 0 {
		tree.AppendChild(p, el)
		return
	}
	tree.InsertBefore(p, el, kids[0])
}

// combineMatch reports the weaker of two location matches.
func combineMatch(a, b xmltree.Match) xmltree.Match {
	if a == xmltree.MatchApproximate || b == xmltree.MatchApproximate {
		return xmltree.MatchApproximate
	}
	return xmltree.MatchExact
}
