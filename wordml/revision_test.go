package wordml

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/inkfell/redline/xmltree"
)

var rsidPattern = regexp.MustCompile(`^[0-9A-F]{4}$`)

func TestEnableTracking(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	rsid, changed, err := d.EnableTracking()
	if err != nil {
		t.Fatalf("EnableTracking failed: %v", err)
	}
	if !changed {
		t.Error("first call reported no change")
	}
	if !rsidPattern.MatchString(rsid) {
		t.Errorf("rsid %q is not four uppercase hex digits", rsid)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}

	saved, err := afero.ReadFile(afs, "/unpacked/word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(saved), `w:rsidRDefault="`+rsid+`"`) {
		t.Errorf("saved document missing rsid attribute: %.200s", saved)
	}
}

func TestEnableTrackingIdempotent(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	first, _, err := d.EnableTracking()
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}
	afterFirst, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")

	// A fresh Document over the same directory must see the attribute and
	// leave the part alone.
	d2, err := Open("/unpacked", FileSystem(afs))
	if err != nil {
		t.Fatal(err)
	}
	second, changed, err := d2.EnableTracking()
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("second call claimed to change the document")
	}
	if second != first {
		t.Errorf("second call returned rsid %q, want existing %q", second, first)
	}
	if err := d2.Save(); err != nil {
		t.Fatal(err)
	}
	afterSecond, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")

	if !bytes.Equal(afterFirst, afterSecond) {
		t.Error("repeated enable rewrote the document part")
	}
}

func TestMutationsStartSessionLazily(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	// No explicit EnableTracking. The first mutation must still stamp the
	// session identifier on the document root.
	if _, err := d.SuggestInsertion(1, " more"); err != nil {
		t.Fatal(err)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}
	saved, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")
	if !strings.Contains(string(saved), `w:rsidRDefault="`) {
		t.Errorf("mutation did not start a revision session: %.200s", saved)
	}

	rsid, changed, err := d.EnableTracking()
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("tracking reported a change after the session already existed")
	}
	if !rsidPattern.MatchString(rsid) {
		t.Errorf("rsid %q is not four uppercase hex digits", rsid)
	}
}

func TestSuggestInsertion(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	match, err := d.SuggestInsertion(1, "and then some")
	if err != nil {
		t.Fatalf("SuggestInsertion failed: %v", err)
	}
	if match != xmltree.MatchApproximate {
		t.Errorf("match = %v, want approximate", match)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}

	saved, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")
	tree, err := xmltree.Parse(saved)
	if err != nil {
		t.Fatalf("saved document unparsable: %v", err)
	}

	ins := tree.Elements("w:ins")
	if len(ins) != 1 {
		t.Fatalf("found %d w:ins elements, want 1", len(ins))
	}
	for attr, want := range map[string]string{
		"w:id":     "1",
		"w:author": "Ada Lovelace",
		"w:date":   "2026-03-14T09:26:53Z",
	} {
		if got, _ := tree.Attr(ins[0], attr); got != want {
			t.Errorf("w:ins %s = %q, want %q", attr, got, want)
		}
	}
	if got := tree.Text(ins[0]); got != "and then some" {
		t.Errorf("inserted text = %q", got)
	}

	// The insertion must be the last child of the target paragraph.
	p := tree.Parent(ins[0])
	if tree.Tag(p) != "w:p" {
		t.Fatalf("w:ins parent = %q, want w:p", tree.Tag(p))
	}
	kids := tree.Children(p)
	if kids[len(kids)-1] != ins[0] {
		t.Error("w:ins is not the paragraph's final child")
	}
	if got := tree.Text(p); got != "First body paragraph.and then some" {
		t.Errorf("paragraph text = %q", got)
	}
}

func TestSuggestInsertionPreservesEdgeWhitespace(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	if _, err := d.SuggestInsertion(0, " padded "); err != nil {
		t.Fatal(err)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}

	saved, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")
	if !strings.Contains(string(saved), `<w:t xml:space="preserve"> padded </w:t>`) {
		t.Errorf("edge whitespace not preserved: %s", saved)
	}
}

func TestSuggestInsertionNormalizesToNFC(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	// "cafe" followed by a combining acute accent; NFC folds it to é.
	if _, err := d.SuggestInsertion(0, "café"); err != nil {
		t.Fatal(err)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}

	saved, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")
	if !strings.Contains(string(saved), "café") {
		t.Error("inserted text was not normalized to NFC")
	}
	if strings.Contains(string(saved), "é") {
		t.Error("decomposed form leaked into the document")
	}
}

func TestSuggestDeletion(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	match, err := d.SuggestDeletion(2)
	if err != nil {
		t.Fatalf("SuggestDeletion failed: %v", err)
	}
	if match != xmltree.MatchApproximate {
		t.Errorf("match = %v, want approximate", match)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}

	saved, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")
	tree, err := xmltree.Parse(saved)
	if err != nil {
		t.Fatalf("saved document unparsable: %v", err)
	}

	dels := tree.Elements("w:del")
	if len(dels) != 2 {
		t.Fatalf("found %d w:del wrappers, want one per run", len(dels))
	}
	idA, _ := tree.Attr(dels[0], "w:id")
	idB, _ := tree.Attr(dels[1], "w:id")
	if idA == idB {
		t.Errorf("deletion wrappers share id %q", idA)
	}

	// The struck text must survive, renamed and attribute-intact.
	delTexts := tree.Elements("w:delText")
	if len(delTexts) != 2 {
		t.Fatalf("found %d w:delText elements, want 2", len(delTexts))
	}
	if v, ok := tree.Attr(delTexts[0], "xml:space"); !ok || v != "preserve" {
		t.Error("xml:space lost when renaming w:t to w:delText")
	}
	var sb strings.Builder
	for _, dt := range delTexts {
		sb.WriteString(tree.Text(dt))
	}
	if sb.String() != "Second body paragraph." {
		t.Errorf("struck text = %q, content must never be removed", sb.String())
	}
	if len(tree.Descendants(tree.Parent(dels[0]), "w:t")) != 0 {
		t.Error("paragraph still carries live w:t under a suggested deletion")
	}
}

func TestSuggestDeletionTwiceDoesNotDoubleWrap(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	if _, err := d.SuggestDeletion(2); err != nil {
		t.Fatal(err)
	}
	if _, err := d.SuggestDeletion(2); err != nil {
		t.Fatal(err)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}

	saved, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")
	if got := strings.Count(string(saved), "<w:del "); got != 2 {
		t.Errorf("found %d w:del wrappers after repeat call, want 2", got)
	}
}

func TestSuggestDeletionEmptyParagraph(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	if _, err := d.SuggestDeletion(3); err != nil {
		t.Fatalf("deleting an empty paragraph should succeed: %v", err)
	}
	p, err := d.Part(DocumentPart)
	if err != nil {
		t.Fatal(err)
	}
	if p.Dirty() {
		t.Error("empty deletion dirtied the document part")
	}
}

func TestRevisionIDsSeedAboveExisting(t *testing.T) {
	afs := afero.NewMemMapFs()
	dir := testDir(t, afs)
	seeded := strings.Replace(testDocument,
		`<w:p><w:r><w:t>First body paragraph.</w:t></w:r></w:p>`,
		`<w:p><w:ins w:id="7" w:author="x" w:date="2020-01-01T00:00:00Z"><w:r><w:t>old</w:t></w:r></w:ins></w:p>`, 1)
	if err := afero.WriteFile(afs, dir+"/word/document.xml", []byte(seeded), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := Open(dir, FileSystem(afs), Clock(testClock))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := d.SuggestInsertion(0, "new"); err != nil {
		t.Fatal(err)
	}
	if err := d.Save(); err != nil {
		t.Fatal(err)
	}

	saved, _ := afero.ReadFile(afs, "/unpacked/word/document.xml")
	if !strings.Contains(string(saved), `<w:ins w:id="8"`) {
		t.Errorf("new revision id not allocated above existing: %s", saved)
	}
}

func TestSuggestOpsLocationNotFound(t *testing.T) {
	afs := afero.NewMemMapFs()
	d := openTestDoc(t, afs)

	if _, err := d.SuggestInsertion(42, "text"); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("insertion error = %v, want ErrLocationNotFound", err)
	}
	if _, err := d.SuggestDeletion(-1); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("deletion error = %v, want ErrLocationNotFound", err)
	}
}
