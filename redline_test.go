package redline

import (
	"archive/zip"
	"bytes"
	stdjson "encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/inkfell/redline/opc"
	"github.com/inkfell/redline/wordml"
)

const xmlDecl = "<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"yes\"?>\r\n"

const fxTypes = xmlDecl +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/><Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/></Types>`

const fxPackageRels = xmlDecl +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const fxDocumentRels = xmlDecl +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

const fxDocument = xmlDecl +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Title</w:t></w:r></w:p><w:p><w:r><w:t>First body paragraph.</w:t></w:r></w:p><w:p><w:r><w:t xml:space="preserve">Second </w:t></w:r><w:r><w:t>body paragraph.</w:t></w:r></w:p><w:p/><w:sectPr/></w:body></w:document>`

const fxStyles = xmlDecl +
	`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/></w:style></w:styles>`

type archEntry struct {
	name string
	body string
}

func wordEntries() []archEntry {
	return []archEntry{
		{opc.ContentTypesPart, fxTypes},
		{"_rels/.rels", fxPackageRels},
		{"word/document.xml", fxDocument},
		{"word/_rels/document.xml.rels", fxDocumentRels},
		{"word/styles.xml", fxStyles},
	}
}

func archiveBytes(t *testing.T, entries []archEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func writeWordArchive(t *testing.T, afs afero.Fs, path string, entries []archEntry) {
	t.Helper()
	if err := afero.WriteFile(afs, path, archiveBytes(t, entries), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
}

// readEntries opens the archive at path and returns its entry names in
// stored order along with each entry's body.
func readEntries(t *testing.T, afs afero.Fs, path string) ([]string, map[string][]byte) {
	t.Helper()
	data, err := afero.ReadFile(afs, path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := make([]string, 0, len(zr.File))
	parts := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		names = append(names, f.Name)
		parts[f.Name] = body
	}
	return names, parts
}

func testEditor(afs afero.Fs, path string) *Editor {
	return Open(path).
		FileSystem(afs).
		Author("Ada Lovelace").
		Clock(func() time.Time {
			return time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
		})
}

func TestAddCommentFullCycle(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeWordArchive(t, afs, "/review.docx", wordEntries())

	res, err := testEditor(afs, "/review.docx").AddComment(1, "Needs a citation.")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if !res.Success {
		t.Fatalf("result not successful: %+v", res)
	}
	if res.Message != "Comment added at location 1" {
		t.Errorf("message = %q", res.Message)
	}
	if res.Location == nil || *res.Location != 1 {
		t.Errorf("location = %v, want 1", res.Location)
	}
	if res.Author != "Ada Lovelace" {
		t.Errorf("author = %q", res.Author)
	}
	if res.Match != "approximate" {
		t.Errorf("match = %q, want approximate", res.Match)
	}

	names, parts := readEntries(t, afs, "/review.docx")
	if names[0] != opc.ContentTypesPart {
		t.Fatalf("first entry = %s, want %s", names[0], opc.ContentTypesPart)
	}

	comments := string(parts["word/comments.xml"])
	if comments == "" {
		t.Fatal("comments part missing from repacked archive")
	}
	if n := strings.Count(comments, "<w:comment "); n != 1 {
		t.Errorf("comments part holds %d comments, want 1", n)
	}
	for _, want := range []string{
		`w:id="1"`,
		`w:author="Ada Lovelace"`,
		`w:date="2026-03-14T09:26:53Z"`,
		`w:initials="AL"`,
		"Needs a citation.",
	} {
		if !strings.Contains(comments, want) {
			t.Errorf("comments part missing %s", want)
		}
	}

	doc := string(parts["word/document.xml"])
	for _, want := range []string{
		`<w:commentRangeStart w:id="1"/>`,
		`<w:commentRangeEnd w:id="1"/>`,
		`<w:commentReference w:id="1"/>`,
		// Paragraphs the comment never touched survive the rewrite intact.
		"<w:t>Title</w:t>",
		`<w:t xml:space="preserve">Second </w:t>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %s", want)
		}
	}

	if !strings.Contains(string(parts[opc.ContentTypesPart]), `PartName="/word/comments.xml"`) {
		t.Error("content types missing comments override")
	}
	if !strings.Contains(string(parts["word/_rels/document.xml.rels"]), `Target="comments.xml"`) {
		t.Error("document relationships missing comments entry")
	}

	// Parts the edit never touched come back byte for byte.
	if !bytes.Equal(parts["word/styles.xml"], []byte(fxStyles)) {
		t.Error("styles part changed during repack")
	}
	if !bytes.Equal(parts["_rels/.rels"], []byte(fxPackageRels)) {
		t.Error("package relationships changed during repack")
	}
}

func TestEnableTrackingIdempotentAcrossRuns(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeWordArchive(t, afs, "/review.docx", wordEntries())

	first, err := testEditor(afs, "/review.docx").EnableTracking()
	if err != nil {
		t.Fatalf("first EnableTracking: %v", err)
	}
	if !first.Success || first.Message != "Revision tracking enabled" {
		t.Fatalf("first result = %+v", first)
	}
	if first.Author != "Ada Lovelace" || first.Initials != "AL" {
		t.Errorf("attribution = %q/%q", first.Author, first.Initials)
	}
	afterFirst, err := afero.ReadFile(afs, "/review.docx")
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}

	second, err := testEditor(afs, "/review.docx").EnableTracking()
	if err != nil {
		t.Fatalf("second EnableTracking: %v", err)
	}
	if !second.Success {
		t.Fatalf("second result = %+v", second)
	}
	afterSecond, err := afero.ReadFile(afs, "/review.docx")
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !bytes.Equal(afterFirst, afterSecond) {
		t.Error("second run changed the archive")
	}

	_, parts := readEntries(t, afs, "/review.docx")
	if !strings.Contains(string(parts["word/document.xml"]), "w:rsidRDefault=") {
		t.Error("document missing revision session id")
	}
}

func TestPackFailureLeavesArchiveUntouched(t *testing.T) {
	afs := afero.NewMemMapFs()
	entries := []archEntry{
		{"_rels/.rels", fxPackageRels},
		{"word/document.xml", fxDocument},
	}
	writeWordArchive(t, afs, "/broken.docx", entries)
	before, err := afero.ReadFile(afs, "/broken.docx")
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}

	res, err := testEditor(afs, "/broken.docx").EnableTracking()
	if !errors.Is(err, opc.ErrMissingContentTypes) {
		t.Fatalf("err = %v, want ErrMissingContentTypes", err)
	}
	if res.Success || res.Error == "" {
		t.Errorf("failure result = %+v", res)
	}

	after, err := afero.ReadFile(afs, "/broken.docx")
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("failed repack modified the original archive")
	}
}

func TestMissingDocumentPart(t *testing.T) {
	afs := afero.NewMemMapFs()
	entries := []archEntry{
		{opc.ContentTypesPart, fxTypes},
		{"_rels/.rels", fxPackageRels},
	}
	writeWordArchive(t, afs, "/empty.docx", entries)
	before, _ := afero.ReadFile(afs, "/empty.docx")

	_, err := testEditor(afs, "/empty.docx").AddComment(0, "anything")
	if !errors.Is(err, wordml.ErrPartNotFound) {
		t.Fatalf("err = %v, want ErrPartNotFound", err)
	}

	after, _ := afero.ReadFile(afs, "/empty.docx")
	if !bytes.Equal(before, after) {
		t.Error("failed edit modified the original archive")
	}
}

func TestSuggestInsertionResultShape(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeWordArchive(t, afs, "/review.docx", wordEntries())

	res, err := testEditor(afs, "/review.docx").SuggestInsertion(0, "more text")
	if err != nil {
		t.Fatalf("SuggestInsertion: %v", err)
	}
	data, err := res.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var m map[string]any
	if err := stdjson.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["success"] != true {
		t.Errorf("success = %v", m["success"])
	}
	if m["message"] != "Insertion suggested at location 0" {
		t.Errorf("message = %v", m["message"])
	}
	// Location zero still serializes.
	if m["location"] != float64(0) {
		t.Errorf("location = %v", m["location"])
	}
	if m["text"] != "more text" {
		t.Errorf("text = %v", m["text"])
	}
	if _, ok := m["author"]; ok {
		t.Error("insertion result should not carry an author field")
	}

	_, parts := readEntries(t, afs, "/review.docx")
	doc := string(parts["word/document.xml"])
	if !strings.Contains(doc, `<w:ins `) || !strings.Contains(doc, "more text") {
		t.Error("document missing tracked insertion")
	}

	// The rewritten archive still validates.
	verdict, err := testEditor(afs, "/review.docx").Validate()
	if err != nil {
		t.Fatalf("Validate after insertion: %v", err)
	}
	if !verdict.Valid {
		t.Errorf("mutated archive invalid: %v", verdict.Errors)
	}
	if len(verdict.Errors) != 0 {
		t.Errorf("unexpected validation errors: %v", verdict.Errors)
	}
}

func TestSuggestDeletionFullCycle(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeWordArchive(t, afs, "/review.docx", wordEntries())

	res, err := testEditor(afs, "/review.docx").SuggestDeletion(2)
	if err != nil {
		t.Fatalf("SuggestDeletion: %v", err)
	}
	if res.Message != "Deletion suggested at location 2" {
		t.Errorf("message = %q", res.Message)
	}
	if res.Text != "" {
		t.Errorf("deletion result text = %q, want empty", res.Text)
	}

	_, parts := readEntries(t, afs, "/review.docx")
	doc := string(parts["word/document.xml"])
	if strings.Count(doc, "<w:del ") != 2 {
		t.Errorf("want one tracked deletion per run, got %d", strings.Count(doc, "<w:del "))
	}
	if !strings.Contains(doc, `<w:delText xml:space="preserve">Second </w:delText>`) {
		t.Error("deleted text lost its space preservation")
	}
}

func TestFailureJSONShape(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeWordArchive(t, afs, "/review.docx", wordEntries())

	res, err := testEditor(afs, "/review.docx").AddComment(99, "never lands")
	if !errors.Is(err, wordml.ErrLocationNotFound) {
		t.Fatalf("err = %v, want ErrLocationNotFound", err)
	}
	data, err := res.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var m map[string]any
	if err := stdjson.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("failure shape has %d keys, want success and error only: %s", len(m), data)
	}
	if m["success"] != false {
		t.Errorf("success = %v", m["success"])
	}
	if s, ok := m["error"].(string); !ok || s == "" {
		t.Errorf("error = %v", m["error"])
	}
}

func TestValidateArchive(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeWordArchive(t, afs, "/review.docx", wordEntries())

	res, err := testEditor(afs, "/review.docx").Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Success || !res.Valid {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v", res.Errors)
	}

	data, err := res.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var m map[string]any
	if err := stdjson.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Empty lists stay in the payload.
	if _, ok := m["errors"].([]any); !ok {
		t.Errorf("errors field = %v", m["errors"])
	}
	if _, ok := m["warnings"].([]any); !ok {
		t.Errorf("warnings field = %v", m["warnings"])
	}
}

func TestValidateInvalidKeepsFullShape(t *testing.T) {
	afs := afero.NewMemMapFs()
	entries := []archEntry{
		{opc.ContentTypesPart, fxTypes},
		{"_rels/.rels", fxPackageRels},
	}
	writeWordArchive(t, afs, "/empty.docx", entries)

	res, err := testEditor(afs, "/empty.docx").Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Success || res.Valid {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Errors) == 0 {
		t.Fatal("want missing-part errors")
	}

	data, err := res.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var m map[string]any
	if err := stdjson.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["valid"]; !ok {
		t.Errorf("invalid document collapsed to failure shape: %s", data)
	}
	if errs, ok := m["errors"].([]any); !ok || len(errs) == 0 {
		t.Errorf("errors field = %v", m["errors"])
	}
}

func TestValidateForeignFamilyWarns(t *testing.T) {
	afs := afero.NewMemMapFs()
	entries := []archEntry{
		{opc.ContentTypesPart, fxTypes},
		{"xl/workbook.xml", xmlDecl + `<workbook/>`},
	}
	writeWordArchive(t, afs, "/sheet.xlsx", entries)

	res, err := testEditor(afs, "/sheet.xlsx").Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "spreadsheet") {
		t.Errorf("warnings = %v, want family warning first", res.Warnings)
	}
}

func TestReadParagraphs(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeWordArchive(t, afs, "/review.docx", wordEntries())

	res, err := testEditor(afs, "/review.docx").Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	want := []wordml.Paragraph{
		{Index: 0, Text: "Title"},
		{Index: 1, Text: "First body paragraph."},
		{Index: 2, Text: "Second body paragraph."},
	}
	if len(res.Content) != len(want) {
		t.Fatalf("content = %+v", res.Content)
	}
	for i, p := range want {
		if res.Content[i] != p {
			t.Errorf("content[%d] = %+v, want %+v", i, res.Content[i], p)
		}
	}
}

func TestReadEmptyDocumentKeepsContentKey(t *testing.T) {
	afs := afero.NewMemMapFs()
	blank := xmlDecl +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p/><w:p><w:r><w:t>   </w:t></w:r></w:p></w:body></w:document>`
	entries := []archEntry{
		{opc.ContentTypesPart, fxTypes},
		{"word/document.xml", blank},
	}
	writeWordArchive(t, afs, "/blank.docx", entries)

	res, err := testEditor(afs, "/blank.docx").Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data, err := res.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var m map[string]any
	if err := stdjson.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := m["content"].([]any); !ok || len(got) != 0 {
		t.Errorf("content = %v, want empty list", m["content"])
	}
}

func TestPackageLevelRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	if err := os.WriteFile(path, archiveBytes(t, wordEntries()), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	res, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(res.Content) != 3 {
		t.Fatalf("content = %+v", res.Content)
	}
}

func TestMust(t *testing.T) {
	if got := Must(7, nil); got != 7 {
		t.Errorf("Must = %d", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("Must did not panic on error")
		}
	}()
	Must(0, errors.New("boom"))
}
