package opc

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
)

// Family identifies the Office application family an archive belongs to.
type Family int

const (
	// FamilyUnknown indicates an archive with no recognizable Office layout.
	FamilyUnknown Family = iota
	// FamilyWord indicates a word-processing package (.docx).
	FamilyWord
	// FamilySpreadsheet indicates a spreadsheet package (.xlsx).
	FamilySpreadsheet
	// FamilyPresentation indicates a presentation package (.pptx).
	FamilyPresentation
)

// String returns the string representation of the family.
func (f Family) String() string {
	switch f {
	case FamilyWord:
		return "word"
	case FamilySpreadsheet:
		return "spreadsheet"
	case FamilyPresentation:
		return "presentation"
	default:
		return "unknown"
	}
}

// IsArchive reports whether data begins with the ZIP local file header
// magic PK\x03\x04.
func IsArchive(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04
}

// DetectFamily inspects an archive's entries to determine which Office
// family it belongs to. Entry prefixes are more reliable than file
// extensions, which say nothing once a file has been renamed.
func DetectFamily(ra io.ReaderAt, size int64) (Family, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return FamilyUnknown, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return FamilyWord, nil
		case strings.HasPrefix(f.Name, "xl/"):
			return FamilySpreadsheet, nil
		case strings.HasPrefix(f.Name, "ppt/"):
			return FamilyPresentation, nil
		}
	}
	return FamilyUnknown, nil
}

// Family reports the Office family of the archive at path.
func (c *Codec) Family(path string) (Family, error) {
	f, err := c.afs.Open(path)
	if err != nil {
		return FamilyUnknown, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return FamilyUnknown, fmt.Errorf("stat archive: %w", err)
	}
	return DetectFamily(f, fi.Size())
}
