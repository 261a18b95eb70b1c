// Package redline provides a fluent API for reviewing Word documents:
// margin comments, tracked insertions and tracked deletions, written as
// the native revision markup Word shows under "Track Changes".
//
// Basic usage:
//
//	res, err := redline.Open("contract.docx").
//	    Author("Ada Lovelace").
//	    AddComment(2, "Needs a citation.")
//	if err != nil {
//	    // handle error
//	}
//	out, _ := res.JSON()
//	fmt.Println(string(out))
//
// Every operation runs a full cycle against the archive: unpack into a
// fresh scratch directory, edit the XML parts, save the dirty parts and
// repack. Parts an operation never touched come back byte-identical, and
// the archive itself is replaced atomically, so a failure part-way
// through leaves the original document as it was.
//
// For lower-level access the opc, wordml and validate packages are also
// available.
package redline

// Open binds an Editor to the Word document at path. No file access
// happens until a terminal operation runs.
//
// Example:
//
//	res, err := redline.Open("notes.docx").SuggestDeletion(3)
func Open(path string) *Editor {
	return &Editor{
		path: path,
		opts: defaultEditOptions(),
	}
}

// Must is a helper that wraps a call returning (T, error) and panics if
// the error is non-nil. It is intended for scripts and tests where
// error handling would be cumbersome.
//
// Example:
//
//	res := redline.Must(redline.Open("notes.docx").Read())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// AddComment anchors a comment to the paragraph at location in the
// document at path, using the default author.
func AddComment(path string, location int, text string) (Result, error) {
	return Open(path).AddComment(location, text)
}

// EnableTracking stamps the document at path with a revision session id.
func EnableTracking(path string) (Result, error) {
	return Open(path).EnableTracking()
}

// SuggestInsertion appends a tracked insertion to the paragraph at
// location in the document at path.
func SuggestInsertion(path string, location int, text string) (Result, error) {
	return Open(path).SuggestInsertion(location, text)
}

// SuggestDeletion marks the paragraph at location in the document at
// path as a tracked deletion.
func SuggestDeletion(path string, location int) (Result, error) {
	return Open(path).SuggestDeletion(location)
}

// Validate checks the structure of the document at path.
func Validate(path string) (ValidationResult, error) {
	return Open(path).Validate()
}

// Read extracts the paragraph text of the document at path.
func Read(path string) (ReadResult, error) {
	return Open(path).Read()
}
