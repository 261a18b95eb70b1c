package redline

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/inkfell/redline/wordml"
)

// json renders results without HTML escaping, so comment text like
// "a < b" survives the trip to the caller unmangled.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Result reports the outcome of a single document mutation. Fields that
// do not apply to an operation are omitted from its JSON form; Location
// is a pointer so that paragraph zero still serializes.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Location *int   `json:"location,omitempty"`
	Text     string `json:"text,omitempty"`
	Author   string `json:"author,omitempty"`
	Initials string `json:"initials,omitempty"`
	Match    string `json:"match,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ValidationResult reports the outcome of validating a document.
type ValidationResult struct {
	Success  bool     `json:"success"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Error    string   `json:"error,omitempty"`
}

// ReadResult carries the extracted paragraph text of a document.
type ReadResult struct {
	Success bool               `json:"success"`
	Content []wordml.Paragraph `json:"content"`
	Error   string             `json:"error,omitempty"`
}

// failureShape is the wire form every failed operation shares.
type failureShape struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Failure builds the Result for a failed operation.
func Failure(err error) Result {
	return Result{Error: err.Error()}
}

func validationFailure(err error) ValidationResult {
	return ValidationResult{Error: err.Error()}
}

func readFailure(err error) ReadResult {
	return ReadResult{Error: err.Error()}
}

// JSON renders the result as indented JSON. Results carrying an error
// collapse to the shared failure shape of a success flag and an error
// string.
func (r Result) JSON() ([]byte, error) {
	if r.Error != "" {
		return marshal(failureShape{Error: r.Error})
	}
	return marshal(r)
}

// JSON renders the result as indented JSON. A document that merely
// failed validation keeps its full shape; only operational errors
// collapse to the failure shape.
func (r ValidationResult) JSON() ([]byte, error) {
	if r.Error != "" {
		return marshal(failureShape{Error: r.Error})
	}
	return marshal(r)
}

// JSON renders the result as indented JSON.
func (r ReadResult) JSON() ([]byte, error) {
	if r.Error != "" {
		return marshal(failureShape{Error: r.Error})
	}
	return marshal(r)
}

func marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
