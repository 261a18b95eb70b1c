package opc

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
)

// NamespaceContentTypes is the XML namespace of [Content_Types].xml.
const NamespaceContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"

// Well-known content types for the parts this library touches.
const (
	TypeDocumentMain  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	TypeComments      = "application/vnd.openxmlformats-officedocument.wordprocessingml.comments+xml"
	TypeStyles        = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	TypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	TypeXML           = "application/xml"
)

// Default maps a file extension to a content type.
type Default struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Override assigns a content type to one part, named with a leading
// slash as in "/word/document.xml".
type Override struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// ContentTypes is a read-only view of a parsed [Content_Types].xml
// stream. Edits to the stream go through the XML tree of the part
// itself, like any other part edit.
type ContentTypes struct {
	XMLName   xml.Name   `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []Default  `xml:"Default"`
	Overrides []Override `xml:"Override"`
}

// ParseContentTypes decodes the content types stream.
func ParseContentTypes(data []byte) (*ContentTypes, error) {
	var ct ContentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("opc: parse %s: %w", ContentTypesPart, err)
	}
	return &ct, nil
}

// HasOverride reports whether the stream assigns a type to the given
// part name. The name must carry its leading slash.
func (ct *ContentTypes) HasOverride(partName string) bool {
	return ct.overrideFor(partName) != nil
}

// TypeOf resolves the content type of a part, preferring an Override and
// falling back to the Default for the part's extension. It returns ""
// when the stream declares nothing for the part.
func (ct *ContentTypes) TypeOf(partName string) string {
	if o := ct.overrideFor(partName); o != nil {
		return o.ContentType
	}
	ext := strings.TrimPrefix(path.Ext(partName), ".")
	for _, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType
		}
	}
	return ""
}

func (ct *ContentTypes) overrideFor(partName string) *Override {
	for i := range ct.Overrides {
		if ct.Overrides[i].PartName == partName {
			return &ct.Overrides[i]
		}
	}
	return nil
}
