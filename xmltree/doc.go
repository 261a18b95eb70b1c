// Package xmltree provides an editable XML tree for Office document parts.
//
// Parts are parsed into an arena owned by a [Tree]; callers hold [NodeID]
// handles rather than node pointers, so references stay valid while child
// sequences are reordered by edits. Parsing keeps element and attribute
// names exactly as written in the source (namespace prefixes are not
// resolved), which lets a mutated part serialize with the same prefixes
// the rest of the document uses.
//
// The tree records a best-effort source line for each element. Line data
// is only captured for UTF-8 input; lookups that depend on it fall back
// to positional lookup and report an approximate match.
package xmltree
