// Package wordml edits the WordprocessingML parts of an unpacked Word
// document: margin comments, tracked insertions and deletions, and the
// revision session attribute Word expects once change tracking is on.
//
// A Document is a registry over the part files of an unpacked archive
// directory. Parts load and parse lazily, edits mark the owning part
// dirty, and Save rewrites exactly the dirty parts through a temporary
// file and rename. Every part an edit never touched stays byte-identical
// on disk, so a repacked archive differs from its source only where a
// change was actually made.
package wordml
