package wordml

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/inkfell/redline/xmltree"
)

// Well-known part names, relative to the package root.
const (
	DocumentPart     = "word/document.xml"
	CommentsPart     = "word/comments.xml"
	DocumentRelsPart = "word/_rels/document.xml.rels"
	PackageRelsPart  = "_rels/.rels"
)

// Namespace and relationship URIs used when parts are created or wired
// together.
const (
	NamespaceWordML        = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"
	RelTypeComments        = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/comments"
)

// Document-related errors.
var (
	ErrPartNotFound     = errors.New("wordml: part not found in package")
	ErrInvalidRange     = errors.New("wordml: range end precedes range start")
	ErrLocationNotFound = errors.New("wordml: no paragraph at the requested location")
)

// Document is a part registry over an unpacked archive directory.
type Document struct {
	dir      string
	afs      afero.Fs
	log      *zap.Logger
	author   string
	initials string
	now      func() time.Time
	parts    map[string]*Part
}

// Option configures a Document.
type Option func(*Document)

// Author sets the name recorded on comments and tracked changes.
func Author(name string) Option {
	return func(d *Document) {
		d.author = name
	}
}

// Initials sets the initials recorded on comments. When unset they are
// derived from the author name.
func Initials(s string) Option {
	return func(d *Document) {
		d.initials = s
	}
}

// FileSystem sets the filesystem the document reads and writes. It
// defaults to the host OS filesystem.
func FileSystem(afs afero.Fs) Option {
	return func(d *Document) {
		d.afs = afs
	}
}

// Logger sets the logger used for debug output.
func Logger(log *zap.Logger) Option {
	return func(d *Document) {
		d.log = log
	}
}

// Clock sets the time source stamped onto revisions. It defaults to
// time.Now and exists so tests can pin the date attribute.
func Clock(now func() time.Time) Option {
	return func(d *Document) {
		d.now = now
	}
}

// DefaultAuthor is recorded on revisions when no author is configured.
const DefaultAuthor = "Reviewer"

// Open binds a Document to an unpacked archive directory.
func Open(dir string, opts ...Option) (*Document, error) {
	d := &Document{
		dir:    dir,
		afs:    afero.NewOsFs(),
		log:    zap.NewNop(),
		author: DefaultAuthor,
		now:    time.Now,
		parts:  make(map[string]*Part),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.initials == "" {
		d.initials = deriveInitials(d.author)
	}

	fi, err := d.afs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open document dir: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("open document dir: %s is not a directory", dir)
	}
	return d, nil
}

// Author returns the configured revision author.
func (d *Document) Author() string { return d.author }

// Initials returns the configured or derived author initials.
func (d *Document) Initials() string { return d.initials }

// Part returns the named part, loading it from disk on first access.
// Part names use forward slashes relative to the package root, as in
// "word/document.xml".
func (d *Document) Part(name string) (*Part, error) {
	if p, ok := d.parts[name]; ok {
		return p, nil
	}

	raw, err := afero.ReadFile(d.afs, filepath.Join(d.dir, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}

	p := &Part{name: name, raw: raw}
	d.parts[name] = p
	d.log.Debug("loaded part", zap.String("part", name), zap.Int("bytes", len(raw)))
	return p, nil
}

// CreatePart registers a new part backed by the given tree. The part is
// dirty from the start and reaches disk on the next Save.
func (d *Document) CreatePart(name string, tree *xmltree.Tree) *Part {
	p := &Part{name: name, tree: tree, dirty: true}
	d.parts[name] = p
	d.log.Debug("created part", zap.String("part", name))
	return p
}

// Save serializes every dirty part back into the directory. Each part is
// written to a temporary file and renamed into place, so a part file is
// never left half-written. Clean parts are not rewritten at all.
func (d *Document) Save() error {
	names := make([]string, 0, len(d.parts))
	for name, p := range d.parts {
		if p.dirty {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		p := d.parts[name]
		data := p.tree.Serialize()
		if err := d.writePart(name, data); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		p.raw = data
		p.dirty = false
	}

	if len(names) > 0 {
		d.log.Debug("saved parts", zap.Strings("parts", names))
	}
	return nil
}

func (d *Document) writePart(name string, data []byte) (err error) {
	target := filepath.Join(d.dir, filepath.FromSlash(name))
	if err := d.afs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(d.afs, filepath.Dir(target), ".part-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			d.afs.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return d.afs.Rename(tmpName, target)
}

// deriveInitials builds initials from the first letter of each word of
// the author name.
func deriveInitials(author string) string {
	var b strings.Builder
	for _, word := range strings.Fields(author) {
		r := []rune(word)[0]
		b.WriteString(strings.ToUpper(string(r)))
	}
	if b.Len() == 0 {
		return "R"
	}
	return b.String()
}
