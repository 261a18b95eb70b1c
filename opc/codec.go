// Package opc reads and writes the ZIP packaging used by Office Open XML
// documents. An archive is unpacked into a working directory, edited in
// place as loose part files, and packed back with [Content_Types].xml as
// the first entry. Packing goes through a temporary file that is renamed
// over the destination, so a failed pack never leaves a half-written
// archive behind.
package opc

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ContentTypesPart is the package-relative name of the content types
// stream every conforming archive must carry.
const ContentTypesPart = "[Content_Types].xml"

// Codec-related errors.
var (
	ErrCorruptArchive      = errors.New("opc: invalid or corrupted archive")
	ErrMissingContentTypes = errors.New("opc: archive has no [Content_Types].xml")
)

// Codec packs and unpacks OPC archives against a filesystem.
type Codec struct {
	afs afero.Fs
	log *zap.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// FileSystem sets the filesystem the codec reads and writes. It defaults
// to the host OS filesystem.
func FileSystem(afs afero.Fs) Option {
	return func(c *Codec) {
		c.afs = afs
	}
}

// Logger sets the logger used for debug output. It defaults to a no-op
// logger.
func Logger(log *zap.Logger) Option {
	return func(c *Codec) {
		c.log = log
	}
}

// New creates a Codec with the given options applied.
func New(opts ...Option) *Codec {
	c := &Codec{
		afs: afero.NewOsFs(),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Unpack extracts every entry of the archive at src into dir, creating
// directories as needed. Entry names are checked so that a crafted
// archive cannot write outside dir.
func (c *Codec) Unpack(src, dir string) error {
	f, err := c.afs.Open(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	parts := 0
	for _, entry := range zr.File {
		rel := filepath.FromSlash(entry.Name)
		if entry.Name == "" || !filepath.IsLocal(rel) {
			return fmt.Errorf("%w: unsafe entry name %q", ErrCorruptArchive, entry.Name)
		}
		target := filepath.Join(dir, rel)

		if entry.FileInfo().IsDir() {
			if err := c.afs.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("unpack %s: %w", entry.Name, err)
			}
			continue
		}
		if err := c.extractFile(entry, target); err != nil {
			return fmt.Errorf("unpack %s: %w", entry.Name, err)
		}
		parts++
	}

	c.log.Debug("unpacked archive",
		zap.String("archive", src),
		zap.String("dir", dir),
		zap.Int("parts", parts))
	return nil
}

func (c *Codec) extractFile(entry *zip.File, target string) error {
	if err := c.afs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := c.afs.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Pack writes every file under dir into a fresh archive at dest,
// replacing any existing file there. [Content_Types].xml becomes the
// first entry; the remaining files follow in lexical order. The archive
// is assembled in a temporary file next to dest and renamed into place
// only once fully written, so dest is either the old archive or the
// complete new one, never a torn write.
func (c *Codec) Pack(dir, dest string) (err error) {
	if ok, statErr := afero.Exists(c.afs, filepath.Join(dir, ContentTypesPart)); statErr != nil {
		return fmt.Errorf("stat %s: %w", ContentTypesPart, statErr)
	} else if !ok {
		return ErrMissingContentTypes
	}

	names, err := c.collectParts(dir)
	if err != nil {
		return err
	}

	tmp, err := afero.TempFile(c.afs, filepath.Dir(dest), ".pack-*")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			c.afs.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, name := range names {
		if err = c.addEntry(zw, dir, name); err != nil {
			return fmt.Errorf("pack %s: %w", name, err)
		}
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp archive: %w", err)
	}
	if err = c.afs.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("replace archive: %w", err)
	}

	c.log.Debug("packed archive",
		zap.String("dir", dir),
		zap.String("archive", dest),
		zap.Int("parts", len(names)))
	return nil
}

// collectParts lists the files under dir as slash-separated names
// relative to dir, content types first.
func (c *Codec) collectParts(dir string) ([]string, error) {
	var names []string
	err := afero.Walk(c.afs, dir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	sort.Slice(names, func(i, j int) bool {
		if names[i] == ContentTypesPart {
			return true
		}
		if names[j] == ContentTypesPart {
			return false
		}
		return names[i] < names[j]
	})
	return names, nil
}

func (c *Codec) addEntry(zw *zip.Writer, dir, name string) error {
	in, err := c.afs.Open(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: compressionFor(name),
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// compressionFor stores already-compressed media as-is and deflates
// everything else.
func compressionFor(name string) uint16 {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".zip":
		return zip.Store
	default:
		return zip.Deflate
	}
}
