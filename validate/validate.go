// Package validate checks the structure of an unpacked Word package:
// required parts, well-formed XML, the expected document root, and a set
// of configurable consistency warnings over content types, relationship
// targets and embedded media.
package validate

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/inkfell/redline/opc"
	"github.com/inkfell/redline/wordml"
	"github.com/inkfell/redline/xmltree"
)

// Check selects which warning passes run. Structural errors are not
// configurable; a package either has its required, well-formed parts or
// it does not.
type Check uint

const (
	// CheckOverrideTargets warns when a content types override names a
	// part that is not in the package.
	CheckOverrideTargets Check = 1 << iota
	// CheckRelationshipTargets warns when an internal relationship points
	// at a missing part.
	CheckRelationshipTargets
	// CheckMedia warns when an embedded raster image does not decode.
	CheckMedia

	// AllChecks enables every warning pass.
	AllChecks = CheckOverrideTargets | CheckRelationshipTargets | CheckMedia
)

// Result is the outcome of validating one package. Errors make the
// package invalid; warnings do not.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Checker validates unpacked packages against a filesystem.
type Checker struct {
	afs    afero.Fs
	log    *zap.Logger
	checks Check
}

// Option configures a Checker.
type Option func(*Checker)

// FileSystem sets the filesystem the checker reads. It defaults to the
// host OS filesystem.
func FileSystem(afs afero.Fs) Option {
	return func(c *Checker) {
		c.afs = afs
	}
}

// Logger sets the logger used for debug output.
func Logger(log *zap.Logger) Option {
	return func(c *Checker) {
		c.log = log
	}
}

// Checks selects the warning passes to run. The default is AllChecks.
func Checks(checks Check) Option {
	return func(c *Checker) {
		c.checks = checks
	}
}

// New creates a Checker with the given options applied.
func New(opts ...Option) *Checker {
	c := &Checker{
		afs:    afero.NewOsFs(),
		log:    zap.NewNop(),
		checks: AllChecks,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// requiredParts must exist for a package to validate at all.
var requiredParts = []string{
	wordml.DocumentPart,
	opc.ContentTypesPart,
}

// Directory validates the unpacked package rooted at dir. Findings land
// in the result; the returned error is reserved for being unable to read
// the directory at all.
func (c *Checker) Directory(dir string) (*Result, error) {
	res := &Result{Errors: []string{}, Warnings: []string{}}

	files, err := c.listFiles(dir)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(files))
	for _, f := range files {
		have[f] = true
	}

	for _, part := range requiredParts {
		if !have[part] {
			res.Errors = append(res.Errors, fmt.Sprintf("missing required part: %s", part))
		}
	}

	trees := c.checkWellFormed(dir, files, res)

	if tree, ok := trees[wordml.DocumentPart]; ok {
		if got := tree.Tag(tree.Root()); got != "w:document" {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: root element is %s, want w:document", wordml.DocumentPart, got))
		} else if len(tree.ChildElements(tree.Root(), "w:body")) == 0 {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: document has no w:body", wordml.DocumentPart))
		}
	}

	if c.checks&CheckOverrideTargets != 0 && have[opc.ContentTypesPart] {
		c.checkOverrideTargets(dir, have, res)
	}
	if c.checks&CheckRelationshipTargets != 0 {
		c.checkRelationshipTargets(files, trees, have, res)
	}
	if c.checks&CheckMedia != 0 {
		c.checkMedia(dir, files, res)
	}

	res.Valid = len(res.Errors) == 0
	c.log.Debug("validated package",
		zap.String("dir", dir),
		zap.Bool("valid", res.Valid),
		zap.Int("errors", len(res.Errors)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// listFiles returns every file under dir as a slash-separated name
// relative to dir, in lexical order.
func (c *Checker) listFiles(dir string) ([]string, error) {
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
	sort.Strings(names)
	return names, nil
}

// checkWellFormed parses every XML part and records parse failures as
// errors. Parsed trees are returned for the later passes.
func (c *Checker) checkWellFormed(dir string, files []string, res *Result) map[string]*xmltree.Tree {
	trees := make(map[string]*xmltree.Tree)
	for _, name := range files {
		if !isXMLPart(name) {
			continue
		}
		data, err := afero.ReadFile(c.afs, filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		tree, err := xmltree.Parse(data)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		trees[name] = tree
	}
	return trees
}

func (c *Checker) checkOverrideTargets(dir string, have map[string]bool, res *Result) {
	data, err := afero.ReadFile(c.afs, filepath.Join(dir, opc.ContentTypesPart))
	if err != nil {
		return
	}
	ct, err := opc.ParseContentTypes(data)
	if err != nil {
		// Already reported by the well-formedness pass.
		return
	}
	for _, o := range ct.Overrides {
		target := strings.TrimPrefix(o.PartName, "/")
		if !have[target] {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("content types override targets missing part %s", o.PartName))
		}
	}
}

func (c *Checker) checkRelationshipTargets(files []string, trees map[string]*xmltree.Tree, have map[string]bool, res *Result) {
	for _, name := range files {
		if !strings.HasSuffix(name, ".rels") {
			continue
		}
		tree, ok := trees[name]
		if !ok {
			continue
		}
		root := tree.Root()
		for _, rel := range tree.ChildElements(root, "Relationship") {
			if mode, _ := tree.Attr(rel, "TargetMode"); mode == "External" {
				continue
			}
			target, ok := tree.Attr(rel, "Target")
			if !ok {
				continue
			}
			resolved := resolveRelTarget(name, target)
			if !have[resolved] {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("%s: relationship targets missing part %s", name, resolved))
			}
		}
	}
}

// resolveRelTarget maps a relationship target to a package-relative part
// name. Targets are relative to the directory owning the _rels folder,
// except targets with a leading slash, which are package-absolute.
func resolveRelTarget(relsName, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	base := path.Dir(path.Dir(relsName))
	if base == "." {
		return path.Clean(target)
	}
	return path.Clean(path.Join(base, target))
}

func isXMLPart(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".xml", ".rels":
		return true
	default:
		return false
	}
}
