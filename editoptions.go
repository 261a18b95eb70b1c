package redline

import (
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/inkfell/redline/validate"
	"github.com/inkfell/redline/wordml"
)

// editOptions holds the configuration a chain of Editor methods builds
// up before a terminal operation runs.
type editOptions struct {
	author   string
	initials string
	afs      afero.Fs
	log      *zap.Logger
	clock    func() time.Time
	checks   validate.Check
}

// defaultEditOptions returns the configuration an Editor starts with.
func defaultEditOptions() editOptions {
	return editOptions{
		author:   wordml.DefaultAuthor,
		initials: "",
		afs:      afero.NewOsFs(),
		log:      zap.NewNop(),
		clock:    time.Now,
		checks:   validate.AllChecks,
	}
}

// clone copies the options. The filesystem, logger and clock are shared
// references on purpose; everything else is a value.
func (o editOptions) clone() editOptions {
	return o
}
