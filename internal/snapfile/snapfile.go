// Package snapfile persists lattice snapshots on a billy filesystem.
//
// Writes go to a scratch file that is renamed over the target once complete,
// so readers never observe a half-written snapshot.
package snapfile

import (
	"errors"
	"os"
	"path"

	"go.uber.org/multierr"
	billy "gopkg.in/src-d/go-billy.v4"

	"snowgen/internal/core"
	"snowgen/internal/crystal"
)

const partialSuffix = ".partial"

// Save writes l to name.
func Save(fs billy.Filesystem, name string, l *crystal.Lattice) error {
	if dir := path.Dir(name); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	scratch := name + partialSuffix
	f, err := fs.OpenFile(scratch, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := l.Encode(f); err != nil {
		err = multierr.Append(err, f.Close())
		return multierr.Append(err, fs.Remove(scratch))
	}
	if err := f.Close(); err != nil {
		return multierr.Append(err, fs.Remove(scratch))
	}
	return fs.Rename(scratch, name)
}

// Load restores the lattice stored at name. The file is only read; a corrupt
// snapshot is left in place for inspection.
func Load(fs billy.Filesystem, name string, rnd core.Source) (l *crystal.Lattice, err error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			l = nil
		}
	}()
	return crystal.Decode(f, rnd)
}

// Exists reports whether a snapshot is stored at name.
func Exists(fs billy.Filesystem, name string) (bool, error) {
	_, err := fs.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
