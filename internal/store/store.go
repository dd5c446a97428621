package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"go.uber.org/multierr"
	billy "gopkg.in/src-d/go-billy.v4"
)

// ErrExists is returned when the target exists and overwriting was not allowed.
var ErrExists = errors.New("file exists and overwrite is not permitted")

const backupSuffix = ".bak"

// Store writes output files onto a filesystem. An existing target is moved
// aside to <name>.bak while the new content is written and restored if the
// write fails.
type Store struct {
	Filesystem billy.Filesystem
	Overwrite  bool
}

func New(fs billy.Filesystem, overwrite bool) *Store {
	return &Store{Filesystem: fs, Overwrite: overwrite}
}

// WriteFile creates name and hands it to write.
func (s *Store) WriteFile(name string, write func(io.Writer) error) (err error) {
	fs := s.Filesystem
	exists, err := s.exists(name)
	if err != nil {
		return err
	}
	if exists && !s.Overwrite {
		return fmt.Errorf("%s: %w", name, ErrExists)
	}
	if dir := path.Dir(name); dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	bak := name + backupSuffix
	if exists {
		if err := fs.Remove(bak); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale backup: %w", err)
		}
		if err := fs.Rename(name, bak); err != nil {
			return fmt.Errorf("back up %s: %w", name, err)
		}
		defer func() {
			if err != nil {
				err = multierr.Append(err, fs.Rename(bak, name))
				return
			}
			err = fs.Remove(bak)
		}()
	}

	f, err := fs.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := write(f); err != nil {
		return multierr.Combine(fmt.Errorf("write %s: %w", name, err), f.Close(), fs.Remove(name))
	}
	if err := f.Close(); err != nil {
		return multierr.Append(fmt.Errorf("close %s: %w", name, err), fs.Remove(name))
	}
	return nil
}

func (s *Store) exists(name string) (bool, error) {
	_, err := s.Filesystem.Stat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", name, err)
}
