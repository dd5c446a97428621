package store

import (
	"fmt"
	"os"
	"path/filepath"

	billy "gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/osfs"
)

// Local is the OS filesystem rooted at the volume of the working directory.
// Path maps relative and absolute local paths onto it.
type Local struct {
	billy.Filesystem
	wd   string
	root string
}

func NewLocal() (*Local, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	root := filepath.VolumeName(wd) + string(filepath.Separator)
	return &Local{Filesystem: osfs.New(root), wd: wd, root: root}, nil
}

// Path returns p relative to the filesystem root. Relative paths are taken
// from the working directory.
func (l *Local) Path(p string) string {
	if !filepath.IsAbs(p) {
		p = filepath.Join(l.wd, p)
	}
	rel, err := filepath.Rel(l.root, p)
	if err != nil {
		return p
	}
	return rel
}
