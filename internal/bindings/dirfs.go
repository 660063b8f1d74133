package bindings

import (
	"io/fs"
	"os"
	"path/filepath"
)

// dirFS is the host directory tree rooted at a binding root. Unlike os.DirFS
// it does not run names through fs.ValidPath, so entries whose names are not
// valid UTF-8 can still be listed, stat'ed and read.
type dirFS string

func (d dirFS) join(name string) string {
	return filepath.Join(string(d), filepath.FromSlash(name))
}

func (d dirFS) Open(name string) (fs.File, error) {
	return os.Open(d.join(name))
}

func (d dirFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(d.join(name))
}

func (d dirFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(d.join(name))
}

func (d dirFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(d.join(name))
}
