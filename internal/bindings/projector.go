// Package bindings projects a mounted service binding tree into models.Binding
// values.
//
// Each directory directly under the root is one binding; each regular file in
// that directory is one property whose contents are kept as opaque text. The
// tree is read fresh on every call.
package bindings

import (
	"context"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"
	"workload/internal/logger"
	"workload/internal/models"
)

// Projector produces the current binding collection.
type Projector interface {
	Collect(ctx context.Context) ([]models.Binding, error)
}

// FSProjector reads bindings from a filesystem rooted at the binding root.
//
// Failing to list the root, to fetch metadata for a root entry, or to list a
// binding directory aborts the whole call. A property file that cannot be
// stat'ed, read or decoded as UTF-8 is skipped, as is anything that is not a
// regular file.
type FSProjector struct {
	fsys fs.FS
	root string
	log  *slog.Logger
}

// NewDirProjector returns a projector over the directory root on the host
// filesystem.
func NewDirProjector(root string, log *slog.Logger) *FSProjector {
	return NewFSProjector(dirFS(root), root, log)
}

// NewFSProjector returns a projector over fsys. root is only used for log
// lines and error messages.
func NewFSProjector(fsys fs.FS, root string, log *slog.Logger) *FSProjector {
	if log == nil {
		log = logger.Discard()
	}
	return &FSProjector{fsys: fsys, root: root, log: log}
}

// Root returns the binding root this projector reads from.
func (p *FSProjector) Root() string {
	return p.root
}

// Collect lists the binding root and returns one Binding per directory, in
// directory listing order. The returned slice is never nil on success.
func (p *FSProjector) Collect(ctx context.Context) ([]models.Binding, error) {
	p.log.InfoContext(ctx, "Reading service bindings", "binding_root", p.root)

	entries, err := fs.ReadDir(p.fsys, ".")
	if err != nil {
		return nil, &ListError{Op: "list binding root", Path: p.root, Err: err}
	}

	var names []string
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			return nil, &ListError{Op: "stat binding entry", Path: p.hostPath(entry.Name()), Err: err}
		}
		if info.IsDir() {
			names = append(names, entry.Name())
		}
	}

	result := make([]models.Binding, 0, len(names))
	for _, name := range names {
		binding, err := p.readBinding(ctx, name)
		if err != nil {
			return nil, err
		}
		result = append(result, binding)
	}

	return result, nil
}

func (p *FSProjector) readBinding(ctx context.Context, name string) (models.Binding, error) {
	entries, err := fs.ReadDir(p.fsys, name)
	if err != nil {
		return models.Binding{}, &ListError{Op: "list binding", Path: p.hostPath(name), Err: err}
	}

	binding := models.NewBinding(displayName(name))
	for _, entry := range entries {
		if value, ok := p.readProperty(ctx, path.Join(name, entry.Name())); ok {
			binding.Info[displayName(entry.Name())] = value
		}
	}
	return binding, nil
}

// readProperty follows symlinks so that projected volumes, whose files are
// links into a timestamped data directory, are read through.
func (p *FSProjector) readProperty(ctx context.Context, name string) (string, bool) {
	p.log.DebugContext(ctx, "Reading binding property", "file", name)

	info, err := fs.Stat(p.fsys, name)
	if err != nil {
		p.log.DebugContext(ctx, "Skipping unreadable binding property", "file", name, "error", err)
		return "", false
	}
	if !info.Mode().IsRegular() {
		p.log.DebugContext(ctx, "Skipping non-file binding entry", "file", name, "mode", info.Mode().String())
		return "", false
	}

	data, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		p.log.DebugContext(ctx, "Skipping unreadable binding property", "file", name, "error", err)
		return "", false
	}
	if !utf8.Valid(data) {
		p.log.DebugContext(ctx, "Skipping non UTF-8 binding property", "file", name)
		return "", false
	}

	return string(data), true
}

// displayName turns an on-disk name into text, replacing bytes that are not
// valid UTF-8 with U+FFFD.
func displayName(name string) string {
	return strings.ToValidUTF8(name, "\uFFFD")
}

func (p *FSProjector) hostPath(name string) string {
	return displayName(path.Join(p.root, name))
}
