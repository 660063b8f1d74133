package bindings

import "fmt"

// ListError reports a part of the binding tree whose structure could not be
// read. It wraps the underlying filesystem error, so errors.Is works with
// fs.ErrNotExist and fs.ErrPermission.
type ListError struct {
	Op   string
	Path string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}
