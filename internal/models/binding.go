package models

// Binding is one directory under the binding root. Info maps each readable
// file's base name to its text contents.
type Binding struct {
	Name string            `json:"name"`
	Info map[string]string `json:"binding_info"`
}

// NewBinding returns a Binding with an empty, non-nil Info map so that a
// binding without readable files still serializes as {}.
func NewBinding(name string) Binding {
	return Binding{
		Name: name,
		Info: make(map[string]string),
	}
}
