package form

// Registry holds a form's fields in declaration order. Order matters only
// for display; preparation is column-keyed.
type Registry struct {
	fields []Field
}

// NewRegistry creates an empty field registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a field.
func (r *Registry) Register(f Field) {
	if f == nil {
		return
	}
	r.fields = append(r.fields, f)
}

// All returns the fields in declaration order.
func (r *Registry) All() []Field {
	return r.fields
}

// FindByColumn returns the first field whose column identity matches name,
// transparently for scalar and composite columns.
func (r *Registry) FindByColumn(name string) (Field, bool) {
	for _, f := range r.fields {
		if f.Column().Matches(name) {
			return f, true
		}
	}
	return nil, false
}
