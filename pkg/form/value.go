package form

// Value is the tri-state result of extracting or preparing an input value.
// An absent Value means "the submission did not carry this column" and must
// never be written to a record; a present Value may legitimately hold nil or
// false and must pass through to assignment.
type Value struct {
	present bool
	v       interface{}
}

// Present wraps v as a present value.
func Present(v interface{}) Value {
	return Value{present: true, v: v}
}

// Absent returns the "not submitted" value.
func Absent() Value {
	return Value{}
}

// IsPresent reports whether the value was submitted.
func (val Value) IsPresent() bool {
	return val.present
}

// IsAbsent reports whether the value must be dropped from prepared output.
func (val Value) IsAbsent() bool {
	return !val.present
}

// Interface returns the underlying value, or nil when absent.
func (val Value) Interface() interface{} {
	if !val.present {
		return nil
	}
	return val.v
}
