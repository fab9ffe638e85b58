package form

// PrepareOptions selects which fields a prepare pass covers.
type PrepareOptions struct {
	// RelationMode prepares relation columns instead of own columns.
	RelationMode bool

	// SubRelation, when set, restricts the pass to the single field whose
	// column matches it, regardless of relation mode. Used when recursing
	// into per-row sub-relation payloads.
	SubRelation string
}

// PrepareUpdate turns raw submitted input into a nested column→value map
// ready for assignment. Absent columns never produce a key; a submitted nil
// or false passes through. With RelationMode the output is keyed by relation
// column and holds per-relation payloads instead.
func PrepareUpdate(raw map[string]interface{}, fields []Field, opts PrepareOptions) map[string]interface{} {
	out := make(map[string]interface{})
	for _, f := range fields {
		if opts.SubRelation != "" {
			if !f.Column().Matches(opts.SubRelation) {
				continue
			}
		} else if f.HasRelation() != opts.RelationMode {
			continue
		}
		prepareField(raw, f, opts, out)
	}
	return out
}

func prepareField(raw map[string]interface{}, f Field, opts PrepareOptions, out map[string]interface{}) {
	col := f.Column()
	if col.IsComposite() {
		prepareComposite(raw, f, opts, out)
		return
	}

	candidate := f.Prepare(getPath(raw, col.Path()))
	candidate = applyRelationTransform(f, opts, candidate)
	if candidate.IsAbsent() {
		return
	}
	setPath(out, col.Path(), filterAbsentEntries(candidate.Interface()))
}

// prepareComposite extracts every named sub-path, hands the present ones to
// the field as one map, and writes the transformed sub-values back at their
// own paths. Sub-values the field marks absent are dropped so a partially
// submitted composite never clobbers existing data.
func prepareComposite(raw map[string]interface{}, f Field, opts PrepareOptions, out map[string]interface{}) {
	col := f.Column()
	extracted := make(map[string]interface{})
	for name, path := range col.Named() {
		if v := getPath(raw, path); v.IsPresent() {
			extracted[name] = v.Interface()
		}
	}

	var candidate Value
	if len(extracted) == 0 {
		candidate = f.Prepare(Absent())
	} else {
		candidate = f.Prepare(Present(extracted))
	}
	candidate = applyRelationTransform(f, opts, candidate)
	if candidate.IsAbsent() {
		return
	}

	prepared, ok := candidate.Interface().(map[string]interface{})
	if !ok {
		// Field collapsed the composite into one value; store it under
		// the first path.
		setPath(out, col.First(), candidate.Interface())
		return
	}
	for _, name := range col.Names() {
		v, submitted := prepared[name]
		if !submitted {
			continue
		}
		if val, isValue := v.(Value); isValue {
			if val.IsAbsent() {
				continue
			}
			v = val.Interface()
		}
		setPath(out, col.Named()[name], v)
	}
}

func applyRelationTransform(f Field, opts PrepareOptions, candidate Value) Value {
	if !opts.RelationMode && opts.SubRelation == "" {
		return candidate
	}
	if rp, ok := f.(RelationPreparer); ok {
		return rp.PrepareForRelation(candidate)
	}
	return candidate
}

// filterAbsentEntries strips Absent-marked entries from a map candidate and
// unwraps Present ones, one level deep.
func filterAbsentEntries(candidate interface{}) interface{} {
	m, ok := candidate.(map[string]interface{})
	if !ok {
		return candidate
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if val, isValue := v.(Value); isValue {
			if val.IsAbsent() {
				continue
			}
			v = val.Interface()
		}
		out[k] = v
	}
	return out
}
