package form

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Validator checks one extracted value. A nil return means valid; absent
// values are only rejected by the required check, never by validators.
type Validator func(v interface{}) error

// baseField carries the declaration shared by every concrete field. It holds
// no per-request state.
type baseField struct {
	column     Column
	label      string
	required   bool
	relation   bool
	validators []Validator
}

func (b *baseField) Column() Column {
	return b.column
}

func (b *baseField) HasRelation() bool {
	return b.relation
}

func (b *baseField) Validate(input map[string]interface{}, partial bool) error {
	for _, path := range b.column.Paths() {
		v := getPath(input, path)
		if v.IsAbsent() {
			if b.required && !partial {
				return fmt.Errorf("%s is required", b.labelOr(path))
			}
			continue
		}
		// A submitted nil or empty string is an explicit clear and still
		// violates required, even on a partial submission.
		if v.Interface() == nil || v.Interface() == "" {
			if b.required {
				return fmt.Errorf("%s is required", b.labelOr(path))
			}
			continue
		}
		for _, validate := range b.validators {
			if err := validate(v.Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *baseField) labelOr(fallback string) string {
	if b.label != "" {
		return b.label
	}
	return fallback
}

// ============================================================
// TEXT
// ============================================================

// TextField is a plain string column.
type TextField struct {
	baseField
}

// NewText declares a text field on a (possibly dotted) column path.
func NewText(column string) *TextField {
	return &TextField{baseField{column: NewColumn(column)}}
}

func (f *TextField) Label(label string) *TextField { f.label = label; return f }

func (f *TextField) Required() *TextField { f.required = true; return f }

func (f *TextField) Rule(v Validator) *TextField {
	f.validators = append(f.validators, v)
	return f
}

func (f *TextField) Prepare(v Value) Value {
	return v
}

// ============================================================
// NUMBER
// ============================================================

// NumberField coerces string submissions to numbers.
type NumberField struct {
	baseField
}

func NewNumber(column string) *NumberField {
	return &NumberField{baseField{column: NewColumn(column)}}
}

func (f *NumberField) Label(label string) *NumberField { f.label = label; return f }

func (f *NumberField) Required() *NumberField { f.required = true; return f }

func (f *NumberField) Rule(v Validator) *NumberField {
	f.validators = append(f.validators, v)
	return f
}

func (f *NumberField) Prepare(v Value) Value {
	if v.IsAbsent() {
		return v
	}
	s, ok := v.Interface().(string)
	if !ok {
		return v
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Present(n)
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return Present(fl)
	}
	return v
}

// ============================================================
// SWITCH
// ============================================================

// SwitchField is a boolean toggle. A submitted "off" stays a present false;
// only a missing column is absent.
type SwitchField struct {
	baseField
}

func NewSwitch(column string) *SwitchField {
	return &SwitchField{baseField{column: NewColumn(column)}}
}

func (f *SwitchField) Label(label string) *SwitchField { f.label = label; return f }

func (f *SwitchField) Prepare(v Value) Value {
	if v.IsAbsent() {
		return v
	}
	switch t := v.Interface().(type) {
	case bool:
		return Present(t)
	case string:
		return Present(t == "on" || t == "1" || t == "true")
	case int:
		return Present(t != 0)
	case int64:
		return Present(t != 0)
	case float64:
		return Present(t != 0)
	default:
		return v
	}
}

// ============================================================
// DATETIME
// ============================================================

// DatetimeField parses common timestamp layouts into time.Time.
type DatetimeField struct {
	baseField
	layouts []string
}

func NewDatetime(column string) *DatetimeField {
	return &DatetimeField{
		baseField: baseField{column: NewColumn(column)},
		layouts:   []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"},
	}
}

func (f *DatetimeField) Label(label string) *DatetimeField { f.label = label; return f }

func (f *DatetimeField) Required() *DatetimeField { f.required = true; return f }

func (f *DatetimeField) Prepare(v Value) Value {
	if v.IsAbsent() {
		return v
	}
	s, ok := v.Interface().(string)
	if !ok {
		return v
	}
	for _, layout := range f.layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Present(t)
		}
	}
	return v
}

// ============================================================
// DATE RANGE (composite)
// ============================================================

// DateRangeField is a composite widget writing two columns. A submission
// carrying only one end leaves the other column untouched.
type DateRangeField struct {
	baseField
	parser *DatetimeField
}

func NewDateRange(startColumn, endColumn string) *DateRangeField {
	return &DateRangeField{
		baseField: baseField{column: NewCompositeColumn(map[string]string{
			"start": startColumn,
			"end":   endColumn,
		})},
		parser: NewDatetime(""),
	}
}

func (f *DateRangeField) Label(label string) *DateRangeField { f.label = label; return f }

func (f *DateRangeField) Prepare(v Value) Value {
	if v.IsAbsent() {
		return v
	}
	extracted, ok := v.Interface().(map[string]interface{})
	if !ok {
		return v
	}
	out := make(map[string]interface{}, len(extracted))
	for name, raw := range extracted {
		out[name] = f.parser.Prepare(Present(raw)).Interface()
	}
	return Present(out)
}

// ============================================================
// MULTI SELECT (many-to-many)
// ============================================================

// MultiSelectField holds a many-to-many membership list. Its relation
// transform drops placeholder blanks the widget submits for an empty
// selection, leaving a clean identifier list for the sync.
type MultiSelectField struct {
	baseField
}

func NewMultiSelect(column string) *MultiSelectField {
	return &MultiSelectField{baseField{column: NewColumn(column), relation: true}}
}

func (f *MultiSelectField) Label(label string) *MultiSelectField { f.label = label; return f }

func (f *MultiSelectField) Prepare(v Value) Value {
	return v
}

func (f *MultiSelectField) PrepareForRelation(v Value) Value {
	if v.IsAbsent() {
		return v
	}
	list, ok := v.Interface().([]interface{})
	if !ok {
		return v
	}
	ids := make([]interface{}, 0, len(list))
	for _, id := range list {
		if id == nil || id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return Present(ids)
}

// ============================================================
// HAS MANY (nested form)
// ============================================================

// RemoveFlag marks a has-many payload row for deletion instead of upsert.
const RemoveFlag = "_remove_"

// HasManyField is a one-to-many relation edited through a nested form. Its
// sub-fields may themselves declare relations, saved as grandchildren inside
// the same outer transaction.
type HasManyField struct {
	baseField
	subFields []Field
}

func NewHasMany(column string, subFields ...Field) *HasManyField {
	return &HasManyField{
		baseField: baseField{column: NewColumn(column), relation: true},
		subFields: subFields,
	}
}

func (f *HasManyField) Label(label string) *HasManyField { f.label = label; return f }

func (f *HasManyField) SubFields() []Field {
	return f.subFields
}

// Prepare normalizes the submitted rows: scalar sub-fields are prepared in
// place, relation sub-fields stay raw (they are stripped and re-prepared when
// the orchestrator recurses), and the primary-key entry and removal flag pass
// through untouched.
func (f *HasManyField) Prepare(v Value) Value {
	if v.IsAbsent() {
		return v
	}
	rows := normalizeRows(v.Interface())
	if rows == nil {
		return v
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, raw := range rows {
		row := make(map[string]interface{}, len(raw))
		for k, rv := range raw {
			row[k] = rv
		}
		for _, sub := range f.subFields {
			if sub.HasRelation() {
				continue
			}
			for prepared, pv := range PrepareUpdate(raw, []Field{sub}, PrepareOptions{}) {
				row[prepared] = pv
			}
		}
		out = append(out, row)
	}
	return Present(out)
}

func (f *HasManyField) Validate(input map[string]interface{}, partial bool) error {
	v := getPath(input, f.column.Path())
	if v.IsAbsent() {
		return nil
	}
	for _, row := range normalizeRows(v.Interface()) {
		for _, sub := range f.subFields {
			if err := sub.Validate(row, partial); err != nil {
				return err
			}
		}
	}
	return nil
}

// normalizeRows accepts a slice of row maps or an index-keyed map of row
// maps (the wire shape of dynamically added nested rows) and returns ordered
// rows. Map keys are sorted for determinism.
func normalizeRows(v interface{}) []map[string]interface{} {
	switch rows := v.(type) {
	case []map[string]interface{}:
		return rows
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(rows))
		for _, r := range rows {
			if m, ok := r.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]interface{}:
		keys := make([]string, 0, len(rows))
		for k := range rows {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]map[string]interface{}, 0, len(rows))
		for _, k := range keys {
			if m, ok := rows[k].(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// ============================================================
// EMBEDS (one-to-one / belongs-to payload)
// ============================================================

// EmbedsField edits a single related record's attributes as one map payload.
type EmbedsField struct {
	baseField
	subFields []Field
}

func NewEmbeds(column string, subFields ...Field) *EmbedsField {
	return &EmbedsField{
		baseField: baseField{column: NewColumn(column), relation: true},
		subFields: subFields,
	}
}

func (f *EmbedsField) Label(label string) *EmbedsField { f.label = label; return f }

func (f *EmbedsField) Prepare(v Value) Value {
	if v.IsAbsent() {
		return v
	}
	raw, ok := v.Interface().(map[string]interface{})
	if !ok {
		return v
	}
	out := make(map[string]interface{}, len(raw))
	for k, rv := range raw {
		out[k] = rv
	}
	for _, sub := range f.subFields {
		for prepared, pv := range PrepareUpdate(raw, []Field{sub}, PrepareOptions{}) {
			out[prepared] = pv
		}
	}
	return Present(out)
}

func (f *EmbedsField) Validate(input map[string]interface{}, partial bool) error {
	v := getPath(input, f.column.Path())
	if v.IsAbsent() {
		return nil
	}
	row, ok := v.Interface().(map[string]interface{})
	if !ok {
		return nil
	}
	for _, sub := range f.subFields {
		if err := sub.Validate(row, partial); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// FILE
// ============================================================

// FileField stores an uploaded file's relative path and owns the file
// content on disk.
type FileField struct {
	baseField
	dir string
}

func NewFile(column, dir string) *FileField {
	return &FileField{baseField: baseField{column: NewColumn(column)}, dir: dir}
}

func (f *FileField) Label(label string) *FileField { f.label = label; return f }

func (f *FileField) Prepare(v Value) Value {
	return v
}

// DestroyFile removes the file the record's column points at. A missing file
// is not an error; the record may never have had an upload.
func (f *FileField) DestroyFile(rec Record) error {
	path, ok := rec.Get(f.column.Path()).(string)
	if !ok || path == "" {
		return nil
	}
	err := os.Remove(filepath.Join(f.dir, path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file %s: %w", path, err)
	}
	return nil
}
