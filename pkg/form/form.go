package form

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Reserved input keys for the narrow update modes.
const (
	inputInlineName  = "name"
	inputInlineValue = "value"
	inputInlinePK    = "pk"
	inputOrderable   = "_orderable"
)

// Form is the persistence orchestrator for one resource: it validates raw
// submitted input, splits it into own-record and relation payloads and
// applies the whole graph inside one transaction.
type Form struct {
	registry *Registry
	store    Store
	hooks    *Hooks
	resource string
}

// New creates a form over a store. resource is the index path used by the
// redirect policy (e.g. "/admin/orders").
func New(store Store, resource string) *Form {
	return &Form{
		registry: NewRegistry(),
		store:    store,
		hooks:    NewHooks(),
		resource: resource,
	}
}

// Fields registers fields in declaration order.
func (f *Form) Fields(fields ...Field) *Form {
	for _, fld := range fields {
		f.registry.Register(fld)
	}
	return f
}

// Registry exposes the field registry.
func (f *Form) Registry() *Registry {
	return f.registry
}

// On registers a lifecycle hook.
func (f *Form) On(phase HookPhase, hook Hook) *Form {
	f.hooks.On(phase, hook)
	return f
}

// ============================================================
// CREATE
// ============================================================

// Create validates and persists a new record with all its relation payloads
// inside one transaction.
func (f *Form) Create(ctx context.Context, raw map[string]interface{}, req RequestContext) (*Response, error) {
	if res := f.hooks.fire(ctx, PhaseSubmitted, &HookEvent{Input: raw}); res.Response() != nil {
		return res.Response(), nil
	}

	if errs := f.validate(raw, false); errs.Any() {
		return validationFailed(req, errs), nil
	}

	rec := f.store.NewRecord()
	if res := f.hooks.fire(ctx, PhaseSaving, &HookEvent{Input: raw, Record: rec}); res.Response() != nil {
		return res.Response(), nil
	}

	relations, err := ResolveRelations(rec, f.registry.All())
	if err != nil {
		return nil, err
	}

	input := ReinterpretFlatInput(raw)
	primary := PrepareUpdate(input, f.registry.All(), PrepareOptions{})
	payloads := PrepareUpdate(input, f.registry.All(), PrepareOptions{RelationMode: true})

	err = f.store.RunAtomically(ctx, func(ctx context.Context) error {
		assign(rec, primary)
		if err := f.store.Save(ctx, rec); err != nil {
			return err
		}
		return f.applyRelations(ctx, rec, relations, payloads, input)
	})
	if err != nil {
		return nil, &PersistenceError{Op: "create", Err: err}
	}

	if res := f.hooks.fire(ctx, PhaseSaved, &HookEvent{Input: raw, Record: rec}); res.Response() != nil {
		return res.Response(), nil
	}

	return DecideResponse(req, f.resource, rec.PrimaryKey(), nil), nil
}

// ============================================================
// UPDATE
// ============================================================

// Update persists changes to an existing record. Two narrow modes are
// detected from the input shape: an inline single-field edit and an orderable
// move; everything else follows the full create-like path against the loaded
// record.
func (f *Form) Update(ctx context.Context, id interface{}, raw map[string]interface{}, req RequestContext) (*Response, error) {
	if dir, ok := raw[inputOrderable]; ok {
		return f.move(ctx, id, dir)
	}

	raw, inline := rewriteInlineEdit(raw)
	if inline {
		req.AjaxNonPartial = true
	}

	if res := f.hooks.fire(ctx, PhaseSubmitted, &HookEvent{Input: raw}); res.Response() != nil {
		return res.Response(), nil
	}

	// Updates are partial submissions: required applies only to columns
	// actually present, so an inline edit never trips over other fields.
	if errs := f.validate(raw, true); errs.Any() {
		return validationFailed(req, errs), nil
	}

	relations, err := ResolveRelations(f.store.NewRecord(), f.registry.All())
	if err != nil {
		return nil, err
	}

	// Find understands top-level relation names only; nested relations are
	// reached through their parent rows at write time.
	with := relations.TopLevel()
	if inline {
		with = intersect(with, raw)
	}

	rec, err := f.store.Find(ctx, id, FindOptions{With: with})
	if err != nil {
		return nil, err
	}

	if res := f.hooks.fire(ctx, PhaseEditing, &HookEvent{Input: raw, Record: rec}); res.Response() != nil {
		return res.Response(), nil
	}
	if res := f.hooks.fire(ctx, PhaseSaving, &HookEvent{Input: raw, Record: rec}); res.Response() != nil {
		return res.Response(), nil
	}

	primary := PrepareUpdate(raw, f.registry.All(), PrepareOptions{})
	payloads := PrepareUpdate(raw, f.registry.All(), PrepareOptions{RelationMode: true})

	err = f.store.RunAtomically(ctx, func(ctx context.Context) error {
		assign(rec, primary)
		if err := f.store.Save(ctx, rec); err != nil {
			return err
		}
		if len(relations) == 0 {
			return nil
		}
		return f.applyRelations(ctx, rec, relations, payloads, raw)
	})
	if err != nil {
		return nil, &PersistenceError{Op: "update", Err: err}
	}

	if res := f.hooks.fire(ctx, PhaseSaved, &HookEvent{Input: raw, Record: rec}); res.Response() != nil {
		return res.Response(), nil
	}

	return DecideResponse(req, f.resource, rec.PrimaryKey(), displayOverrides(inline, primary)), nil
}

// rewriteInlineEdit detects the single-field inline edit shape
// {name, value, pk} and rewrites it into {name: value}.
func rewriteInlineEdit(raw map[string]interface{}) (map[string]interface{}, bool) {
	name, hasName := raw[inputInlineName].(string)
	value, hasValue := raw[inputInlineValue]
	_, hasPK := raw[inputInlinePK]
	if !hasName || !hasValue || !hasPK {
		return raw, false
	}
	return map[string]interface{}{name: value}, true
}

// move bypasses validation and persistence entirely and reorders the record.
func (f *Form) move(ctx context.Context, id interface{}, dir interface{}) (*Response, error) {
	rec, err := f.store.Find(ctx, id, FindOptions{})
	if err != nil {
		return nil, err
	}
	ord, ok := rec.(Orderable)
	if !ok {
		return &Response{Kind: ResponseJSON, Status: false, Code: http.StatusBadRequest, Message: "record is not orderable"}, nil
	}
	if truthy(dir) {
		err = ord.MoveUp(ctx)
	} else {
		err = ord.MoveDown(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &Response{Kind: ResponseJSON, Status: true, Code: http.StatusOK, Message: "move succeeded"}, nil
}

// ============================================================
// DESTROY
// ============================================================

// Destroy deletes every record in the comma-separated id list, best effort:
// a failure stops the loop but already-deleted records stay deleted. The
// deleting and deleted hooks fire per record, with the id in the event input
// and, after the delete, the loaded record.
func (f *Form) Destroy(ctx context.Context, idsCsv string) *Response {
	for _, id := range strings.Split(idsCsv, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}

		event := &HookEvent{Input: map[string]interface{}{"id": id}}
		if res := f.hooks.fire(ctx, PhaseDeleting, event); res.Response() != nil {
			return res.Response()
		}

		rec, err := f.store.Find(ctx, id, FindOptions{WithTrashed: true})
		if err != nil {
			return deleteFailed(err)
		}
		if err := f.deleteOne(ctx, rec); err != nil {
			return deleteFailed(err)
		}

		event.Record = rec
		if res := f.hooks.fire(ctx, PhaseDeleted, event); res.Response() != nil {
			return res.Response()
		}
	}

	return &Response{Kind: ResponseJSON, Status: true, Code: http.StatusOK, Message: "delete succeeded"}
}

// deleteOne branches on soft-delete state: a record already in the trash is
// purged (files first, then a hard delete); a live soft-deletable record is
// only soft-deleted, keeping its files restorable.
func (f *Form) deleteOne(ctx context.Context, rec Record) error {
	sd, ok := rec.(SoftDeletable)
	soft := ok && sd.SoftDeletes()

	switch {
	case soft && sd.Trashed():
		if err := f.purgeFiles(rec); err != nil {
			return err
		}
		return f.store.ForceDelete(ctx, rec)
	case soft:
		return f.store.Delete(ctx, rec)
	default:
		if err := f.purgeFiles(rec); err != nil {
			return err
		}
		return f.store.Delete(ctx, rec)
	}
}

func (f *Form) purgeFiles(rec Record) error {
	for _, fld := range f.registry.All() {
		owner, ok := fld.(FileOwner)
		if !ok {
			continue
		}
		if err := owner.DestroyFile(rec); err != nil {
			return err
		}
	}
	return nil
}

func deleteFailed(err error) *Response {
	return &Response{Kind: ResponseJSON, Status: false, Code: http.StatusInternalServerError, Message: err.Error()}
}

// ============================================================
// RELATION WRITES
// ============================================================

// applyRelations writes every resolved top-level relation that received a
// payload. Nested sub-relations are written during their parent rows.
func (f *Form) applyRelations(ctx context.Context, rec Record, relations RelationMap, payloads map[string]interface{}, raw map[string]interface{}) error {
	for _, name := range relations.TopLevel() {
		payload, ok := payloads[name]
		if !ok {
			continue
		}
		if err := f.applyRelation(ctx, rec, name, payload, raw[name], f.registry.All()); err != nil {
			return err
		}
	}
	return nil
}

// applyRelation dispatches on the relation's variant. ManyToOne is checked
// before OneToOne: its interface is a superset and would otherwise never
// match.
func (f *Form) applyRelation(ctx context.Context, owner Record, name string, payload interface{}, rawValue interface{}, fields []Field) error {
	rel, ok := owner.Relation(name)
	if !ok {
		return fmt.Errorf("record declares no relation %q", name)
	}

	switch r := rel.(type) {
	case ManyToMany:
		return r.Sync(ctx, toIDList(payload))
	case ManyToOne:
		related, err := r.Fetch(ctx)
		if err != nil {
			return err
		}
		assignPayload(related, payload)
		if err := f.store.Save(ctx, related); err != nil {
			return err
		}
		r.Associate(related)
		return f.store.Save(ctx, owner)
	case OneToMany:
		return f.applyOneToMany(ctx, r, name, payload, rawValue, fields)
	case OneToOne:
		related, err := r.Fetch(ctx)
		if err != nil {
			return err
		}
		assignPayload(related, payload)
		return f.store.Save(ctx, related)
	default:
		return fmt.Errorf("relation %q has unsupported kind %s", name, rel.Kind())
	}
}

// applyOneToMany upserts the payload rows one by one. A row carrying the
// removal flag deletes its child and gets no field assignments. Sub-relation
// keys are stripped from the row and re-prepared from the original raw row
// with the child as the new parent context, which is how grandchildren land
// in the same transaction.
func (f *Form) applyOneToMany(ctx context.Context, rel OneToMany, name string, payload interface{}, rawValue interface{}, fields []Field) error {
	rows := normalizeRows(payload)
	rawRows := normalizeRows(rawValue)
	pkName := rel.Related().PrimaryKeyName()

	nested, subFields := nestedFieldsFor(fields, name)

	for i, row := range rows {
		child, err := rel.FindOrNew(ctx, row[pkName])
		if err != nil {
			return err
		}

		if truthy(row[RemoveFlag]) {
			if err := f.store.Delete(ctx, child); err != nil {
				return err
			}
			continue
		}

		for col, v := range row {
			if col == RemoveFlag {
				continue
			}
			if _, isSub := subFields[col]; isSub {
				continue
			}
			child.Set(col, v)
		}
		if err := f.store.Save(ctx, child); err != nil {
			return err
		}

		if nested == nil || i >= len(rawRows) {
			continue
		}
		orig := rawRows[i]
		for _, subName := range sortedKeys(subFields) {
			subPayloads := PrepareUpdate(orig, nested.SubFields(), PrepareOptions{RelationMode: true, SubRelation: subName})
			subPayload, ok := subPayloads[subName]
			if !ok {
				continue
			}
			if err := f.applyRelation(ctx, child, subName, subPayload, orig[subName], nested.SubFields()); err != nil {
				return err
			}
		}
	}
	return nil
}

// nestedFieldsFor finds the nested form declared for a relation within the
// given field scope and indexes its relation sub-fields by column.
func nestedFieldsFor(fields []Field, name string) (NestedField, map[string]Field) {
	for _, f := range fields {
		if !f.Column().Matches(name) {
			continue
		}
		nested, ok := f.(NestedField)
		if !ok {
			return nil, nil
		}
		subs := make(map[string]Field)
		for _, sub := range nested.SubFields() {
			if sub.HasRelation() {
				subs[sub.Column().First()] = sub
			}
		}
		return nested, subs
	}
	return nil, nil
}

// ============================================================
// HELPERS
// ============================================================

func (f *Form) validate(raw map[string]interface{}, partial bool) *ValidationErrors {
	errs := NewValidationErrors()
	for _, fld := range f.registry.All() {
		if err := fld.Validate(raw, partial); err != nil {
			errs.Add(fld.Column().First(), err.Error())
		}
	}
	return errs
}

// assign writes a prepared primary map onto the record, top-level key by
// top-level key. Nested maps produced by dotted-path expansion are assigned
// whole; the record implementation owns their merge semantics.
func assign(rec Record, primary map[string]interface{}) {
	for column, value := range primary {
		rec.Set(column, value)
	}
}

func assignPayload(rec Record, payload interface{}) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return
	}
	for column, value := range m {
		rec.Set(column, value)
	}
}

func displayOverrides(inline bool, primary map[string]interface{}) map[string]string {
	if !inline || len(primary) == 0 {
		return nil
	}
	out := make(map[string]string, len(primary))
	for column, value := range primary {
		out[column] = fmt.Sprintf("%v", value)
	}
	return out
}

func toIDList(payload interface{}) []interface{} {
	switch ids := payload.(type) {
	case []interface{}:
		return ids
	case []string:
		out := make([]interface{}, len(ids))
		for i, id := range ids {
			out[i] = id
		}
		return out
	case []int:
		out := make([]interface{}, len(ids))
		for i, id := range ids {
			out[i] = id
		}
		return out
	case nil:
		return nil
	default:
		return []interface{}{payload}
	}
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || t == "true" || t == "on"
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return false
	}
}

func intersect(relations []string, raw map[string]interface{}) []string {
	var out []string
	for _, name := range relations {
		if _, ok := raw[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func sortedKeys(m map[string]Field) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
