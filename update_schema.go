package icecore

import (
	"strings"

	"github.com/marmotdata/icecore/catalog"
	"github.com/marmotdata/icecore/schema"
)

// tableRootID is the sentinel container ID the root struct's staged
// adds and moves are keyed under (spec.md §4.F "append adds under
// TABLE_ROOT_ID"); it never collides with a real field ID since those
// start at 1.
const tableRootID = 0

type moveKind int

const (
	moveFirst moveKind = iota
	moveBefore
	moveAfter
)

type fieldMove struct {
	kind    moveKind
	fieldID int
	otherID int
}

// UpdateSchema stages schema-evolution operations against a snapshot
// of a table's current schema and applies them atomically on Apply or
// Commit, mirroring UpdateSchema/_ApplyChanges in
// original_source/python/pyiceberg/table/__init__.py.
type UpdateSchema struct {
	tx   *Transaction
	base *schema.Schema

	caseSensitive     bool
	allowIncompatible bool

	adds    map[int][]*schema.NestedField
	updates map[int]*schema.NestedField
	deletes map[int]bool
	moves   map[int][]fieldMove

	addedNameToID   map[string]int
	identifierNames map[string]bool

	nextID int
}

// NewUpdateSchema starts a schema-evolution builder from base. tx may
// be nil for a standalone (non-transactional) evolution.
func NewUpdateSchema(tx *Transaction, base *schema.Schema, caseSensitive, allowIncompatibleChanges bool) *UpdateSchema {
	names := map[string]bool{}
	for id := range base.IdentifierFieldIDs {
		if f := base.FindFieldByID(id); f != nil {
			names[f.Name] = true
		}
	}
	return &UpdateSchema{
		tx:                tx,
		base:              base,
		caseSensitive:     caseSensitive,
		allowIncompatible: allowIncompatibleChanges,
		adds:              map[int][]*schema.NestedField{},
		updates:           map[int]*schema.NestedField{},
		deletes:           map[int]bool{},
		moves:             map[int][]fieldMove{},
		addedNameToID:     map[string]int{},
		identifierNames:   names,
		nextID:            base.HighestFieldID() + 1,
	}
}

func (u *UpdateSchema) allocID() int {
	id := u.nextID
	u.nextID++
	return id
}

func splitParentLast(path string) (parent, last string) {
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// resolveID finds the field ID a dotted path currently names, checking
// the live base schema first and then fields staged as added earlier
// in this same builder.
func (u *UpdateSchema) resolveID(path string) (int, bool) {
	if f := u.base.FindField(path, u.caseSensitive); f != nil {
		return f.ID, true
	}
	key := path
	if !u.caseSensitive {
		key = strings.ToLower(path)
	}
	if id, ok := u.addedNameToID[key]; ok {
		return id, true
	}
	return 0, false
}

func containerStruct(t schema.Type) (*schema.StructType, int, bool) {
	switch v := t.(type) {
	case *schema.StructType:
		return v, 0, true
	case *schema.ListType:
		if st, ok := v.Element.(*schema.StructType); ok {
			return st, v.ElementID, true
		}
	case *schema.MapType:
		if st, ok := v.Value.(*schema.StructType); ok {
			return st, v.ValueID, true
		}
	}
	return nil, 0, false
}

// resolveContainer returns the container ID new fields under
// parentPath are added to (tableRootID for the top-level schema).
func (u *UpdateSchema) resolveContainer(parentPath string) (int, error) {
	if parentPath == "" {
		return tableRootID, nil
	}
	field := u.base.FindField(parentPath, u.caseSensitive)
	if field == nil {
		return 0, newError(Invalid, nil, "parent column %q does not exist", parentPath)
	}
	_, containerID, ok := containerStruct(field.Type)
	if !ok {
		return 0, newError(Invalid, nil, "parent column %q is not a struct", parentPath)
	}
	if containerID == 0 {
		containerID = field.ID
	}
	return containerID, nil
}

func (u *UpdateSchema) nameTaken(containerID int, name string) bool {
	eq := func(a, b string) bool {
		if u.caseSensitive {
			return a == b
		}
		return strings.EqualFold(a, b)
	}
	if containerID == tableRootID {
		for _, f := range u.base.Root.Fields {
			if !u.deletes[f.ID] && eq(f.Name, name) {
				return true
			}
		}
	} else if parent := u.base.FindFieldByID(containerID); parent != nil {
		if st, _, ok := containerStruct(parent.Type); ok {
			for _, f := range st.Fields {
				if !u.deletes[f.ID] && eq(f.Name, name) {
					return true
				}
			}
		}
	}
	for _, f := range u.adds[containerID] {
		if eq(f.Name, name) {
			return true
		}
	}
	return false
}

// AddColumn stages a new field under path's parent (path's last
// segment is the new field's name). required=true needs
// allow_incompatible_changes, since existing rows have no value for
// it.
func (u *UpdateSchema) AddColumn(path string, typ schema.Type, doc string, required bool) error {
	parentPath, name := splitParentLast(path)
	containerID, err := u.resolveContainer(parentPath)
	if err != nil {
		return err
	}
	if u.nameTaken(containerID, name) {
		return newError(AlreadyExists, nil, "column %q already exists", path)
	}
	if required && !u.allowIncompatible {
		return newError(Incompatible, nil, "adding required column %q needs allow_incompatible_changes", path)
	}

	assigned := schema.AssignTypeIDs(typ, u.allocID, nil)
	id := u.allocID()
	field := &schema.NestedField{ID: id, Name: name, Type: assigned, Required: required, Doc: doc}
	u.adds[containerID] = append(u.adds[containerID], field)

	key := path
	if !u.caseSensitive {
		key = strings.ToLower(path)
	}
	u.addedNameToID[key] = id
	return nil
}

// DeleteColumn marks path's field deleted. It is an error to delete a
// field that has a pending rename/retype in the same builder.
func (u *UpdateSchema) DeleteColumn(path string) error {
	id, ok := u.resolveID(path)
	if !ok {
		return newError(NotFound, nil, "column %q does not exist", path)
	}
	if _, ok := u.updates[id]; ok {
		return newError(Invalid, nil, "cannot delete column %q: has a pending update", path)
	}
	u.deletes[id] = true
	return nil
}

func (u *UpdateSchema) fieldFor(id int) *schema.NestedField {
	if repl, ok := u.updates[id]; ok {
		return repl
	}
	return u.base.FindFieldByID(id)
}

// RenameColumn stages a name change, carrying the field's current
// doc/type/required forward and updating identifier_field_names if
// the field is an identifier column.
func (u *UpdateSchema) RenameColumn(from, to string) error {
	id, ok := u.resolveID(from)
	if !ok {
		return newError(NotFound, nil, "column %q does not exist", from)
	}
	if u.deletes[id] {
		return newError(Invalid, nil, "cannot rename deleted column %q", from)
	}
	cur := u.fieldFor(id)
	if cur == nil {
		return newError(NotFound, nil, "column %q does not exist", from)
	}
	if u.identifierNames[cur.Name] {
		delete(u.identifierNames, cur.Name)
		u.identifierNames[to] = true
	}
	u.updates[id] = &schema.NestedField{ID: id, Name: to, Type: cur.Type, Required: cur.Required, Doc: cur.Doc}
	return nil
}

// isSafePromotion reports whether from can be widened to to without
// rewriting existing data: int->long, float->double, and
// decimal(p,s)->decimal(p',s) with p'>=p (scale held fixed).
func isSafePromotion(from, to schema.Type) bool {
	if from.String() == to.String() {
		return true
	}
	fp, fok := from.(schema.PrimitiveType)
	tp, tok := to.(schema.PrimitiveType)
	if !fok || !tok {
		return false
	}
	switch {
	case fp.Kind == schema.KindInt && tp.Kind == schema.KindLong:
		return true
	case fp.Kind == schema.KindFloat && tp.Kind == schema.KindDouble:
		return true
	case fp.Kind == schema.KindDecimal && tp.Kind == schema.KindDecimal:
		return fp.Scale == tp.Scale && tp.Precision >= fp.Precision
	default:
		return false
	}
}

// UpdateColumnType stages a type change for path. The change must be a
// safe promotion unless allow_incompatible_changes is set.
func (u *UpdateSchema) UpdateColumnType(path string, newType schema.Type) error {
	id, ok := u.resolveID(path)
	if !ok {
		return newError(NotFound, nil, "column %q does not exist", path)
	}
	cur := u.fieldFor(id)
	if cur == nil {
		return newError(NotFound, nil, "column %q does not exist", path)
	}
	if cur.Type.String() == newType.String() {
		return nil
	}
	if !isSafePromotion(cur.Type, newType) && !u.allowIncompatible {
		return newError(Incompatible, nil, "column %q: %s -> %s is not a safe promotion", path, cur.Type, newType)
	}
	u.updates[id] = &schema.NestedField{ID: id, Name: cur.Name, Type: newType, Required: cur.Required, Doc: cur.Doc}
	return nil
}

// UpdateColumnDoc stages a doc-only change.
func (u *UpdateSchema) UpdateColumnDoc(path, doc string) error {
	id, ok := u.resolveID(path)
	if !ok {
		return newError(NotFound, nil, "column %q does not exist", path)
	}
	cur := u.fieldFor(id)
	u.updates[id] = &schema.NestedField{ID: id, Name: cur.Name, Type: cur.Type, Required: cur.Required, Doc: doc}
	return nil
}

// RequireColumn makes path required. optional->required is an
// incompatible change (an existing row could have a null there) and
// needs allow_incompatible_changes; it is a no-op if already required.
func (u *UpdateSchema) RequireColumn(path string) error {
	id, ok := u.resolveID(path)
	if !ok {
		return newError(NotFound, nil, "column %q does not exist", path)
	}
	cur := u.fieldFor(id)
	if cur.Required {
		return nil
	}
	if !u.allowIncompatible {
		return newError(Incompatible, nil, "making column %q required needs allow_incompatible_changes", path)
	}
	u.updates[id] = &schema.NestedField{ID: id, Name: cur.Name, Type: cur.Type, Required: true, Doc: cur.Doc}
	return nil
}

// MakeColumnOptional makes path optional. required->optional is always
// safe and never gated, the reverse of RequireColumn's direction.
func (u *UpdateSchema) MakeColumnOptional(path string) error {
	id, ok := u.resolveID(path)
	if !ok {
		return newError(NotFound, nil, "column %q does not exist", path)
	}
	cur := u.fieldFor(id)
	if !cur.Required {
		return nil
	}
	u.updates[id] = &schema.NestedField{ID: id, Name: cur.Name, Type: cur.Type, Required: false, Doc: cur.Doc}
	return nil
}

func (u *UpdateSchema) parentOf(id int) (int, error) {
	if u.base.Root.FieldByID(id) != nil {
		return tableRootID, nil
	}
	var found int = -1
	var walk func(containerID int, s *schema.StructType)
	walk = func(containerID int, s *schema.StructType) {
		for _, f := range s.Fields {
			if f.ID == id {
				found = containerID
				return
			}
			if st, cid, ok := containerStruct(f.Type); ok {
				if cid == 0 {
					cid = f.ID
				}
				walk(cid, st)
				if found != -1 {
					return
				}
			}
		}
	}
	walk(tableRootID, u.base.Root)
	if found == -1 {
		for containerID, fields := range u.adds {
			for _, f := range fields {
				if f.ID == id {
					found = containerID
				}
			}
		}
	}
	if found == -1 {
		return 0, newError(Invalid, nil, "column id %d has no resolvable parent", id)
	}
	return found, nil
}

func (u *UpdateSchema) stageMove(path, otherPath string, kind moveKind) error {
	id, ok := u.resolveID(path)
	if !ok {
		return newError(NotFound, nil, "column %q does not exist", path)
	}
	var otherID int
	if kind != moveFirst {
		oid, ok := u.resolveID(otherPath)
		if !ok {
			return newError(NotFound, nil, "column %q does not exist", otherPath)
		}
		otherID = oid
		if otherID == id {
			return newError(Invalid, nil, "cannot move column %q relative to itself", path)
		}
	}
	parentID, err := u.parentOf(id)
	if err != nil {
		return err
	}
	if kind != moveFirst {
		otherParent, err := u.parentOf(otherID)
		if err != nil {
			return err
		}
		if otherParent != parentID {
			return newError(Invalid, nil, "cannot move column %q relative to %q: different parents", path, otherPath)
		}
	}
	u.moves[parentID] = append(u.moves[parentID], fieldMove{kind: kind, fieldID: id, otherID: otherID})
	return nil
}

func (u *UpdateSchema) MoveFirst(path string) error         { return u.stageMove(path, "", moveFirst) }
func (u *UpdateSchema) MoveBefore(path, before string) error { return u.stageMove(path, before, moveBefore) }
func (u *UpdateSchema) MoveAfter(path, after string) error   { return u.stageMove(path, after, moveAfter) }

func indexOfID(fields []*schema.NestedField, id int) int {
	for i, f := range fields {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func applyMoves(fields []*schema.NestedField, moves []fieldMove) []*schema.NestedField {
	for _, m := range moves {
		idx := indexOfID(fields, m.fieldID)
		if idx < 0 {
			continue
		}
		f := fields[idx]
		fields = append(append([]*schema.NestedField{}, fields[:idx]...), fields[idx+1:]...)
		switch m.kind {
		case moveFirst:
			fields = append([]*schema.NestedField{f}, fields...)
		case moveBefore, moveAfter:
			oi := indexOfID(fields, m.otherID)
			if oi < 0 {
				fields = append(fields, f)
				continue
			}
			insertAt := oi
			if m.kind == moveAfter {
				insertAt = oi + 1
			}
			rest := append([]*schema.NestedField{f}, fields[insertAt:]...)
			fields = append(append([]*schema.NestedField{}, fields[:insertAt]...), rest...)
		}
	}
	return fields
}

func (u *UpdateSchema) rebuildType(containerID int, t schema.Type) schema.Type {
	switch v := t.(type) {
	case *schema.StructType:
		return u.rebuildStruct(containerID, v)
	case *schema.ListType:
		return &schema.ListType{ElementID: v.ElementID, Element: u.rebuildType(v.ElementID, v.Element), ElementRequired: v.ElementRequired}
	case *schema.MapType:
		return &schema.MapType{KeyID: v.KeyID, Key: v.Key, ValueID: v.ValueID, Value: u.rebuildType(v.ValueID, v.Value), ValueRequired: v.ValueRequired}
	default:
		return t
	}
}

func (u *UpdateSchema) rebuildStruct(containerID int, s *schema.StructType) *schema.StructType {
	var kept []*schema.NestedField
	for _, f := range s.Fields {
		if u.deletes[f.ID] {
			continue
		}
		name, typ, doc, required := f.Name, f.Type, f.Doc, f.Required
		if repl, ok := u.updates[f.ID]; ok {
			name, typ, doc, required = repl.Name, repl.Type, repl.Doc, repl.Required
		}
		newType := u.rebuildType(f.ID, typ)
		kept = append(kept, &schema.NestedField{ID: f.ID, Name: name, Type: newType, Required: required, Doc: doc})
	}
	kept = append(kept, u.adds[containerID]...)
	kept = applyMoves(kept, u.moves[containerID])
	return &schema.StructType{Fields: kept}
}

// Apply rebuilds the schema with every staged operation applied and
// validates that every identifier field name still resolves.
func (u *UpdateSchema) Apply() (*schema.Schema, error) {
	newRoot := u.rebuildStruct(tableRootID, u.base.Root)
	newSchema := schema.NewSchema(u.base.ID+1, newRoot)

	ids := make([]int, 0, len(u.identifierNames))
	for name := range u.identifierNames {
		f := newSchema.FindField(name, u.caseSensitive)
		if f == nil {
			return nil, newError(Invalid, nil, "identifier field %q does not resolve after schema evolution", name)
		}
		ids = append(ids, f.ID)
	}
	return schema.NewSchema(newSchema.ID, newRoot, ids...), nil
}

// CommitPayload applies the staged changes and computes the catalog
// commit payload that describes them, without sending anything
// anywhere: [AddSchema(new_schema), SetCurrentSchema(-1)] with
// requirement [AssertCurrentSchemaID(pre-change schema id)] (spec.md
// §4.F, §4.G). Useful on its own for previewing a schema change (e.g.
// icecorectl's "schema stage --dry-run") before deciding to Commit.
func (u *UpdateSchema) CommitPayload() (*schema.Schema, []catalog.TableUpdate, []catalog.TableRequirement, error) {
	newSchema, err := u.Apply()
	if err != nil {
		return nil, nil, nil, err
	}
	highestID := newSchema.HighestFieldID()

	updates := []catalog.TableUpdate{
		catalog.AddSchema{Schema: newSchema, LastColumnID: &highestID},
		catalog.SetCurrentSchema{SchemaID: -1},
	}
	requirements := []catalog.TableRequirement{
		catalog.AssertCurrentSchemaID{SchemaID: u.base.ID},
	}
	return newSchema, updates, requirements, nil
}

// Commit applies the staged changes and emits the catalog commit
// payload. If a Transaction owns this builder the updates are
// appended to it so a later Transaction.Commit sends them together
// with any other staged operations; a standalone builder (tx == nil)
// only computes the new schema and payload — there is no catalog to
// send a standalone commit to without a Table, so callers in that
// case use CommitPayload directly instead.
func (u *UpdateSchema) Commit() (*schema.Schema, error) {
	newSchema, updates, requirements, err := u.CommitPayload()
	if err != nil {
		return nil, err
	}
	if u.tx != nil {
		u.tx.stage(updates, requirements)
	}
	return newSchema, nil
}
