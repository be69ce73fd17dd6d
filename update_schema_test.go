package icecore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmotdata/icecore/catalog"
	"github.com/marmotdata/icecore/schema"
)

func baseTestSchema() *schema.Schema {
	root := &schema.StructType{Fields: []*schema.NestedField{
		{ID: 1, Name: "id", Type: schema.Int(), Required: true},
		{ID: 2, Name: "name", Type: schema.String(), Required: false},
	}}
	return schema.NewSchema(1, root, 1)
}

func TestUpdateSchema_RenameAndAddPreserveFieldIDs(t *testing.T) {
	base := baseTestSchema()
	u := NewUpdateSchema(nil, base, true, false)

	require.NoError(t, u.RenameColumn("name", "full_name"))
	require.NoError(t, u.AddColumn("email", schema.String(), "", false))

	out, err := u.Apply()
	require.NoError(t, err)

	renamed := out.FindFieldByID(2)
	require.NotNil(t, renamed)
	assert.Equal(t, "full_name", renamed.Name, "rename must not disturb the field's stable ID")

	added := out.FindField("email", true)
	require.NotNil(t, added)
	assert.Equal(t, 3, added.ID, "new fields are assigned IDs above the schema's prior high-water mark")

	idField := out.FindFieldByID(1)
	require.NotNil(t, idField)
	assert.Equal(t, "id", idField.Name)
}

func TestUpdateSchema_IllegalDemotionRejected(t *testing.T) {
	base := baseTestSchema()
	u := NewUpdateSchema(nil, base, true, false)

	err := u.UpdateColumnType("id", schema.String())
	require.Error(t, err)

	var icErr *Error
	require.ErrorAs(t, err, &icErr)
	assert.Equal(t, Incompatible, icErr.Kind)
}

func TestUpdateSchema_DemotionAllowedWithFlag(t *testing.T) {
	base := baseTestSchema()
	u := NewUpdateSchema(nil, base, true, true)

	require.NoError(t, u.UpdateColumnType("id", schema.String()))
	out, err := u.Apply()
	require.NoError(t, err)
	assert.Equal(t, "string", out.FindFieldByID(1).Type.String())
}

func TestUpdateSchema_SafePromotionNeedsNoFlag(t *testing.T) {
	base := baseTestSchema()
	u := NewUpdateSchema(nil, base, true, false)

	require.NoError(t, u.UpdateColumnType("id", schema.Long()), "int->long is a safe promotion")
	out, err := u.Apply()
	require.NoError(t, err)
	assert.Equal(t, "long", out.FindFieldByID(1).Type.String())
}

func TestUpdateSchema_MoveBeforeAcrossSiblings(t *testing.T) {
	base := baseTestSchema()
	u := NewUpdateSchema(nil, base, true, false)

	require.NoError(t, u.MoveBefore("name", "id"))
	out, err := u.Apply()
	require.NoError(t, err)

	require.Len(t, out.Root.Fields, 2)
	assert.Equal(t, "name", out.Root.Fields[0].Name)
	assert.Equal(t, "id", out.Root.Fields[1].Name)
}

func TestUpdateSchema_MoveBeforeRejectsDifferentParents(t *testing.T) {
	nested := &schema.StructType{Fields: []*schema.NestedField{
		{ID: 3, Name: "street", Type: schema.String(), Required: false},
	}}
	root := &schema.StructType{Fields: []*schema.NestedField{
		{ID: 1, Name: "id", Type: schema.Int(), Required: true},
		{ID: 2, Name: "address", Type: nested, Required: false},
	}}
	base := schema.NewSchema(1, root)
	u := NewUpdateSchema(nil, base, true, false)

	err := u.MoveBefore("address.street", "id")
	require.Error(t, err)
}

func TestUpdateSchema_RequireColumnNeedsFlag(t *testing.T) {
	base := baseTestSchema()
	u := NewUpdateSchema(nil, base, true, false)

	err := u.RequireColumn("name")
	require.Error(t, err)

	u2 := NewUpdateSchema(nil, base, true, true)
	require.NoError(t, u2.RequireColumn("name"))
	out, err := u2.Apply()
	require.NoError(t, err)
	assert.True(t, out.FindFieldByID(2).Required)
}

func TestUpdateSchema_DeleteColumn(t *testing.T) {
	base := baseTestSchema()
	u := NewUpdateSchema(nil, base, true, false)

	require.NoError(t, u.DeleteColumn("name"))
	out, err := u.Apply()
	require.NoError(t, err)
	assert.Nil(t, out.FindFieldByID(2))
	require.Len(t, out.Root.Fields, 1)
}

func TestUpdateSchema_CommitPayloadWithoutTransaction(t *testing.T) {
	base := baseTestSchema()
	u := NewUpdateSchema(nil, base, true, false)
	require.NoError(t, u.AddColumn("email", schema.String(), "", false))

	newSchema, updates, requirements, err := u.CommitPayload()
	require.NoError(t, err)
	assert.Equal(t, base.ID+1, newSchema.ID)

	require.Len(t, updates, 2)
	assert.Equal(t, "add-schema", updates[0].Action())
	assert.Equal(t, "set-current-schema", updates[1].Action())
	addSchema, ok := updates[0].(catalog.AddSchema)
	require.True(t, ok)
	assert.Same(t, newSchema, addSchema.Schema)

	require.Len(t, requirements, 1)
	assert.Equal(t, "assert-current-schema-id", requirements[0].Type())
	assertion, ok := requirements[0].(catalog.AssertCurrentSchemaID)
	require.True(t, ok)
	assert.Equal(t, base.ID, assertion.SchemaID)
}

func TestUpdateSchema_IdentifierFieldRenameTracksName(t *testing.T) {
	base := baseTestSchema() // identifier field is "id"
	u := NewUpdateSchema(nil, base, true, false)

	require.NoError(t, u.RenameColumn("id", "pk"))
	out, err := u.Apply()
	require.NoError(t, err)
	assert.Contains(t, out.IdentifierFieldIDs, 1)
}
