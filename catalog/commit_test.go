package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitTableRequest_ValidateRejectsDuplicateKinds(t *testing.T) {
	req := CommitTableRequest{
		Identifier:   Identifier{Name: "t"},
		Requirements: []TableRequirement{AssertCurrentSchemaID{SchemaID: 1}, AssertCurrentSchemaID{SchemaID: 2}},
	}
	err := req.Validate()
	require.Error(t, err, "two requirements of the same concrete type must be rejected")
}

func TestCommitTableRequest_ValidateRejectsMissingName(t *testing.T) {
	req := CommitTableRequest{Identifier: Identifier{Namespace: []string{"ns"}}}
	err := req.Validate()
	require.Error(t, err)
}

func TestCommitTableRequest_JSONRoundTrip(t *testing.T) {
	req := CommitTableRequest{
		Identifier:   Identifier{Namespace: []string{"analytics", "sales"}, Name: "orders"},
		Requirements: []TableRequirement{AssertCurrentSchemaID{SchemaID: 3}},
		Updates: []TableUpdate{
			SetLocation{Location: "s3://bucket/orders"},
			SetProperties{Updates: map[string]string{"write.format.default": "parquet"}},
		},
	}

	b, err := json.Marshal(req)
	require.NoError(t, err)

	var out CommitTableRequest
	require.NoError(t, json.Unmarshal(b, &out))

	assert.Equal(t, req.Identifier, out.Identifier)
	require.Len(t, out.Requirements, 1)
	assert.Equal(t, "assert-current-schema-id", out.Requirements[0].Type())
	require.Len(t, out.Updates, 2)
	assert.Equal(t, "set-location", out.Updates[0].Action())
	assert.Equal(t, "set-properties", out.Updates[1].Action())

	setLoc, ok := out.Updates[0].(SetLocation)
	require.True(t, ok)
	assert.Equal(t, "s3://bucket/orders", setLoc.Location)
}

func TestIdentifier_String(t *testing.T) {
	id := Identifier{Namespace: []string{"a", "b"}, Name: "t"}
	assert.Equal(t, "a.b.t", id.String())
}
