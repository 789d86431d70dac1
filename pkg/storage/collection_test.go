package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/objectid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertPopulatesMissingID(t *testing.T) {
	coll := NewCollection("users")
	doc := domain.Document{"name": "Alice"}

	id, err := coll.Insert(doc)
	require.NoError(t, err)
	assert.Len(t, id, objectid.HexLen, "default _id is a hex-encoded ObjectID")

	stored, ok := coll.FindByID(id)
	require.True(t, ok)
	oid, ok := stored["_id"].(*objectid.ObjectID)
	require.True(t, ok)
	assert.Equal(t, id, oid.Hex())
}

func TestInsertKeepsCallerID(t *testing.T) {
	coll := NewCollection("users")
	id, err := coll.Insert(domain.Document{"_id": "custom", "name": "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "custom", id)

	_, err = coll.Insert(domain.Document{"_id": "custom"})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument), "duplicate _id must be rejected")
}

func TestInsertAcceptsObjectIDValue(t *testing.T) {
	coll := NewCollection("users")
	oid := objectid.New()
	id, err := coll.Insert(domain.Document{"_id": oid})
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), id)
}

func TestPositionIndexStaysConsistent(t *testing.T) {
	coll := NewCollection("users")
	for i := 0; i < 5; i++ {
		_, err := coll.Insert(domain.Document{"_id": fmt.Sprintf("u%d", i), "i": i})
		require.NoError(t, err)
	}

	// delete from the middle: everything after shifts down
	_, err := coll.DeleteByID("u2")
	require.NoError(t, err)

	assert.Equal(t, 4, coll.Len())
	for id, pos := range coll.DocIndexes() {
		assert.Equal(t, id, DocID(coll.Docs()[pos]["_id"]), "position map must point at the right document")
	}
	_, ok := coll.FindByID("u2")
	assert.False(t, ok)

	// delete head and tail too
	_, err = coll.DeleteByID("u0")
	require.NoError(t, err)
	_, err = coll.DeleteByID("u4")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u3"}, resultIDs(coll.Docs()))
	for id, pos := range coll.DocIndexes() {
		assert.Equal(t, id, DocID(coll.Docs()[pos]["_id"]))
	}
}

func TestUpdateByID(t *testing.T) {
	coll := NewCollection("users")
	_, err := coll.Insert(domain.Document{"_id": "u1", "name": "Alice", "age": 30})
	require.NoError(t, err)

	updated, err := coll.UpdateByID("u1", domain.Document{"age": 31, "_id": "hacked"})
	require.NoError(t, err)
	assert.Equal(t, 31, updated["age"])
	assert.Equal(t, "Alice", updated["name"], "partial update keeps untouched fields")
	assert.Equal(t, "u1", updated["_id"], "_id is immutable")

	_, err = coll.UpdateByID("ghost", domain.Document{"age": 1})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReplaceByID(t *testing.T) {
	coll := NewCollection("users")
	_, err := coll.Insert(domain.Document{"_id": "u1", "name": "Alice", "age": 30})
	require.NoError(t, err)

	replaced, err := coll.ReplaceByID("u1", domain.Document{"name": "Alicia"})
	require.NoError(t, err)
	assert.Equal(t, "u1", replaced["_id"], "replacement keeps the original _id")
	assert.Equal(t, "Alicia", replaced["name"])
	assert.NotContains(t, replaced, "age", "replacement drops fields wholesale")

	// position is preserved
	assert.Equal(t, 0, coll.DocIndexes()["u1"])
}

func TestDeleteByIDMissing(t *testing.T) {
	coll := NewCollection("users")
	_, err := coll.DeleteByID("ghost")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDocID(t *testing.T) {
	oid := objectid.New()
	assert.Equal(t, "plain", DocID("plain"))
	assert.Equal(t, oid.Hex(), DocID(oid))
	assert.Equal(t, "42", DocID(42))
}
