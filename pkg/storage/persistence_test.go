package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot"+FileExtension)

	engine := NewStorageEngine()
	for i := 0; i < 5; i++ {
		_, err := engine.Insert("users", domain.Document{
			"_id":  fmt.Sprintf("u%d", i),
			"name": fmt.Sprintf("user %d", i),
			"nested": map[string]interface{}{
				"tags": []interface{}{"a", "b"},
			},
		})
		require.NoError(t, err)
	}
	_, err := engine.Insert("orders", domain.Document{"_id": "o1", "total": 9.5})
	require.NoError(t, err)
	require.NoError(t, engine.CreateIndex("users", "name"))

	require.NoError(t, engine.SaveToFile(path))

	restored := NewStorageEngine()
	require.NoError(t, restored.LoadFromFile(path))

	users, err := restored.GetCollection("users")
	require.NoError(t, err)
	assert.Equal(t, 5, users.Len())
	// insertion order survives the round trip
	assert.Equal(t, []string{"u0", "u1", "u2", "u3", "u4"}, resultIDs(users.Docs()))
	// and so do the position maps
	for id, pos := range users.DocIndexes() {
		assert.Equal(t, id, DocID(users.Docs()[pos]["_id"]))
	}

	doc, err := restored.GetByID("users", "u3")
	require.NoError(t, err)
	assert.Equal(t, "user 3", doc["name"])

	// indexes are rebuilt from the snapshot
	docs, err := restored.FindByIndex("users", "name", "user 2")
	require.NoError(t, err)
	require.Equal(t, 1, len(docs))
	assert.Equal(t, "u2", DocID(docs[0]["_id"]))

	// queries behave identically on the restored store
	found, err := restored.Find("orders", map[string]interface{}{"total": map[string]interface{}{"$gt": 5}}, nil, nil, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, len(found))
}

func TestSaveNormalizesObjectIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot"+FileExtension)

	engine := NewStorageEngine()
	id, err := engine.Insert("users", domain.Document{"name": "generated id"})
	require.NoError(t, err)

	require.NoError(t, engine.SaveToFile(path))
	restored := NewStorageEngine()
	require.NoError(t, restored.LoadFromFile(path))

	doc, err := restored.GetByID("users", id)
	require.NoError(t, err)
	assert.Equal(t, id, doc["_id"], "ObjectID persists as its hex string")
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	engine := NewStorageEngine()
	assert.NoError(t, engine.LoadFromFile(filepath.Join(t.TempDir(), "absent.gdoc")))
	assert.Empty(t, engine.ListCollections())
}

func TestLoadRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gdoc")
	require.NoError(t, os.WriteFile(path, []byte("XXXX1234 not a snapshot"), 0o644))

	engine := NewStorageEngine()
	assert.Error(t, engine.LoadFromFile(path))
}

func TestLoadRejectsImplausiblePayloadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.gdoc")

	// valid header, but the size field claims a terabyte payload for a
	// handful of compressed bytes
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, 0))
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], 1<<40)
	buf.Write(sizeBuf[:])
	buf.WriteString("tiny")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	engine := NewStorageEngine()
	err := engine.LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "implausible")
}

func TestHeaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, FlagUncompressed))

	header, err := ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(FormatVersion), header.Version)
	assert.Equal(t, MagicBytes, string(header.Magic[:]))
	assert.Equal(t, uint8(FlagUncompressed), header.Flags)
}

func TestSnapshotPathOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configured.gdoc")

	engine := NewStorageEngine(WithSnapshotPath(path))
	_, err := engine.Insert("users", domain.Document{"_id": "u1"})
	require.NoError(t, err)
	require.NoError(t, engine.SaveSnapshot())

	restored := NewStorageEngine(WithSnapshotPath(path))
	require.NoError(t, restored.LoadSnapshot())
	_, err = restored.GetByID("users", "u1")
	assert.NoError(t, err)

	bare := NewStorageEngine()
	assert.Error(t, bare.SaveSnapshot())
	assert.Error(t, bare.LoadSnapshot())
}
