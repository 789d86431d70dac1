package storage

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/adfharrison1/go-docdb/pkg/objectid"
)

// SaveToFile writes a snapshot of every collection to a single file:
// header, uncompressed payload size, then an lz4 block of the msgpack
// payload.
func (se *StorageEngine) SaveToFile(filename string) error {
	se.mu.RLock()
	snapshot := NewSnapshotData()
	for collName, coll := range se.collections {
		docs := make([]domain.Document, len(coll.docs))
		for i, doc := range coll.docs {
			docs[i] = normalizeDoc(doc)
		}
		snapshot.Collections[collName] = docs
	}
	snapshot.Indexes = se.indexEngine.ExportFields()
	se.mu.RUnlock()

	msgpackData, err := msgpack.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	compressedData := make([]byte, lz4.CompressBlockBound(len(msgpackData)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(msgpackData, compressedData, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	var flags uint8
	if n == 0 {
		// incompressible payload, store it raw
		flags = FlagUncompressed
		compressedData = msgpackData
	} else {
		compressedData = compressedData[:n]
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteHeader(file, flags); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(msgpackData)))
	if _, err := file.Write(sizeBuf[:]); err != nil {
		return fmt.Errorf("failed to write payload size: %w", err)
	}
	if _, err := file.Write(compressedData); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}

	log.Printf("INFO: Saved %d collections to %s", len(snapshot.Collections), filename)
	return nil
}

// LoadFromFile replaces the store's contents with a snapshot. Position
// maps and secondary indexes are rebuilt from the ordered document arrays.
// A missing file is not an error; the store simply starts empty.
func (se *StorageEngine) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	header, err := ReadHeader(file)
	if err != nil {
		return fmt.Errorf("invalid file header: %w", err)
	}
	var sizeBuf [8]byte
	if _, err := io.ReadFull(file, sizeBuf[:]); err != nil {
		return fmt.Errorf("failed to read payload size: %w", err)
	}
	payloadSize := binary.LittleEndian.Uint64(sizeBuf[:])

	compressedData, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read compressed data: %w", err)
	}
	decompressedData := compressedData
	if header.Flags&FlagUncompressed == 0 {
		// an lz4 block expands at most 255x, so a declared size beyond
		// that bound marks a corrupt or truncated file
		const maxExpansion = 255
		if payloadSize > uint64(len(compressedData))*maxExpansion {
			return fmt.Errorf("declared payload size %d is implausible for %d compressed bytes", payloadSize, len(compressedData))
		}
		decompressedData = make([]byte, payloadSize)
		n, err := lz4.UncompressBlock(compressedData, decompressedData)
		if err != nil {
			return fmt.Errorf("failed to decompress data: %w", err)
		}
		decompressedData = decompressedData[:n]
	}

	var snapshot SnapshotData
	if err := msgpack.Unmarshal(decompressedData, &snapshot); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	se.mu.Lock()
	defer se.mu.Unlock()
	se.collections = make(map[string]*Collection, len(snapshot.Collections))
	for collName, docs := range snapshot.Collections {
		coll := NewCollection(collName)
		for _, raw := range docs {
			doc := normalizeDoc(raw)
			coll.docIndexes[DocID(doc["_id"])] = len(coll.docs)
			coll.docs = append(coll.docs, doc)
		}
		se.collections[collName] = coll
	}
	for collName, fields := range snapshot.Indexes {
		coll, ok := se.collections[collName]
		if !ok {
			continue
		}
		for _, field := range fields {
			se.indexEngine.BuildForCollection(collName, field, coll.docs)
		}
	}

	log.Printf("INFO: Loaded %d collections from %s", len(se.collections), filename)
	return nil
}

// SaveSnapshot and LoadSnapshot use the configured snapshot path
func (se *StorageEngine) SaveSnapshot() error {
	if se.snapshotPath == "" {
		return fmt.Errorf("%w: no snapshot path configured", domain.ErrState)
	}
	return se.SaveToFile(se.snapshotPath)
}

func (se *StorageEngine) LoadSnapshot() error {
	if se.snapshotPath == "" {
		return fmt.Errorf("%w: no snapshot path configured", domain.ErrState)
	}
	return se.LoadFromFile(se.snapshotPath)
}

// normalizeDoc converts a document to plain map form. ObjectID values
// become hex strings on save; msgpack decode produces map[string]interface{}
// values that convert to Document on load.
func normalizeDoc(doc domain.Document) domain.Document {
	out := make(domain.Document, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case *objectid.ObjectID:
		return t.Hex()
	case map[string]interface{}:
		return map[string]interface{}(normalizeDoc(t))
	case domain.Document:
		return map[string]interface{}(normalizeDoc(t))
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, elem := range t {
			out[i] = normalizeValue(elem)
		}
		return out
	default:
		return v
	}
}
