package storage

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

const (
	// Magic bytes to identify our file format
	MagicBytes = "GDOC"
	// Current version
	FormatVersion = 1
	// File extension for snapshot files
	FileExtension = ".gdoc"
	// FlagUncompressed marks a payload stored raw because lz4 could not
	// shrink it (tiny snapshots are often incompressible)
	FlagUncompressed = 1 << 0
)

// FileHeader represents the header of a snapshot file
type FileHeader struct {
	Magic    [4]byte // "GDOC"
	Version  uint8   // Format version
	Flags    uint8   // Reserved for future use
	Reserved [2]byte // Reserved for future use
}

// WriteHeader writes the file header to the given writer
func WriteHeader(w io.Writer, flags uint8) error {
	header := FileHeader{
		Magic:    [4]byte{'G', 'D', 'O', 'C'},
		Version:  FormatVersion,
		Flags:    flags,
		Reserved: [2]byte{0, 0},
	}
	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates the file header
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid file format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported file version: %d", header.Version)
	}
	return &header, nil
}

// SnapshotData is the persisted form of the store. Documents are stored as
// ordered arrays so a reload reproduces scan order exactly; the _id
// position maps and secondary index contents are rebuilt on load.
type SnapshotData struct {
	Collections map[string][]domain.Document `msgpack:"collections"`
	Indexes     map[string][]string          `msgpack:"indexes,omitempty"`
	Metadata    map[string]interface{}       `msgpack:"metadata,omitempty"`
}

// NewSnapshotData creates an empty snapshot payload
func NewSnapshotData() *SnapshotData {
	return &SnapshotData{
		Collections: make(map[string][]domain.Document),
		Indexes:     make(map[string][]string),
		Metadata:    make(map[string]interface{}),
	}
}
