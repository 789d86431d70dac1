package storage

import (
	"fmt"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

// MongoDB cursor methods that are part of the compatibility surface but
// intentionally unimplemented. Each fails loudly instead of silently
// no-op-ing, so callers learn the boundary immediately.

func (c *Cursor) unsupported(method string) error {
	return fmt.Errorf("%w: cursor.%s", domain.ErrUnsupported, method)
}

// BatchSize is unimplemented; all results materialize in one pass
func (c *Cursor) BatchSize(n int) error { return c.unsupported("batchSize") }

// Close is unimplemented; cursors hold no resources beyond their cache
func (c *Cursor) Close() error { return c.unsupported("close") }

// Comment is unimplemented
func (c *Cursor) Comment(comment string) error { return c.unsupported("comment") }

// Explain is unimplemented
func (c *Cursor) Explain() (domain.Document, error) { return nil, c.unsupported("explain") }

// Hint is unimplemented; only the built-in _id point lookup is indexed
func (c *Cursor) Hint(spec interface{}) error { return c.unsupported("hint") }

// MaxScan is unimplemented
func (c *Cursor) MaxScan(n int) error { return c.unsupported("maxScan") }

// MaxTimeMS is unimplemented; scans are synchronous and uncancellable
func (c *Cursor) MaxTimeMS(ms int) error { return c.unsupported("maxTimeMS") }

// Min is unimplemented
func (c *Cursor) Min(spec interface{}) error { return c.unsupported("min") }

// Max is unimplemented
func (c *Cursor) Max(spec interface{}) error { return c.unsupported("max") }

// NoCursorTimeout is unimplemented
func (c *Cursor) NoCursorTimeout() error { return c.unsupported("noCursorTimeout") }

// ReadConcern is unimplemented
func (c *Cursor) ReadConcern(level string) error { return c.unsupported("readConcern") }

// ReadPref is unimplemented
func (c *Cursor) ReadPref(mode string) error { return c.unsupported("readPref") }

// ReturnKey is unimplemented
func (c *Cursor) ReturnKey() error { return c.unsupported("returnKey") }

// ShowRecordId is unimplemented
func (c *Cursor) ShowRecordId() error { return c.unsupported("showRecordId") }

// Snapshot is unimplemented
func (c *Cursor) Snapshot() error { return c.unsupported("snapshot") }

// Tailable is unimplemented
func (c *Cursor) Tailable() error { return c.unsupported("tailable") }

// ToArray is unimplemented; use FetchAll
func (c *Cursor) ToArray() ([]domain.Document, error) { return nil, c.unsupported("toArray") }

// Size is unimplemented; use Count
func (c *Cursor) Size() (int, error) { return 0, c.unsupported("size") }

// Pretty is unimplemented
func (c *Cursor) Pretty() error { return c.unsupported("pretty") }

// ObjsLeftInBatch is unimplemented
func (c *Cursor) ObjsLeftInBatch() (int, error) { return 0, c.unsupported("objsLeftInBatch") }

// Itcount is unimplemented; use Count
func (c *Cursor) Itcount() (int, error) { return 0, c.unsupported("itcount") }
