// Package objectid implements the 12-byte document identifier and its
// 24-character hex codec: a 4-byte big-endian seconds timestamp, a 3-byte
// machine tag fixed at process start, a 2-byte process tag, and a 3-byte
// big-endian counter shared by every identifier the process generates.
package objectid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/adfharrison1/go-docdb/pkg/domain"
)

const (
	// RawLen is the size of an identifier in bytes
	RawLen = 12
	// HexLen is the size of the hex-encoded form
	HexLen = 24
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// Process-wide generation state: the machine tag is chosen once at startup
// and never changes; the counter wraps modulo 2^24 and must be incremented
// atomically so concurrent generators never collide.
var (
	counter    uint32
	machineTag [3]byte
	pidTag     [2]byte
)

func init() {
	if _, err := rand.Read(machineTag[:]); err != nil {
		panic(fmt.Sprintf("objectid: cannot seed machine tag: %v", err))
	}
	if pid := os.Getpid(); pid > 0 {
		binary.BigEndian.PutUint16(pidTag[:], uint16(pid))
	} else {
		rand.Read(pidTag[:])
	}
}

// ObjectID is a 12-byte document identifier. The hex form is memoized on
// first use and invalidated when the generation time is rewritten, so
// ObjectID values are pointer-shared, not copied.
type ObjectID struct {
	raw [RawLen]byte
	hex string
}

// New generates an identifier stamped with the current time
func New() *ObjectID {
	return NewWithTime(time.Now().Unix())
}

// NewWithTime generates an identifier stamped with the given seconds
// timestamp. Generation cannot fail.
func NewWithTime(seconds int64) *ObjectID {
	id := &ObjectID{}
	binary.BigEndian.PutUint32(id.raw[0:4], uint32(seconds))
	copy(id.raw[4:7], machineTag[:])
	copy(id.raw[7:9], pidTag[:])
	c := atomic.AddUint32(&counter, 1) % (1 << 24)
	id.raw[9] = byte(c >> 16)
	id.raw[10] = byte(c >> 8)
	id.raw[11] = byte(c)
	return id
}

// NewFromTime builds an identifier whose timestamp bytes are set and whose
// remaining 8 bytes are zero. Useful as a range boundary, never as a
// document key.
func NewFromTime(seconds int64) *ObjectID {
	id := &ObjectID{}
	binary.BigEndian.PutUint32(id.raw[0:4], uint32(seconds))
	return id
}

// FromHex decodes a 24-character hex string into an identifier
func FromHex(s string) (*ObjectID, error) {
	if len(s) != HexLen || !hexPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: malformed ObjectID hex string %q", domain.ErrInvalidArgument, s)
	}
	id := &ObjectID{}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ObjectID hex string %q", domain.ErrInvalidArgument, s)
	}
	copy(id.raw[:], b)
	return id, nil
}

// FromBytes builds an identifier from its raw 12-byte form
func FromBytes(b []byte) (*ObjectID, error) {
	if len(b) != RawLen {
		return nil, fmt.Errorf("%w: ObjectID must be %d bytes, got %d", domain.ErrInvalidArgument, RawLen, len(b))
	}
	id := &ObjectID{}
	copy(id.raw[:], b)
	return id, nil
}

// FromValue constructs an identifier from any of the accepted input forms:
// nil or a numeric timestamp generates a fresh identifier, a 12-byte string
// is taken as raw bytes, a 24-character hex string is decoded, and an
// existing *ObjectID passes through unchanged. Anything else is an
// invalid-argument error.
func FromValue(value interface{}) (*ObjectID, error) {
	switch v := value.(type) {
	case nil:
		return New(), nil
	case *ObjectID:
		return v, nil
	case int:
		return NewWithTime(int64(v)), nil
	case int32:
		return NewWithTime(int64(v)), nil
	case int64:
		return NewWithTime(v), nil
	case float64:
		return NewWithTime(int64(v)), nil
	case string:
		if len(v) == RawLen {
			return FromBytes([]byte(v))
		}
		return FromHex(v)
	default:
		return nil, fmt.Errorf("%w: cannot build ObjectID from %T", domain.ErrInvalidArgument, value)
	}
}

// Hex returns the 24-character lowercase hex form, memoizing it on the
// identifier after the first call
func (id *ObjectID) Hex() string {
	if id.hex == "" {
		id.hex = hex.EncodeToString(id.raw[:])
	}
	return id.hex
}

// String implements fmt.Stringer
func (id *ObjectID) String() string {
	return id.Hex()
}

// Bytes returns a copy of the raw 12-byte value
func (id *ObjectID) Bytes() []byte {
	out := make([]byte, RawLen)
	copy(out, id.raw[:])
	return out
}

// Equal compares against another identifier or a hex string. Comparison is
// over the raw 12 bytes, never the hex text.
func (id *ObjectID) Equal(other interface{}) bool {
	switch v := other.(type) {
	case *ObjectID:
		return v != nil && id.raw == v.raw
	case ObjectID:
		return id.raw == v.raw
	case string:
		decoded, err := FromValue(v)
		if err != nil {
			return false
		}
		return id.raw == decoded.raw
	default:
		return false
	}
}

// Timestamp returns the embedded seconds timestamp
func (id *ObjectID) Timestamp() int64 {
	return int64(binary.BigEndian.Uint32(id.raw[0:4]))
}

// GenerationTime returns the embedded timestamp as a time.Time
func (id *ObjectID) GenerationTime() time.Time {
	return time.Unix(id.Timestamp(), 0).UTC()
}

// SetGenerationTime rewrites the 4 timestamp bytes in place, leaving the
// machine tag, process tag and counter untouched. Any memoized hex form is
// discarded.
func (id *ObjectID) SetGenerationTime(t time.Time) {
	id.SetTimestamp(t.Unix())
}

// SetTimestamp is SetGenerationTime for a raw seconds value
func (id *ObjectID) SetTimestamp(seconds int64) {
	binary.BigEndian.PutUint32(id.raw[0:4], uint32(seconds))
	id.hex = ""
}

// Counter returns the embedded 3-byte counter value
func (id *ObjectID) Counter() uint32 {
	return uint32(id.raw[9])<<16 | uint32(id.raw[10])<<8 | uint32(id.raw[11])
}

// MarshalJSON encodes the identifier as its hex string
func (id *ObjectID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.Hex() + `"`), nil
}

// UnmarshalJSON decodes a quoted hex string
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	if len(data) != HexLen+2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%w: malformed ObjectID JSON value %s", domain.ErrInvalidArgument, data)
	}
	decoded, err := FromHex(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	id.raw = decoded.raw
	id.hex = ""
	return nil
}
