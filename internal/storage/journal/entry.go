package journal

import (
	"errors"
	"time"

	"github.com/yndnr/qipc-go/internal/protocol/wire"
)

// File format constants.
const (
	MagicBytes     = "QIPCJNL\x01"
	MagicBytesSize = 8

	// lengthSize is the size of the length prefix.
	lengthSize = 4
	// fixedSize is CRC32 (4) + Time (8).
	fixedSize = 12

	DefaultFilePerm = 0600
	DefaultDirPerm  = 0750
)

// Errors for journal operations.
var (
	ErrInvalidMagic     = errors.New("journal: invalid magic bytes")
	ErrCorruptedEntry   = errors.New("journal: corrupted entry")
	ErrChecksumMismatch = errors.New("journal: checksum mismatch")
	ErrEntryTooLarge    = errors.New("journal: entry too large")
	ErrClosed           = errors.New("journal: writer is closed")
)

// Entry is one journaled message.
type Entry struct {
	Time  time.Time
	Frame []byte
}

// NewEntry stamps frame with the current time.
func NewEntry(frame []byte) *Entry {
	return &Entry{Time: time.Now(), Frame: frame}
}

// Message decodes the entry's frame.
func (e *Entry) Message(codec *wire.Codec) (*wire.Message, error) {
	return codec.Decode(e.Frame)
}
