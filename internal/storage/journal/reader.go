package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultMaxEntrySize bounds a single entry read from disk.
const DefaultMaxEntrySize = 1 << 30

// Reader reads entries sequentially from a journal.
type Reader struct {
	r      *bufio.Reader
	closer io.Closer

	offset    int64
	maxEntry  int
	truncated bool
	done      bool
}

// Open opens the journal at path for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader reads a journal from r, starting with the magic header.
// An empty stream is an empty journal.
func NewReader(r io.Reader) (*Reader, error) {
	jr := &Reader{
		r:        bufio.NewReader(r),
		maxEntry: DefaultMaxEntrySize,
	}

	magic := make([]byte, MagicBytesSize)
	n, err := io.ReadFull(jr.r, magic)
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		jr.done = true
		return jr, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		jr.done = true
		jr.truncated = true
		return jr, nil
	case err != nil:
		return nil, fmt.Errorf("journal: read magic: %w", err)
	}
	if string(magic) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	jr.offset = MagicBytesSize
	return jr, nil
}

// Next returns the next entry, or io.EOF once no complete entry remains.
// A torn or corrupt entry ends the stream and marks it truncated.
func (r *Reader) Next() (*Entry, error) {
	if r.done {
		return nil, io.EOF
	}

	var lb [lengthSize]byte
	n, err := io.ReadFull(r.r, lb[:])
	switch {
	case n == 0 && errors.Is(err, io.EOF):
		return r.finish(false)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return r.finish(true)
	case err != nil:
		return nil, fmt.Errorf("journal: read length: %w", err)
	}

	length := binary.BigEndian.Uint32(lb[:])
	if length <= fixedSize || uint64(length) > uint64(r.maxEntry) {
		return r.finish(true)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r.r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return r.finish(true)
		}
		return nil, fmt.Errorf("journal: read entry: %w", err)
	}

	e, err := decodeEntry(body)
	if err != nil {
		return r.finish(true)
	}
	r.offset += lengthSize + int64(length)
	return e, nil
}

func (r *Reader) finish(truncated bool) (*Entry, error) {
	r.done = true
	r.truncated = truncated
	return nil, io.EOF
}

// Offset returns the number of bytes of valid journal data consumed so far,
// magic included.
func (r *Reader) Offset() int64 { return r.offset }

// Truncated reports whether reading stopped at a torn or corrupt entry.
func (r *Reader) Truncated() bool { return r.truncated }

// Close closes the underlying file when the reader was created by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReplayStats summarises a replay.
type ReplayStats struct {
	Entries int
	// ValidBytes is the length of the valid prefix of the file.
	ValidBytes int64
	// Truncated is set when a torn or corrupt tail was skipped.
	Truncated bool
}

// Replay calls fn for every complete entry in the journal at path, in order.
// It stops at the first error returned by fn.
func Replay(path string, fn func(*Entry) error) (ReplayStats, error) {
	var stats ReplayStats
	r, err := Open(path)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		if err := fn(e); err != nil {
			return stats, err
		}
		stats.Entries++
	}
	stats.ValidBytes = r.Offset()
	stats.Truncated = r.Truncated()
	return stats, nil
}
