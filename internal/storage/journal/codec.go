package journal

import (
	"encoding/binary"
	"hash/crc32"
	"time"
)

func encodeEntry(e *Entry) ([]byte, error) {
	if e == nil || len(e.Frame) == 0 {
		return nil, ErrCorruptedEntry
	}
	length := uint64(fixedSize + len(e.Frame))
	if length > uint64(^uint32(0)) {
		return nil, ErrEntryTooLarge
	}

	out := make([]byte, lengthSize+fixedSize, lengthSize+int(length))
	binary.BigEndian.PutUint32(out[0:4], uint32(length))
	binary.BigEndian.PutUint64(out[8:16], uint64(e.Time.UnixNano()))
	out = append(out, e.Frame...)

	crc := crc32.ChecksumIEEE(out[8:])
	binary.BigEndian.PutUint32(out[4:8], crc)
	return out, nil
}

// decodeEntry parses the body following the length prefix:
// [crc32:4][time:8][frame...].
func decodeEntry(body []byte) (*Entry, error) {
	if len(body) <= fixedSize {
		return nil, ErrCorruptedEntry
	}
	want := binary.BigEndian.Uint32(body[:4])
	if crc32.ChecksumIEEE(body[4:]) != want {
		return nil, ErrChecksumMismatch
	}
	nanos := int64(binary.BigEndian.Uint64(body[4:12]))
	frame := make([]byte, len(body)-fixedSize)
	copy(frame, body[fixedSize:])
	return &Entry{Time: time.Unix(0, nanos), Frame: frame}, nil
}
