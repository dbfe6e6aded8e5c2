package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// HeaderSize is the fixed size of a message header.
const HeaderSize = 8

// DefaultMaxMessageSize bounds the total length a peer may announce.
const DefaultMaxMessageSize = 1 << 30

// MessageType is header byte 1.
type MessageType uint8

// Message types.
const (
	Async    MessageType = 0
	Sync     MessageType = 1
	Response MessageType = 2
)

// String returns the message type name.
func (t MessageType) String() string {
	switch t {
	case Async:
		return "async"
	case Sync:
		return "sync"
	case Response:
		return "response"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ByteOrder is implemented by binary.LittleEndian and binary.BigEndian.
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// NativeOrder is the host byte order, the order the encoder emits by default.
var NativeOrder = nativeOrder()

func nativeOrder() ByteOrder {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Header is the decoded 8 byte message header.
type Header struct {
	Order      ByteOrder
	Type       MessageType
	Compressed bool
	// Length is the total message length including the header.
	Length uint32
}

// LittleEndian reports whether the header announces little-endian data.
func (h Header) LittleEndian() bool {
	return h.Order == binary.LittleEndian
}

// AppendHeader appends the encoded header to b.
func (h Header) AppendHeader(b []byte) []byte {
	var endian, compressed byte
	if h.LittleEndian() {
		endian = 1
	}
	if h.Compressed {
		compressed = 1
	}
	b = append(b, endian, byte(h.Type), compressed, 0)
	return h.Order.AppendUint32(b, h.Length)
}

// ParseHeader decodes a header. Byte 3 is ignored.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, domain.ErrMalformedHeader.Detailf("%d bytes", len(b))
	}
	var h Header
	switch b[0] {
	case 0:
		h.Order = binary.BigEndian
	case 1:
		h.Order = binary.LittleEndian
	default:
		return Header{}, domain.ErrMalformedHeader.Detailf("endianness byte %d", b[0])
	}
	h.Type = MessageType(b[1])
	if h.Type > Response {
		return Header{}, domain.ErrMalformedHeader.Detailf("message type %d", b[1])
	}
	switch b[2] {
	case 0:
	case 1:
		h.Compressed = true
	default:
		return Header{}, domain.ErrMalformedHeader.Detailf("compressed flag %d", b[2])
	}
	h.Length = h.Order.Uint32(b[4:8])
	minLen := uint32(HeaderSize)
	if h.Compressed {
		minLen += 4
	}
	if h.Length < minLen {
		return Header{}, domain.ErrMalformedHeader.Detailf("length %d", h.Length)
	}
	return h, nil
}
