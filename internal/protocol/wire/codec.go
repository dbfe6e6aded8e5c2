package wire

import (
	"errors"
	"io"

	"github.com/yndnr/qipc-go/internal/core/domain"
	"github.com/yndnr/qipc-go/internal/protocol/compress"
)

// Message is one decoded IPC message.
type Message struct {
	Type  MessageType
	Value *domain.Value
	// Compressed reports whether the frame arrived compressed.
	Compressed bool
	// Size is the frame length as received.
	Size int
}

// Codec frames Values as IPC messages. A Codec is immutable and safe for
// concurrent use.
type Codec struct {
	order   ByteOrder
	maxSize int
}

// Option configures a Codec.
type Option func(*Codec)

// WithByteOrder sets the order used when encoding. Decoding always honors the
// order announced by the header.
func WithByteOrder(order ByteOrder) Option {
	return func(c *Codec) {
		if order != nil {
			c.order = order
		}
	}
}

// WithMaxMessageSize bounds the total frame length accepted or produced.
func WithMaxMessageSize(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// NewCodec returns a Codec emitting native byte order.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		order:   NativeOrder,
		maxSize: DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Order returns the encoding byte order.
func (c *Codec) Order() ByteOrder { return c.order }

// MaxMessageSize returns the frame length limit.
func (c *Codec) MaxMessageSize() int { return c.maxSize }

// Marshal serializes v without a message header.
func (c *Codec) Marshal(v *domain.Value) ([]byte, error) {
	e := encoder{order: c.order}
	if err := e.value(v); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Unmarshal decodes a header-less payload in the given order. The payload must
// hold exactly one value.
func Unmarshal(payload []byte, order ByteOrder) (*domain.Value, error) {
	d := decoder{b: payload, order: order}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.remaining() != 0 {
		return nil, domain.ErrMalformedValue.Detailf("%d trailing bytes", d.remaining())
	}
	return v, nil
}

// Encode builds a complete frame. When allowCompression is set and the
// payload exceeds compress.Threshold, the frame is compressed if that at
// least halves it; otherwise the raw frame is returned.
func (c *Codec) Encode(typ MessageType, v *domain.Value, allowCompression bool) ([]byte, error) {
	payload, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	total := HeaderSize + len(payload)
	if total > c.maxSize {
		return nil, domain.ErrMessageTooLarge.Detailf("%d bytes, limit %d", total, c.maxSize)
	}

	h := Header{Order: c.order, Type: typ}
	if allowCompression && len(payload) > compress.Threshold {
		if stream, ok := compress.CompressBounded(payload, compress.Limit(len(payload))); ok {
			h.Compressed = true
			h.Length = uint32(HeaderSize + 4 + len(stream))
			frame := make([]byte, 0, h.Length)
			frame = h.AppendHeader(frame)
			frame = c.order.AppendUint32(frame, uint32(total))
			return append(frame, stream...), nil
		}
	}

	h.Length = uint32(total)
	frame := make([]byte, 0, total)
	frame = h.AppendHeader(frame)
	return append(frame, payload...), nil
}

// Decode parses one complete frame. The header length must match len(frame).
func (c *Codec) Decode(frame []byte) (*Message, error) {
	h, err := ParseHeader(frame)
	if err != nil {
		return nil, err
	}
	if int(h.Length) != len(frame) {
		return nil, domain.ErrMalformedHeader.Detailf("header length %d, frame %d", h.Length, len(frame))
	}
	return c.decodeBody(h, frame[HeaderSize:])
}

// ReadMessage reads exactly one frame from r. A clean EOF before the first
// header byte is domain.ErrConnectionClosed; other read failures are
// domain.ErrConnectionIO. Both wrap the underlying error.
func (c *Codec) ReadMessage(r io.Reader) (*Message, error) {
	var hb [HeaderSize]byte
	if _, err := io.ReadFull(r, hb[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrConnectionClosed.WithCause(err)
		}
		return nil, domain.ErrConnectionIO.WithCause(err)
	}
	h, err := ParseHeader(hb[:])
	if err != nil {
		return nil, err
	}
	if int64(h.Length) > int64(c.maxSize) {
		return nil, domain.ErrMessageTooLarge.Detailf("%d bytes, limit %d", h.Length, c.maxSize)
	}
	body := make([]byte, int(h.Length)-HeaderSize)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, domain.ErrConnectionIO.WithCause(err)
	}
	return c.decodeBody(h, body)
}

func (c *Codec) decodeBody(h Header, body []byte) (*Message, error) {
	payload := body
	if h.Compressed {
		if len(body) < 4 {
			return nil, domain.ErrDecompress.WithDetails("missing original length")
		}
		orig := h.Order.Uint32(body[:4])
		if orig < HeaderSize || int64(orig) > int64(c.maxSize) {
			return nil, domain.ErrDecompress.Detailf("original length %d", orig)
		}
		if int64(orig)-HeaderSize > int64(len(body)-4)*(compress.MaxExpansion+1) {
			return nil, domain.ErrDecompress.Detailf("original length %d from %d byte stream", orig, len(body)-4)
		}
		var err error
		payload, err = compress.Decompress(body[4:], int(orig)-HeaderSize)
		if err != nil {
			return nil, err
		}
	}
	v, err := Unmarshal(payload, h.Order)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:       h.Type,
		Value:      v,
		Compressed: h.Compressed,
		Size:       int(h.Length),
	}, nil
}
