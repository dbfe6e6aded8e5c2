package compress

import (
	"math"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// Threshold is the payload size above which a message is a compression candidate.
// The frame total (payload + 8 byte header) must exceed 2000 bytes.
const Threshold = 1992

// frameOverhead is the header plus the uint32 original length of a compressed frame.
const frameOverhead = 12

// MaxExpansion bounds output bytes per stream byte: a control byte followed
// by eight back-references of 2 bytes that each copy 257 bytes.
const MaxExpansion = (8 * 257) / 17

// Limit returns the stream budget for a payload. The peer abandons compression
// when the output, counted with its 12 byte frame prefix, reaches half the
// original frame less 17 bytes at the start of a control block.
func Limit(payloadLen int) int {
	return (payloadLen+8)/2 - 17 - frameOverhead
}

// Compress returns the compressed stream for payload with no size budget.
func Compress(payload []byte) []byte {
	out, _ := CompressBounded(payload, math.MaxInt)
	return out
}

// CompressBounded compresses payload and reports false when the stream grows
// past limit at a control block boundary. The input is not modified.
func CompressBounded(payload []byte, limit int) ([]byte, bool) {
	t := len(payload)
	out := make([]byte, 0, t/2+16)

	var (
		table [256]int
		i     byte // current control bit; 0 starts a new block
		f     byte // control byte being assembled
		c     int  // index of the pending control byte in out
		s     int  // read position
		h     int
		h0    int
		s0    = -1 // literal whose table entry is deferred one step
	)
	for k := range table {
		table[k] = -1
	}

	for s < t {
		if i == 0 {
			if len(out) > limit {
				return nil, false
			}
			if len(out) > 0 {
				out[c] = f
			}
			c = len(out)
			out = append(out, 0)
			i = 1
			f = 0
		}

		p := -1
		literal := s > t-3
		if !literal {
			h = int(payload[s] ^ payload[s+1])
			p = table[h]
			literal = p == -1 || payload[s] != payload[p]
		}
		if s0 >= 0 {
			table[h0] = s0
			s0 = -1
		}

		if literal {
			h0 = h
			s0 = s
			out = append(out, payload[s])
			s++
		} else {
			table[h] = s
			f |= i
			p += 2
			s += 2
			r := s
			q := min(s+255, t)
			for s < q && payload[p] == payload[s] {
				s++
				if s < q {
					p++
				}
			}
			out = append(out, byte(h), byte(s-r))
		}
		i <<= 1
	}
	if len(out) > 0 {
		out[c] = f
	}
	return out, true
}

// Decompress expands stream into exactly size bytes. Malformed streams fail
// with domain.ErrDecompress; the function never reads or writes out of range.
func Decompress(stream []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, domain.ErrDecompress.Detailf("negative size %d", size)
	}
	if int64(size) > int64(len(stream))*(MaxExpansion+1) {
		return nil, domain.ErrDecompress.Detailf("size %d exceeds expansion of %d byte stream", size, len(stream))
	}
	out := make([]byte, size)

	var (
		table [256]int
		s     int // write position
		p     int // next position to hash
		d     int // read position
		i     int
		f     int
		n     int
	)

	for s < size {
		if i == 0 {
			if d >= len(stream) {
				return nil, domain.ErrDecompress.Detailf("stream ended at %d of %d bytes", s, size)
			}
			f = int(stream[d])
			d++
			i = 1
		}

		match := f&i != 0
		if match {
			if d+2 > len(stream) {
				return nil, domain.ErrDecompress.WithDetails("back-reference truncated")
			}
			r := table[stream[d]]
			n = int(stream[d+1])
			d += 2
			if r < 0 || r >= s || s+2+n > size {
				return nil, domain.ErrDecompress.Detailf("back-reference %d at %d out of range", r, s)
			}
			out[s] = out[r]
			out[s+1] = out[r+1]
			s += 2
			r += 2
			for m := 0; m < n; m++ {
				out[s+m] = out[r+m]
			}
		} else {
			if d >= len(stream) {
				return nil, domain.ErrDecompress.Detailf("stream ended at %d of %d bytes", s, size)
			}
			out[s] = stream[d]
			s++
			d++
		}

		for ; p < s-1; p++ {
			table[out[p]^out[p+1]] = p
		}
		if match {
			s += n
			p = s
		}

		i <<= 1
		if i == 256 {
			i = 0
		}
	}
	return out, nil
}
