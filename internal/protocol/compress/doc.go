// Package compress implements the LZ-style compression used by IPC frames.
//
// The stream is a sequence of blocks of up to eight slots, each block led by a
// control byte whose bits mark back-references. A literal slot is one byte. A
// back-reference slot is two bytes: the index into a 256 entry table keyed by
// the XOR of two adjacent bytes, then the match length beyond the implied two.
//
// Compression operates on the payload that follows the 8 byte message header;
// framing (compressed flag, original length) is the wire package's concern.
package compress
