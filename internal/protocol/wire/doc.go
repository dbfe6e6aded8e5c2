// Package wire implements the IPC message format: an 8 byte header followed
// by a serialized value, optionally compressed.
//
// Header layout:
//
//	byte 0    endianness (0 big, 1 little)
//	byte 1    message type (0 async, 1 sync, 2 response)
//	byte 2    compressed flag
//	byte 3    reserved
//	bytes 4-7 total length including the header
//
// The encoder emits the host byte order unless told otherwise; the decoder
// honors whatever order a header announces.
package wire
