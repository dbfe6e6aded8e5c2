// Package journal persists asynchronous IPC messages for replay.
//
// A journal is a single append-only file:
//
//	[magic:8 "QIPCJNL\x01"]
//	[Entry]*
//
// Entry wire format:
//
//	[Length:4][CRC32:4][Time:8][Frame:Length-12]
//
// Where:
//   - Length covers CRC32, Time and Frame (big-endian uint32)
//   - CRC32 (IEEE) covers Time and Frame
//   - Time is the receive time in Unix nanoseconds (big-endian int64)
//   - Frame is one uncompressed IPC message, header included
//
// Writes are buffered and flushed in batches; a ticker bounds how long an
// entry may sit in memory. A crash can therefore leave a torn final entry.
// Replay stops cleanly at the first incomplete or corrupt entry and reports
// where valid data ends, and opening a Writer on such a file truncates the
// tail before appending.
package journal
