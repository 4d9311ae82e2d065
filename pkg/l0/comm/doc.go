// Package comm provides the L0 protocol engine talking to the Transbot
// motion-controller board.
package comm

// The board speaks a fixed, length-prefixed framing over a serial link:
//
//   0xFF | 0xFE (to board) or 0xFD (from board) | total length - 2 | code | payload ... | checksum
//
// The checksum is the byte sum of everything from the length byte up to
// (excluding) the checksum itself, truncated to 8 bits. Multi-byte values
// in payloads are little-endian.
//
// Frames are stored in an arena.Arena instead of the heap. Inbound bytes
// are reassembled by a Synchronizer on a single receive loop which pushes
// completed frames into a Correlator, where callers Take them per
// response code.
//
// Producer: board firmware
// Consumer: L1 controller
