// Package stream implements TDB-S1, a text framing envelope for moving
// whole TDB documents between processes.
//
// Each frame is one header line followed by exactly len payload bytes:
//
//	@frame{v=1 sid=N seq=N kind=doc len=N [crc=X] [base=sha256:X] [flags=XX] [final=true]}\n
//	<payload bytes>\n
//
// TDB-S1 provides:
//   - Message boundaries (length-prefixed, payloads may hold any bytes)
//   - Multiplexing via stream IDs (sid) and ordering via seq
//   - Integrity via optional CRC-32 of the payload as transmitted
//   - Optimistic replacement via base, the SHA-256 of the previous snapshot's
//     canonical text
//   - Optional zstd payload compression (FlagCompressed)
//
// Frame headers are not part of the TDB canonical form. A doc payload is
// plain TDB text handed to tdb.Parse unchanged.
package stream

import (
	"fmt"
)

// Version is the TDB-S1 protocol version.
const Version uint8 = 1

// FrameKind indicates the semantic category of a frame's payload.
type FrameKind uint8

const (
	KindDoc  FrameKind = 0 // Full TDB snapshot
	KindAck  FrameKind = 1 // Acknowledgement
	KindErr  FrameKind = 2 // Error message (UTF-8 text)
	KindPing FrameKind = 3 // Keepalive
	KindPong FrameKind = 4 // Ping response
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindDoc:
		return "doc"
	case KindAck:
		return "ack"
	case KindErr:
		return "err"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind name or numeric value.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "doc", "0":
		return KindDoc, true
	case "ack", "1":
		return KindAck, true
	case "err", "2":
		return KindErr, true
	case "ping", "3":
		return KindPing, true
	case "pong", "4":
		return KindPong, true
	default:
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n >= 0 && n <= 255 {
			return FrameKind(n), true
		}
		return 0, false
	}
}

// Flags for TDB-S1 frames.
type Flags uint8

const (
	FlagCompressed Flags = 0x01 // Payload is zstd-compressed
)

// Frame represents a single TDB-S1 frame.
type Frame struct {
	Version uint8
	SID     uint64
	Seq     uint64
	Kind    FrameKind
	Payload []byte // as transmitted (compressed when FlagCompressed is set)

	CRC   *uint32   // CRC-32 of Payload (nil if not present)
	Base  *[32]byte // state hash the sender expects the receiver to hold
	Flags Flags
	Final bool // end of stream for this SID
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// HasBase returns true if base hash is present.
func (f *Frame) HasBase() bool {
	return f.Base != nil
}

// IsFinal returns true if this is the final frame for this SID.
func (f *Frame) IsFinal() bool {
	return f.Final
}

// IsCompressed reports whether the payload is zstd-compressed.
func (f *Frame) IsCompressed() bool {
	return f.Flags&FlagCompressed != 0
}

// MaxPayloadSize is the default maximum payload size (64 MiB).
const MaxPayloadSize = 64 * 1024 * 1024

// ParseError is a malformed frame header or payload.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("tdbs1: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("tdbs1: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("tdbs1: CRC mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

// BaseMismatchError is returned when a frame's base does not match the
// receiver's current snapshot.
type BaseMismatchError struct {
	Expected [32]byte
	Got      [32]byte
}

func (e *BaseMismatchError) Error() string {
	return fmt.Sprintf("tdbs1: base hash mismatch: frame expects %s, have %s",
		HashToHex(e.Expected)[:12], HashToHex(e.Got)[:12])
}
