package stream

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Neumenon/tdb/tdb"
)

// Writer writes TDB-S1 frames to an io.Writer.
type Writer struct {
	w        io.Writer
	withCRC  bool // compute and include CRC
	compress bool // zstd-compress doc payloads
	decimals int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCRC makes the writer compute a CRC for every non-empty payload.
func WithCRC() WriterOption {
	return func(w *Writer) {
		w.withCRC = true
	}
}

// WithCompression makes the writer zstd-compress doc payloads.
func WithCompression() WriterOption {
	return func(w *Writer) {
		w.compress = true
	}
}

// WithDecimals sets the real precision used for doc payloads and state
// hashes.
func WithDecimals(decimals int) WriterOption {
	return func(w *Writer) {
		w.decimals = decimals
	}
}

// NewWriter creates a new TDB-S1 frame writer.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	writer := &Writer{w: w}
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// WriteFrame writes a single frame. The payload is written as given.
func (w *Writer) WriteFrame(f *Frame) error {
	var header strings.Builder
	header.WriteString("@frame{")

	header.WriteString("v=")
	if f.Version == 0 {
		header.WriteString(strconv.Itoa(int(Version)))
	} else {
		header.WriteString(strconv.Itoa(int(f.Version)))
	}

	header.WriteString(" sid=")
	header.WriteString(strconv.FormatUint(f.SID, 10))

	header.WriteString(" seq=")
	header.WriteString(strconv.FormatUint(f.Seq, 10))

	header.WriteString(" kind=")
	header.WriteString(f.Kind.String())

	header.WriteString(" len=")
	header.WriteString(strconv.Itoa(len(f.Payload)))

	crc := f.CRC
	if crc == nil && w.withCRC && len(f.Payload) > 0 {
		computed := ComputeCRC(f.Payload)
		crc = &computed
	}
	if crc != nil {
		fmt.Fprintf(&header, " crc=%08x", *crc)
	}

	if f.Base != nil {
		header.WriteString(" base=sha256:")
		header.WriteString(HashToHex(*f.Base))
	}

	if f.Flags != 0 {
		fmt.Fprintf(&header, " flags=%02x", uint8(f.Flags))
	}

	if f.Final {
		header.WriteString(" final=true")
	}

	header.WriteString("}\n")

	if _, err := io.WriteString(w.w, header.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if len(f.Payload) > 0 {
		if _, err := w.w.Write(f.Payload); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}

	if _, err := io.WriteString(w.w, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}

	return nil
}

// WriteDatabase writes db as a doc frame. base, when non-nil, is the hash of
// the snapshot this one replaces.
func (w *Writer) WriteDatabase(sid, seq uint64, db *tdb.Database, base *[32]byte) error {
	frame, err := w.docFrame(sid, seq, db, base)
	if err != nil {
		return err
	}
	return w.WriteFrame(frame)
}

func (w *Writer) docFrame(sid, seq uint64, db *tdb.Database, base *[32]byte) (*Frame, error) {
	text, err := tdb.Write(db, w.decimals)
	if err != nil {
		return nil, fmt.Errorf("encode database: %w", err)
	}
	frame := &Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindDoc,
		Payload: []byte(text),
		Base:    base,
	}
	if w.compress && len(frame.Payload) > 0 {
		compressed, err := compressPayload(frame.Payload)
		if err != nil {
			return nil, err
		}
		frame.Payload = compressed
		frame.Flags |= FlagCompressed
	}
	return frame, nil
}

// WriteAck writes an acknowledgement frame.
func (w *Writer) WriteAck(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindAck})
}

// WriteErr writes an error frame carrying msg.
func (w *Writer) WriteErr(sid, seq uint64, msg string) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindErr, Payload: []byte(msg)})
}

// WritePing writes a ping frame.
func (w *Writer) WritePing(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindPing})
}

// WritePong writes a pong frame.
func (w *Writer) WritePong(sid, seq uint64) error {
	return w.WriteFrame(&Frame{Version: Version, SID: sid, Seq: seq, Kind: KindPong})
}

// WriteFinal writes db as the final doc frame for a stream.
func (w *Writer) WriteFinal(sid, seq uint64, db *tdb.Database, base *[32]byte) error {
	frame, err := w.docFrame(sid, seq, db, base)
	if err != nil {
		return err
	}
	frame.Final = true
	return w.WriteFrame(frame)
}
