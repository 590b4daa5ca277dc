package stream

import (
	"fmt"
	"sync"

	"github.com/Neumenon/tdb/tdb"
)

// StreamCursor tracks per-SID state for stream processing: sequence
// numbers, the current snapshot and its state hash.
type StreamCursor struct {
	mu sync.RWMutex

	// Decimals is the precision used when hashing snapshots.
	Decimals int

	cursors map[uint64]*SIDState
}

// SIDState holds state for a single stream ID.
type SIDState struct {
	SID       uint64
	LastSeq   uint64        // Last sequence number seen
	LastAcked uint64        // Last sequence number acknowledged
	StateHash [32]byte      // Hash of the current snapshot
	HasState  bool          // Whether StateHash is valid
	State     *tdb.Database // Current snapshot (optional)
	Final     bool          // Whether stream has ended
}

// NewStreamCursor creates a new stream cursor.
func NewStreamCursor() *StreamCursor {
	return &StreamCursor{
		cursors: make(map[uint64]*SIDState),
	}
}

// Get returns the state for a SID, creating it if needed.
func (sc *StreamCursor) Get(sid uint64) *SIDState {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	state, ok := sc.cursors[sid]
	if !ok {
		state = &SIDState{SID: sid}
		sc.cursors[sid] = state
	}
	return state
}

// GetReadOnly returns the state for a SID without creating it.
func (sc *StreamCursor) GetReadOnly(sid uint64) *SIDState {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cursors[sid]
}

// Delete removes state for a SID.
func (sc *StreamCursor) Delete(sid uint64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.cursors, sid)
}

// AllSIDs returns all tracked SIDs.
func (sc *StreamCursor) AllSIDs() []uint64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	sids := make([]uint64, 0, len(sc.cursors))
	for sid := range sc.cursors {
		sids = append(sids, sid)
	}
	return sids
}

// ProcessFrame checks a frame against cursor state and advances LastSeq.
// Returns an error if:
//   - Sequence number is not monotonic (gap or duplicate)
//   - A doc frame carries a base that does not match the current snapshot
func (sc *StreamCursor) ProcessFrame(frame *Frame) error {
	state := sc.Get(frame.SID)

	if frame.Seq != 0 && frame.Seq <= state.LastSeq {
		return fmt.Errorf("sequence not monotonic: got %d, last was %d", frame.Seq, state.LastSeq)
	}

	if state.LastSeq > 0 && frame.Seq != state.LastSeq+1 {
		return fmt.Errorf("sequence gap: expected %d, got %d", state.LastSeq+1, frame.Seq)
	}

	if frame.Kind == KindDoc && frame.Base != nil {
		if !state.HasState {
			return fmt.Errorf("cannot verify base: no state hash for SID %d", frame.SID)
		}
		if !VerifyBase(state.StateHash, *frame.Base) {
			return &BaseMismatchError{Expected: *frame.Base, Got: state.StateHash}
		}
	}

	state.LastSeq = frame.Seq

	if frame.IsFinal() {
		state.Final = true
	}

	return nil
}

// SetState stores db as the current snapshot for sid and records its hash.
func (sc *StreamCursor) SetState(sid uint64, db *tdb.Database) error {
	hash, err := StateHash(db, sc.Decimals)
	if err != nil {
		return err
	}
	state := sc.Get(sid)
	state.State = db
	state.StateHash = hash
	state.HasState = true
	return nil
}

// SetStateHash sets the state hash directly.
func (sc *StreamCursor) SetStateHash(sid uint64, hash [32]byte) {
	state := sc.Get(sid)
	state.StateHash = hash
	state.HasState = true
}

// Ack marks a sequence as acknowledged.
func (sc *StreamCursor) Ack(sid, seq uint64) {
	state := sc.Get(sid)
	if seq > state.LastAcked {
		state.LastAcked = seq
	}
}

// PendingAcks returns sequences that have been seen but not acked.
func (sc *StreamCursor) PendingAcks(sid uint64) []uint64 {
	state := sc.GetReadOnly(sid)
	if state == nil {
		return nil
	}

	if state.LastSeq <= state.LastAcked {
		return nil
	}

	pending := make([]uint64, 0, state.LastSeq-state.LastAcked)
	for seq := state.LastAcked + 1; seq <= state.LastSeq; seq++ {
		pending = append(pending, seq)
	}
	return pending
}

// NeedsResync returns true if no snapshot is known for sid.
func (sc *StreamCursor) NeedsResync(sid uint64) bool {
	state := sc.GetReadOnly(sid)
	if state == nil {
		return true
	}
	return !state.HasState
}

// ============================================================
// Frame Handler
// ============================================================

// FrameHandler decodes frames, tracks state and dispatches to callbacks.
type FrameHandler struct {
	Cursor *StreamCursor

	// Callbacks (optional)
	OnDoc   func(sid, seq uint64, db *tdb.Database, state *SIDState) error
	OnAck   func(sid, seq uint64, state *SIDState) error
	OnErr   func(sid, seq uint64, msg string, state *SIDState) error
	OnPing  func(sid, seq uint64, state *SIDState) error
	OnFinal func(sid uint64, state *SIDState) error

	OnSeqGap       func(sid uint64, expected, got uint64) error
	OnBaseMismatch func(sid uint64, frame *Frame) error
}

// NewFrameHandler creates a handler with a default cursor.
func NewFrameHandler() *FrameHandler {
	return &FrameHandler{
		Cursor: NewStreamCursor(),
	}
}

// Handle processes a frame and calls the appropriate callback. Duplicate or
// out-of-order frames are skipped. A doc frame replaces the SID's snapshot
// once OnDoc accepts it.
func (h *FrameHandler) Handle(frame *Frame) error {
	state := h.Cursor.Get(frame.SID)

	if frame.Seq != 0 && state.LastSeq > 0 {
		if frame.Seq <= state.LastSeq {
			return nil
		}
		if frame.Seq != state.LastSeq+1 && h.OnSeqGap != nil {
			if err := h.OnSeqGap(frame.SID, state.LastSeq+1, frame.Seq); err != nil {
				return err
			}
		}
	}

	if frame.Kind == KindDoc && frame.Base != nil && state.HasState {
		if !VerifyBase(state.StateHash, *frame.Base) {
			if h.OnBaseMismatch != nil {
				return h.OnBaseMismatch(frame.SID, frame)
			}
			return &BaseMismatchError{Expected: *frame.Base, Got: state.StateHash}
		}
	}

	var err error
	switch frame.Kind {
	case KindDoc:
		var db *tdb.Database
		if db, err = DecodeDatabase(frame); err != nil {
			return fmt.Errorf("sid %d seq %d: %w", frame.SID, frame.Seq, err)
		}
		if h.OnDoc != nil {
			err = h.OnDoc(frame.SID, frame.Seq, db, state)
		}
		if err == nil {
			err = h.Cursor.SetState(frame.SID, db)
		}
	case KindAck:
		h.Cursor.Ack(frame.SID, frame.Seq)
		if h.OnAck != nil {
			err = h.OnAck(frame.SID, frame.Seq, state)
		}
	case KindErr:
		if h.OnErr != nil {
			err = h.OnErr(frame.SID, frame.Seq, string(frame.Payload), state)
		}
	case KindPing:
		if h.OnPing != nil {
			err = h.OnPing(frame.SID, frame.Seq, state)
		}
	}

	if err != nil {
		return err
	}

	state.LastSeq = frame.Seq

	if frame.IsFinal() {
		state.Final = true
		if h.OnFinal != nil {
			return h.OnFinal(frame.SID, state)
		}
	}

	return nil
}
