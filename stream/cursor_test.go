package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Neumenon/tdb/tdb"
)

func TestStreamCursor_Basic(t *testing.T) {
	cursor := NewStreamCursor()

	state := cursor.Get(1)
	if state == nil {
		t.Fatal("Get should create state")
	}
	if state.SID != 1 {
		t.Errorf("SID = %d, want 1", state.SID)
	}

	if cursor.GetReadOnly(99) != nil {
		t.Error("GetReadOnly should return nil for unknown SID")
	}

	cursor.Get(2)
	cursor.Get(3)
	if sids := cursor.AllSIDs(); len(sids) != 3 {
		t.Errorf("AllSIDs returned %d, want 3", len(sids))
	}

	cursor.Delete(2)
	if cursor.GetReadOnly(2) != nil {
		t.Error("Delete should remove SID")
	}
}

func TestStreamCursor_ProcessFrame(t *testing.T) {
	cursor := NewStreamCursor()

	if err := cursor.ProcessFrame(&Frame{SID: 1, Seq: 1, Kind: KindDoc}); err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if err := cursor.ProcessFrame(&Frame{SID: 1, Seq: 2, Kind: KindPing}); err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if got := cursor.Get(1).LastSeq; got != 2 {
		t.Errorf("LastSeq = %d, want 2", got)
	}

	if err := cursor.ProcessFrame(&Frame{SID: 1, Seq: 5, Kind: KindPing}); err == nil {
		t.Error("expected error for sequence gap")
	}
	if err := cursor.ProcessFrame(&Frame{SID: 1, Seq: 2, Kind: KindPing}); err == nil {
		t.Error("expected error for duplicate sequence")
	}
}

func TestStreamCursor_BaseCheck(t *testing.T) {
	cursor := NewStreamCursor()
	db := sampleDatabase(t, 1)

	hash, err := StateHash(db, 0)
	if err != nil {
		t.Fatal(err)
	}

	// No state yet.
	if err := cursor.ProcessFrame(&Frame{SID: 1, Seq: 1, Kind: KindDoc, Base: &hash}); err == nil {
		t.Error("expected error without state")
	}

	if err := cursor.SetState(1, db); err != nil {
		t.Fatal(err)
	}
	if cursor.NeedsResync(1) {
		t.Error("NeedsResync should be false after SetState")
	}
	if err := cursor.ProcessFrame(&Frame{SID: 1, Seq: 1, Kind: KindDoc, Base: &hash}); err != nil {
		t.Errorf("matching base rejected: %v", err)
	}

	wrong := StateHashBytes([]byte("other"))
	err = cursor.ProcessFrame(&Frame{SID: 1, Seq: 2, Kind: KindDoc, Base: &wrong})
	var mismatch *BaseMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected BaseMismatchError, got %v", err)
	}
}

func TestStreamCursor_Acks(t *testing.T) {
	cursor := NewStreamCursor()
	for seq := uint64(1); seq <= 4; seq++ {
		if err := cursor.ProcessFrame(&Frame{SID: 1, Seq: seq, Kind: KindPing}); err != nil {
			t.Fatal(err)
		}
	}
	cursor.Ack(1, 2)
	cursor.Ack(1, 1) // older acks are ignored

	pending := cursor.PendingAcks(1)
	if len(pending) != 2 || pending[0] != 3 || pending[1] != 4 {
		t.Errorf("PendingAcks = %v, want [3 4]", pending)
	}
	if cursor.PendingAcks(42) != nil {
		t.Error("PendingAcks for unknown SID should be nil")
	}
}

func TestFrameHandler_Snapshots(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, WithCRC(), WithCompression())

	first := sampleDatabase(t, 1)
	second := sampleDatabase(t, 1, 2)
	firstHash, _ := StateHash(first, 0)

	if err := w.WriteDatabase(1, 1, first, nil); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteDatabase(1, 2, second, &firstHash); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteErr(1, 3, "boom"); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFinal(1, 4, second, nil); err != nil {
		t.Fatal(err)
	}

	var docs []*tdb.Database
	var msgs []string
	finals := 0
	h := NewFrameHandler()
	h.OnDoc = func(sid, seq uint64, db *tdb.Database, state *SIDState) error {
		docs = append(docs, db)
		return nil
	}
	h.OnErr = func(sid, seq uint64, msg string, state *SIDState) error {
		msgs = append(msgs, msg)
		return nil
	}
	h.OnFinal = func(sid uint64, state *SIDState) error {
		finals++
		return nil
	}

	frames, err := NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range frames {
		if err := h.Handle(f); err != nil {
			t.Fatalf("Handle seq %d: %v", f.Seq, err)
		}
	}

	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	if !docs[1].Equal(second) {
		t.Error("second snapshot differs")
	}
	if len(msgs) != 1 || msgs[0] != "boom" {
		t.Errorf("msgs = %v", msgs)
	}
	if finals != 1 {
		t.Errorf("finals = %d, want 1", finals)
	}

	state := h.Cursor.GetReadOnly(1)
	if !state.Final || state.LastSeq != 4 {
		t.Errorf("state = %+v", state)
	}
	if !state.State.Equal(second) {
		t.Error("cursor state is not the last snapshot")
	}
}

func TestFrameHandler_BaseMismatch(t *testing.T) {
	h := NewFrameHandler()
	if err := h.Cursor.SetState(1, sampleDatabase(t, 1)); err != nil {
		t.Fatal(err)
	}

	wrong := StateHashBytes([]byte("other"))
	payload, _ := tdb.Write(sampleDatabase(t, 2), 0)
	frame := &Frame{SID: 1, Seq: 1, Kind: KindDoc, Payload: []byte(payload), Base: &wrong}

	var mismatch *BaseMismatchError
	if err := h.Handle(frame); !errors.As(err, &mismatch) {
		t.Errorf("expected BaseMismatchError, got %v", err)
	}

	called := false
	h.OnBaseMismatch = func(sid uint64, f *Frame) error {
		called = true
		return nil
	}
	if err := h.Handle(frame); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("OnBaseMismatch not called")
	}
}

func TestFrameHandler_SkipsDuplicates(t *testing.T) {
	h := NewFrameHandler()
	pings := 0
	h.OnPing = func(sid, seq uint64, state *SIDState) error {
		pings++
		return nil
	}
	for _, seq := range []uint64{1, 2, 2, 1} {
		if err := h.Handle(&Frame{SID: 5, Seq: seq, Kind: KindPing}); err != nil {
			t.Fatal(err)
		}
	}
	if pings != 2 {
		t.Errorf("pings = %d, want 2", pings)
	}
}
