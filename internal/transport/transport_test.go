package transport

import (
	"testing"
	"time"

	"github.com/peercam/peercam/internal/state"
	"github.com/peercam/peercam/internal/types"
)

func sampleEnvelope() *Envelope {
	return &Envelope{
		PeerID:      "cam-b",
		Seq:         42,
		TraceID:     "trace-42",
		CapturedAt:  time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC).UnixMicro(),
		Width:       640,
		Height:      480,
		PeopleCount: 2,
		Detections: []types.Detection{
			{Class: "person", Confidence: 0.9, X: 0.1, Y: 0.2, W: 0.15, H: 0.5},
			{Class: "person", Confidence: 0.7, X: 0.4, Y: 0.2, W: 0.15, H: 0.5},
		},
		Frame: []byte{0x01, 0x02, 0x03},
	}
}

// TestCodecRoundTrip verifies the wire envelope survives encode/decode with
// frame bytes and detections intact.
func TestCodecRoundTrip(t *testing.T) {
	env := sampleEnvelope()

	payload, err := Encode(env)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.PeerID != env.PeerID || got.Seq != env.Seq || got.TraceID != env.TraceID {
		t.Errorf("Identity fields mangled: %+v", got)
	}
	if got.PeopleCount != 2 || len(got.Detections) != 2 {
		t.Errorf("Detections mangled: count=%d len=%d", got.PeopleCount, len(got.Detections))
	}
	if got.Detections[0].Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %v", got.Detections[0].Confidence)
	}
	if string(got.Frame) != string(env.Frame) {
		t.Errorf("Frame bytes mangled: %v", got.Frame)
	}

	frame := got.ToFrame()
	if frame.Seq != 42 || frame.Width != 640 || !frame.Timestamp.Equal(time.UnixMicro(env.CapturedAt)) {
		t.Errorf("ToFrame mangled fields: %+v", frame)
	}
}

// TestDecodeGarbage verifies undecodable payloads fail cleanly.
func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xc1, 0xff, 0x00}); err == nil {
		t.Fatal("Expected decode error for garbage payload")
	}
}

// TestBuildEnvelopeSkipsWithoutFrame verifies the publisher waits for the
// first committed frame.
func TestBuildEnvelopeSkipsWithoutFrame(t *testing.T) {
	st := state.New(nil)
	p := NewPublisher(nil, st, "t", 0, "cam-a", time.Second)

	if _, ok := p.buildEnvelope(st.Snapshot()); ok {
		t.Error("Expected no envelope from an empty store")
	}
}

// TestBuildEnvelopeDedupesSeq verifies the same frame is not sent twice.
func TestBuildEnvelopeDedupesSeq(t *testing.T) {
	st := state.New(map[string]any{
		state.KeyLatestFrame: types.Frame{Seq: 7, Data: []byte{1}},
		state.KeyDetections:  []types.Detection{{Class: "person", Confidence: 0.8}},
		state.KeyLocalPeople: 1,
	})
	p := NewPublisher(nil, st, "t", 0, "cam-a", time.Second)

	env, ok := p.buildEnvelope(st.Snapshot())
	if !ok {
		t.Fatal("Expected envelope for fresh frame")
	}
	if env.Seq != 7 || env.PeopleCount != 1 || len(env.Detections) != 1 {
		t.Errorf("Envelope fields wrong: %+v", env)
	}
	if env.PeerID != "cam-a" {
		t.Errorf("Expected own peer id stamped, got %q", env.PeerID)
	}

	// Simulate a successful send of seq 7.
	p.mu.Lock()
	p.lastSeq = env.Seq
	p.sentAny = true
	p.mu.Unlock()

	if _, ok := p.buildEnvelope(st.Snapshot()); ok {
		t.Error("Expected dedupe of unchanged frame")
	}

	st.Set(state.KeyLatestFrame, types.Frame{Seq: 8, Data: []byte{2}})
	if env, ok := p.buildEnvelope(st.Snapshot()); !ok || env.Seq != 8 {
		t.Errorf("Expected envelope for new seq 8, got ok=%v env=%+v", ok, env)
	}
}

// TestHandleMessageCommitsRemoteState verifies a received envelope lands as
// one consistent remote view.
func TestHandleMessageCommitsRemoteState(t *testing.T) {
	st := state.New(map[string]any{
		state.KeyDisplayLocal: true,
		state.KeyConnected:    false,
	})
	s := NewSubscriber(nil, st, "t", 0, "cam-b", 3*time.Second)
	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }

	payload, err := Encode(sampleEnvelope())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	s.handleMessage(payload)

	snap := st.Snapshot()
	if snap[state.KeyConnected] != true {
		t.Error("Expected connected=true after remote frame")
	}
	if snap[state.KeyDisplayLocal] != false {
		t.Error("Expected display_local=false after remote frame")
	}
	if snap[state.KeyRemotePeople] != 2 {
		t.Errorf("Expected remote_people=2, got %v", snap[state.KeyRemotePeople])
	}
	frame, ok := snap[state.KeyRemoteFrame].(types.Frame)
	if !ok || frame.Seq != 42 {
		t.Errorf("Remote frame not committed: %+v", snap[state.KeyRemoteFrame])
	}
	if at := snap[state.KeyLastRemoteAt].(time.Time); !at.Equal(now) {
		t.Errorf("Expected last_remote_frame_at=%v, got %v", now, at)
	}

	if got := s.Stats().Received; got != 1 {
		t.Errorf("Expected 1 received, got %d", got)
	}
}

// TestHandleMessageRejectsWrongPeer verifies envelopes from an unexpected
// peer never reach the store.
func TestHandleMessageRejectsWrongPeer(t *testing.T) {
	st := state.New(nil)
	s := NewSubscriber(nil, st, "t", 0, "cam-b", 3*time.Second)

	env := sampleEnvelope()
	env.PeerID = "cam-evil"
	payload, _ := Encode(env)
	s.handleMessage(payload)

	if _, err := st.Get(state.KeyRemoteFrame); err == nil {
		t.Error("Frame from wrong peer committed to store")
	}
	if got := s.Stats().Rejected; got != 1 {
		t.Errorf("Expected 1 rejected, got %d", got)
	}
}

// TestHandleMessageDecodeError verifies garbage is counted and dropped.
func TestHandleMessageDecodeError(t *testing.T) {
	st := state.New(nil)
	s := NewSubscriber(nil, st, "t", 0, "cam-b", 3*time.Second)

	s.handleMessage([]byte{0xc1})

	if got := s.Stats().DecodeErrors; got != 1 {
		t.Errorf("Expected 1 decode error, got %d", got)
	}
}

// TestCheckSilenceFlipsToLocal verifies the watchdog switches the view after
// the silence window and leaves it alone while traffic is fresh.
func TestCheckSilenceFlipsToLocal(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	st := state.New(map[string]any{
		state.KeyDisplayLocal: false,
		state.KeyConnected:    true,
		state.KeyLastRemoteAt: base,
	})
	s := NewSubscriber(nil, st, "t", 0, "cam-b", 3*time.Second)

	// Within the window: no change.
	s.checkSilence(base.Add(2 * time.Second))
	if st.GetDefault(state.KeyDisplayLocal, true) != false {
		t.Error("View flipped while remote traffic was fresh")
	}

	// Past the window: flip to local, drop connected.
	s.checkSilence(base.Add(4 * time.Second))
	if st.GetDefault(state.KeyDisplayLocal, false) != true {
		t.Error("Expected display_local=true after silence window")
	}
	if st.GetDefault(state.KeyConnected, true) != false {
		t.Error("Expected connected=false after silence window")
	}
}

// TestCheckSilenceNoTrafficYet verifies the watchdog does nothing before the
// first remote frame.
func TestCheckSilenceNoTrafficYet(t *testing.T) {
	st := state.New(map[string]any{state.KeyDisplayLocal: true})
	s := NewSubscriber(nil, st, "t", 0, "cam-b", 3*time.Second)

	s.checkSilence(time.Now())

	if st.GetDefault(state.KeyConnected, "unset") != "unset" {
		t.Error("Watchdog wrote connected before any remote traffic")
	}
}
