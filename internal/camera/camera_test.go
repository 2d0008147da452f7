package camera

import (
	"context"
	"testing"
	"time"

	"github.com/peercam/peercam/internal/state"
	"github.com/peercam/peercam/internal/types"
)

// TestSyntheticEmitsFrames verifies frames arrive with increasing sequence
// numbers and trace IDs.
func TestSyntheticEmitsFrames(t *testing.T) {
	p := NewSynthetic(32, 24, 100)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	var last uint64
	for i := 0; i < 3; i++ {
		select {
		case frame := <-p.Frames():
			if i > 0 && frame.Seq <= last {
				t.Errorf("Sequence not increasing: %d after %d", frame.Seq, last)
			}
			last = frame.Seq
			if frame.TraceID == "" {
				t.Error("Frame missing trace id")
			}
			if len(frame.Data) != 32*24*3 {
				t.Errorf("Unexpected frame size: %d", len(frame.Data))
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Timeout waiting for frame")
		}
	}
}

// TestSyntheticDoubleStart verifies Start rejects a running provider and
// Stop is idempotent.
func TestSyntheticDoubleStart(t *testing.T) {
	p := NewSynthetic(8, 8, 100)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := p.Start(context.Background()); err == nil {
		t.Error("Expected error on second Start")
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Second Stop failed: %v", err)
	}
}

// TestStubDetectorThreshold verifies sub-threshold candidates are produced
// but not counted as people.
func TestStubDetectorThreshold(t *testing.T) {
	d := NewStubDetector(0.55, 10)

	// Seq 90 puts the cycle at one person; 90%30==0 adds the weak candidate.
	detections, err := d.Detect(types.Frame{Seq: 90})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(detections) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(detections))
	}
	if got := types.CountPeople(detections, 0.55); got != 1 {
		t.Errorf("Expected 1 person above threshold, got %d", got)
	}
}

// TestCaptureCommitsAtomically verifies the capture worker lands frame,
// detections and people count together.
func TestCaptureCommitsAtomically(t *testing.T) {
	st := state.New(map[string]any{
		state.KeyConfigDetectThreshold: 0.55,
	})
	c := NewCapture(nil, NewStubDetector(0.55, 10), st)

	c.process(types.Frame{Seq: 180, Data: []byte{0x01}})

	snap := st.Snapshot()
	frame, ok := snap[state.KeyLatestFrame].(types.Frame)
	if !ok {
		t.Fatal("latest_frame missing or wrong type")
	}
	if frame.Seq != 180 {
		t.Errorf("Expected seq 180, got %d", frame.Seq)
	}
	detections, ok := snap[state.KeyDetections].([]types.Detection)
	if !ok {
		t.Fatal("detections missing or wrong type")
	}
	people := snap[state.KeyLocalPeople].(int)
	if people != types.CountPeople(detections, 0.55) {
		t.Errorf("People count %d inconsistent with committed detections", people)
	}
	if people != 2 {
		t.Errorf("Expected 2 people at seq 180, got %d", people)
	}
}

// TestCaptureRunStopsOnCancel verifies Run exits when the context ends.
func TestCaptureRunStopsOnCancel(t *testing.T) {
	st := state.New(nil)
	p := NewSynthetic(8, 8, 100)
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Stop()

	c := NewCapture(p, NewStubDetector(0.55, 10), st)

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Capture worker did not stop on cancel")
	}

	if _, err := st.Get(state.KeyLatestFrame); err != nil {
		t.Errorf("Expected at least one frame committed: %v", err)
	}
}
