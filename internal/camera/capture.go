package camera

import (
	"context"
	"log/slog"

	"github.com/peercam/peercam/internal/state"
	"github.com/peercam/peercam/internal/types"
)

// Capture is the worker that moves frames from the provider through the
// detector into the shared store. It is the sole writer of the local frame
// and detection keys; all its per-frame results land in one atomic update so
// readers never see a frame paired with stale detections.
type Capture struct {
	provider Provider
	detector Detector
	store    *state.Store
}

// NewCapture creates the capture worker.
func NewCapture(provider Provider, detector Detector, store *state.Store) *Capture {
	return &Capture{
		provider: provider,
		detector: detector,
		store:    store,
	}
}

// Run consumes frames until the context is cancelled or the provider's
// channel closes. It must be called on its own goroutine.
func (c *Capture) Run(ctx context.Context) {
	slog.Info("capture worker started")

	for {
		select {
		case <-ctx.Done():
			slog.Info("capture worker stopping")
			return
		case frame, ok := <-c.provider.Frames():
			if !ok {
				slog.Info("capture worker stopping, provider closed")
				return
			}
			c.process(frame)
		}
	}
}

// process runs detection on one frame and commits the results.
func (c *Capture) process(frame types.Frame) {
	threshold := c.store.GetDefault(state.KeyConfigDetectThreshold, 0.55).(float64)

	detections, err := c.detector.Detect(frame)
	if err != nil {
		slog.Error("detection failed, keeping previous results",
			"seq", frame.Seq,
			"trace_id", frame.TraceID,
			"error", err,
		)
		c.store.Set(state.KeyLatestFrame, frame)
		return
	}

	people := types.CountPeople(detections, threshold)

	c.store.Update(map[string]any{
		state.KeyLatestFrame: frame,
		state.KeyDetections:  detections,
		state.KeyLocalPeople: people,
	})

	slog.Debug("frame processed",
		"seq", frame.Seq,
		"trace_id", frame.TraceID,
		"detections", len(detections),
		"people", people,
	)
}
