// Package camera supplies the local frame/detection pipeline behind the
// capture worker. Real camera hardware lives behind the Provider and
// Detector interfaces; the synthetic implementations here generate sequenced
// frames and occupancy patterns for development without a sensor.
package camera

import (
	"context"

	"github.com/peercam/peercam/internal/types"
)

// Provider defines the contract for frame acquisition.
//
// Implementations must guarantee:
//   - Start() returns immediately; frames arrive asynchronously
//   - the frames channel stays open until Stop()
//   - Stop() is idempotent
//   - Stats() is safe to call from any goroutine
type Provider interface {
	// Start begins frame acquisition. Frames are delivered on the Frames
	// channel using a non-blocking pattern: if the consumer falls behind,
	// frames are dropped rather than queued.
	Start(ctx context.Context) error

	// Frames returns the channel frames are delivered on.
	Frames() <-chan types.Frame

	// Stop shuts the provider down and closes the frames channel.
	Stop() error

	// Stats returns acquisition statistics.
	Stats() Stats
}

// Stats contains provider statistics.
type Stats struct {
	FramesEmitted uint64
	FramesDropped uint64
	FPSTarget     int
	FPSReal       float64
	IsRunning     bool
}

// Detector produces detection results for a frame.
//
// Inference internals (model loading, accelerators) are the implementation's
// concern; the capture worker only sees the detection list.
type Detector interface {
	Detect(frame types.Frame) ([]types.Detection, error)
}
