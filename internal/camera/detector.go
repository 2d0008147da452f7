package camera

import (
	"github.com/peercam/peercam/internal/types"
)

// StubDetector emulates an on-sensor person detector. It derives a slowly
// changing occupancy pattern from the frame sequence number, producing the
// same detection shape a real model would: per-object class, confidence and
// normalized bounding box, capped at a maximum number of outputs.
type StubDetector struct {
	threshold     float64
	maxDetections int
}

// NewStubDetector creates a detector with the given confidence threshold and
// output cap.
func NewStubDetector(threshold float64, maxDetections int) *StubDetector {
	return &StubDetector{
		threshold:     threshold,
		maxDetections: maxDetections,
	}
}

// Detect returns synthetic detections for the frame. The number of persons
// cycles with the sequence number; every few cycles a low-confidence
// detection below the threshold is included, which callers counting people
// must filter out.
func (d *StubDetector) Detect(frame types.Frame) ([]types.Detection, error) {
	people := int(frame.Seq/90) % 4 // occupancy changes every ~3s at 30 fps
	if people > d.maxDetections {
		people = d.maxDetections
	}

	detections := make([]types.Detection, 0, people+1)
	for i := 0; i < people; i++ {
		detections = append(detections, types.Detection{
			Class:      "person",
			Confidence: 0.6 + 0.1*float64(i%4),
			X:          0.1 * float64(i+1),
			Y:          0.2,
			W:          0.15,
			H:          0.5,
		})
	}

	// A sub-threshold candidate shows up periodically, as real models do.
	if frame.Seq%30 == 0 && len(detections) < d.maxDetections {
		detections = append(detections, types.Detection{
			Class:      "person",
			Confidence: d.threshold / 2,
			X:          0.8,
			Y:          0.7,
			W:          0.1,
			H:          0.2,
		})
	}

	return detections, nil
}
