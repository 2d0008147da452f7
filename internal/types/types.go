// Package types holds the value kinds exchanged through the shared store and
// over the wire: video frames and person-detection results.
package types

import "time"

// Frame represents a single video frame.
type Frame struct {
	// Seq is the monotonic sequence number assigned by the provider.
	Seq uint64
	// Timestamp is when the frame was captured.
	Timestamp time.Time
	// Width in pixels.
	Width int
	// Height in pixels.
	Height int
	// Data contains the frame payload. The store and the wire treat it as
	// opaque bytes; encoding is the provider's concern.
	Data []byte
	// TraceID identifies the frame across capture, publish and receive.
	TraceID string
}

// Age returns how long ago the frame was captured.
func (f *Frame) Age(now time.Time) time.Duration {
	return now.Sub(f.Timestamp)
}

// Detection is a single detected object in normalized coordinates.
type Detection struct {
	// Class is the detected object class (e.g. "person").
	Class string `msgpack:"class" json:"class"`
	// Confidence is the detection score in [0.0, 1.0].
	Confidence float64 `msgpack:"confidence" json:"confidence"`
	// X, Y, W, H describe the bounding box as fractions of the frame
	// dimensions, resolution-agnostic between peers.
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
	W float64 `msgpack:"w" json:"w"`
	H float64 `msgpack:"h" json:"h"`
}

// CountPeople returns how many detections are persons at or above the given
// confidence threshold.
func CountPeople(detections []Detection, threshold float64) int {
	people := 0
	for _, d := range detections {
		if d.Class == "person" && d.Confidence > threshold {
			people++
		}
	}
	return people
}
