// Package transport moves frames and detection results between peers over an
// MQTT broker. A node publishes its own feed on peercam/<room>/<self>/frames
// and subscribes to peercam/<room>/<peer>/frames; payloads are msgpack
// envelopes carrying the frame bytes plus detection metadata.
package transport

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/peercam/peercam/internal/types"
)

// Envelope is the wire representation of one published frame and the
// detection results that belong to it.
type Envelope struct {
	PeerID      string            `msgpack:"peer_id"`
	Seq         uint64            `msgpack:"seq"`
	TraceID     string            `msgpack:"trace_id"`
	CapturedAt  int64             `msgpack:"captured_at_us"` // unix microseconds
	Width       int               `msgpack:"width"`
	Height      int               `msgpack:"height"`
	PeopleCount int               `msgpack:"people_count"`
	Detections  []types.Detection `msgpack:"detections"`
	Frame       []byte            `msgpack:"frame"`
}

// Encode serializes the envelope for publishing.
func Encode(env *Envelope) ([]byte, error) {
	data, err := msgpack.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses a received payload into an envelope.
func Decode(payload []byte) (*Envelope, error) {
	var env Envelope
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("transport: failed to decode envelope: %w", err)
	}
	return &env, nil
}

// ToFrame converts the envelope back into a frame value.
func (e *Envelope) ToFrame() types.Frame {
	return types.Frame{
		Seq:       e.Seq,
		Timestamp: time.UnixMicro(e.CapturedAt),
		Width:     e.Width,
		Height:    e.Height,
		Data:      e.Frame,
		TraceID:   e.TraceID,
	}
}
