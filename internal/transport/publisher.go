package transport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/peercam/peercam/internal/state"
	"github.com/peercam/peercam/internal/types"
)

// Publisher is the worker that reads the local frame and detection state and
// transmits it to the remote peer. It reads through Snapshot so the frame is
// always paired with the detections committed alongside it.
type Publisher struct {
	client  mqtt.Client
	store   *state.Store
	topic   string
	qos     byte
	peerID  string
	tick    time.Duration
	timeout time.Duration

	mu        sync.RWMutex
	published uint64
	skipped   uint64
	errors    uint64
	lastSeq   uint64
	sentAny   bool
}

// NewPublisher creates the publisher worker. peerID is this node's own id,
// stamped into every envelope; tick is the publish period (normally one
// frame interval).
func NewPublisher(client mqtt.Client, store *state.Store, topic string, qos byte, peerID string, tick time.Duration) *Publisher {
	return &Publisher{
		client:  client,
		store:   store,
		topic:   topic,
		qos:     qos,
		peerID:  peerID,
		tick:    tick,
		timeout: time.Second,
	}
}

// Run publishes until the context is cancelled. It must be called on its own
// goroutine.
func (p *Publisher) Run(ctx context.Context) {
	slog.Info("publisher started", "topic", p.topic, "interval", p.tick)

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("publisher stopping")
			return
		case <-ticker.C:
			p.publishOnce()
		}
	}
}

// publishOnce transmits the current local state, skipping ticks where no new
// frame has been committed since the last send.
func (p *Publisher) publishOnce() {
	env, ok := p.buildEnvelope(p.store.Snapshot())
	if !ok {
		p.mu.Lock()
		p.skipped++
		p.mu.Unlock()
		return
	}

	payload, err := Encode(env)
	if err != nil {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		slog.Error("failed to encode envelope", "seq", env.Seq, "error", err)
		return
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		slog.Warn("publish timed out", "seq", env.Seq)
		return
	}
	if err := token.Error(); err != nil {
		p.mu.Lock()
		p.errors++
		p.mu.Unlock()
		slog.Error("publish failed", "seq", env.Seq, "error", err)
		return
	}

	p.mu.Lock()
	p.published++
	p.lastSeq = env.Seq
	p.sentAny = true
	p.mu.Unlock()

	slog.Debug("frame published",
		"seq", env.Seq,
		"trace_id", env.TraceID,
		"bytes", len(payload),
		"people", env.PeopleCount,
	)
}

// buildEnvelope assembles the wire envelope from one consistent view of the
// store. Returns false when there is no frame yet, or when the latest frame
// was already sent.
func (p *Publisher) buildEnvelope(snap map[string]any) (*Envelope, bool) {
	frame, ok := snap[state.KeyLatestFrame].(types.Frame)
	if !ok {
		return nil, false
	}

	p.mu.RLock()
	alreadySent := p.sentAny && frame.Seq == p.lastSeq
	p.mu.RUnlock()
	if alreadySent {
		return nil, false
	}

	detections, _ := snap[state.KeyDetections].([]types.Detection)
	people, _ := snap[state.KeyLocalPeople].(int)

	return &Envelope{
		PeerID:      p.peerID,
		Seq:         frame.Seq,
		TraceID:     frame.TraceID,
		CapturedAt:  frame.Timestamp.UnixMicro(),
		Width:       frame.Width,
		Height:      frame.Height,
		PeopleCount: people,
		Detections:  detections,
		Frame:       frame.Data,
	}, true
}

// PublisherStats contains publish counters.
type PublisherStats struct {
	Published uint64
	Skipped   uint64
	Errors    uint64
}

// Stats returns publish counters.
func (p *Publisher) Stats() PublisherStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PublisherStats{
		Published: p.published,
		Skipped:   p.skipped,
		Errors:    p.errors,
	}
}
