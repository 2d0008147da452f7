package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/peercam/peercam/internal/state"
)

// watchdogPeriod is how often the silence watchdog re-evaluates the view.
const watchdogPeriod = 500 * time.Millisecond

// Subscriber is the worker that receives the remote peer's frames and
// commits them into the shared store. Every received envelope lands in one
// atomic update, so readers never observe a remote frame without its
// detections or a connected flag that disagrees with the frame timestamp.
//
// A silence watchdog flips the view back to local when no remote traffic has
// arrived within the configured window.
type Subscriber struct {
	client  mqtt.Client
	store   *state.Store
	topic   string
	qos     byte
	peerID  string // expected remote peer id
	silence time.Duration
	clock   func() time.Time

	mu           sync.RWMutex
	received     uint64
	decodeErrors uint64
	rejected     uint64
}

// NewSubscriber creates the subscriber worker for the remote peer's topic.
func NewSubscriber(client mqtt.Client, store *state.Store, topic string, qos byte, peerID string, silence time.Duration) *Subscriber {
	return &Subscriber{
		client:  client,
		store:   store,
		topic:   topic,
		qos:     qos,
		peerID:  peerID,
		silence: silence,
		clock:   time.Now,
	}
}

// Start subscribes to the remote topic and launches the silence watchdog.
func (s *Subscriber) Start(ctx context.Context) error {
	token := s.client.Subscribe(s.topic, s.qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Payload())
	})
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("transport: subscribe timeout on %q", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("transport: subscribe failed on %q: %w", s.topic, err)
	}

	slog.Info("subscriber started", "topic", s.topic, "silence_timeout", s.silence)

	go s.watch(ctx)
	return nil
}

// handleMessage decodes one envelope and commits the remote state.
func (s *Subscriber) handleMessage(payload []byte) {
	env, err := Decode(payload)
	if err != nil {
		s.mu.Lock()
		s.decodeErrors++
		s.mu.Unlock()
		slog.Warn("dropping undecodable message", "bytes", len(payload), "error", err)
		return
	}

	if env.PeerID != s.peerID {
		s.mu.Lock()
		s.rejected++
		s.mu.Unlock()
		slog.Warn("dropping message from unexpected peer",
			"got", env.PeerID,
			"expected", s.peerID,
		)
		return
	}

	now := s.clock()

	// The view check and the commit must be one atomic step: a concurrent
	// watchdog pass between them could otherwise flip the view based on a
	// silence window this very message has just ended.
	s.store.Lock()
	wasLocal := s.store.GetDefault(state.KeyDisplayLocal, true).(bool)
	s.store.Update(map[string]any{
		state.KeyRemoteFrame:      env.ToFrame(),
		state.KeyRemoteDetections: env.Detections,
		state.KeyRemotePeople:     env.PeopleCount,
		state.KeyLastRemoteAt:     now,
		state.KeyConnected:        true,
		state.KeyDisplayLocal:     false,
	})
	s.store.Unlock()

	s.mu.Lock()
	s.received++
	s.mu.Unlock()

	if wasLocal {
		slog.Info("switched to remote view, peer traffic restored",
			"peer", env.PeerID,
			"seq", env.Seq,
		)
	}

	slog.Debug("remote frame received",
		"seq", env.Seq,
		"trace_id", env.TraceID,
		"people", env.PeopleCount,
	)
}

// watch periodically falls back to the local view after remote silence.
func (s *Subscriber) watch(ctx context.Context) {
	ticker := time.NewTicker(watchdogPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("subscriber watchdog stopping")
			return
		case <-ticker.C:
			s.checkSilence(s.clock())
		}
	}
}

// checkSilence flips the view back to local when the remote peer has been
// quiet for longer than the silence window. The read of the last-seen time
// and the flag writes form one compound atomic sequence under the raw lock.
func (s *Subscriber) checkSilence(now time.Time) {
	s.store.Lock()
	defer s.store.Unlock()

	lastAt, ok := s.store.GetDefault(state.KeyLastRemoteAt, time.Time{}).(time.Time)
	if !ok || lastAt.IsZero() {
		return // nothing received yet, view stays local
	}
	if now.Sub(lastAt) <= s.silence {
		return
	}
	if s.store.GetDefault(state.KeyDisplayLocal, true).(bool) {
		return // already local
	}

	s.store.Update(map[string]any{
		state.KeyDisplayLocal: true,
		state.KeyConnected:    false,
	})
	slog.Info("switched to local view, remote peer silent",
		"peer", s.peerID,
		"silent_for", now.Sub(lastAt),
	)
}

// SubscriberStats contains receive counters.
type SubscriberStats struct {
	Received     uint64
	DecodeErrors uint64
	Rejected     uint64
}

// Stats returns receive counters.
func (s *Subscriber) Stats() SubscriberStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SubscriberStats{
		Received:     s.received,
		DecodeErrors: s.decodeErrors,
		Rejected:     s.rejected,
	}
}
