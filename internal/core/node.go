// Package core wires the peercam node together: it seeds the shared store,
// starts every worker with a reference to it, and owns lifecycle and health.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/peercam/peercam/internal/camera"
	"github.com/peercam/peercam/internal/config"
	"github.com/peercam/peercam/internal/display"
	"github.com/peercam/peercam/internal/indicator"
	"github.com/peercam/peercam/internal/state"
	"github.com/peercam/peercam/internal/transport"
)

// indicatorTick is the LED animation period.
const indicatorTick = 40 * time.Millisecond

// Node is the service orchestrator. All workers receive the same store
// instance at construction; it is their only shared memory.
type Node struct {
	cfg   *config.Config
	store *state.Store

	provider  camera.Provider
	capture   *camera.Capture
	renderer  *display.Renderer
	indicator *indicator.Controller

	// Created in Run once the broker is reachable.
	client     mqtt.Client
	publisher  *transport.Publisher
	subscriber *transport.Subscriber

	mu        sync.RWMutex
	started   time.Time
	isRunning bool
	wg        sync.WaitGroup
	httpDone  func(ctx context.Context) error
}

// NewNode creates a node from the configuration at configPath.
func NewNode(configPath string) (*Node, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("configuration loaded",
		"instance_id", cfg.InstanceID,
		"room_id", cfg.RoomID,
		"peer_id", cfg.Peer.ID,
	)

	return newNode(cfg), nil
}

// newNode builds the workers around a freshly seeded store.
func newNode(cfg *config.Config) *Node {
	store := state.New(map[string]any{
		state.KeyConnected:             false,
		state.KeyDisplayLocal:          true,
		state.KeyConfigFPS:             cfg.Camera.FPS,
		state.KeyConfigDetectThreshold: cfg.Camera.DetectThreshold,
		state.KeyConfigMaxDetections:   cfg.Camera.MaxDetections,
	})

	provider := camera.NewSynthetic(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.FPS)
	detector := camera.NewStubDetector(cfg.Camera.DetectThreshold, cfg.Camera.MaxDetections)

	n := &Node{
		cfg:      cfg,
		store:    store,
		provider: provider,
		capture:  camera.NewCapture(provider, detector, store),
	}

	n.renderer = display.NewRenderer(store, os.Stdout, cfg.StatsInterval(), display.Sources{
		Provider:  provider.Stats,
		Publisher: func() transport.PublisherStats { return n.publisherStats() },
		Subscriber: func() transport.SubscriberStats {
			return n.subscriberStats()
		},
	})

	n.indicator = indicator.NewController(store, defaultStrands(), indicatorTick, 0, 0)

	return n
}

// defaultStrands mirrors the bedside installation: a people-responsive main
// strand and a calm accent strand, both on the null driver until real LED
// hardware is wired in.
func defaultStrands() []*indicator.Strand {
	main, err := indicator.NewStrand(indicator.StrandConfig{
		Name:             "main",
		Pixels:           48,
		Animation:        indicator.RainbowComet,
		RespondsToPeople: true,
	}, indicator.NullDriver{})
	if err != nil {
		panic(err) // static configuration, cannot fail
	}
	accent, err := indicator.NewStrand(indicator.StrandConfig{
		Name:      "accent",
		Pixels:    24,
		Animation: indicator.SparklePulse,
	}, indicator.NullDriver{})
	if err != nil {
		panic(err)
	}
	return []*indicator.Strand{main, accent}
}

// Run starts every worker and blocks until the context is cancelled.
func (n *Node) Run(ctx context.Context) error {
	n.mu.Lock()
	if n.isRunning {
		n.mu.Unlock()
		return fmt.Errorf("node is already running")
	}
	n.isRunning = true
	n.started = time.Now()
	n.mu.Unlock()

	slog.Info("peercam node starting", "instance_id", n.cfg.InstanceID)

	client, err := transport.NewClient(n.cfg)
	if err != nil {
		return err
	}

	fps := n.cfg.Camera.FPS
	publisher := transport.NewPublisher(
		client, n.store,
		n.cfg.FramesTopic(n.cfg.InstanceID),
		n.cfg.Broker.QoS,
		n.cfg.InstanceID,
		time.Second/time.Duration(fps),
	)
	subscriber := transport.NewSubscriber(
		client, n.store,
		n.cfg.FramesTopic(n.cfg.Peer.ID),
		n.cfg.Broker.QoS,
		n.cfg.Peer.ID,
		n.cfg.SilenceTimeout(),
	)

	n.mu.Lock()
	n.client = client
	n.publisher = publisher
	n.subscriber = subscriber
	n.mu.Unlock()

	if err := n.provider.Start(ctx); err != nil {
		return fmt.Errorf("failed to start frame provider: %w", err)
	}
	if err := subscriber.Start(ctx); err != nil {
		return err
	}

	for name, run := range map[string]func(context.Context){
		"capture":   n.capture.Run,
		"publisher": publisher.Run,
		"display":   n.renderer.Run,
		"indicator": n.indicator.Run,
	} {
		n.wg.Add(1)
		go func(name string, run func(context.Context)) {
			defer n.wg.Done()
			run(ctx)
			slog.Debug("worker finished", "worker", name)
		}(name, run)
	}

	slog.Info("peercam node running",
		"publish_topic", n.cfg.FramesTopic(n.cfg.InstanceID),
		"subscribe_topic", n.cfg.FramesTopic(n.cfg.Peer.ID),
	)

	<-ctx.Done()
	slog.Info("peercam node stopping")

	if err := n.provider.Stop(); err != nil {
		slog.Warn("provider stop failed", "error", err)
	}
	n.wg.Wait()
	client.Disconnect(250)

	n.mu.Lock()
	n.isRunning = false
	n.mu.Unlock()

	return nil
}

// Shutdown stops the health server and waits for workers to drain, bounded
// by ctx.
func (n *Node) Shutdown(ctx context.Context) error {
	n.mu.RLock()
	httpDone := n.httpDone
	n.mu.RUnlock()

	if httpDone != nil {
		if err := httpDone(ctx); err != nil {
			return fmt.Errorf("health server shutdown failed: %w", err)
		}
	}

	drained := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Store exposes the shared store, primarily for tests.
func (n *Node) Store() *state.Store {
	return n.store
}

// HealthPort returns the configured health server port.
func (n *Node) HealthPort() int {
	return n.cfg.HealthPort
}

func (n *Node) publisherStats() transport.PublisherStats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.publisher == nil {
		return transport.PublisherStats{}
	}
	return n.publisher.Stats()
}

func (n *Node) subscriberStats() transport.SubscriberStats {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.subscriber == nil {
		return transport.SubscriberStats{}
	}
	return n.subscriber.Stats()
}
