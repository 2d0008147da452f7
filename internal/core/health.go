package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/peercam/peercam/internal/state"
	"github.com/peercam/peercam/internal/transport"
)

// HealthStatus represents the health of the node as seen from outside.
type HealthStatus struct {
	Status        string                    `json:"status"` // "healthy", "degraded"
	UptimeSeconds int64                     `json:"uptime_seconds"`
	PeerConnected bool                      `json:"peer_connected"`
	DisplayLocal  bool                      `json:"display_local"`
	LocalPeople   int                       `json:"local_people"`
	RemotePeople  int                       `json:"remote_people"`
	Publisher     transport.PublisherStats  `json:"publisher"`
	Subscriber    transport.SubscriberStats `json:"subscriber"`
}

// HealthCheck assembles the current health status from one consistent store
// snapshot. A node without remote traffic runs degraded, not unhealthy: the
// local pipeline keeps working and the watchdog keeps probing.
func (n *Node) HealthCheck() HealthStatus {
	snap := n.store.Snapshot()

	connected, _ := snap[state.KeyConnected].(bool)
	displayLocal := true
	if v, ok := snap[state.KeyDisplayLocal].(bool); ok {
		displayLocal = v
	}
	localPeople, _ := snap[state.KeyLocalPeople].(int)
	remotePeople, _ := snap[state.KeyRemotePeople].(int)

	status := "degraded"
	if connected {
		status = "healthy"
	}

	n.mu.RLock()
	var uptime int64
	if n.isRunning {
		uptime = int64(time.Since(n.started).Seconds())
	}
	n.mu.RUnlock()

	return HealthStatus{
		Status:        status,
		UptimeSeconds: uptime,
		PeerConnected: connected,
		DisplayLocal:  displayLocal,
		LocalPeople:   localPeople,
		RemotePeople:  remotePeople,
		Publisher:     n.publisherStats(),
		Subscriber:    n.subscriberStats(),
	}
}

// StartHealthServer serves /healthz on the configured port. Non-blocking.
func (n *Node) StartHealthServer(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(n.HealthCheck()); err != nil {
			slog.Error("failed to encode health status", "error", err)
		}
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	n.mu.Lock()
	n.httpDone = srv.Shutdown
	n.mu.Unlock()

	go func() {
		slog.Info("health server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health server failed", "error", err)
		}
	}()

	return nil
}
