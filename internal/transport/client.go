package transport

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/peercam/peercam/internal/config"
)

// connectTimeout bounds the initial broker handshake; after that the client
// reconnects on its own.
const connectTimeout = 5 * time.Second

// NewClient builds and connects an MQTT client for the node. The client
// auto-reconnects; connection transitions are logged, not surfaced as
// errors, because the subscriber's silence watchdog owns the peer-visible
// connectivity state.
func NewClient(cfg *config.Config) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker.URL)
	opts.SetClientID(fmt.Sprintf("peercam-%s", cfg.InstanceID))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		slog.Info("broker connection established",
			"broker", cfg.Broker.URL,
			"client_id", cfg.InstanceID,
		)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		slog.Warn("broker connection lost, will auto-reconnect",
			"error", err,
			"broker", cfg.Broker.URL,
		)
	}

	client := mqtt.NewClient(opts)

	slog.Info("connecting to broker", "broker", cfg.Broker.URL)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("transport: broker connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("transport: broker connection failed: %w", err)
	}

	return client, nil
}
