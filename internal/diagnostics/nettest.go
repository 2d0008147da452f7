package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// RoundTrip verifies end-to-end broker delivery: it connects, subscribes to
// a node-private probe topic, publishes a token and waits for it to come
// back. A passing round-trip means the pub/sub path both peers depend on is
// functional from this node's point of view.
func RoundTrip(ctx context.Context, brokerURL, roomID, instanceID string, timeout time.Duration) error {
	topic := fmt.Sprintf("peercam/%s/%s/nettest", roomID, instanceID)
	token := uuid.New().String()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(fmt.Sprintf("peercam-nettest-%s", instanceID))
	opts.SetConnectTimeout(timeout)

	client := mqtt.NewClient(opts)
	connect := client.Connect()
	if !connect.WaitTimeout(timeout) {
		return fmt.Errorf("diagnostics: broker connect timeout after %s", timeout)
	}
	if err := connect.Error(); err != nil {
		return fmt.Errorf("diagnostics: broker connect failed: %w", err)
	}
	defer client.Disconnect(250)

	echoed := make(chan string, 1)
	sub := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case echoed <- string(msg.Payload()):
		default:
		}
	})
	if !sub.WaitTimeout(timeout) || sub.Error() != nil {
		return fmt.Errorf("diagnostics: subscribe to %q failed: %v", topic, sub.Error())
	}

	pub := client.Publish(topic, 1, false, token)
	if !pub.WaitTimeout(timeout) || pub.Error() != nil {
		return fmt.Errorf("diagnostics: publish to %q failed: %v", topic, pub.Error())
	}

	slog.Info("nettest probe published, waiting for echo", "topic", topic)

	select {
	case got := <-echoed:
		if got != token {
			return fmt.Errorf("diagnostics: echo mismatch, published %q got %q", token, got)
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("diagnostics: no echo within %s", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
