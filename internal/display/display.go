// Package display renders the node's live status to the terminal. It is the
// read-only worker: every refresh reads exactly one store snapshot so the
// rendered view (connection flag, frames, people counts) is internally
// consistent even while the other workers keep writing.
package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/peercam/peercam/internal/camera"
	"github.com/peercam/peercam/internal/state"
	"github.com/peercam/peercam/internal/transport"
	"github.com/peercam/peercam/internal/types"
)

// Sources exposes the per-worker counters shown alongside the store state.
type Sources struct {
	Provider   func() camera.Stats
	Publisher  func() transport.PublisherStats
	Subscriber func() transport.SubscriberStats
}

// Renderer periodically prints the node status.
type Renderer struct {
	store    *state.Store
	out      io.Writer
	interval time.Duration
	sources  Sources
	clock    func() time.Time
}

// NewRenderer creates the display worker writing to out.
func NewRenderer(store *state.Store, out io.Writer, interval time.Duration, sources Sources) *Renderer {
	return &Renderer{
		store:    store,
		out:      out,
		interval: interval,
		sources:  sources,
		clock:    time.Now,
	}
}

// Run renders until the context is cancelled. It must be called on its own
// goroutine.
func (r *Renderer) Run(ctx context.Context) {
	slog.Info("display worker started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("display worker stopping")
			return
		case <-ticker.C:
			r.renderOnce(r.clock())
		}
	}
}

// renderOnce prints one status block from a single consistent snapshot.
func (r *Renderer) renderOnce(now time.Time) {
	snap := r.store.Snapshot()

	connected, _ := snap[state.KeyConnected].(bool)
	displayLocal := true
	if v, ok := snap[state.KeyDisplayLocal].(bool); ok {
		displayLocal = v
	}
	localPeople, _ := snap[state.KeyLocalPeople].(int)
	remotePeople, _ := snap[state.KeyRemotePeople].(int)

	view := "remote"
	if displayLocal {
		view = "local"
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "╭─────────────────────────────────────────────╮")
	fmt.Fprintf(r.out, "│ peercam status (%s)\n", now.Format("15:04:05"))
	fmt.Fprintln(r.out, "├─────────────────────────────────────────────┤")
	fmt.Fprintf(r.out, "│   Peer connected:     %6v\n", connected)
	fmt.Fprintf(r.out, "│   Active view:        %6s\n", view)
	fmt.Fprintf(r.out, "│   People (local):     %6d\n", localPeople)
	fmt.Fprintf(r.out, "│   People (remote):    %6d\n", remotePeople)

	if frame, ok := snap[state.KeyLatestFrame].(types.Frame); ok {
		fmt.Fprintf(r.out, "│   Local frame:        #%d (%s old)\n",
			frame.Seq, frame.Age(now).Round(time.Millisecond))
	} else {
		fmt.Fprintln(r.out, "│   Local frame:        none")
	}
	if frame, ok := snap[state.KeyRemoteFrame].(types.Frame); ok {
		fmt.Fprintf(r.out, "│   Remote frame:       #%d (%s old)\n",
			frame.Seq, frame.Age(now).Round(time.Millisecond))
	} else {
		fmt.Fprintln(r.out, "│   Remote frame:       none")
	}

	if r.sources.Provider != nil {
		ps := r.sources.Provider()
		fmt.Fprintf(r.out, "│   Capture:            %d frames, %d drops (%.1f fps)\n",
			ps.FramesEmitted, ps.FramesDropped, ps.FPSReal)
	}
	if r.sources.Publisher != nil {
		ps := r.sources.Publisher()
		fmt.Fprintf(r.out, "│   Published:          %d sent, %d errors\n", ps.Published, ps.Errors)
	}
	if r.sources.Subscriber != nil {
		ss := r.sources.Subscriber()
		fmt.Fprintf(r.out, "│   Received:           %d frames, %d bad\n",
			ss.Received, ss.DecodeErrors+ss.Rejected)
	}

	fmt.Fprintln(r.out, "╰─────────────────────────────────────────────╯")
}
