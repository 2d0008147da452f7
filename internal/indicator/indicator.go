// Package indicator drives status LED strands from the shared store. Strand
// animations react to room occupancy: strands marked as people-responsive
// speed up as more people are detected, matching the behavior of the
// original bedside installations. Hardware sits behind the Driver interface
// so nodes without LED strands run the same code against the null driver.
package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/peercam/peercam/internal/state"
)

// Color is one RGB pixel.
type Color struct {
	R, G, B uint8
}

// Driver transmits pixel buffers to an LED strand.
type Driver interface {
	Write(pixels []Color) error
	Close() error
}

// NullDriver discards writes. Used when no LED hardware is present.
type NullDriver struct{}

func (NullDriver) Write([]Color) error { return nil }
func (NullDriver) Close() error        { return nil }

// Animation selects the pattern a strand renders.
type Animation string

const (
	Rainbow      Animation = "rainbow"
	RainbowComet Animation = "rainbow_comet"
	SparklePulse Animation = "sparkle_pulse"
	Solid        Animation = "solid"
)

// StrandConfig describes one LED strand.
type StrandConfig struct {
	Name             string
	Pixels           int
	Animation        Animation
	RespondsToPeople bool
	SolidColor       Color
}

// Strand renders an animation onto one driver.
type Strand struct {
	cfg    StrandConfig
	driver Driver
	phase  uint32
}

// NewStrand creates a strand. Unknown animation kinds fall back to solid.
func NewStrand(cfg StrandConfig, driver Driver) (*Strand, error) {
	if cfg.Pixels <= 0 {
		return nil, fmt.Errorf("indicator: strand %q needs at least one pixel", cfg.Name)
	}
	switch cfg.Animation {
	case Rainbow, RainbowComet, SparklePulse, Solid:
	default:
		slog.Warn("unknown animation, using solid", "strand", cfg.Name, "animation", cfg.Animation)
		cfg.Animation = Solid
	}
	return &Strand{cfg: cfg, driver: driver}, nil
}

// Step advances the animation and writes one pixel buffer. The speed
// multiplier scales how far the pattern moves per step; people-responsive
// strands receive a multiplier derived from occupancy.
func (s *Strand) Step(speed int) error {
	if speed < 1 {
		speed = 1
	}
	s.phase += uint32(speed)

	pixels := make([]Color, s.cfg.Pixels)
	switch s.cfg.Animation {
	case Rainbow:
		for i := range pixels {
			pixels[i] = wheel(byte(s.phase) + byte(i*256/s.cfg.Pixels))
		}
	case RainbowComet:
		head := int(s.phase) % s.cfg.Pixels
		for offset := 0; offset < s.cfg.Pixels/3+1; offset++ {
			i := (head - offset + s.cfg.Pixels) % s.cfg.Pixels
			c := wheel(byte(s.phase))
			fade := 1.0 - float64(offset)/float64(s.cfg.Pixels/3+1)
			pixels[i] = Color{
				R: uint8(float64(c.R) * fade),
				G: uint8(float64(c.G) * fade),
				B: uint8(float64(c.B) * fade),
			}
		}
	case SparklePulse:
		// Deterministic sparkle: a few pixels lit per step, pulsing level.
		level := uint8(128 + 127*int(s.phase%64)/64)
		for i := range pixels {
			if (uint32(i)*2654435761+s.phase)%7 == 0 {
				pixels[i] = Color{R: level, G: level, B: level}
			}
		}
	case Solid:
		for i := range pixels {
			pixels[i] = s.cfg.SolidColor
		}
	}

	return s.driver.Write(pixels)
}

// Blank switches the strand off.
func (s *Strand) Blank() error {
	return s.driver.Write(make([]Color, s.cfg.Pixels))
}

// wheel maps a position on a 256-step color wheel to an RGB value.
func wheel(pos byte) Color {
	switch {
	case pos < 85:
		return Color{R: 255 - pos*3, G: pos * 3, B: 0}
	case pos < 170:
		pos -= 85
		return Color{R: 0, G: 255 - pos*3, B: pos * 3}
	default:
		pos -= 170
		return Color{R: pos * 3, G: 0, B: 255 - pos*3}
	}
}

// Controller runs all strands from the shared store.
type Controller struct {
	store      *state.Store
	strands    []*Strand
	tick       time.Duration
	activeFrom int // hour of day, inclusive
	activeTo   int // hour of day, exclusive; from==to means always on
	clock      func() time.Time
}

// NewController creates the indicator worker. activeFrom/activeTo gate the
// strands to certain hours of the day.
func NewController(store *state.Store, strands []*Strand, tick time.Duration, activeFrom, activeTo int) *Controller {
	return &Controller{
		store:      store,
		strands:    strands,
		tick:       tick,
		activeFrom: activeFrom,
		activeTo:   activeTo,
		clock:      time.Now,
	}
}

// Run animates until the context is cancelled, then blanks every strand.
// It must be called on its own goroutine.
func (c *Controller) Run(ctx context.Context) {
	slog.Info("indicator started", "strands", len(c.strands), "tick", c.tick)

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-ticker.C:
			c.step()
		}
	}
}

// step advances all strands once, reading occupancy from a single snapshot.
func (c *Controller) step() {
	now := c.clock()
	if !c.activeAt(now) {
		for _, s := range c.strands {
			if err := s.Blank(); err != nil {
				slog.Warn("failed to blank strand", "strand", s.cfg.Name, "error", err)
			}
		}
		return
	}

	snap := c.store.Snapshot()
	local, _ := snap[state.KeyLocalPeople].(int)
	remote, _ := snap[state.KeyRemotePeople].(int)
	people := local + remote

	for _, s := range c.strands {
		speed := 1
		if s.cfg.RespondsToPeople {
			speed = 1 + people
		}
		if err := s.Step(speed); err != nil {
			slog.Warn("failed to write strand", "strand", s.cfg.Name, "error", err)
		}
	}
}

// activeAt reports whether the strands should be lit at the given time.
func (c *Controller) activeAt(now time.Time) bool {
	if c.activeFrom == c.activeTo {
		return true
	}
	h := now.Hour()
	if c.activeFrom < c.activeTo {
		return h >= c.activeFrom && h < c.activeTo
	}
	// Window wraps midnight, e.g. 19..7.
	return h >= c.activeFrom || h < c.activeTo
}

// shutdown blanks and closes every strand.
func (c *Controller) shutdown() {
	slog.Info("indicator stopping, blanking strands")
	for _, s := range c.strands {
		if err := s.Blank(); err != nil {
			slog.Warn("failed to blank strand", "strand", s.cfg.Name, "error", err)
		}
		if err := s.driver.Close(); err != nil {
			slog.Warn("failed to close driver", "strand", s.cfg.Name, "error", err)
		}
	}
}
