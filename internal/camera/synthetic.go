package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peercam/peercam/internal/types"
)

// Synthetic generates frames at a target FPS without camera hardware.
type Synthetic struct {
	width  int
	height int
	fps    int

	framesCh chan types.Frame
	stopCh   chan struct{}
	wg       sync.WaitGroup

	mu            sync.RWMutex
	seq           uint64
	framesEmitted uint64
	framesDropped uint64
	isRunning     bool
	startTime     time.Time
}

// NewSynthetic creates a synthetic frame provider.
func NewSynthetic(width, height, fps int) *Synthetic {
	return &Synthetic{
		width:    width,
		height:   height,
		fps:      fps,
		framesCh: make(chan types.Frame, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start begins generating frames.
func (s *Synthetic) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("provider already running")
	}
	s.isRunning = true
	s.startTime = time.Now()
	s.mu.Unlock()

	slog.Info("synthetic provider starting",
		"width", s.width,
		"height", s.height,
		"fps", s.fps,
	)

	s.wg.Add(1)
	go s.generateFrames(ctx)

	return nil
}

// Frames returns the frames channel.
func (s *Synthetic) Frames() <-chan types.Frame {
	return s.framesCh
}

// Stop stops the provider and closes the frames channel.
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	close(s.framesCh)

	slog.Info("synthetic provider stopped",
		"frames_emitted", s.framesEmitted,
		"frames_dropped", s.framesDropped,
	)

	return nil
}

// Stats returns acquisition statistics.
func (s *Synthetic) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fpsReal float64
	if s.framesEmitted > 0 {
		elapsed := time.Since(s.startTime).Seconds()
		if elapsed > 0 {
			fpsReal = float64(s.framesEmitted) / elapsed
		}
	}

	return Stats{
		FramesEmitted: s.framesEmitted,
		FramesDropped: s.framesDropped,
		FPSTarget:     s.fps,
		FPSReal:       fpsReal,
		IsRunning:     s.isRunning,
	}
}

// generateFrames emits frames at the target FPS until stopped.
func (s *Synthetic) generateFrames(ctx context.Context) {
	defer s.wg.Done()

	frameDuration := time.Second / time.Duration(s.fps)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			frame := s.createFrame()
			// Non-blocking send: drop rather than queue.
			select {
			case s.framesCh <- frame:
				s.mu.Lock()
				s.framesEmitted++
				s.mu.Unlock()
			default:
				s.mu.Lock()
				s.framesDropped++
				s.mu.Unlock()
			}
		}
	}
}

// createFrame builds a synthetic BGR24 frame with a moving gradient so
// consecutive frames differ.
func (s *Synthetic) createFrame() types.Frame {
	s.mu.Lock()
	seq := s.seq
	s.seq++
	s.mu.Unlock()

	data := make([]byte, s.width*s.height*3)
	shade := byte(seq % 251)
	for i := range data {
		data[i] = shade
	}

	return types.Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     s.width,
		Height:    s.height,
		Data:      data,
		TraceID:   uuid.New().String(),
	}
}
