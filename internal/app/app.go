// Package app runs the frame loop that turns hand observations into control
// frames for the consumer.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/handctl/internal/capture"
	"github.com/ayusman/handctl/internal/control"
	"github.com/ayusman/handctl/internal/detector"
	"github.com/ayusman/handctl/internal/packet"
)

// DefaultDropReportInterval is how often failed sends are summarized in the log.
const DefaultDropReportInterval = 5 * time.Second

// ErrLoopPanic is returned by Run when a frame panicked. The panic has been
// logged and reported.
var ErrLoopPanic = errors.New("frame loop panicked")

// Sender delivers control frames. packet.Sink is the production implementation.
type Sender interface {
	Send(f packet.Frame) error
	Dropped() uint64
}

// Recorder stores each processed frame. store.Recorder is the production
// implementation.
type Recorder interface {
	Record(hands []detector.HandLandmarks, frame packet.Frame) error
}

// Display shows a frame and what was made of it. Show returns false when the
// user asked to stop. Run closes the display on its own goroutine before
// returning, so Show and Close are never called from different goroutines.
type Display interface {
	Show(img *gocv.Mat, res control.Result) bool
	Close() error
}

// StatusReporter is told the current gesture whenever it changes.
type StatusReporter interface {
	SetLastGesture(name string)
}

// Config holds the parts the frame loop is assembled from. Source, Sink and
// Log are required; the rest may be nil.
type Config struct {
	Source    capture.Source
	Sink      Sender
	Processor control.Processor
	Recorder  Recorder
	Display   Display
	Status    StatusReporter
	Log       logrus.FieldLogger

	// DropReportInterval defaults to DefaultDropReportInterval.
	DropReportInterval time.Duration
}

// App owns the frame loop.
type App struct {
	config  Config
	log     logrus.FieldLogger
	enabled atomic.Bool

	frames  atomic.Uint64
	skipped atomic.Uint64

	// loop-owned
	lastGesture string
	lastReport  time.Time
	lastDropped uint64

	mu    sync.Mutex
	state control.State
}

// New creates an App. Sending starts enabled.
func New(config Config) *App {
	if config.DropReportInterval <= 0 {
		config.DropReportInterval = DefaultDropReportInterval
	}
	log := config.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	a := &App{
		config: config,
		log:    log.WithField("component", "app"),
		state:  control.NewState(),
	}
	a.enabled.Store(true)
	return a
}

// SetEnabled pauses or resumes sending. Frames are still processed while
// paused, so the cursor does not jump when sending resumes.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
	a.log.WithField("enabled", enabled).Info("sending toggled")
}

// IsEnabled reports whether frames are being sent.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Frames returns the number of frames processed.
func (a *App) Frames() uint64 {
	return a.frames.Load()
}

// Skipped returns the number of frames lost to source failures.
func (a *App) Skipped() uint64 {
	return a.skipped.Load()
}

// State returns a copy of the most recent controller state.
func (a *App) State() control.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Run opens the source and processes frames until ctx is cancelled, the
// source runs out or the display asks to stop. Those are normal exits and
// return nil. The source and the display are closed before Run returns.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Errorf("frame loop panic: %v", r)
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("component", "frame_loop")
				scope.SetExtra("frames", a.Frames())
			})
			hub.Recover(r)
			hub.Flush(5 * time.Second)
			err = fmt.Errorf("%w: %v", ErrLoopPanic, r)
		}
	}()

	if d := a.config.Display; d != nil {
		defer func() {
			if err := d.Close(); err != nil {
				a.log.WithError(err).Warn("closing display")
			}
		}()
	}

	src := a.config.Source
	if err := src.Open(); err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			a.log.WithError(err).Warn("closing source")
		}
	}()

	a.lastReport = time.Now()
	state := control.NewState()
	a.log.Info("frame loop started")

	for {
		if ctx.Err() != nil {
			a.log.WithField("frames", a.Frames()).Info("frame loop cancelled")
			return nil
		}

		obs, err := src.Next()
		switch {
		case errors.Is(err, io.EOF):
			a.log.WithField("frames", a.Frames()).Info("source exhausted")
			return nil
		case errors.Is(err, capture.ErrSourceUnavailable):
			a.skipped.Add(1)
			a.log.WithError(err).Debug("skipping frame")
			continue
		case err != nil:
			return fmt.Errorf("read source: %w", err)
		}

		var stop bool
		state, stop = a.processFrame(state, &obs)
		obs.Close()

		a.mu.Lock()
		a.state = state
		a.mu.Unlock()

		if stop {
			a.log.WithField("frames", a.Frames()).Info("stop requested from preview")
			return nil
		}
	}
}
