package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/handctl/internal/app"
	"github.com/ayusman/handctl/internal/capture"
	"github.com/ayusman/handctl/internal/config"
	"github.com/ayusman/handctl/internal/control"
	"github.com/ayusman/handctl/internal/detector"
	"github.com/ayusman/handctl/internal/display"
	"github.com/ayusman/handctl/internal/logging"
	"github.com/ayusman/handctl/internal/packet"
	"github.com/ayusman/handctl/internal/report"
	"github.com/ayusman/handctl/internal/smoothing"
	"github.com/ayusman/handctl/internal/store"
	"github.com/ayusman/handctl/internal/tray"
)

func main() {
	cfg, err := config.LoadFromOS()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "handctl: %v\n", err)
		os.Exit(2)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			log.WithError(err).Warn("sentry disabled")
		}
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("handctl failed")
		sentry.CaptureException(err)
		sentry.Flush(5 * time.Second)
		os.Exit(1)
	}
}

// run wires the controller together and blocks until it stops. Every
// resource acquired here is released before it returns.
func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ema, err := smoothing.New(cfg.Alpha)
	if err != nil {
		return err
	}

	var st *store.Store
	if cfg.RecordDB != "" {
		st, err = store.New(cfg.RecordDB)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer st.Close()
	}

	if cfg.ListSessions {
		return listSessions(os.Stdout, st)
	}

	src, kind, err := newSource(cfg, st, log)
	if err != nil {
		return err
	}

	sink, err := packet.NewSink(cfg.Host, cfg.Port, log)
	if err != nil {
		src.Close()
		return fmt.Errorf("open udp sink: %w", err)
	}
	defer func() {
		log.WithFields(logrus.Fields{
			"sent":    sink.Sent(),
			"dropped": sink.Dropped(),
		}).Info("sink closed")
		sink.Close()
	}()

	appCfg := app.Config{
		Source:    src,
		Sink:      sink,
		Processor: control.NewProcessor(ema),
		Log:       log,
	}

	if st != nil {
		rec, err := store.NewRecorder(st, &store.Session{
			Source: kind,
			Host:   cfg.Host,
			Port:   cfg.Port,
			Alpha:  cfg.Alpha,
		}, log)
		if err != nil {
			src.Close()
			return fmt.Errorf("start recording: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.WithError(err).Warn("closing recorder")
			}
			if cfg.PlotDir != "" {
				if err := writeReport(st, rec.SessionID(), cfg.PlotDir, log); err != nil {
					log.WithError(err).Warn("writing session report")
				}
			}
		}()
		appCfg.Recorder = rec
	}

	if cfg.Preview {
		// The frame loop opens and closes the window itself.
		appCfg.Display = display.NewPreview(display.DefaultTitle)
	}

	var tr *tray.Tray
	if cfg.Tray {
		tr = tray.New(cfg.Address())
		appCfg.Status = tr
	}

	a := app.New(appCfg)

	if tr == nil {
		return a.Run(ctx)
	}

	// The tray needs the main thread, so the frame loop moves to a goroutine.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr.OnToggle(a.SetEnabled)
	tr.OnQuit(cancel)

	done := make(chan error, 1)
	go func() {
		done <- a.Run(ctx)
		tr.Quit()
	}()

	tr.Run()
	cancel()
	return <-done
}

// newSource returns the replay source when a session is named, otherwise the
// camera with the MediaPipe detector.
func newSource(cfg config.Config, st *store.Store, log logrus.FieldLogger) (capture.Source, store.SourceKind, error) {
	if cfg.Replay != "" {
		log.WithField("session", cfg.Replay).Info("replaying recorded session")
		return store.NewReplaySource(st, cfg.Replay), store.SourceReplay, nil
	}

	det, err := detector.NewMediaPipeDetector(detectorConfig(cfg), log)
	if err != nil {
		return nil, "", fmt.Errorf("hand detector: %w", err)
	}

	log.WithFields(logrus.Fields{
		"camera": cfg.CameraID,
		"mirror": cfg.Mirror,
	}).Info("using camera")

	camera := capture.NewCamera(capture.CameraConfig{
		DeviceID: cfg.CameraID,
		Mirror:   cfg.Mirror,
	})
	return capture.NewDetectorSource(camera, det), store.SourceCamera, nil
}

func detectorConfig(cfg config.Config) detector.Config {
	dc := detector.DefaultConfig()
	dc.MaxHands = cfg.MaxHands
	dc.MinConfidence = cfg.MinConfidence
	dc.ScriptPath = cfg.MediaPipeScript
	dc.PythonPath = cfg.Python
	return dc
}

// listSessions prints one line per recorded session, newest first.
func listSessions(w io.Writer, st *store.Store) error {
	sessions, err := st.Sessions().List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tSTARTED\tFRAMES\tDESTINATION")
	for _, s := range sessions {
		frames := fmt.Sprint(s.Frames)
		if s.EndedAt == nil {
			frames = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s:%d\n",
			s.ID, s.Source, s.StartedAt.Format(time.DateTime), frames, s.Host, s.Port)
	}
	return tw.Flush()
}

// writeReport logs a summary of the session and plots it into dir.
func writeReport(st *store.Store, sessionID, dir string, log logrus.FieldLogger) error {
	frames, err := st.Frames().BySession(sessionID)
	if err != nil {
		return err
	}

	summary, err := report.Summarize(frames)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"session":  sessionID,
		"frames":   summary.Frames,
		"rotate":   summary.RotateFrames,
		"glue":     summary.GlueFrames,
		"grab":     summary.GrabFrames,
		"jitter_x": summary.X.Jitter,
		"jitter_y": summary.Y.Jitter,
		"jitter_z": summary.Z.Jitter,
	}).Info("session summary")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	paths, err := report.PlotSession(frames, dir, "session-"+shortID(sessionID))
	if err != nil {
		return err
	}
	log.WithField("files", paths).Info("session plots written")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
