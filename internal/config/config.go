// Package config holds the start-up configuration of the controller. Values
// come from defaults, then HANDCTL_* environment variables, then flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/ayusman/handctl/internal/smoothing"
)

// Defaults.
const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 5052
	DefaultAlpha         = smoothing.DefaultAlpha
	DefaultMinConfidence = 0.7
	DefaultCameraID      = 0
	// MaxHands is fixed; the pipeline only has a left and a right slot.
	MaxHands = 2
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is read once at start-up and not changed afterwards.
type Config struct {
	// Host and Port address the consumer of control frames.
	Host string
	Port int

	// Alpha is the smoothing factor for all three axes.
	Alpha float64

	MaxHands      int
	MinConfidence float64

	// MediaPipeScript and Python override where the detector helper and
	// its interpreter are found. Empty means search the usual places.
	MediaPipeScript string
	Python          string

	CameraID int
	// Mirror flips camera frames horizontally before detection.
	Mirror bool

	// Preview opens a window with the camera image and gesture overlay.
	Preview bool
	// Tray shows a system tray menu.
	Tray bool

	// RecordDB, when set, records every session to this SQLite file.
	RecordDB string
	// Replay, when set, feeds a recorded session from RecordDB instead of the camera.
	Replay string
	// ListSessions prints the sessions in RecordDB and exits.
	ListSessions bool
	// PlotDir, when set, receives plots of the recorded session on exit.
	PlotDir string

	LogLevel  string
	LogFormat string

	// SentryDSN, when set, reports fatal errors and frame loop panics.
	SentryDSN string
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		Alpha:         DefaultAlpha,
		MaxHands:      MaxHands,
		MinConfidence: DefaultMinConfidence,
		CameraID:      DefaultCameraID,
		Mirror:        true,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load builds a Config from defaults, the environment and args.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("handctl", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

// LoadFromOS is Load with os.Args and os.Getenv.
func LoadFromOS() (Config, error) {
	return Load(os.Args[1:], os.Getenv)
}

// RegisterFlags binds the fields to fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "destination host for control frames")
	fs.IntVar(&c.Port, "port", c.Port, "destination UDP port for control frames")
	fs.Float64Var(&c.Alpha, "alpha", c.Alpha, "smoothing factor in (0, 1]; higher follows the hand more closely")
	fs.Float64Var(&c.MinConfidence, "min-confidence", c.MinConfidence, "minimum hand detection confidence")
	fs.StringVar(&c.MediaPipeScript, "mediapipe-script", c.MediaPipeScript, "path to mediapipe_service.py")
	fs.StringVar(&c.Python, "python", c.Python, "Python interpreter for the MediaPipe helper")
	fs.IntVar(&c.CameraID, "camera", c.CameraID, "camera device ID")
	fs.BoolVar(&c.Mirror, "mirror", c.Mirror, "mirror camera frames horizontally")
	fs.BoolVar(&c.Preview, "preview", c.Preview, "show a preview window (Esc quits)")
	fs.BoolVar(&c.Tray, "tray", c.Tray, "show a system tray menu")
	fs.StringVar(&c.RecordDB, "record", c.RecordDB, "record sessions to this SQLite database")
	fs.StringVar(&c.Replay, "replay", c.Replay, "replay a recorded session ID from the -record database")
	fs.BoolVar(&c.ListSessions, "sessions", c.ListSessions, "list sessions in the -record database and exit")
	fs.StringVar(&c.PlotDir, "plot", c.PlotDir, "write plots of the recorded session to this directory on exit")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text or json")
	fs.StringVar(&c.SentryDSN, "sentry-dsn", c.SentryDSN, "Sentry DSN for crash reports")
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("HANDCTL_HOST"); v != "" {
		c.Host = v
	}
	if v := getenv("HANDCTL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HANDCTL_PORT=%q", ErrInvalid, v)
		}
		c.Port = port
	}
	if v := getenv("HANDCTL_ALPHA"); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: HANDCTL_ALPHA=%q", ErrInvalid, v)
		}
		c.Alpha = alpha
	}
	if v := getenv("HANDCTL_CAMERA"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HANDCTL_CAMERA=%q", ErrInvalid, v)
		}
		c.CameraID = id
	}
	if v := getenv("HANDCTL_MEDIAPIPE_SCRIPT"); v != "" {
		c.MediaPipeScript = v
	}
	if v := getenv("HANDCTL_PYTHON"); v != "" {
		c.Python = v
	}
	if v := getenv("HANDCTL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("HANDCTL_SENTRY_DSN"); v != "" {
		c.SentryDSN = v
	}
	return nil
}

// Validate checks ranges and combinations.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalid)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalid, c.Port)
	}
	if _, err := smoothing.New(c.Alpha); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.MaxHands != MaxHands {
		return fmt.Errorf("%w: max hands is fixed at %d", ErrInvalid, MaxHands)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("%w: min confidence %v out of [0, 1]", ErrInvalid, c.MinConfidence)
	}
	if c.Replay != "" && c.RecordDB == "" {
		return fmt.Errorf("%w: -replay needs -record to name the database", ErrInvalid)
	}
	if c.ListSessions && c.RecordDB == "" {
		return fmt.Errorf("%w: -sessions needs -record to name the database", ErrInvalid)
	}
	if c.PlotDir != "" && c.RecordDB == "" {
		return fmt.Errorf("%w: -plot needs -record to have a session to plot", ErrInvalid)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
