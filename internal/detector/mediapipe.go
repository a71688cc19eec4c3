package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	// ErrScriptNotFound is returned when the MediaPipe helper script cannot be located.
	ErrScriptNotFound = errors.New("mediapipe_service.py not found")
	// ErrServiceNotReady is returned when the helper exits or answers
	// something else before announcing it is ready.
	ErrServiceNotReady = errors.New("mediapipe service not ready")
)

// scriptName is the helper's file name under scripts/.
const scriptName = "mediapipe_service.py"

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Wire protocol: once its model is loaded the child prints {"ready":true}.
// Each frame is then written to its stdin as a 4-byte big-endian length
// followed by JPEG bytes; the child answers with one JSON line
// {"hands":[{"points":[...],"handedness":"Left","score":0.9}]}.
//
// If the child dies, the failing Detect returns an error and the next one
// starts a new child.
type MediaPipeDetector struct {
	config Config
	script string
	python string
	log    logrus.FieldLogger

	mu   sync.Mutex
	proc *serviceProcess
}

// serviceProcess is one running helper.
type serviceProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewMediaPipeDetector locates the helper script and interpreter. The Python
// process is started by Start, or by the first Detect if Start was not called.
func NewMediaPipeDetector(config Config, log logrus.FieldLogger) (*MediaPipeDetector, error) {
	script := config.ScriptPath
	if script == "" {
		script = firstExisting(searchPaths(filepath.Join("scripts", scriptName)))
	}
	if script == "" {
		return nil, ErrScriptNotFound
	}

	python := config.PythonPath
	if python == "" {
		python = firstExisting(searchPaths(filepath.Join("venv", "bin", "python")))
	}
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		log:    log.WithField("component", "mediapipe"),
	}, nil
}

// Detect sends one frame to the helper and returns the hands it found.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc == nil {
		if d.proc, err = d.start(); err != nil {
			return nil, err
		}
	}

	if err := writeFrame(d.proc.stdin, buf.GetBytes()); err != nil {
		d.restart(err)
		return nil, err
	}
	line, err := d.proc.stdout.ReadBytes('\n')
	if err != nil {
		d.restart(err)
		return nil, fmt.Errorf("read response: %w", err)
	}

	return decodeResponse(line, d.log)
}

// Start launches the helper and waits until it reports ready. A helper that
// is already running is left alone.
func (d *MediaPipeDetector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc != nil {
		return nil
	}
	proc, err := d.start()
	if err != nil {
		return err
	}
	d.proc = proc
	return nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc == nil {
		return nil
	}
	err := d.proc.stop()
	d.proc = nil
	return err
}

func (d *MediaPipeDetector) start() (*serviceProcess, error) {
	cmd := exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mediapipe service: %w", err)
	}

	p := &serviceProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}
	if err := p.awaitReady(d.config.ReadyTimeout); err != nil {
		p.cmd.Process.Kill()
		p.stop()
		return nil, err
	}

	d.log.WithFields(logrus.Fields{
		"python":    d.python,
		"script":    d.script,
		"max_hands": d.config.MaxHands,
		"pid":       cmd.Process.Pid,
	}).Info("mediapipe service started")

	return p, nil
}

// restart drops a broken helper so the next Detect starts a fresh one.
func (d *MediaPipeDetector) restart(cause error) {
	d.log.WithError(cause).Warn("mediapipe service failed, will restart")
	if err := d.proc.stop(); err != nil {
		d.log.WithError(err).Debug("mediapipe service exit")
	}
	d.proc = nil
}

// awaitReady reads the helper's first line. A zero timeout waits forever.
func (p *serviceProcess) awaitReady(timeout time.Duration) error {
	type result struct {
		line []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.stdout.ReadBytes('\n')
		ch <- result{line, err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	var r result
	select {
	case r = <-ch:
	case <-expired:
		return fmt.Errorf("%w: no answer within %v", ErrServiceNotReady, timeout)
	}
	if r.err != nil {
		return fmt.Errorf("%w: %v", ErrServiceNotReady, r.err)
	}

	var hello struct {
		Ready bool `json:"ready"`
	}
	if err := json.Unmarshal(r.line, &hello); err != nil || !hello.Ready {
		return fmt.Errorf("%w: unexpected greeting %q", ErrServiceNotReady, r.line)
	}
	return nil
}

func (p *serviceProcess) stop() error {
	p.stdin.Close()
	return p.cmd.Wait()
}

// writeFrame writes one length-prefixed frame.
func writeFrame(w io.Writer, data []byte) error {
	msg := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(msg, uint32(len(data)))
	copy(msg[4:], data)

	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// jsonHand represents one hand in the service's response.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// decodeResponse parses one JSON line from the service. Malformed hands are
// logged and dropped; the others are kept.
func decodeResponse(line []byte, log logrus.FieldLogger) ([]HandLandmarks, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hands := make([]HandLandmarks, 0, len(response.Hands))
	for i, h := range response.Hands {
		lm, err := FromPoints(h.Handedness, h.Score, h.Points)
		if err != nil {
			log.WithError(err).WithField("hand", i).Debug("dropping hand")
			continue
		}
		hands = append(hands, lm)
	}

	return hands, nil
}

// searchPaths lists where rel may live: the working directory and its
// parents, next to the executable, and under ~/.handctl.
func searchPaths(rel string) []string {
	paths := []string{
		rel,
		filepath.Join("..", rel),
		filepath.Join("..", "..", rel),
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".handctl", rel))
	}
	return paths
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}
