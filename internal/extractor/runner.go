// Package extractor runs the external media extractor (yt-dlp) and turns its
// line-oriented output into progress events.
package extractor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"videotranscriber/internal/metrics"
	"videotranscriber/internal/model"
	"videotranscriber/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBinary    = "yt-dlp"
	DefaultTimeout   = 30 * time.Second
	DefaultMaxOutput = 10 << 20
	DefaultKillGrace = 5 * time.Second

	stderrTailBytes = 64 << 10
	maxLineBytes    = 1 << 20
)

// Pipe names carried by Line.
const (
	Stdout = "stdout"
	Stderr = "stderr"
)

// Line is one line of stream-mode output.
type Line struct {
	Pipe string
	Text string
}

// Runner launches the extractor binary. Arguments are always passed as a
// vector; no shell is involved.
type Runner struct {
	binary    string
	timeout   time.Duration
	maxOutput int
	killGrace time.Duration
}

// NewRunner creates a runner from configuration, applying defaults for unset values.
func NewRunner(cfg *model.ExtractorConfig) *Runner {
	r := &Runner{
		binary:    cfg.Binary,
		timeout:   time.Duration(cfg.Timeout) * time.Second,
		maxOutput: cfg.MaxOutputMB << 20,
		killGrace: time.Duration(cfg.KillGrace) * time.Second,
	}
	if r.binary == "" {
		r.binary = DefaultBinary
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.maxOutput <= 0 {
		r.maxOutput = DefaultMaxOutput
	}
	if r.killGrace <= 0 {
		r.killGrace = DefaultKillGrace
	}
	return r
}

// Binary returns the extractor executable name or path.
func (r *Runner) Binary() string {
	return r.binary
}

// Collect runs the extractor to completion and returns its standard output.
// The run is bounded by the runner's timeout and output cap.
func (r *Runner) Collect(ctx context.Context, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stdout := &boundedBuffer{limit: r.maxOutput, onOverflow: cancel}
	stderr := &tailBuffer{limit: stderrTailBytes}

	cmd, stopEscalation := r.command(ctx, args)
	defer stopEscalation()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	err := cmd.Run()

	switch {
	case stdout.Overflowed():
		metrics.IncExtractorRun("collect", "overflow")
		return "", &Error{Stderr: stderr.String(), Err: fmt.Errorf("%w (%d bytes)", ErrOutputTooLarge, r.maxOutput)}
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		metrics.IncExtractorRun("collect", "timeout")
		return "", &Error{Stderr: stderr.String(), Err: fmt.Errorf("%w after %s", ErrTimeout, r.timeout)}
	case errors.Is(ctx.Err(), context.Canceled):
		metrics.IncExtractorRun("collect", "cancelled")
		return "", &Error{Err: ctx.Err()}
	case err != nil:
		metrics.IncExtractorRun("collect", "error")
		logger.Logger.Warn("Extractor failed",
			zap.String("mode", "collect"),
			zap.Error(err),
			zap.Duration("elapsed", time.Since(started)))
		return "", &Error{Stderr: stderr.String(), Err: err}
	}

	metrics.IncExtractorRun("collect", "ok")
	logger.Logger.Debug("Extractor finished",
		zap.String("mode", "collect"),
		zap.Int("stdout_bytes", stdout.Len()),
		zap.Duration("elapsed", time.Since(started)))
	return stdout.String(), nil
}

// Stream runs the extractor without a timeout and sends every non-empty line
// of both output pipes to lines. Lines of one pipe arrive in order. The run
// ends when the process exits or ctx is cancelled; cancellation terminates the
// whole process group. Stream does not close lines.
func (r *Runner) Stream(ctx context.Context, args []string, lines chan<- Line) error {
	cmd, stopEscalation := r.command(ctx, args)
	defer stopEscalation()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &Error{Err: fmt.Errorf("failed to create stdout pipe: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &Error{Err: fmt.Errorf("failed to create stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		metrics.IncExtractorRun("stream", "spawn_error")
		return &Error{Err: fmt.Errorf("failed to start %s: %w", r.binary, err)}
	}
	logger.Logger.Debug("Extractor started", zap.String("mode", "stream"), zap.Int("pid", cmd.Process.Pid))

	diag := &diagnostic{}
	var g errgroup.Group
	g.Go(func() error { return pump(ctx, stdout, Stdout, lines, nil) })
	g.Go(func() error { return pump(ctx, stderr, Stderr, lines, diag) })
	readErr := g.Wait()
	waitErr := cmd.Wait()

	switch {
	case ctx.Err() != nil:
		metrics.IncExtractorRun("stream", "cancelled")
		return &Error{Err: ctx.Err()}
	case waitErr != nil:
		metrics.IncExtractorRun("stream", "error")
		return &Error{Stderr: diag.String(), Err: waitErr}
	case readErr != nil:
		metrics.IncExtractorRun("stream", "error")
		return &Error{Err: fmt.Errorf("reading extractor output: %w", readErr)}
	}
	metrics.IncExtractorRun("stream", "ok")
	return nil
}

// command builds the process in its own group. Cancelling ctx sends SIGTERM to
// the group and SIGKILL after the grace period; the returned func disarms the
// SIGKILL once the caller has reaped the process.
func (r *Runner) command(ctx context.Context, args []string) (*exec.Cmd, func()) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	setProcessGroup(cmd)

	var (
		mu       sync.Mutex
		escalate *time.Timer
	)
	cmd.Cancel = func() error {
		err := terminateGroup(cmd)
		mu.Lock()
		escalate = time.AfterFunc(r.killGrace, func() { _ = killGroup(cmd) })
		mu.Unlock()
		return err
	}
	cmd.WaitDelay = 2 * r.killGrace

	return cmd, func() {
		mu.Lock()
		defer mu.Unlock()
		if escalate != nil {
			escalate.Stop()
		}
	}
}

func pump(ctx context.Context, r io.Reader, pipe string, lines chan<- Line, diag *diagnostic) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	scanner.Split(scanLinesOrCR)

	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if diag != nil {
			diag.observe(text)
		}
		select {
		case lines <- Line{Pipe: pipe, Text: text}:
		case <-ctx.Done():
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		// Keep the pipe flowing so the extractor never blocks on a full buffer.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

// scanLinesOrCR splits on \n or \r so carriage-return progress redraws
// become separate lines.
func scanLinesOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// diagnostic remembers the extractor's error lines for the failure message.
type diagnostic struct {
	mu     sync.Mutex
	errors []string
	last   string
}

func (d *diagnostic) observe(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = line
	if strings.HasPrefix(line, "ERROR") {
		d.errors = append(d.errors, line)
	}
}

func (d *diagnostic) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.errors) > 0 {
		return strings.Join(d.errors, "\n")
	}
	return d.last
}

// boundedBuffer fails writes past limit and reports the overflow once.
type boundedBuffer struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	limit      int
	overflowed bool
	onOverflow func()
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.overflowed {
		return 0, ErrOutputTooLarge
	}
	if room := b.limit - b.buf.Len(); len(p) > room {
		b.buf.Write(p[:room])
		b.overflowed = true
		if b.onOverflow != nil {
			b.onOverflow()
		}
		return room, ErrOutputTooLarge
	}
	return b.buf.Write(p)
}

func (b *boundedBuffer) Overflowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overflowed
}

func (b *boundedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
