// Package process runs shell commands inside a pseudo-terminal and resolves
// each run to exactly one terminal State.
//
// A run ends through one of three competing sources: natural exit, the
// inactivity timer (reset on every output chunk) or the total timer. A single
// select loop owns all three, so whichever fires first commits the Outcome and
// the loop's deferred cleanup stops the others before Execute returns.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"mcp-bridge/internal/util"
)

const (
	DefaultShell = "bash"

	termName = "xterm-color"
	termCols = 80
	termRows = 30

	readBufferSize = 4096
	// exitDrainTimeout bounds how long output is still collected after the
	// shell exits. Background children can keep the terminal open forever.
	exitDrainTimeout = 250 * time.Millisecond
)

// Request describes one command run.
type Request struct {
	Command      string
	Cwd          string
	StreamOutput bool
	// InactiveTimeout <= 0 disables the inactivity timer.
	InactiveTimeout time.Duration
	// TotalTimeout <= 0 disables the total timer.
	TotalTimeout time.Duration
}

// Supervisor spawns commands through a shell under a pty.
type Supervisor struct {
	shell  string
	sink   func(chunk string)
	logger *zap.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithShell overrides the shell used to run commands.
func WithShell(shell string) Option {
	return func(s *Supervisor) {
		if strings.TrimSpace(shell) != "" {
			s.shell = shell
		}
	}
}

// WithSink mirrors raw output chunks to fn when a request streams output.
func WithSink(fn func(chunk string)) Option {
	return func(s *Supervisor) { s.sink = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSupervisor constructs a Supervisor.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{shell: DefaultShell, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs req.Command and blocks until it exits, times out, or ctx is
// done. Process failures are reported through the Outcome, never as errors.
func (s *Supervisor) Execute(ctx context.Context, req Request) Outcome {
	cmd := exec.Command(s.shell, "-c", req.Command)
	cmd.Dir = req.Cwd
	cmd.Env = append(os.Environ(), "TERM="+termName)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: termRows, Cols: termCols})
	if err != nil {
		return Outcome{State: StateFail, ExitCode: -1, Error: fmt.Sprintf("failed to spawn command: %v", err)}
	}
	defer ptmx.Close()

	stop := make(chan struct{})
	defer close(stop)

	chunks := make(chan []byte)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		buf := make([]byte, readBufferSize)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case chunks <- chunk:
				case <-stop:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var inactiveC <-chan time.Time
	var inactive *time.Timer
	if req.InactiveTimeout > 0 {
		inactive = time.NewTimer(req.InactiveTimeout)
		defer inactive.Stop()
		inactiveC = inactive.C
	}
	var totalC <-chan time.Time
	if req.TotalTimeout > 0 {
		total := time.NewTimer(req.TotalTimeout)
		defer total.Stop()
		totalC = total.C
	}

	var output strings.Builder
	capture := func(chunk []byte) {
		output.Write(chunk)
		if req.StreamOutput && s.sink != nil {
			s.sink(string(chunk))
		}
	}
	terminate := func(state State, diag string) Outcome {
		if err := kill(cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("failed to kill command", zap.Int("pid", cmd.Process.Pid), zap.Error(err))
		}
		s.logger.Debug("command killed", zap.Stringer("state", state), zap.Int("pid", cmd.Process.Pid))
		return Outcome{Output: util.StripANSI(output.String()), State: state, Error: diag, ExitCode: -1}
	}

	for {
		select {
		case chunk := <-chunks:
			capture(chunk)
			if inactive != nil {
				inactive.Reset(req.InactiveTimeout)
			}
		case <-inactiveC:
			return terminate(StateTimeoutInactive, InactivityTimeoutMessage)
		case <-totalC:
			return terminate(StateTimeoutTotal, TotalTimeoutMessage)
		case <-ctx.Done():
			return terminate(StateFail, fmt.Sprintf("Command cancelled: %v", context.Cause(ctx)))
		case waitErr := <-waitCh:
			drain(chunks, readDone, capture)
			code := exitCode(waitErr)
			state := StateNormal
			if code != 0 {
				state = StateFail
			}
			return Outcome{Output: util.StripANSI(output.String()), State: state, ExitCode: code}
		}
	}
}

// drain collects output still buffered in the terminal after the shell exits.
func drain(chunks <-chan []byte, readDone <-chan struct{}, capture func([]byte)) {
	deadline := time.NewTimer(exitDrainTimeout)
	defer deadline.Stop()
	for {
		select {
		case chunk := <-chunks:
			capture(chunk)
		case <-readDone:
			return
		case <-deadline.C:
			return
		}
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code != 0 {
			return code
		}
	}
	return -1
}
