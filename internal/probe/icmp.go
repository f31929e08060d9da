package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var pingTimeRE = regexp.MustCompile(`time[=<]([\d.]+)\s*ms`)

// execGrace is the extra time a ping process gets past its own -W deadline.
const execGrace = time.Second

// CommandRunner runs name with args. exitCode is meaningful only when err is nil;
// err reports a failure to run the command at all.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int, err error)

// ExecPinger probes with the system ping binary (iputils flags).
// It needs CAP_NET_RAW or a setuid ping in the runtime image.
type ExecPinger struct {
	Binary string
	Run    CommandRunner
}

func NewExecPinger() *ExecPinger {
	return &ExecPinger{Binary: "ping", Run: runCommand}
}

func (p *ExecPinger) Check(ctx context.Context, host string, timeout time.Duration) CheckResult {
	secs := DeadlineSeconds(timeout)
	cctx, cancel := context.WithTimeout(ctx, time.Duration(secs)*time.Second+execGrace)
	defer cancel()

	start := time.Now()
	stdout, stderr, code, err := p.Run(cctx, p.Binary, "-n", "-c", "1", "-W", strconv.Itoa(secs), host)
	elapsed := int(time.Since(start).Milliseconds())

	switch {
	case errors.Is(err, exec.ErrNotFound):
		return failed(fmt.Sprintf("icmp unavailable: %s not found in PATH", p.Binary))
	case errors.Is(err, context.DeadlineExceeded):
		return failed("timeout")
	case err != nil:
		return failed("icmp unavailable: " + err.Error())
	}

	if code != 0 {
		return failed(pingDiagnostic(stdout, stderr, code))
	}
	if ms, ok := ParseRTT(string(stdout)); ok {
		return succeeded(ms, nil)
	}
	return succeeded(elapsed, nil)
}

// ParseRTT extracts the reply time from ping output, floored to whole milliseconds.
func ParseRTT(out string) (int, bool) {
	m := pingTimeRE.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int(math.Floor(f)), true
}

// pingDiagnostic is the first non-blank line of stderr, else of stdout.
func pingDiagnostic(stdout, stderr []byte, code int) string {
	if line := firstLine(stderr); line != "" {
		return line
	}
	if line := firstLine(stdout); line != "" {
		return line
	}
	return fmt.Sprintf("ping failed rc=%d", code)
}

func firstLine(b []byte) string {
	for _, line := range strings.Split(string(b), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 500 * time.Millisecond

	err := cmd.Run()
	if ctx.Err() != nil {
		return stdout.Bytes(), stderr.Bytes(), -1, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return nil, nil, -1, err
	}
	return stdout.Bytes(), stderr.Bytes(), 0, nil
}
