package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// NativePinger sends the echo request from this process. Unprivileged mode uses
// ICMP datagram sockets (needs net.ipv4.ping_group_range); privileged mode uses raw sockets.
type NativePinger struct {
	Privileged bool
}

func NewNativePinger(privileged bool) *NativePinger {
	return &NativePinger{Privileged: privileged}
}

func (p *NativePinger) Check(ctx context.Context, host string, timeout time.Duration) CheckResult {
	secs := DeadlineSeconds(timeout)

	pinger, err := probing.NewPinger(host)
	if err != nil {
		return failed(fmt.Sprintf("resolve %s: %v", host, err))
	}
	pinger.Count = 1
	pinger.Timeout = time.Duration(secs) * time.Second
	pinger.SetPrivileged(p.Privileged)

	start := time.Now()
	if err := pinger.RunWithContext(ctx); err != nil {
		if isPermissionError(err) {
			return failed("icmp unavailable: " + err.Error())
		}
		return failed(err.Error())
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return failed(fmt.Sprintf("no reply from %s within %ds", host, secs))
	}
	rtt := stats.AvgRtt
	if rtt <= 0 {
		rtt = time.Since(start)
	}
	return succeeded(int(rtt.Milliseconds()), nil)
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) ||
		errors.Is(err, syscall.EACCES) || strings.Contains(err.Error(), "operation not permitted")
}
