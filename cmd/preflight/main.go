// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/config"
	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/probe"
	"github.com/hamed0406/uptimemonitor/internal/repo/stores"
)

type report struct {
	out, errOut io.Writer
	failed      bool
}

func (r *report) fail(msg string) {
	fmt.Fprintln(r.errOut, "✖", msg)
	r.failed = true
}
func (r *report) warn(msg string) { fmt.Fprintln(r.errOut, "⚠", msg) }
func (r *report) ok(msg string)   { fmt.Fprintln(r.out, "✔", msg) }

func main() {
	r := &report{out: os.Stdout, errOut: os.Stderr}
	preflight(context.Background(), config.FromEnv(), r, net.DefaultResolver)
	if r.failed {
		os.Exit(1)
	}
	r.ok("preflight passed")
}

func preflight(ctx context.Context, cfg config.Config, r *report, res *net.Resolver) {
	checkEnv(cfg, r)

	specs, err := config.LoadTargets(cfg.TargetsPath)
	if err != nil {
		r.fail(fmt.Sprintf("targets file %s: %v", cfg.TargetsPath, err))
		return
	}
	r.ok(fmt.Sprintf("%s: %d targets valid", cfg.TargetsPath, len(specs)))
	checkDNS(ctx, specs, r, res)
}

func checkEnv(cfg config.Config, r *report) {
	if strings.TrimSpace(cfg.Addr) == "" {
		r.warn("API_ADDR is empty; the API will not know where to listen.")
	} else {
		r.ok("API_ADDR=" + cfg.Addr)
	}

	switch stores.Kind(cfg.DatabaseURL) {
	case "memory":
		r.warn("DATABASE_URL empty; results live in memory and are lost on restart.")
	case "":
		r.fail("DATABASE_URL has an unsupported scheme (want postgres://, postgresql://, sqlite:// or file:).")
	default:
		r.ok("DATABASE_URL present (" + stores.Kind(cfg.DatabaseURL) + ")")
	}

	if cfg.ICMPMode == "exec" {
		if _, err := exec.LookPath("ping"); err != nil {
			r.warn("ICMP_MODE=exec but no ping binary in PATH; icmp targets will record failures.")
		} else {
			r.ok("ICMP_MODE=exec (ping found)")
		}
	} else {
		r.ok(fmt.Sprintf("ICMP_MODE=native (privileged=%t)", cfg.ICMPPrivilege))
	}

	if cfg.SlackWebhook == "" {
		r.warn("SLACK_WEBHOOK_URL empty; freshness alerts go to the log only.")
	} else {
		r.ok("SLACK_WEBHOOK_URL present")
	}
	if cfg.PublicRPM == 0 {
		r.warn("PUBLIC_RPM=0; query API rate limiting is disabled.")
	}
}

// checkDNS resolves every target host. Names that do not resolve only warn:
// the poller still records their failures.
func checkDNS(ctx context.Context, specs []domain.TargetSpec, r *report, res *net.Resolver) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, s := range specs {
		if !s.Enabled {
			continue
		}
		st := probe.CheckDNS(ctx, res, probe.HostOf(s.Address()))
		if st.Resolvable() {
			r.ok(fmt.Sprintf("%s: %s %s", s.Name, st.Host, st.Class))
			continue
		}
		msg := fmt.Sprintf("%s: %s does not resolve (%s)", s.Name, st.Host, st.Class)
		if st.ResolverError != "" {
			msg += ": " + st.ResolverError
		}
		r.warn(msg)
	}
}
