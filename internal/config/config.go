package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr          string        // API bind address, e.g., "127.0.0.1:8080" (Windows) or ":8080" (Docker)
	LogDir        string        // logs directory
	LogLevel      string        // debug|info|warn|error
	DatabaseURL   string        // postgres://..., sqlite://path or empty for in-memory
	TargetsPath   string        // YAML or HCL target definitions
	ICMPMode      string        // "exec" (system ping) or "native" (raw/udp socket)
	ICMPPrivilege bool          // native mode only: use raw sockets
	ShutdownGrace time.Duration // how long loops get to unwind after a signal

	PublicRPM   int
	PublicBurst int

	SlackWebhook    string
	HealthPoll      time.Duration
	AlertCooldown   time.Duration
	AlertOnRecovery bool
}

func FromEnv() Config {
	// Bind address (Windows-friendly default)
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	targets := os.Getenv("TARGETS_PATH")
	if targets == "" {
		targets = "targets.yaml"
	}

	icmpMode := strings.ToLower(strings.TrimSpace(os.Getenv("ICMP_MODE")))
	if icmpMode != "native" {
		icmpMode = "exec"
	}

	return Config{
		Addr:            addr,
		LogDir:          logDir,
		LogLevel:        envString("LOG_LEVEL", "info"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TargetsPath:     targets,
		ICMPMode:        icmpMode,
		ICMPPrivilege:   envBool("ICMP_PRIVILEGED", false),
		ShutdownGrace:   envMillis("SHUTDOWN_GRACE_MS", 5*time.Second),
		PublicRPM:       envInt("PUBLIC_RPM", 600),
		PublicBurst:     envInt("PUBLIC_BURST", 100),
		SlackWebhook:    strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL")),
		HealthPoll:      envMillis("HEALTH_POLL_MS", 30*time.Second),
		AlertCooldown:   envMillis("ALERT_COOLDOWN_MS", 10*time.Minute),
		AlertOnRecovery: envBool("ALERT_ON_RECOVERY", true),
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
