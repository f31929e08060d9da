package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

const yamlTargets = `
targets:
  - name: gateway
    type: icmp
    host: 10.0.0.1
    interval_seconds: 10
    timeout_ms: 1000
  - name: website
    type: http
    url: https://example.com/health
    interval_seconds: 30
    timeout_ms: 2500
    enabled: false
`

const hclTargets = `
target "gateway" {
  type             = "icmp"
  host             = "10.0.0.1"
  interval_seconds = 10
  timeout_ms       = 1000
}

target "website" {
  type             = "http"
  url              = "https://example.com/health"
  interval_seconds = 30
  timeout_ms       = 2500
  enabled          = false
}
`

func TestParseTargets_YAMLAndHCLAgree(t *testing.T) {
	want := []domain.TargetSpec{
		{Name: "gateway", Kind: domain.KindICMP, Host: "10.0.0.1", IntervalSeconds: 10, TimeoutMS: 1000, Enabled: true},
		{Name: "website", Kind: domain.KindHTTP, URL: "https://example.com/health", IntervalSeconds: 30, TimeoutMS: 2500, Enabled: false},
	}

	fromYAML, err := ParseTargets([]byte(yamlTargets), "yaml")
	require.NoError(t, err)
	assert.Equal(t, want, fromYAML)

	fromHCL, err := ParseTargets([]byte(hclTargets), "hcl")
	require.NoError(t, err)
	assert.Equal(t, want, fromHCL)
}

func TestLoadTargets_PicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "targets.hcl")
	require.NoError(t, os.WriteFile(p, []byte(hclTargets), 0o600))

	specs, err := LoadTargets(p)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "gateway", specs[0].Name)

	_, err = LoadTargets(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestValidateTargets_ReportsEveryProblem(t *testing.T) {
	items := []TargetConfig{
		{Name: "", Type: "icmp", Host: "h", IntervalSeconds: 1, TimeoutMS: 1},
		{Name: "a", Type: "icmp", Host: "h", IntervalSeconds: 1, TimeoutMS: 1},
		{Name: "a", Type: "icmp", Host: "h", IntervalSeconds: 1, TimeoutMS: 1},
		{Name: "b", Type: "icmp", URL: "https://x", IntervalSeconds: 1, TimeoutMS: 1},
		{Name: "c", Type: "http", Host: "h", IntervalSeconds: 1, TimeoutMS: 1},
		{Name: "d", Type: "http", URL: "ftp://bad", IntervalSeconds: 1, TimeoutMS: 1},
		{Name: "e", Type: "tcp", Host: "h", IntervalSeconds: 1, TimeoutMS: 1},
		{Name: "f", Type: "icmp", Host: "h", IntervalSeconds: 0, TimeoutMS: 1},
		{Name: "g", Type: "icmp", Host: "h", IntervalSeconds: 1, TimeoutMS: 0},
	}

	specs, err := ValidateTargets(items)
	require.Error(t, err)
	assert.Nil(t, specs)

	msg := err.Error()
	for _, frag := range []string{
		"targets[0]: name is required",
		"duplicate name",
		"(b): type icmp",
		"(c): type http requires url",
		"(d): url",
		"(e): type must be icmp or http",
		"(f): interval_seconds",
		"(g): timeout_ms",
	} {
		assert.Truef(t, strings.Contains(msg, frag), "missing %q in %q", frag, msg)
	}
}

func TestValidateTargets_EnabledDefaultsTrue(t *testing.T) {
	specs, err := ValidateTargets([]TargetConfig{{Name: "x", Type: "ICMP", Host: " h ", IntervalSeconds: 1, TimeoutMS: 1}})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.True(t, specs[0].Enabled)
	assert.Equal(t, domain.KindICMP, specs[0].Kind)
	assert.Equal(t, "h", specs[0].Host)
}
