package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHCL = `
target "gateway" {
  type             = "icmp"
  host             = "192.0.2.1"
  interval_seconds = 10
  timeout_ms       = 1000
}

target "website" {
  type             = "http"
  url              = "https://example.com/health"
  interval_seconds = 60
  timeout_ms       = 2000
  enabled          = false
}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.hcl")
	require.NoError(t, os.WriteFile(path, []byte(sampleHCL), 0o644))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--targets", path))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "gateway")
	assert.Contains(t, out, "https://example.com/health")
	assert.Contains(t, out, "2 targets OK")
}

func TestSync_ReportsInserts(t *testing.T) {
	out, err := execute(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted  2 gateway,website")
	assert.Contains(t, out, "disabled  0")
}

func TestValidate_MissingFile(t *testing.T) {
	rootCmd.SetArgs([]string{"validate", "--targets", filepath.Join(t.TempDir(), "nope.yaml")})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read targets file")
}
