package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

// TargetConfig is one entry of the targets file.
//
// YAML:
//
//	targets:
//	  - name: gateway
//	    type: icmp
//	    host: 10.0.0.1
//	    interval_seconds: 10
//	    timeout_ms: 1000
//
// HCL:
//
//	target "gateway" {
//	  type             = "icmp"
//	  host             = "10.0.0.1"
//	  interval_seconds = 10
//	  timeout_ms       = 1000
//	}
type TargetConfig struct {
	Name            string `yaml:"name" hcl:",key"`
	Type            string `yaml:"type" hcl:"type"`
	Host            string `yaml:"host" hcl:"host"`
	URL             string `yaml:"url" hcl:"url"`
	IntervalSeconds int    `yaml:"interval_seconds" hcl:"interval_seconds"`
	TimeoutMS       int    `yaml:"timeout_ms" hcl:"timeout_ms"`
	Enabled         *bool  `yaml:"enabled" hcl:"enabled"`
}

type targetsFile struct {
	Targets []TargetConfig `yaml:"targets" hcl:"target"`
}

// LoadTargets reads and validates the targets file. The order of the file is kept.
func LoadTargets(path string) ([]domain.TargetSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	return ParseTargets(raw, formatFor(path))
}

// ParseTargets decodes raw as "yaml" or "hcl" and validates every entry.
func ParseTargets(raw []byte, format string) ([]domain.TargetSpec, error) {
	var f targetsFile
	switch format {
	case "hcl":
		if err := hcl.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse hcl targets: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("parse yaml targets: %w", err)
		}
	}
	return ValidateTargets(f.Targets)
}

// ValidateTargets converts entries to specs. All problems are reported together.
func ValidateTargets(items []TargetConfig) ([]domain.TargetSpec, error) {
	var errs error
	seen := make(map[string]int, len(items))
	out := make([]domain.TargetSpec, 0, len(items))

	for i, it := range items {
		name := strings.TrimSpace(it.Name)
		where := fmt.Sprintf("targets[%d]", i)
		if name == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: name is required", where))
			continue
		}
		where = fmt.Sprintf("%s (%s)", where, name)
		if prev, dup := seen[name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: duplicate name, first defined at targets[%d]", where, prev))
			continue
		}
		seen[name] = i

		spec := domain.TargetSpec{
			Name:            name,
			Kind:            domain.Kind(strings.ToLower(strings.TrimSpace(it.Type))),
			Host:            strings.TrimSpace(it.Host),
			URL:             strings.TrimSpace(it.URL),
			IntervalSeconds: it.IntervalSeconds,
			TimeoutMS:       it.TimeoutMS,
			Enabled:         it.Enabled == nil || *it.Enabled,
		}
		if err := checkEntry(spec); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", where, err))
			continue
		}
		out = append(out, spec)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func checkEntry(s domain.TargetSpec) error {
	switch s.Kind {
	case domain.KindICMP:
		if s.Host == "" {
			return fmt.Errorf("type icmp requires host")
		}
		if s.URL != "" {
			return fmt.Errorf("type icmp must not set url")
		}
	case domain.KindHTTP:
		if s.URL == "" {
			return fmt.Errorf("type http requires url")
		}
		if s.Host != "" {
			return fmt.Errorf("type http must not set host")
		}
		if !isValidHTTPURL(s.URL) {
			return fmt.Errorf("url %q is not an absolute http(s) URL", s.URL)
		}
	default:
		return fmt.Errorf("type must be icmp or http, got %q", s.Kind)
	}
	if s.IntervalSeconds < 1 {
		return fmt.Errorf("interval_seconds must be a positive integer")
	}
	if s.TimeoutMS < 1 {
		return fmt.Errorf("timeout_ms must be a positive integer")
	}
	return nil
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func formatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return "hcl"
	}
	return "yaml"
}
