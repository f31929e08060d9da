package domain

import (
	"fmt"
	"time"
)

type TargetID string

// Kind selects the probe executor for a target.
type Kind string

const (
	KindICMP Kind = "icmp"
	KindHTTP Kind = "http"
)

func (k Kind) Valid() bool { return k == KindICMP || k == KindHTTP }

// TargetSpec is the desired state of a target as described by the targets file.
type TargetSpec struct {
	Name            string
	Kind            Kind
	Host            string
	URL             string
	IntervalSeconds int
	TimeoutMS       int
	Enabled         bool
}

// Address returns the host for icmp targets and the URL for http targets.
func (s TargetSpec) Address() string {
	if s.Kind == KindICMP {
		return s.Host
	}
	return s.URL
}

// Validate enforces the registry invariants: exactly one of host/url, matching the kind.
func (s TargetSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch s.Kind {
	case KindICMP:
		if s.Host == "" || s.URL != "" {
			return fmt.Errorf("target %q: icmp requires host and no url", s.Name)
		}
	case KindHTTP:
		if s.URL == "" || s.Host != "" {
			return fmt.Errorf("target %q: http requires url and no host", s.Name)
		}
	default:
		return fmt.Errorf("target %q: unknown type %q", s.Name, s.Kind)
	}
	if s.IntervalSeconds < 1 {
		return fmt.Errorf("target %q: interval_seconds must be >= 1", s.Name)
	}
	if s.TimeoutMS < 1 {
		return fmt.Errorf("target %q: timeout_ms must be >= 1", s.Name)
	}
	return nil
}

// Target is a registry entry. The ID is assigned once and survives updates.
type Target struct {
	ID              TargetID  `json:"id"`
	Name            string    `json:"name"`
	Kind            Kind      `json:"type"`
	Host            string    `json:"host,omitempty"`
	URL             string    `json:"url,omitempty"`
	IntervalSeconds int       `json:"interval_seconds"`
	TimeoutMS       int       `json:"timeout_ms"`
	Enabled         bool      `json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (t Target) Spec() TargetSpec {
	return TargetSpec{
		Name:            t.Name,
		Kind:            t.Kind,
		Host:            t.Host,
		URL:             t.URL,
		IntervalSeconds: t.IntervalSeconds,
		TimeoutMS:       t.TimeoutMS,
		Enabled:         t.Enabled,
	}
}

func (t Target) Address() string { return t.Spec().Address() }

func (t Target) Interval() time.Duration {
	return time.Duration(t.IntervalSeconds) * time.Second
}

func (t Target) Timeout() time.Duration {
	return time.Duration(t.TimeoutMS) * time.Millisecond
}

// HealthStats are the aggregates the health evaluator works from.
type HealthStats struct {
	EnabledTargets     int
	MaxIntervalSeconds int
	LastResultAt       *time.Time
}
