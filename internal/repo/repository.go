package repo

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Result paging limits shared by every store and the API.
const (
	DefaultLimit = 200
	MaxLimit     = 1000
)

// RegistryTx is the view of the target registry available inside one transaction.
type RegistryTx interface {
	ListRegistryEntries(ctx context.Context) ([]domain.Target, error)
	// UpsertRegistryEntry inserts spec under a fresh id, or updates the row with the
	// same name in place (keeping its id). It reports whether a row was inserted.
	UpsertRegistryEntry(ctx context.Context, spec domain.TargetSpec, now time.Time) (domain.TargetID, bool, error)
	// DisableRegistryEntries soft-disables the named targets and returns how many changed.
	DisableRegistryEntries(ctx context.Context, names []string, now time.Time) (int, error)
}

// Registry holds target definitions. InTx commits fn's changes atomically or not at all.
type Registry interface {
	InTx(ctx context.Context, fn func(tx RegistryTx) error) error
	EnabledTargets(ctx context.Context) ([]domain.Target, error)
}

// ResultLog is the append-only probe result history.
type ResultLog interface {
	AppendResult(ctx context.Context, r *domain.ProbeResult) error
}

type TargetStatus string

const (
	StatusEnabled  TargetStatus = "enabled"
	StatusDisabled TargetStatus = "disabled"
	StatusAll      TargetStatus = "all"
)

func ParseTargetStatus(s string) (TargetStatus, bool) {
	switch TargetStatus(s) {
	case "":
		return StatusEnabled, true
	case StatusEnabled, StatusDisabled, StatusAll:
		return TargetStatus(s), true
	}
	return "", false
}

// Matches reports whether a target with the given enabled flag passes the filter.
func (s TargetStatus) Matches(enabled bool) bool {
	switch s {
	case StatusAll:
		return true
	case StatusDisabled:
		return !enabled
	default:
		return enabled
	}
}

// ResultFilter bounds a result query. Since and Until are inclusive.
type ResultFilter struct {
	Since *time.Time
	Until *time.Time
	Limit int
}

// EffectiveLimit clamps Limit into [1, MaxLimit], defaulting to DefaultLimit.
func (f ResultFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	}
	return f.Limit
}

// Contains reports whether ts falls inside the filter's time window.
func (f ResultFilter) Contains(ts time.Time) bool {
	if f.Since != nil && ts.Before(*f.Since) {
		return false
	}
	if f.Until != nil && ts.After(*f.Until) {
		return false
	}
	return true
}

// Query is the read side used by the API. Results are always ordered ts DESC, id DESC.
type Query interface {
	ListTargets(ctx context.Context, status TargetStatus) ([]domain.Target, error)
	GetTarget(ctx context.Context, id domain.TargetID) (*domain.Target, error)
	ResultsForTarget(ctx context.Context, id domain.TargetID, f ResultFilter) ([]domain.ProbeResult, error)
	LatestResults(ctx context.Context, f ResultFilter) ([]domain.TargetResult, error)
	LatestByTarget(ctx context.Context) ([]domain.LatestForTarget, error)
	HealthStats(ctx context.Context) (domain.HealthStats, error)
	Ping(ctx context.Context) error
}

// AlertRecord is the last verdict a watcher acted on and when it last notified.
type AlertRecord struct {
	Key        string
	LastOK     bool
	LastSentAt *time.Time
}

// AlertStore persists watcher state so a restart does not repeat notifications.
type AlertStore interface {
	// GetAlert returns nil, nil if there's no record yet.
	GetAlert(ctx context.Context, key string) (*AlertRecord, error)
	// SetAlert upserts the record. A zero sentAt stores no send time.
	SetAlert(ctx context.Context, key string, ok bool, sentAt time.Time) error
}

// Store is everything a backing database provides.
type Store interface {
	Registry
	ResultLog
	Query
	AlertStore
	Close() error
}
