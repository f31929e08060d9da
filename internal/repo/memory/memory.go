package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

var _ repo.Store = (*Store)(nil)

// Store keeps everything in process memory. Used by tests and the no-database mode.
type Store struct {
	mu      sync.RWMutex
	targets map[domain.TargetID]domain.Target
	results []domain.ProbeResult
	nextID  int64
	alerts  map[string]repo.AlertRecord
}

func New() *Store {
	return &Store{
		targets: make(map[domain.TargetID]domain.Target),
		results: make([]domain.ProbeResult, 0, 128),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

func (m *Store) Close() error { return nil }

func (m *Store) Ping(ctx context.Context) error { return ctx.Err() }

// ---- Registry ----

type memTx struct {
	targets map[domain.TargetID]domain.Target
}

// InTx runs fn against a copy of the registry and swaps it in only if fn succeeds.
func (m *Store) InTx(ctx context.Context, fn func(tx repo.RegistryTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{targets: make(map[domain.TargetID]domain.Target, len(m.targets))}
	for id, t := range m.targets {
		tx.targets[id] = t
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.targets = tx.targets
	return nil
}

func (tx *memTx) ListRegistryEntries(ctx context.Context) ([]domain.Target, error) {
	out := make([]domain.Target, 0, len(tx.targets))
	for _, t := range tx.targets {
		out = append(out, t)
	}
	sortByName(out)
	return out, nil
}

func (tx *memTx) UpsertRegistryEntry(ctx context.Context, spec domain.TargetSpec, now time.Time) (domain.TargetID, bool, error) {
	if err := spec.Validate(); err != nil {
		return "", false, err
	}
	for id, t := range tx.targets {
		if t.Name != spec.Name {
			continue
		}
		t.Kind, t.Host, t.URL = spec.Kind, spec.Host, spec.URL
		t.IntervalSeconds, t.TimeoutMS, t.Enabled = spec.IntervalSeconds, spec.TimeoutMS, spec.Enabled
		t.UpdatedAt = now
		tx.targets[id] = t
		return id, false, nil
	}
	id := domain.TargetID(uuid.NewString())
	tx.targets[id] = domain.Target{
		ID:              id,
		Name:            spec.Name,
		Kind:            spec.Kind,
		Host:            spec.Host,
		URL:             spec.URL,
		IntervalSeconds: spec.IntervalSeconds,
		TimeoutMS:       spec.TimeoutMS,
		Enabled:         spec.Enabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return id, true, nil
}

func (tx *memTx) DisableRegistryEntries(ctx context.Context, names []string, now time.Time) (int, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	n := 0
	for id, t := range tx.targets {
		if want[t.Name] && t.Enabled {
			t.Enabled = false
			t.UpdatedAt = now
			tx.targets[id] = t
			n++
		}
	}
	return n, nil
}

func (m *Store) EnabledTargets(ctx context.Context) ([]domain.Target, error) {
	return m.ListTargets(ctx, repo.StatusEnabled)
}

// ---- ResultLog ----

func (m *Store) AppendResult(ctx context.Context, r *domain.ProbeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.targets[r.TargetID]; !ok {
		return fmt.Errorf("append result for %s: %w", r.TargetID, repo.ErrNotFound)
	}
	m.nextID++
	r.ID = m.nextID
	m.results = append(m.results, cloneResult(*r))
	return nil
}

// ---- Query ----

func (m *Store) ListTargets(ctx context.Context, status repo.TargetStatus) ([]domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		if status.Matches(t.Enabled) {
			out = append(out, t)
		}
	}
	sortByName(out)
	return out, nil
}

func (m *Store) GetTarget(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &t, nil
}

func (m *Store) ResultsForTarget(ctx context.Context, id domain.TargetID, f repo.ResultFilter) ([]domain.ProbeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ProbeResult
	for _, r := range m.results {
		if r.TargetID == id && f.Contains(r.TS) {
			out = append(out, cloneResult(r))
		}
	}
	sortResults(out)
	if limit := f.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) LatestResults(ctx context.Context, f repo.ResultFilter) ([]domain.TargetResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []domain.ProbeResult
	for _, r := range m.results {
		if f.Contains(r.TS) {
			rows = append(rows, cloneResult(r))
		}
	}
	sortResults(rows)
	if limit := f.EffectiveLimit(); len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]domain.TargetResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.TargetResult{ProbeResult: r, TargetName: m.targets[r.TargetID].Name})
	}
	return out, nil
}

func (m *Store) LatestByTarget(ctx context.Context) ([]domain.LatestForTarget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[domain.TargetID]domain.ProbeResult)
	for _, r := range m.results {
		cur, ok := latest[r.TargetID]
		if !ok || newer(r, cur) {
			latest[r.TargetID] = r
		}
	}

	targets := make([]domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		targets = append(targets, t)
	}
	sortByName(targets)

	out := make([]domain.LatestForTarget, 0, len(targets))
	for _, t := range targets {
		row := domain.LatestForTarget{TargetID: t.ID, TargetName: t.Name}
		if r, ok := latest[t.ID]; ok {
			r = cloneResult(r)
			ts, success := r.TS, r.Success
			row.TS, row.Success = &ts, &success
			row.LatencyMS, row.StatusCode, row.Error = r.LatencyMS, r.StatusCode, r.Error
		}
		out = append(out, row)
	}
	return out, nil
}

func (m *Store) HealthStats(ctx context.Context) (domain.HealthStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var st domain.HealthStats
	for _, t := range m.targets {
		if !t.Enabled {
			continue
		}
		st.EnabledTargets++
		if t.IntervalSeconds > st.MaxIntervalSeconds {
			st.MaxIntervalSeconds = t.IntervalSeconds
		}
	}
	for _, r := range m.results {
		if st.LastResultAt == nil || r.TS.After(*st.LastResultAt) {
			ts := r.TS
			st.LastResultAt = &ts
		}
	}
	return st, nil
}

// ---- AlertStore ----

func (m *Store) GetAlert(ctx context.Context, key string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.alerts[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Store) SetAlert(ctx context.Context, key string, ok bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := repo.AlertRecord{Key: key, LastOK: ok}
	if !sentAt.IsZero() {
		rec.LastSentAt = &sentAt
	}
	m.alerts[key] = rec
	return nil
}

func newer(a, b domain.ProbeResult) bool {
	if !a.TS.Equal(b.TS) {
		return a.TS.After(b.TS)
	}
	return a.ID > b.ID
}

func sortResults(rs []domain.ProbeResult) {
	sort.Slice(rs, func(i, j int) bool { return newer(rs[i], rs[j]) })
}

func sortByName(ts []domain.Target) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].Name < ts[j].Name })
}

func cloneResult(r domain.ProbeResult) domain.ProbeResult {
	if r.LatencyMS != nil {
		v := *r.LatencyMS
		r.LatencyMS = &v
	}
	if r.StatusCode != nil {
		v := *r.StatusCode
		r.StatusCode = &v
	}
	if r.Error != nil {
		v := *r.Error
		r.Error = &v
	}
	return r
}
