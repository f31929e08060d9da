package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

var _ repo.Store = (*Store)(nil)

//go:embed schema.sql
var schemaSQL string

// slowQuery is the duration above which a query is logged as slow.
const slowQuery = 200 * time.Millisecond

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New connects, pings and applies the schema.
func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	defer s.timed("ping", time.Now())
	return s.pool.Ping(ctx)
}

func (s *Store) timed(label string, start time.Time) {
	if d := time.Since(start); d > slowQuery {
		s.log.Warn("slow_query", zap.String("label", label), zap.Duration("took", d))
	}
}

// ---- Registry ----

const targetColumns = `id::text, name, type, host, url, interval_seconds, timeout_ms, enabled, created_at, updated_at`

type pgTx struct {
	tx pgx.Tx
}

func (s *Store) InTx(ctx context.Context, fn func(tx repo.RegistryTx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (t *pgTx) ListRegistryEntries(ctx context.Context) ([]domain.Target, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+targetColumns+` FROM targets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list registry: %w", err)
	}
	return collectTargets(rows)
}

func (t *pgTx) UpsertRegistryEntry(ctx context.Context, spec domain.TargetSpec, now time.Time) (domain.TargetID, bool, error) {
	if err := spec.Validate(); err != nil {
		return "", false, err
	}
	var (
		id       string
		inserted bool
	)
	err := t.tx.QueryRow(ctx, `
INSERT INTO targets (id, name, type, host, url, interval_seconds, timeout_ms, enabled, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (name) DO UPDATE
   SET type             = EXCLUDED.type,
       host             = EXCLUDED.host,
       url              = EXCLUDED.url,
       interval_seconds = EXCLUDED.interval_seconds,
       timeout_ms       = EXCLUDED.timeout_ms,
       enabled          = EXCLUDED.enabled,
       updated_at       = EXCLUDED.updated_at
RETURNING id::text, (xmax = 0)`,
		uuid.NewString(), spec.Name, string(spec.Kind), nullIfEmpty(spec.Host), nullIfEmpty(spec.URL),
		spec.IntervalSeconds, spec.TimeoutMS, spec.Enabled, now.UTC(),
	).Scan(&id, &inserted)
	if err != nil {
		return "", false, fmt.Errorf("upsert target %q: %w", spec.Name, err)
	}
	return domain.TargetID(id), inserted, nil
}

func (t *pgTx) DisableRegistryEntries(ctx context.Context, names []string, now time.Time) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE targets SET enabled = false, updated_at = $2 WHERE name = ANY($1) AND enabled`,
		names, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("disable targets: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) EnabledTargets(ctx context.Context) ([]domain.Target, error) {
	return s.ListTargets(ctx, repo.StatusEnabled)
}

// ---- ResultLog ----

func (s *Store) AppendResult(ctx context.Context, r *domain.ProbeResult) error {
	defer s.timed("append_result", time.Now())
	err := s.pool.QueryRow(ctx,
		`INSERT INTO probe_results (target_id, ts, success, latency_ms, status_code, error)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		string(r.TargetID), r.TS.UTC(), r.Success, r.LatencyMS, r.StatusCode, r.Error,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// ---- Query ----

func (s *Store) ListTargets(ctx context.Context, status repo.TargetStatus) ([]domain.Target, error) {
	defer s.timed("list_targets", time.Now())
	q := `SELECT ` + targetColumns + ` FROM targets`
	switch status {
	case repo.StatusEnabled:
		q += ` WHERE enabled`
	case repo.StatusDisabled:
		q += ` WHERE NOT enabled`
	}
	rows, err := s.pool.Query(ctx, q+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	return collectTargets(rows)
}

func (s *Store) GetTarget(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	if _, err := uuid.Parse(string(id)); err != nil {
		return nil, repo.ErrNotFound
	}
	rows, err := s.pool.Query(ctx, `SELECT `+targetColumns+` FROM targets WHERE id = $1`, string(id))
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	ts, err := collectTargets(rows)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, repo.ErrNotFound
	}
	return &ts[0], nil
}

func (s *Store) ResultsForTarget(ctx context.Context, id domain.TargetID, f repo.ResultFilter) ([]domain.ProbeResult, error) {
	if _, err := uuid.Parse(string(id)); err != nil {
		return nil, nil
	}
	defer s.timed("results_for_target", time.Now())
	rows, err := s.pool.Query(ctx, `
SELECT id, target_id::text, ts, success, latency_ms, status_code, error
  FROM probe_results
 WHERE target_id = $1
   AND ($2::timestamptz IS NULL OR ts >= $2)
   AND ($3::timestamptz IS NULL OR ts <= $3)
 ORDER BY ts DESC, id DESC
 LIMIT $4`, string(id), f.Since, f.Until, f.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("results for target: %w", err)
	}
	defer rows.Close()

	var out []domain.ProbeResult
	for rows.Next() {
		var (
			r       domain.ProbeResult
			tid     string
			latency sql.NullInt32
			status  sql.NullInt32
			msg     sql.NullString
		)
		if err := rows.Scan(&r.ID, &tid, &r.TS, &r.Success, &latency, &status, &msg); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.TargetID = domain.TargetID(tid)
		r.TS = r.TS.UTC()
		r.LatencyMS, r.StatusCode, r.Error = intPtr(latency), intPtr(status), strPtr(msg)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) LatestResults(ctx context.Context, f repo.ResultFilter) ([]domain.TargetResult, error) {
	defer s.timed("latest_results", time.Now())
	rows, err := s.pool.Query(ctx, `
SELECT r.id, r.target_id::text, t.name, r.ts, r.success, r.latency_ms, r.status_code, r.error
  FROM probe_results r
  JOIN targets t ON t.id = r.target_id
 WHERE ($1::timestamptz IS NULL OR r.ts >= $1)
   AND ($2::timestamptz IS NULL OR r.ts <= $2)
 ORDER BY r.ts DESC, r.id DESC
 LIMIT $3`, f.Since, f.Until, f.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("latest results: %w", err)
	}
	defer rows.Close()

	var out []domain.TargetResult
	for rows.Next() {
		var (
			r       domain.TargetResult
			tid     string
			latency sql.NullInt32
			status  sql.NullInt32
			msg     sql.NullString
		)
		if err := rows.Scan(&r.ID, &tid, &r.TargetName, &r.TS, &r.Success, &latency, &status, &msg); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		r.TargetID = domain.TargetID(tid)
		r.TS = r.TS.UTC()
		r.LatencyMS, r.StatusCode, r.Error = intPtr(latency), intPtr(status), strPtr(msg)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) LatestByTarget(ctx context.Context) ([]domain.LatestForTarget, error) {
	defer s.timed("latest_by_target", time.Now())
	rows, err := s.pool.Query(ctx, `
SELECT t.id::text, t.name, r.ts, r.success, r.latency_ms, r.status_code, r.error
  FROM targets t
  LEFT JOIN LATERAL (
        SELECT ts, success, latency_ms, status_code, error
          FROM probe_results pr
         WHERE pr.target_id = t.id
         ORDER BY pr.ts DESC, pr.id DESC
         LIMIT 1
       ) r ON true
 ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("latest by target: %w", err)
	}
	defer rows.Close()

	var out []domain.LatestForTarget
	for rows.Next() {
		var (
			row     domain.LatestForTarget
			tid     string
			ts      sql.NullTime
			success sql.NullBool
			latency sql.NullInt32
			status  sql.NullInt32
			msg     sql.NullString
		)
		if err := rows.Scan(&tid, &row.TargetName, &ts, &success, &latency, &status, &msg); err != nil {
			return nil, fmt.Errorf("scan latest by target: %w", err)
		}
		row.TargetID = domain.TargetID(tid)
		if ts.Valid {
			v := ts.Time.UTC()
			row.TS = &v
		}
		if success.Valid {
			v := success.Bool
			row.Success = &v
		}
		row.LatencyMS, row.StatusCode, row.Error = intPtr(latency), intPtr(status), strPtr(msg)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) HealthStats(ctx context.Context) (domain.HealthStats, error) {
	defer s.timed("health_stats", time.Now())
	var (
		st      domain.HealthStats
		enabled int64
		maxInt  int32
		last    sql.NullTime
	)
	err := s.pool.QueryRow(ctx, `
SELECT (SELECT COUNT(*) FROM targets WHERE enabled),
       (SELECT COALESCE(MAX(interval_seconds), 0) FROM targets WHERE enabled),
       (SELECT MAX(ts) FROM probe_results)`).Scan(&enabled, &maxInt, &last)
	if err != nil {
		return st, fmt.Errorf("health stats: %w", err)
	}
	st.EnabledTargets = int(enabled)
	st.MaxIntervalSeconds = int(maxInt)
	if last.Valid {
		v := last.Time.UTC()
		st.LastResultAt = &v
	}
	return st, nil
}

// ---- AlertStore ----

func (s *Store) GetAlert(ctx context.Context, key string) (*repo.AlertRecord, error) {
	const q = `SELECT last_ok, last_sent_at FROM alert_state WHERE key = $1`
	r := repo.AlertRecord{Key: key}
	var lastSent sql.NullTime
	err := s.pool.QueryRow(ctx, q, key).Scan(&r.LastOK, &lastSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert %q: %w", key, err)
	}
	if lastSent.Valid {
		v := lastSent.Time.UTC()
		r.LastSentAt = &v
	}
	return &r, nil
}

func (s *Store) SetAlert(ctx context.Context, key string, ok bool, sentAt time.Time) error {
	const q = `
		INSERT INTO alert_state (key, last_ok, last_sent_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET last_ok = EXCLUDED.last_ok, last_sent_at = EXCLUDED.last_sent_at
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		u := sentAt.UTC()
		ts = &u
	}
	if _, err := s.pool.Exec(ctx, q, key, ok, ts); err != nil {
		return fmt.Errorf("set alert %q: %w", key, err)
	}
	return nil
}

func collectTargets(rows pgx.Rows) ([]domain.Target, error) {
	defer rows.Close()
	var out []domain.Target
	for rows.Next() {
		var (
			t    domain.Target
			id   string
			kind string
			host sql.NullString
			url  sql.NullString
		)
		if err := rows.Scan(&id, &t.Name, &kind, &host, &url, &t.IntervalSeconds, &t.TimeoutMS,
			&t.Enabled, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		t.ID = domain.TargetID(id)
		t.Kind = domain.Kind(kind)
		t.Host, t.URL = host.String, url.String
		t.CreatedAt, t.UpdatedAt = t.CreatedAt.UTC(), t.UpdatedAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func intPtr(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
