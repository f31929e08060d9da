package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

var _ repo.Store = (*Store)(nil)

const slowQuery = 200 * time.Millisecond

// Store is an embedded single-file store. Timestamps are stored as unix nanoseconds
// so ordering and range filters stay numeric.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// New opens (creating if needed) the database at path and runs migrations.
func New(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; readers share the same connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS targets (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL UNIQUE CHECK (length(trim(name)) > 0),
	type             TEXT NOT NULL CHECK (type IN ('icmp', 'http')),
	host             TEXT,
	url              TEXT,
	interval_seconds INTEGER NOT NULL CHECK (interval_seconds >= 1),
	timeout_ms       INTEGER NOT NULL CHECK (timeout_ms >= 1),
	enabled          INTEGER NOT NULL DEFAULT 1,
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL,
	CHECK ((type = 'icmp' AND host IS NOT NULL AND url IS NULL) OR
	       (type = 'http' AND url IS NOT NULL AND host IS NULL))
);

CREATE TABLE IF NOT EXISTS probe_results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target_id   TEXT NOT NULL REFERENCES targets(id),
	ts          INTEGER NOT NULL,
	success     INTEGER NOT NULL,
	latency_ms  INTEGER,
	status_code INTEGER,
	error       TEXT
);
CREATE INDEX IF NOT EXISTS idx_probe_results_ts_id_desc ON probe_results (ts DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_probe_results_target_ts_id_desc ON probe_results (target_id, ts DESC, id DESC);

CREATE TABLE IF NOT EXISTS alert_state (
	key          TEXT PRIMARY KEY,
	last_ok      INTEGER NOT NULL,
	last_sent_at INTEGER
);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) timed(label string, start time.Time) {
	if d := time.Since(start); d > slowQuery {
		s.log.Warn("slow_query", zap.String("label", label), zap.Duration("took", d))
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ---- Registry ----

const targetColumns = `id, name, type, host, url, interval_seconds, timeout_ms, enabled, created_at, updated_at`

type sqliteTx struct {
	tx *sql.Tx
}

func (s *Store) InTx(ctx context.Context, fn func(tx repo.RegistryTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *sqliteTx) ListRegistryEntries(ctx context.Context) ([]domain.Target, error) {
	return queryTargets(ctx, t.tx, `SELECT `+targetColumns+` FROM targets ORDER BY name`)
}

func (t *sqliteTx) UpsertRegistryEntry(ctx context.Context, spec domain.TargetSpec, now time.Time) (domain.TargetID, bool, error) {
	if err := spec.Validate(); err != nil {
		return "", false, err
	}
	ts := now.UnixNano()

	var id string
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM targets WHERE name = ?`, spec.Name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = t.tx.ExecContext(ctx,
			`INSERT INTO targets (`+targetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, spec.Name, string(spec.Kind), nullIfEmpty(spec.Host), nullIfEmpty(spec.URL),
			spec.IntervalSeconds, spec.TimeoutMS, spec.Enabled, ts, ts)
		if err != nil {
			return "", false, fmt.Errorf("insert target %q: %w", spec.Name, err)
		}
		return domain.TargetID(id), true, nil
	case err != nil:
		return "", false, fmt.Errorf("lookup target %q: %w", spec.Name, err)
	}

	_, err = t.tx.ExecContext(ctx, `
UPDATE targets
   SET type = ?, host = ?, url = ?, interval_seconds = ?, timeout_ms = ?, enabled = ?, updated_at = ?
 WHERE id = ?`,
		string(spec.Kind), nullIfEmpty(spec.Host), nullIfEmpty(spec.URL),
		spec.IntervalSeconds, spec.TimeoutMS, spec.Enabled, ts, id)
	if err != nil {
		return "", false, fmt.Errorf("update target %q: %w", spec.Name, err)
	}
	return domain.TargetID(id), false, nil
}

func (t *sqliteTx) DisableRegistryEntries(ctx context.Context, names []string, now time.Time) (int, error) {
	n := 0
	for _, name := range names {
		res, err := t.tx.ExecContext(ctx,
			`UPDATE targets SET enabled = 0, updated_at = ? WHERE name = ? AND enabled = 1`,
			now.UnixNano(), name)
		if err != nil {
			return n, fmt.Errorf("disable %q: %w", name, err)
		}
		affected, _ := res.RowsAffected()
		n += int(affected)
	}
	return n, nil
}

func (s *Store) EnabledTargets(ctx context.Context) ([]domain.Target, error) {
	return s.ListTargets(ctx, repo.StatusEnabled)
}

// ---- ResultLog ----

func (s *Store) AppendResult(ctx context.Context, r *domain.ProbeResult) error {
	defer s.timed("append_result", time.Now())
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO probe_results (target_id, ts, success, latency_ms, status_code, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(r.TargetID), r.TS.UnixNano(), r.Success, r.LatencyMS, r.StatusCode, r.Error)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("result id: %w", err)
	}
	r.ID = id
	return nil
}

// ---- Query ----

func (s *Store) ListTargets(ctx context.Context, status repo.TargetStatus) ([]domain.Target, error) {
	defer s.timed("list_targets", time.Now())
	q := `SELECT ` + targetColumns + ` FROM targets`
	switch status {
	case repo.StatusEnabled:
		q += ` WHERE enabled = 1`
	case repo.StatusDisabled:
		q += ` WHERE enabled = 0`
	}
	return queryTargets(ctx, s.db, q+` ORDER BY name`)
}

func (s *Store) GetTarget(ctx context.Context, id domain.TargetID) (*domain.Target, error) {
	ts, err := queryTargets(ctx, s.db, `SELECT `+targetColumns+` FROM targets WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, repo.ErrNotFound
	}
	return &ts[0], nil
}

func (s *Store) ResultsForTarget(ctx context.Context, id domain.TargetID, f repo.ResultFilter) ([]domain.ProbeResult, error) {
	defer s.timed("results_for_target", time.Now())
	since, until := nanos(f.Since), nanos(f.Until)
	rows, err := s.db.QueryContext(ctx, `
SELECT id, target_id, ts, success, latency_ms, status_code, error
  FROM probe_results
 WHERE target_id = ?
   AND (? IS NULL OR ts >= ?)
   AND (? IS NULL OR ts <= ?)
 ORDER BY ts DESC, id DESC
 LIMIT ?`, string(id), since, since, until, until, f.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("results for target: %w", err)
	}
	defer rows.Close()

	var out []domain.ProbeResult
	for rows.Next() {
		var tr domain.TargetResult
		if err := scanResult(rows, &tr, false); err != nil {
			return nil, err
		}
		out = append(out, tr.ProbeResult)
	}
	return out, rows.Err()
}

func (s *Store) LatestResults(ctx context.Context, f repo.ResultFilter) ([]domain.TargetResult, error) {
	defer s.timed("latest_results", time.Now())
	since, until := nanos(f.Since), nanos(f.Until)
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.target_id, r.ts, r.success, r.latency_ms, r.status_code, r.error, t.name
  FROM probe_results r
  JOIN targets t ON t.id = r.target_id
 WHERE (? IS NULL OR r.ts >= ?)
   AND (? IS NULL OR r.ts <= ?)
 ORDER BY r.ts DESC, r.id DESC
 LIMIT ?`, since, since, until, until, f.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("latest results: %w", err)
	}
	defer rows.Close()

	var out []domain.TargetResult
	for rows.Next() {
		var tr domain.TargetResult
		if err := scanResult(rows, &tr, true); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Store) LatestByTarget(ctx context.Context) ([]domain.LatestForTarget, error) {
	defer s.timed("latest_by_target", time.Now())
	rows, err := s.db.QueryContext(ctx, `
SELECT t.id, t.name, r.ts, r.success, r.latency_ms, r.status_code, r.error
  FROM targets t
  LEFT JOIN probe_results r
    ON r.id = (SELECT p.id FROM probe_results p
                WHERE p.target_id = t.id
                ORDER BY p.ts DESC, p.id DESC
                LIMIT 1)
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
			ts      sql.NullInt64
			success sql.NullBool
			latency sql.NullInt64
			status  sql.NullInt64
			msg     sql.NullString
		)
		if err := rows.Scan(&tid, &row.TargetName, &ts, &success, &latency, &status, &msg); err != nil {
			return nil, fmt.Errorf("scan latest by target: %w", err)
		}
		row.TargetID = domain.TargetID(tid)
		if ts.Valid {
			v := fromNanos(ts.Int64)
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
		st   domain.HealthStats
		last sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT (SELECT COUNT(*) FROM targets WHERE enabled = 1),
       (SELECT COALESCE(MAX(interval_seconds), 0) FROM targets WHERE enabled = 1),
       (SELECT MAX(ts) FROM probe_results)`).Scan(&st.EnabledTargets, &st.MaxIntervalSeconds, &last)
	if err != nil {
		return st, fmt.Errorf("health stats: %w", err)
	}
	if last.Valid {
		v := fromNanos(last.Int64)
		st.LastResultAt = &v
	}
	return st, nil
}

// ---- AlertStore ----

func (s *Store) GetAlert(ctx context.Context, key string) (*repo.AlertRecord, error) {
	r := repo.AlertRecord{Key: key}
	var lastSent sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT last_ok, last_sent_at FROM alert_state WHERE key = ?`, key).
		Scan(&r.LastOK, &lastSent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert %q: %w", key, err)
	}
	if lastSent.Valid {
		v := fromNanos(lastSent.Int64)
		r.LastSentAt = &v
	}
	return &r, nil
}

func (s *Store) SetAlert(ctx context.Context, key string, ok bool, sentAt time.Time) error {
	var ts any
	if !sentAt.IsZero() {
		ts = sentAt.UnixNano()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO alert_state (key, last_ok, last_sent_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET last_ok = excluded.last_ok, last_sent_at = excluded.last_sent_at`,
		key, ok, ts)
	if err != nil {
		return fmt.Errorf("set alert %q: %w", key, err)
	}
	return nil
}

func queryTargets(ctx context.Context, q querier, query string, args ...any) ([]domain.Target, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query targets: %w", err)
	}
	defer rows.Close()

	var out []domain.Target
	for rows.Next() {
		var (
			t                  domain.Target
			kind               string
			host, url          sql.NullString
			created, updatedAt int64
		)
		if err := rows.Scan(&t.ID, &t.Name, &kind, &host, &url, &t.IntervalSeconds, &t.TimeoutMS,
			&t.Enabled, &created, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		t.Kind = domain.Kind(kind)
		t.Host, t.URL = host.String, url.String
		t.CreatedAt, t.UpdatedAt = fromNanos(created), fromNanos(updatedAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanResult(rows *sql.Rows, tr *domain.TargetResult, withName bool) error {
	var (
		tid     string
		ts      int64
		latency sql.NullInt64
		status  sql.NullInt64
		msg     sql.NullString
	)
	dest := []any{&tr.ID, &tid, &ts, &tr.Success, &latency, &status, &msg}
	if withName {
		dest = append(dest, &tr.TargetName)
	}
	if err := rows.Scan(dest...); err != nil {
		return fmt.Errorf("scan result: %w", err)
	}
	tr.TargetID = domain.TargetID(tid)
	tr.TS = fromNanos(ts)
	tr.LatencyMS, tr.StatusCode, tr.Error = intPtr(latency), intPtr(status), strPtr(msg)
	return nil
}

func nanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
