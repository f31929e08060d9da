// Package repotest holds behaviour checks shared by every repo.Store implementation.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

// Run exercises s. Names are suffixed per run so a shared database can be reused.
func Run(t *testing.T, s repo.Store) {
	suffix := fmt.Sprintf("-%d", time.Now().UnixNano())
	t.Run("Registry", func(t *testing.T) { registry(t, s, suffix) })
	t.Run("Rollback", func(t *testing.T) { rollback(t, s, suffix) })
	t.Run("Results", func(t *testing.T) { results(t, s, suffix) })
	t.Run("Alerts", func(t *testing.T) { alerts(t, s, suffix) })
}

func icmp(name string) domain.TargetSpec {
	return domain.TargetSpec{Name: name, Kind: domain.KindICMP, Host: "10.0.0.1", IntervalSeconds: 10, TimeoutMS: 1000, Enabled: true}
}

func httpSpec(name string) domain.TargetSpec {
	return domain.TargetSpec{Name: name, Kind: domain.KindHTTP, URL: "https://example.com/health", IntervalSeconds: 30, TimeoutMS: 2000, Enabled: true}
}

func upsert(t *testing.T, s repo.Store, spec domain.TargetSpec) domain.TargetID {
	t.Helper()
	var id domain.TargetID
	err := s.InTx(context.Background(), func(tx repo.RegistryTx) error {
		var err error
		id, _, err = tx.UpsertRegistryEntry(context.Background(), spec, time.Now().UTC())
		return err
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func find(ts []domain.Target, id domain.TargetID) *domain.Target {
	for i := range ts {
		if ts[i].ID == id {
			return &ts[i]
		}
	}
	return nil
}

func registry(t *testing.T, s repo.Store, suffix string) {
	ctx := context.Background()
	name := "router" + suffix
	now := time.Now().UTC().Truncate(time.Microsecond)

	var id domain.TargetID
	require.NoError(t, s.InTx(ctx, func(tx repo.RegistryTx) error {
		var inserted bool
		var err error
		id, inserted, err = tx.UpsertRegistryEntry(ctx, icmp(name), now)
		assert.True(t, inserted)
		return err
	}))
	_, err := uuid.Parse(string(id))
	require.NoError(t, err, "ids are uuids")

	got, err := s.GetTarget(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
	assert.Equal(t, domain.KindICMP, got.Kind)
	assert.Equal(t, "10.0.0.1", got.Host)
	assert.Empty(t, got.URL)
	assert.True(t, got.Enabled)

	// Same name updates in place and keeps the id.
	changed := icmp(name)
	changed.Host = "10.0.0.2"
	changed.IntervalSeconds = 20
	require.NoError(t, s.InTx(ctx, func(tx repo.RegistryTx) error {
		again, inserted, err := tx.UpsertRegistryEntry(ctx, changed, now.Add(time.Second))
		assert.False(t, inserted)
		assert.Equal(t, id, again)
		return err
	}))
	got, err = s.GetTarget(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", got.Host)
	assert.Equal(t, 20, got.IntervalSeconds)

	entries := listEntries(t, s)
	require.NotNil(t, find(entries, id))

	enabled, err := s.EnabledTargets(ctx)
	require.NoError(t, err)
	assert.NotNil(t, find(enabled, id))

	require.NoError(t, s.InTx(ctx, func(tx repo.RegistryTx) error {
		n, err := tx.DisableRegistryEntries(ctx, []string{name}, now.Add(2*time.Second))
		assert.Equal(t, 1, n)
		return err
	}))
	require.NoError(t, s.InTx(ctx, func(tx repo.RegistryTx) error {
		n, err := tx.DisableRegistryEntries(ctx, []string{name}, now.Add(3*time.Second))
		assert.Equal(t, 0, n, "already disabled")
		return err
	}))

	got, err = s.GetTarget(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, id, got.ID)

	enabled, err = s.EnabledTargets(ctx)
	require.NoError(t, err)
	assert.Nil(t, find(enabled, id))

	disabled, err := s.ListTargets(ctx, repo.StatusDisabled)
	require.NoError(t, err)
	assert.NotNil(t, find(disabled, id))
	all, err := s.ListTargets(ctx, repo.StatusAll)
	require.NoError(t, err)
	assert.NotNil(t, find(all, id))
	onlyEnabled, err := s.ListTargets(ctx, repo.StatusEnabled)
	require.NoError(t, err)
	assert.Nil(t, find(onlyEnabled, id))

	_, err = s.GetTarget(ctx, domain.TargetID(uuid.NewString()))
	assert.True(t, errors.Is(err, repo.ErrNotFound))
}

func listEntries(t *testing.T, s repo.Store) []domain.Target {
	t.Helper()
	var out []domain.Target
	require.NoError(t, s.InTx(context.Background(), func(tx repo.RegistryTx) error {
		var err error
		out, err = tx.ListRegistryEntries(context.Background())
		return err
	}))
	return out
}

func rollback(t *testing.T, s repo.Store, suffix string) {
	ctx := context.Background()
	name := "rollback" + suffix
	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repo.RegistryTx) error {
		if _, _, err := tx.UpsertRegistryEntry(ctx, icmp(name), time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	for _, e := range listEntries(t, s) {
		assert.NotEqual(t, name, e.Name, "insert must be rolled back")
	}
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func results(t *testing.T, s repo.Store, suffix string) {
	ctx := context.Background()
	web := upsert(t, s, httpSpec("web"+suffix))
	idle := upsert(t, s, icmp("idle"+suffix))

	base := time.Now().UTC().Truncate(time.Microsecond)
	rows := []domain.ProbeResult{
		{TargetID: web, TS: base, Success: true, LatencyMS: intp(12), StatusCode: intp(200)},
		{TargetID: web, TS: base.Add(time.Second), Success: false, Error: strp("timeout")},
		// Same timestamp as the previous row: id breaks the tie.
		{TargetID: web, TS: base.Add(time.Second), Success: true, LatencyMS: intp(40), StatusCode: intp(500)},
		{TargetID: web, TS: base.Add(3 * time.Second), Success: true, LatencyMS: intp(9), StatusCode: intp(204)},
	}
	for i := range rows {
		require.NoError(t, s.AppendResult(ctx, &rows[i]))
		assert.NotZero(t, rows[i].ID)
	}

	got, err := s.ResultsForTarget(ctx, web, repo.ResultFilter{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, rows[3].ID, got[0].ID)
	assert.Equal(t, rows[2].ID, got[1].ID)
	assert.Equal(t, rows[1].ID, got[2].ID)
	assert.Equal(t, rows[0].ID, got[3].ID)
	assert.True(t, got[3].TS.Equal(base))

	failed := got[2]
	assert.False(t, failed.Success)
	assert.Nil(t, failed.LatencyMS)
	assert.Nil(t, failed.StatusCode)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "timeout", *failed.Error)
	require.NotNil(t, got[1].StatusCode)
	assert.Equal(t, 500, *got[1].StatusCode)
	assert.Nil(t, got[1].Error)

	limited, err := s.ResultsForTarget(ctx, web, repo.ResultFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, rows[3].ID, limited[0].ID)

	since, until := base.Add(time.Second), base.Add(2*time.Second)
	window, err := s.ResultsForTarget(ctx, web, repo.ResultFilter{Since: &since, Until: &until})
	require.NoError(t, err)
	require.Len(t, window, 2, "bounds are inclusive")

	none, err := s.ResultsForTarget(ctx, idle, repo.ResultFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	latest, err := s.LatestResults(ctx, repo.ResultFilter{Since: &base, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, latest)
	assert.Equal(t, rows[3].ID, latest[0].ID)
	assert.Equal(t, "web"+suffix, latest[0].TargetName)

	byTarget, err := s.LatestByTarget(ctx)
	require.NoError(t, err)
	var sawWeb, sawIdle bool
	for _, row := range byTarget {
		switch row.TargetID {
		case web:
			sawWeb = true
			require.NotNil(t, row.TS)
			assert.True(t, row.TS.Equal(rows[3].TS))
			require.NotNil(t, row.StatusCode)
			assert.Equal(t, 204, *row.StatusCode)
		case idle:
			sawIdle = true
			assert.Nil(t, row.TS)
			assert.Nil(t, row.Success)
			assert.Equal(t, "idle"+suffix, row.TargetName)
		}
	}
	assert.True(t, sawWeb && sawIdle)

	stats, err := s.HealthStats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.EnabledTargets, 2)
	assert.GreaterOrEqual(t, stats.MaxIntervalSeconds, 30)
	require.NotNil(t, stats.LastResultAt)
	assert.False(t, stats.LastResultAt.Before(rows[3].TS))

	orphan := domain.ProbeResult{TargetID: domain.TargetID(uuid.NewString()), TS: base, Success: true, LatencyMS: intp(1)}
	assert.Error(t, s.AppendResult(ctx, &orphan), "results need a registered target")

	require.NoError(t, s.Ping(ctx))
}

func alerts(t *testing.T, s repo.Store, suffix string) {
	ctx := context.Background()
	key := "freshness" + suffix

	rec, err := s.GetAlert(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, s.SetAlert(ctx, key, false, time.Time{}))
	rec, err = s.GetAlert(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.LastOK)
	assert.Nil(t, rec.LastSentAt)

	sent := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.SetAlert(ctx, key, true, sent))
	rec, err = s.GetAlert(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.LastOK)
	require.NotNil(t, rec.LastSentAt)
	assert.True(t, rec.LastSentAt.Equal(sent))
}
