package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/repo/memory"
)

func specs() []domain.TargetSpec {
	return []domain.TargetSpec{
		{Name: "gw", Kind: domain.KindICMP, Host: "10.0.0.1", IntervalSeconds: 10, TimeoutMS: 1000, Enabled: true},
		{Name: "site", Kind: domain.KindHTTP, URL: "https://example.com", IntervalSeconds: 30, TimeoutMS: 2000, Enabled: true},
	}
}

func newSync(reg repo.Registry) *Synchronizer {
	s := NewSynchronizer(reg, zap.NewNop())
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { t0 = t0.Add(time.Second); return t0 }
	return s
}

func snapshot(t *testing.T, st *memory.Store) []domain.Target {
	t.Helper()
	all, err := st.ListTargets(context.Background(), repo.StatusAll)
	require.NoError(t, err)
	return all
}

func TestSync_InsertsThenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := newSync(st)

	rep, err := s.Sync(ctx, specs())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gw", "site"}, rep.Inserted)
	first := snapshot(t, st)

	rep, err = s.Sync(ctx, specs())
	require.NoError(t, err)
	assert.False(t, rep.Changed())
	assert.ElementsMatch(t, []string{"gw", "site"}, rep.Unchanged)
	assert.Equal(t, first, snapshot(t, st), "second run must not touch any row")
}

func TestSync_UpdatesInPlaceKeepingID(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := newSync(st)
	_, err := s.Sync(ctx, specs())
	require.NoError(t, err)
	before := snapshot(t, st)

	changed := specs()
	changed[0].Host = "10.0.0.254"
	changed[0].Enabled = false
	rep, err := s.Sync(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, []string{"gw"}, rep.Updated)

	after := snapshot(t, st)
	require.Len(t, after, 2)
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, "10.0.0.254", after[0].Host)
	assert.False(t, after[0].Enabled)
	assert.True(t, after[0].UpdatedAt.After(before[0].UpdatedAt))
	assert.Equal(t, before[0].CreatedAt, after[0].CreatedAt)
}

func TestSync_RemovedTargetIsSoftDisabledAndKeepsHistory(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := newSync(st)
	_, err := s.Sync(ctx, specs())
	require.NoError(t, err)

	site := snapshot(t, st)[1]
	require.Equal(t, "site", site.Name)
	lat, code := 12, 200
	require.NoError(t, st.AppendResult(ctx, &domain.ProbeResult{
		TargetID: site.ID, TS: time.Now().UTC(), Success: true, LatencyMS: &lat, StatusCode: &code,
	}))

	rep, err := s.Sync(ctx, specs()[:1])
	require.NoError(t, err)
	assert.Equal(t, []string{"site"}, rep.Disabled)

	got, err := st.GetTarget(ctx, site.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	history, err := st.ResultsForTarget(ctx, site.ID, repo.ResultFilter{})
	require.NoError(t, err)
	assert.Len(t, history, 1)

	// Already disabled: nothing more to do.
	rep, err = s.Sync(ctx, specs()[:1])
	require.NoError(t, err)
	assert.Empty(t, rep.Disabled)
	assert.False(t, rep.Changed())

	// Coming back re-enables the same identity.
	rep, err = s.Sync(ctx, specs())
	require.NoError(t, err)
	assert.Equal(t, []string{"site"}, rep.Updated)
	got, err = st.GetTarget(ctx, site.ID)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
}

func TestSync_RejectsInvalidInputBeforeWriting(t *testing.T) {
	st := memory.New()
	bad := append(specs(), specs()[0])
	_, err := newSync(st).Sync(context.Background(), bad)
	require.Error(t, err)
	assert.Empty(t, snapshot(t, st))
}

type failingRegistry struct{ repo.Registry }

func (failingRegistry) InTx(ctx context.Context, fn func(repo.RegistryTx) error) error {
	return fn(failingTx{})
}

type failingTx struct{}

func (failingTx) ListRegistryEntries(context.Context) ([]domain.Target, error) {
	return nil, errors.New("db down")
}
func (failingTx) UpsertRegistryEntry(context.Context, domain.TargetSpec, time.Time) (domain.TargetID, bool, error) {
	return "", false, nil
}
func (failingTx) DisableRegistryEntries(context.Context, []string, time.Time) (int, error) {
	return 0, nil
}

func TestSync_ReadErrorIsReturned(t *testing.T) {
	_, err := newSync(failingRegistry{}).Sync(context.Background(), specs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
