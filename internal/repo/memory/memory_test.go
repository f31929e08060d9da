package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/repo/repotest"
)

func TestMemoryStore_Conformance(t *testing.T) {
	repotest.Run(t, New())
}

func TestMemoryStore_ResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	var id domain.TargetID
	err := s.InTx(ctx, func(tx repo.RegistryTx) error {
		var err error
		id, _, err = tx.UpsertRegistryEntry(ctx, domain.TargetSpec{
			Name: "a", Kind: domain.KindICMP, Host: "h", IntervalSeconds: 1, TimeoutMS: 1, Enabled: true,
		}, time.Now())
		return err
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	lat := 5
	r := &domain.ProbeResult{TargetID: id, TS: time.Now(), Success: true, LatencyMS: &lat}
	if err := s.AppendResult(ctx, r); err != nil {
		t.Fatalf("append: %v", err)
	}
	lat = 99

	got, err := s.ResultsForTarget(ctx, id, repo.ResultFilter{})
	if err != nil || len(got) != 1 {
		t.Fatalf("results: %v %v", got, err)
	}
	if *got[0].LatencyMS != 5 {
		t.Fatalf("stored result aliased caller memory: %d", *got[0].LatencyMS)
	}
}

func TestMemoryStore_UpsertRejectsInvalidSpec(t *testing.T) {
	s := New()
	err := s.InTx(context.Background(), func(tx repo.RegistryTx) error {
		_, _, err := tx.UpsertRegistryEntry(context.Background(), domain.TargetSpec{Name: "x", Kind: domain.KindHTTP}, time.Now())
		return err
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}
