// Package registry reconciles the configured target list into the persistent registry.
package registry

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/repo"
)

// Report summarizes one reconciliation.
type Report struct {
	Inserted  []string
	Updated   []string
	Unchanged []string
	Disabled  []string
}

func (r Report) Changed() bool {
	return len(r.Inserted)+len(r.Updated)+len(r.Disabled) > 0
}

type Synchronizer struct {
	Registry repo.Registry
	Log      *zap.Logger
	Now      func() time.Time
}

func NewSynchronizer(reg repo.Registry, log *zap.Logger) *Synchronizer {
	return &Synchronizer{Registry: reg, Log: log, Now: time.Now}
}

// Sync makes the registry match specs in one transaction:
// new names are inserted, changed ones updated in place (id kept),
// names missing from specs are soft-disabled. Unchanged rows are not written,
// so a second run with the same input is a no-op.
func (s *Synchronizer) Sync(ctx context.Context, specs []domain.TargetSpec) (Report, error) {
	var rep Report
	seen := make(map[string]bool, len(specs))
	for _, sp := range specs {
		if err := sp.Validate(); err != nil {
			return rep, fmt.Errorf("sync: %w", err)
		}
		if seen[sp.Name] {
			return rep, fmt.Errorf("sync: duplicate target name %q", sp.Name)
		}
		seen[sp.Name] = true
	}

	now := s.Now().UTC()
	err := s.Registry.InTx(ctx, func(tx repo.RegistryTx) error {
		rep = Report{}
		existing, err := tx.ListRegistryEntries(ctx)
		if err != nil {
			return fmt.Errorf("list registry: %w", err)
		}
		byName := make(map[string]domain.Target, len(existing))
		for _, t := range existing {
			byName[t.Name] = t
		}

		for _, sp := range specs {
			cur, ok := byName[sp.Name]
			if ok && cur.Spec() == sp {
				rep.Unchanged = append(rep.Unchanged, sp.Name)
				continue
			}
			if _, inserted, err := tx.UpsertRegistryEntry(ctx, sp, now); err != nil {
				return fmt.Errorf("upsert %q: %w", sp.Name, err)
			} else if inserted {
				rep.Inserted = append(rep.Inserted, sp.Name)
			} else {
				rep.Updated = append(rep.Updated, sp.Name)
			}
		}

		var gone []string
		for _, t := range existing {
			if !seen[t.Name] && t.Enabled {
				gone = append(gone, t.Name)
			}
		}
		sort.Strings(gone)
		if len(gone) == 0 {
			return nil
		}
		if _, err := tx.DisableRegistryEntries(ctx, gone, now); err != nil {
			return fmt.Errorf("disable removed: %w", err)
		}
		rep.Disabled = gone
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	s.Log.Info("registry_synced",
		zap.Int("configured", len(specs)),
		zap.Strings("inserted", rep.Inserted),
		zap.Strings("updated", rep.Updated),
		zap.Int("unchanged", len(rep.Unchanged)),
		zap.Strings("disabled", rep.Disabled),
	)
	return rep, nil
}
