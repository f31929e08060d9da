// Package stores picks a repo.Store implementation from a DATABASE_URL value.
package stores

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/repo"
	"github.com/hamed0406/uptimemonitor/internal/repo/memory"
	"github.com/hamed0406/uptimemonitor/internal/repo/postgres"
	"github.com/hamed0406/uptimemonitor/internal/repo/sqlite"
)

// Kind names the backend Open would choose for dsn.
func Kind(dsn string) string {
	switch {
	case dsn == "":
		return "memory"
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"):
		return "sqlite"
	}
	return ""
}

// Open connects to the store described by dsn:
//   - ""                         in-memory (nothing survives a restart)
//   - postgres:// postgresql://  Postgres via pgx
//   - sqlite://<path> file:<path> embedded SQLite
func Open(ctx context.Context, dsn string, log *zap.Logger) (repo.Store, error) {
	switch Kind(dsn) {
	case "memory":
		log.Warn("store_memory", zap.String("hint", "DATABASE_URL empty; results are not persisted"))
		return memory.New(), nil
	case "postgres":
		return postgres.New(ctx, dsn, log)
	case "sqlite":
		path := strings.TrimPrefix(dsn, "sqlite://")
		return sqlite.New(ctx, path, log)
	}
	return nil, fmt.Errorf("unsupported DATABASE_URL scheme: %q", redact(dsn))
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[:i+3] + "..."
	}
	return "..."
}
