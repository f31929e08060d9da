package stores

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/repo/memory"
	"github.com/hamed0406/uptimemonitor/internal/repo/sqlite"
)

func TestKind(t *testing.T) {
	assert.Equal(t, "memory", Kind(""))
	assert.Equal(t, "postgres", Kind("postgres://u:p@db/uptime"))
	assert.Equal(t, "postgres", Kind("postgresql://db/uptime"))
	assert.Equal(t, "sqlite", Kind("sqlite:///var/lib/uptime.db"))
	assert.Equal(t, "sqlite", Kind("file:uptime.db"))
	assert.Equal(t, "", Kind("mysql://db"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	s, err := Open(ctx, "", log)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	s, err = Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "x.db"), log)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &sqlite.Store{}, s)

	_, err = Open(ctx, "mysql://user:secret@db", log)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}
