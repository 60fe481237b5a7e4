package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
)

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{Storage: config.Storage{Driver: config.DriverMemory}}
	store, err := newStorage(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.Memory{}, store)

	cfg = &config.Config{Storage: config.Storage{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "students.db"),
	}}
	store, err = newStorage(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.SQLite{}, store)
	require.NoError(t, store.Close(ctx))

	_, err = newStorage(ctx, &config.Config{Storage: config.Storage{Driver: "postgres"}})
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	assert.True(t, setupLogger("dev").Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger("staging").Enabled(ctx, slog.LevelDebug))
	assert.False(t, setupLogger("prod").Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger("prod").Enabled(ctx, slog.LevelInfo))
}
