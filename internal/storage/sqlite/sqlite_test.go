package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/storagetest"
	"github.com/aanand-mishra/student-records/internal/types"
)

func newTestStore(t *testing.T) storage.Storage {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	return s
}

func TestSQLiteConformance(t *testing.T) {
	storagetest.Run(t, newTestStore, uuid.NewString())
}

func TestSQLiteUniqueNamePhone(t *testing.T) {
	storagetest.RunUnique(t, newTestStore)
}

func TestNewUsesConfiguredPath(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Path = filepath.Join(t.TempDir(), "from-config.db")

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Db.Close()

	require.NoError(t, s.Db.Ping())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")

	s, err := Open(path)
	require.NoError(t, err)
	created, err := s.CreateStudent(context.Background(), storagetest.Alice())
	require.NoError(t, err)
	require.NoError(t, s.Db.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Db.Close()

	got, err := s.GetStudentByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestWhere(t *testing.T) {
	clause, args := where(types.StudentFilter{})
	assert.Empty(t, clause)
	assert.Empty(t, args)

	clause, args = where(types.StudentFilter{Name: "Alice", Phone: "1234567"})
	assert.Equal(t, " WHERE name = ? AND phone = ?", clause)
	assert.Equal(t, []any{"Alice", "1234567"}, args)
}
