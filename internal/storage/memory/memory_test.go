package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/storagetest"
)

func newTestStore(*testing.T) storage.Storage {
	return New()
}

func TestMemoryConformance(t *testing.T) {
	storagetest.Run(t, newTestStore, uuid.NewString())
}

func TestMemoryUniqueNamePhone(t *testing.T) {
	storagetest.RunUnique(t, newTestStore)
}

func TestConcurrentCreatesKeepOneRecord(t *testing.T) {
	m := New()
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.CreateStudent(ctx, storagetest.Alice()); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	students, err := m.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}
