// Package memory is an in-process storage.Storage for local development
// and tests. Data lives only as long as the process.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Memory keeps records in insertion order. All methods are safe for
// concurrent use.
type Memory struct {
	mu       sync.RWMutex
	order    []string
	students map[string]types.Student
}

var _ storage.Storage = (*Memory)(nil)

// New returns an empty store.
func New() *Memory {
	return &Memory{students: make(map[string]types.Student)}
}

func (m *Memory) ListStudents(ctx context.Context) ([]types.Student, error) {
	return m.FindStudents(ctx, types.StudentFilter{})
}

func (m *Memory) FindStudents(_ context.Context, filter types.StudentFilter) ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0)
	for _, id := range m.order {
		if s := m.students[id]; filter.Matches(s) {
			students = append(students, s)
		}
	}
	return students, nil
}

func (m *Memory) FindStudent(_ context.Context, filter types.StudentFilter) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.findLocked(filter)
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return s, nil
}

func (m *Memory) findLocked(filter types.StudentFilter) (types.Student, bool) {
	for _, id := range m.order {
		if s := m.students[id]; filter.Matches(s) {
			return s, true
		}
	}
	return types.Student{}, false
}

func (m *Memory) GetStudentByID(_ context.Context, id string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	return s, nil
}

// CreateStudent enforces (name, phone) uniqueness under the write lock, the
// same guarantee the unique index gives the database backends.
func (m *Memory) CreateStudent(_ context.Context, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.findLocked(types.StudentFilter{Name: student.Name, Phone: student.Phone}); ok {
		return types.Student{}, storage.ErrDuplicate
	}

	student.ID = uuid.NewString()
	m.students[student.ID] = student
	m.order = append(m.order, student.ID)
	return student, nil
}

func (m *Memory) UpdateStudentByID(_ context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}

	updated := patch.Apply(current)
	if updated.Name != current.Name || updated.Phone != current.Phone {
		other, ok := m.findLocked(types.StudentFilter{Name: updated.Name, Phone: updated.Phone})
		if ok && other.ID != id {
			return types.Student{}, storage.ErrDuplicate
		}
	}

	m.students[id] = updated
	return updated, nil
}

func (m *Memory) DeleteStudentByID(_ context.Context, id string) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}

	delete(m.students, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return s, nil
}

func (m *Memory) Close(_ context.Context) error {
	return nil
}
