// Package storagetest is a conformance suite run against every
// storage.Storage backend from that backend's own tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Factory returns an empty store. The suite closes it when the subtest ends.
type Factory func(t *testing.T) storage.Storage

// Run executes the suite. missingID must be a well-formed id for the
// backend that matches no record.
func Run(t *testing.T, newStore Factory, missingID string) {
	cases := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage, missingID string)
	}{
		{"ListEmpty", testListEmpty},
		{"CreateAndGet", testCreateAndGet},
		{"ListKeepsInsertionOrder", testListOrder},
		{"Find", testFind},
		{"Update", testUpdate},
		{"UpdateMissing", testUpdateMissing},
		{"Delete", testDelete},
		{"MalformedID", testMalformedID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close(context.Background()) })
			tc.fn(t, s, missingID)
		})
	}
}

// RunUnique checks the (name, phone) unique constraint for backends that
// enforce one.
func RunUnique(t *testing.T, newStore Factory) {
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	ctx := context.Background()

	_, err := s.CreateStudent(ctx, Alice())
	require.NoError(t, err)

	_, err = s.CreateStudent(ctx, Alice())
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	bob, err := s.CreateStudent(ctx, Bob())
	require.NoError(t, err)

	_, err = s.UpdateStudentByID(ctx, bob.ID, types.StudentPatch{
		Name:  types.Some(Alice().Name),
		Phone: types.Some(Alice().Phone),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

// Alice returns a valid sample student.
func Alice() types.Student {
	return types.Student{
		Name:         "Alice",
		Phone:        "1234567890",
		Dob:          types.NewDate(2012, time.January, 1),
		StudentClass: "5A",
	}
}

// Bob returns a second valid sample student.
func Bob() types.Student {
	return types.Student{
		Name:         "Bob",
		Phone:        "5550001111",
		Dob:          types.NewDate(2010, time.May, 1),
		StudentClass: "7C",
		FeePaid:      true,
	}
}

func testListEmpty(t *testing.T, s storage.Storage, _ string) {
	students, err := s.ListStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func testCreateAndGet(t *testing.T, s storage.Storage, _ string) {
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, Alice())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "1234567890", got.Phone)
	assert.Equal(t, "2012-01-01", got.Dob.String())
	assert.Equal(t, "5A", got.StudentClass)
	assert.False(t, got.FeePaid)
}

func testListOrder(t *testing.T, s storage.Storage, _ string) {
	ctx := context.Background()

	a, err := s.CreateStudent(ctx, Alice())
	require.NoError(t, err)
	b, err := s.CreateStudent(ctx, Bob())
	require.NoError(t, err)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, a.ID, students[0].ID)
	assert.Equal(t, b.ID, students[1].ID)
}

func testFind(t *testing.T, s storage.Storage, _ string) {
	ctx := context.Background()

	alice, err := s.CreateStudent(ctx, Alice())
	require.NoError(t, err)
	_, err = s.CreateStudent(ctx, Bob())
	require.NoError(t, err)

	other := Alice()
	other.Phone = "9998887777"
	_, err = s.CreateStudent(ctx, other)
	require.NoError(t, err)

	byName, err := s.FindStudents(ctx, types.StudentFilter{Name: "Alice"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	both, err := s.FindStudents(ctx, types.StudentFilter{Name: "Alice", Phone: "1234567890"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, alice.ID, both[0].ID)

	none, err := s.FindStudents(ctx, types.StudentFilter{Phone: "0000000"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	one, err := s.FindStudent(ctx, types.StudentFilter{Name: "Alice", Phone: "1234567890"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, one.ID)

	_, err = s.FindStudent(ctx, types.StudentFilter{Name: "Nobody"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testUpdate(t *testing.T, s storage.Storage, _ string) {
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, Alice())
	require.NoError(t, err)

	updated, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{
		FeePaid: types.Some(true),
		Dob:     types.Some(types.NewDate(2011, time.February, 3)),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.True(t, updated.FeePaid)
	assert.Equal(t, "2011-02-03", updated.Dob.String())
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "5A", updated.StudentClass)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func testUpdateMissing(t *testing.T, s storage.Storage, missingID string) {
	_, err := s.UpdateStudentByID(context.Background(), missingID, types.StudentPatch{Name: types.Some("X")})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testDelete(t *testing.T, s storage.Storage, missingID string) {
	ctx := context.Background()

	alice, err := s.CreateStudent(ctx, Alice())
	require.NoError(t, err)
	bob, err := s.CreateStudent(ctx, Bob())
	require.NoError(t, err)

	deleted, err := s.DeleteStudentByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, deleted.ID)

	_, err = s.DeleteStudentByID(ctx, alice.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.DeleteStudentByID(ctx, missingID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, bob.ID, students[0].ID)
}

func testMalformedID(t *testing.T, s storage.Storage, _ string) {
	ctx := context.Background()

	_, err := s.GetStudentByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.DeleteStudentByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
