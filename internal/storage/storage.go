// Package storage defines the Storage interface, the contract every
// backend (MongoDB, SQLite, in-memory) satisfies so that handlers never
// know which database they are talking to.
//
// Backends report the two expected failure cases with the sentinel errors
// below, wrapped or bare; handlers match them with errors.Is. Any other
// error is a storage failure.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records/internal/types"
)

var (
	// ErrNotFound means no record has the requested id. Backends also
	// return it for ids that are malformed for them (for example a string
	// that is not an ObjectID), since such an id cannot match a record.
	ErrNotFound = errors.New("student not found")

	// ErrDuplicate means another record already has the same
	// (name, phone) pair.
	ErrDuplicate = errors.New("student with this phone number and name already exists")
)

// Storage is the record store contract.
//
// Every method takes the request context so a cancelled request stops
// waiting on the database.
type Storage interface {
	// ListStudents returns every student in insertion order.
	// Returns an empty slice (not nil) if there are none.
	ListStudents(ctx context.Context) ([]types.Student, error)

	// FindStudents returns every student matching the filter.
	// Returns an empty slice (not nil) if nothing matches.
	FindStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error)

	// FindStudent returns the first student matching the filter, or
	// ErrNotFound.
	FindStudent(ctx context.Context, filter types.StudentFilter) (types.Student, error)

	// GetStudentByID fetches a single student, or ErrNotFound.
	GetStudentByID(ctx context.Context, id string) (types.Student, error)

	// CreateStudent inserts a new record and returns it with its assigned
	// id. Backends with a unique (name, phone) index return ErrDuplicate on
	// violation.
	CreateStudent(ctx context.Context, student types.Student) (types.Student, error)

	// UpdateStudentByID writes only the fields set in patch and returns the
	// full updated record, or ErrNotFound.
	UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error)

	// DeleteStudentByID removes a record permanently and returns it, or
	// ErrNotFound.
	DeleteStudentByID(ctx context.Context, id string) (types.Student, error)

	// Close releases the backend's connections.
	Close(ctx context.Context) error
}
