// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk: no network, no
// separate server process. It is the embedded alternative to the MongoDB
// backend, selected with storage.driver: sqlite.
//
// Importing github.com/mattn/go-sqlite3 registers the "sqlite3" driver with
// database/sql; we also use its Error type to detect unique-index
// violations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at cfg.Storage.Path, creates the students
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.Storage.Path)
}

// Open is New without the config indirection; tests use it with a
// temporary file.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// "database is locked" errors under concurrent requests.
	db.SetMaxOpenConns(1)

	// seq keeps insertion order for listing; id is the opaque public id.
	// The UNIQUE (name, phone) constraint backs up the handler's
	// existence check, so two racing creates cannot both succeed.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			id            TEXT    NOT NULL UNIQUE,
			name          TEXT    NOT NULL,
			phone         TEXT    NOT NULL,
			dob           TEXT    NOT NULL,
			student_class TEXT    NOT NULL,
			fee_paid      INTEGER NOT NULL DEFAULT 0,
			UNIQUE (name, phone)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

const selectColumns = "SELECT id, name, phone, dob, student_class, fee_paid FROM students"

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		dob     string
	)
	if err := row.Scan(
		&student.ID,
		&student.Name,
		&student.Phone,
		&dob,
		&student.StudentClass,
		&student.FeePaid,
	); err != nil {
		return types.Student{}, err
	}

	parsed, err := types.ParseDate(dob)
	if err != nil {
		return types.Student{}, err
	}
	student.Dob = parsed
	return student, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// where turns a filter into a WHERE clause and its arguments.
func where(filter types.StudentFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.Name != "" {
		clauses = append(clauses, "name = ?")
		args = append(args, filter.Name)
	}
	if filter.Phone != "" {
		clauses = append(clauses, "phone = ?")
		args = append(args, filter.Phone)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *SQLite) query(ctx context.Context, op, query string, args ...any) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration: %w", op, err)
	}

	return students, nil
}

// ListStudents returns all rows ordered by insertion.
func (s *SQLite) ListStudents(ctx context.Context) ([]types.Student, error) {
	return s.query(ctx, "ListStudents", selectColumns+" ORDER BY seq")
}

// FindStudents returns the rows matching filter ordered by insertion.
func (s *SQLite) FindStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	clause, args := where(filter)
	return s.query(ctx, "FindStudents", selectColumns+clause+" ORDER BY seq", args...)
}

// FindStudent returns the first row matching filter.
func (s *SQLite) FindStudent(ctx context.Context, filter types.StudentFilter) (types.Student, error) {
	clause, args := where(filter)
	row := s.Db.QueryRowContext(ctx, selectColumns+clause+" ORDER BY seq LIMIT 1", args...)

	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("FindStudent: scan: %w", err)
	}
	return student, nil
}

// GetStudentByID fetches exactly one row matched by its public id.
func (s *SQLite) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	return getByID(ctx, s.Db, id)
}

// queryRower is satisfied by *sql.DB and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByID(ctx context.Context, q queryRower, id string) (types.Student, error) {
	row := q.QueryRowContext(ctx, selectColumns+" WHERE id = ? LIMIT 1", id)

	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}
	return student, nil
}

// CreateStudent inserts a new row with a freshly generated UUID as its id.
// Placeholders (?) keep user input out of the SQL text.
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (id, name, phone, dob, student_class, fee_paid) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	student.ID = uuid.NewString()
	_, err = stmt.ExecContext(ctx,
		student.ID,
		student.Name,
		student.Phone,
		student.Dob.String(),
		student.StudentClass,
		student.FeePaid,
	)
	if isUniqueViolation(err) {
		return types.Student{}, storage.ErrDuplicate
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return student, nil
}

// UpdateStudentByID builds a SET clause from the fields present in patch
// and returns the row as stored afterwards. The write and the re-read run
// in one transaction.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	var (
		sets []string
		args []any
	)
	if patch.Name.Set {
		sets = append(sets, "name = ?")
		args = append(args, patch.Name.Value)
	}
	if patch.Phone.Set {
		sets = append(sets, "phone = ?")
		args = append(args, patch.Phone.Value)
	}
	if patch.Dob.Set {
		sets = append(sets, "dob = ?")
		args = append(args, patch.Dob.Value.String())
	}
	if patch.StudentClass.Set {
		sets = append(sets, "student_class = ?")
		args = append(args, patch.StudentClass.Value)
	}
	if patch.FeePaid.Set {
		sets = append(sets, "fee_paid = ?")
		args = append(args, patch.FeePaid.Value)
	}
	if len(sets) == 0 {
		return s.GetStudentByID(ctx, id)
	}

	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"UPDATE students SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		append(args, id)...,
	)
	if isUniqueViolation(err) {
		return types.Student{}, storage.ErrDuplicate
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: rows affected: %w", err)
	}
	if affected == 0 {
		return types.Student{}, storage.ErrNotFound
	}

	updated, err := getByID(ctx, tx, id)
	if err != nil {
		return types.Student{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: commit: %w", err)
	}
	return updated, nil
}

// DeleteStudentByID removes a row and returns what it contained.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id string) (types.Student, error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudentByID: begin: %w", err)
	}
	defer tx.Rollback()

	student, err := getByID(ctx, tx, id)
	if err != nil {
		return types.Student{}, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id); err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudentByID: commit: %w", err)
	}
	return student, nil
}

// Close closes the connection pool.
func (s *SQLite) Close(_ context.Context) error {
	return s.Db.Close()
}
