// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN: THE CLOSURE / FACTORY PATTERN
// ────────────────────────────────────────────────
// The router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// To inject the storage we use a factory that accepts it and returns a
// function with exactly that signature:
//
//	r.Post("/students", student.New(store))
//	//                          ^^^^^^^^^^
//	//   New(store) runs ONCE at startup; the returned func runs on
//	//   EVERY incoming request.
//
// Every handler follows the same order: decode → validate (reject early,
// no side effects) → one or two storage calls → JSON response.
package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
	"github.com/aanand-mishra/student-records/internal/validation"
)

// Client-facing messages.
const (
	MsgDuplicate     = "Student with this phone number and name already exists"
	MsgNotFound      = "Student not found"
	MsgDeleted       = "Student deleted successfully"
	MsgNoUpdateField = "At least one field (name, phone, dob, class, feePaid) must be provided for update"
	MsgFindCriteria  = "At least one of name or phone is required"
)

// maxBodyBytes caps request bodies at 1 MiB.
const maxBodyBytes = 1 << 20

// studentRequest is the body of create and update requests.
// Each field records whether it was present, so an update can leave
// absent fields untouched.
type studentRequest struct {
	Name         types.Optional[string] `json:"name"`
	Phone        types.Optional[string] `json:"phone"`
	Dob          types.Optional[string] `json:"dob"`
	StudentClass types.Optional[string] `json:"studentClass"`
	FeePaid      types.Optional[bool]   `json:"feePaid"`
}

func (req studentRequest) hasAnyField() bool {
	return req.Name.Set || req.Phone.Set || req.Dob.Set ||
		req.StudentClass.Set || req.FeePaid.Set
}

// findRequest is the body of POST /students/find.
type findRequest struct {
	Name  types.Optional[string] `json:"name"`
	Phone types.Optional[string] `json:"phone"`
}

// errEmptyBody is returned by decodeBody when the client sent nothing.
var errEmptyBody = errors.New("request body is empty")

// decodeBody decodes a JSON body into v, capping its size.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeMessage(w http.ResponseWriter, status int, text string) {
	response.WriteJSON(w, status, response.Message(text))
}

// writeStorageError maps the storage sentinels to 404/409 and anything
// else to 500.
func writeStorageError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, storage.ErrDuplicate):
		writeMessage(w, http.StatusConflict, MsgDuplicate)
	default:
		slog.Error("storage failure",
			slog.String("op", op),
			slog.String("id", id),
			slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students
//
// Success: 200 with a JSON array in insertion order, or 204 with an empty
// body when there are no students.
// Errors:  500 on storage failure.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.ListStudents(r.Context())
		if err != nil {
			writeStorageError(w, "list", "", err)
			return
		}

		if len(students) == 0 {
			response.NoContent(w)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
//
// Success: 200 with the student.
// Errors:  404 unknown id, 500 storage failure.
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			writeStorageError(w, "get", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students
//
// Request body (JSON):
//
//	{ "name": "Alice", "phone": "1234567890", "dob": "2012-01-01",
//	  "studentClass": "5A", "feePaid": false }
//
// feePaid is optional and defaults to false.
//
// Success: 201 with the created student, including its id.
// Errors:  400 empty/malformed body or the first failing rule
//
//	(name/phone → dob → class → feePaid)
//	409 a student with the same name and phone exists
//	500 storage failure
//
// The existence check and the insert are two separate calls, so two
// concurrent identical creates can both pass the check. Backends with a
// unique (name, phone) index then reject the second insert, which is also
// reported as 409.
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req studentRequest
		if err := decodeBody(w, r, &req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validation.NameAndPhone(req.Name, req.Phone); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		dob, err := validation.Dob(req.Dob)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		if err := validation.Class(req.StudentClass); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		if err := validation.FeePaid(req.FeePaid); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		ctx := r.Context()
		filter := types.StudentFilter{Name: req.Name.Value, Phone: req.Phone.Value}

		_, err = store.FindStudent(ctx, filter)
		switch {
		case err == nil:
			writeMessage(w, http.StatusConflict, MsgDuplicate)
			return
		case !errors.Is(err, storage.ErrNotFound):
			writeStorageError(w, "create: existence check", "", err)
			return
		}

		created, err := store.CreateStudent(ctx, types.Student{
			Name:         req.Name.Value,
			Phone:        req.Phone.Value,
			Dob:          dob,
			StudentClass: req.StudentClass.Value,
			FeePaid:      req.FeePaid.Value, // false when absent
		})
		if err != nil {
			writeStorageError(w, "create", "", err)
			return
		}

		slog.Info("student created", slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /students/{id}
// Partially updates a student: only the fields present in the body are
// validated and written; the rest are left as stored.
//
// Success: 200 with the full updated student.
// Errors:  400 no recognised field present, malformed body, or a present
//
//	field that fails its rule (an explicit "" or null on a
//	required field fails too)
//	404 unknown id
//	409 the new name+phone belongs to another student
//	500 storage failure
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("updating a student", slog.String("id", id))

		var req studentRequest
		err := decodeBody(w, r, &req)
		if err != nil && !errors.Is(err, errEmptyBody) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if !req.hasAnyField() {
			writeMessage(w, http.StatusBadRequest, MsgNoUpdateField)
			return
		}

		patch, err := buildPatch(req)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := store.UpdateStudentByID(r.Context(), id, patch)
		if err != nil {
			writeStorageError(w, "update", id, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// buildPatch validates the present fields in order and turns them into a
// storage patch.
func buildPatch(req studentRequest) (types.StudentPatch, error) {
	var patch types.StudentPatch

	if req.Name.Set {
		if err := validation.Name(req.Name); err != nil {
			return patch, err
		}
		patch.Name = types.Some(req.Name.Value)
	}
	if req.Phone.Set {
		if err := validation.Phone(req.Phone); err != nil {
			return patch, err
		}
		patch.Phone = types.Some(req.Phone.Value)
	}
	if req.Dob.Set {
		dob, err := validation.Dob(req.Dob)
		if err != nil {
			return patch, err
		}
		patch.Dob = types.Some(dob)
	}
	if req.StudentClass.Set {
		if err := validation.Class(req.StudentClass); err != nil {
			return patch, err
		}
		patch.StudentClass = types.Some(req.StudentClass.Value)
	}
	if req.FeePaid.Set {
		if err := validation.FeePaid(req.FeePaid); err != nil {
			return patch, err
		}
		patch.FeePaid = types.Some(req.FeePaid.Value)
	}

	return patch, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{id}
//
// Success: 200 { "message": "Student deleted successfully" }
// Errors:  404 unknown id, 500 storage failure.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("deleting a student", slog.String("id", id))

		if _, err := store.DeleteStudentByID(r.Context(), id); err != nil {
			writeStorageError(w, "delete", id, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		writeMessage(w, http.StatusOK, MsgDeleted)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Find handles POST /students/find
//
// Request body: { "name": "Alice", "phone": "1234567890" }, at least one.
// When both are given a student must match both.
//
// Success: 200 with the matching students; an empty match is [] not 404.
// Errors:  400 neither name nor phone given, or one is not a string
//
//	500 storage failure
// ─────────────────────────────────────────────────────────────────────────────
func Find(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("finding students")

		var req findRequest
		err := decodeBody(w, r, &req)
		if err != nil && !errors.Is(err, errEmptyBody) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if req.Name.Invalid || req.Phone.Invalid {
			writeMessage(w, http.StatusBadRequest, "name and phone must be strings")
			return
		}

		filter := types.StudentFilter{Name: req.Name.Value, Phone: req.Phone.Value}
		if filter.IsEmpty() {
			writeMessage(w, http.StatusBadRequest, MsgFindCriteria)
			return
		}

		students, err := store.FindStudents(r.Context(), filter)
		if err != nil {
			writeStorageError(w, "find", "", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}
