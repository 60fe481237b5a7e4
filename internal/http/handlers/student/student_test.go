package student

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// mockStorage is a testify mock of storage.Storage.
type mockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*mockStorage)(nil)

func (m *mockStorage) ListStudents(ctx context.Context) ([]types.Student, error) {
	args := m.Called(ctx)
	return args.Get(0).([]types.Student), args.Error(1)
}

func (m *mockStorage) FindStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]types.Student), args.Error(1)
}

func (m *mockStorage) FindStudent(ctx context.Context, filter types.StudentFilter) (types.Student, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(types.Student), args.Error(1)
}

func (m *mockStorage) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Student), args.Error(1)
}

func (m *mockStorage) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	args := m.Called(ctx, student)
	return args.Get(0).(types.Student), args.Error(1)
}

func (m *mockStorage) UpdateStudentByID(ctx context.Context, id string, patch types.StudentPatch) (types.Student, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(types.Student), args.Error(1)
}

func (m *mockStorage) DeleteStudentByID(ctx context.Context, id string) (types.Student, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Student), args.Error(1)
}

func (m *mockStorage) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var errDown = errors.New("connection refused")

func serve(store storage.Storage, method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/students", GetList(store))
	r.Post("/students", New(store))
	r.Post("/students/find", Find(store))
	r.Get("/students/{id}", GetByID(store))
	r.Put("/students/{id}", Update(store))
	r.Delete("/students/{id}", Delete(store))

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"name":"Alice","phone":"1234567890","dob":"2012-01-01","studentClass":"5A"}`

func TestStorageFailuresAre500(t *testing.T) {
	ctx := mock.Anything

	cases := []struct {
		name   string
		setup  func(m *mockStorage)
		method string
		path   string
		body   string
	}{
		{"list", func(m *mockStorage) {
			m.On("ListStudents", ctx).Return([]types.Student(nil), errDown)
		}, http.MethodGet, "/students", ""},
		{"get", func(m *mockStorage) {
			m.On("GetStudentByID", ctx, "42").Return(types.Student{}, errDown)
		}, http.MethodGet, "/students/42", ""},
		{"create existence check", func(m *mockStorage) {
			m.On("FindStudent", ctx, mock.Anything).Return(types.Student{}, errDown)
		}, http.MethodPost, "/students", validBody},
		{"create insert", func(m *mockStorage) {
			m.On("FindStudent", ctx, mock.Anything).Return(types.Student{}, storage.ErrNotFound)
			m.On("CreateStudent", ctx, mock.Anything).Return(types.Student{}, errDown)
		}, http.MethodPost, "/students", validBody},
		{"update", func(m *mockStorage) {
			m.On("UpdateStudentByID", ctx, "42", mock.Anything).Return(types.Student{}, errDown)
		}, http.MethodPut, "/students/42", `{"feePaid":true}`},
		{"delete", func(m *mockStorage) {
			m.On("DeleteStudentByID", ctx, "42").Return(types.Student{}, errDown)
		}, http.MethodDelete, "/students/42", ""},
		{"find", func(m *mockStorage) {
			m.On("FindStudents", ctx, mock.Anything).Return([]types.Student(nil), errDown)
		}, http.MethodPost, "/students/find", `{"name":"Alice"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockStorage{}
			tc.setup(m)

			rec := serve(m, tc.method, tc.path, tc.body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"message":"connection refused"}`, rec.Body.String())
			m.AssertExpectations(t)
		})
	}
}

func TestCreateInsertDuplicateIsConflict(t *testing.T) {
	m := &mockStorage{}
	m.On("FindStudent", mock.Anything, types.StudentFilter{Name: "Alice", Phone: "1234567890"}).
		Return(types.Student{}, storage.ErrNotFound)
	m.On("CreateStudent", mock.Anything, mock.Anything).
		Return(types.Student{}, storage.ErrDuplicate)

	rec := serve(m, http.MethodPost, "/students", validBody)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"`+MsgDuplicate+`"}`, rec.Body.String())
	m.AssertExpectations(t)
}

func TestCreatePassesDefaultedRecord(t *testing.T) {
	m := &mockStorage{}
	m.On("FindStudent", mock.Anything, mock.Anything).Return(types.Student{}, storage.ErrNotFound)
	m.On("CreateStudent", mock.Anything, mock.MatchedBy(func(s types.Student) bool {
		return s.ID == "" && !s.FeePaid && s.Dob.String() == "2012-01-01" && s.StudentClass == "5A"
	})).Return(types.Student{ID: "abc", Name: "Alice"}, nil)

	rec := serve(m, http.MethodPost, "/students", validBody)

	assert.Equal(t, http.StatusCreated, rec.Code)
	m.AssertExpectations(t)
}

func TestInvalidInputNeverReachesStorage(t *testing.T) {
	cases := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/students", `{"name":"Bob"}`},
		{http.MethodPut, "/students/42", `{}`},
		{http.MethodPut, "/students/42", `{"phone":"nope"}`},
		{http.MethodPost, "/students/find", `{}`},
	}
	for _, tc := range cases {
		m := &mockStorage{}

		rec := serve(m, tc.method, tc.path, tc.body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		m.AssertNotCalled(t, "FindStudent", mock.Anything, mock.Anything)
		m.AssertNotCalled(t, "CreateStudent", mock.Anything, mock.Anything)
		m.AssertNotCalled(t, "UpdateStudentByID", mock.Anything, mock.Anything, mock.Anything)
		m.AssertNotCalled(t, "FindStudents", mock.Anything, mock.Anything)
	}
}

func TestUpdateSendsOnlyPresentFields(t *testing.T) {
	m := &mockStorage{}
	want := types.StudentPatch{
		Phone:   types.Some("7654321"),
		FeePaid: types.Some(false),
	}
	m.On("UpdateStudentByID", mock.Anything, "42", want).
		Return(types.Student{ID: "42", Phone: "7654321"}, nil)

	rec := serve(m, http.MethodPut, "/students/42", `{"phone":"7654321","feePaid":false}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	m.AssertExpectations(t)
}

func TestFindBuildsFilter(t *testing.T) {
	m := &mockStorage{}
	m.On("FindStudents", mock.Anything, types.StudentFilter{Phone: "1234567"}).
		Return([]types.Student{}, nil)

	rec := serve(m, http.MethodPost, "/students/find", `{"name":"","phone":"1234567"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	m.AssertExpectations(t)
}
