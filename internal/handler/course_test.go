package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/addislearn/learning-platform/internal/repository"
)

var courseCols = []string{"id", "title", "description", "price", "discount", "instructor_id", "thumbnail_url", "view_count", "created_at", "updated_at"}

func courseRow(id, instructorID uint64, price float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(courseCols).
		AddRow(id, "Algebra I", "intro", price, 0.0, instructorID, nil, 3, now, now)
}

func newCourseHandler(t *testing.T) (*CourseHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewCourseHandler(repository.NewCourseRepo(db), repository.NewEnrollmentRepo(db), repository.NewEngagementRepo(db)), mock
}

// callAs runs a handler with the typed identity keys middleware injects
// after token verification.
func callAs(t *testing.T, uid uint64, role, method, body string, paramID string, fn echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(paramID)
	c.Set("user_id", uid)
	c.Set("role", role)
	if err := fn(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

const courseUpdateBody = `{"title":"Algebra II","description":"more","price":200,"discount":0.1}`

func TestUpdateRejectsInstructorWhoDoesNotOwnCourse(t *testing.T) {
	h, mock := newCourseHandler(t)

	// Course 7 belongs to instructor 5; instructor 9 is the caller.
	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(courseRow(7, 5, 100))
	// No UPDATE is expected.

	rec := callAs(t, 9, "instructor", http.MethodPut, courseUpdateBody, "7", h.Update)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateAllowsAdminOnForeignCourse(t *testing.T) {
	h, mock := newCourseHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(courseRow(7, 5, 100))
	mock.ExpectExec("UPDATE courses SET title=").
		WithArgs("Algebra II", "more", 200.0, 0.1, nil, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := callAs(t, 1, "admin", http.MethodPut, courseUpdateBody, "7", h.Update)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateAllowsOwningInstructor(t *testing.T) {
	h, mock := newCourseHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(courseRow(7, 5, 100))
	mock.ExpectExec("UPDATE courses SET title=").
		WithArgs("Algebra II", "more", 200.0, 0.1, nil, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := callAs(t, 5, "instructor", http.MethodPut, courseUpdateBody, "7", h.Update)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteRejectsInstructorWhoDoesNotOwnCourse(t *testing.T) {
	h, mock := newCourseHandler(t)

	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id=").
		WithArgs(uint64(7)).
		WillReturnRows(courseRow(7, 5, 100))
	// No DELETE is expected.

	rec := callAs(t, 9, "instructor", http.MethodDelete, "", "7", h.Delete)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
