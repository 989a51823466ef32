package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/addislearn/learning-platform/internal/utils"
)

func runProtected(t *testing.T, secret, header string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(secret)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec, c
}

func TestJWTAuthInjectsTypedClaims(t *testing.T) {
	tok, err := utils.NewAccessToken("secret", 42, "instructor", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, c := runProtected(t, "secret", "Bearer "+tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := UserID(c); got != 42 {
		t.Fatalf("expected user_id 42, got %d", got)
	}
	if got := Role(c); got != "instructor" {
		t.Fatalf("expected role instructor, got %q", got)
	}
}

func TestJWTAuthRejectsMissingAndForeignTokens(t *testing.T) {
	if rec, _ := runProtected(t, "secret", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: expected 401, got %d", rec.Code)
	}

	// A refresh token signed under a different secret must not pass.
	refresh, err := utils.NewRefreshToken("other-secret", 42, "student", 30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if rec, _ := runProtected(t, "secret", "Bearer "+refresh.Token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign token: expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := RequireRole("admin", "instructor")(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	cases := []struct {
		role interface{}
		want int
	}{
		{"admin", http.StatusOK},
		{"instructor", http.StatusOK},
		{"student", http.StatusForbidden},
		{nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if tc.role != nil {
			c.Set("role", tc.role)
		}
		if err := handler(c); err != nil {
			t.Fatalf("handler returned error: %v", err)
		}
		if rec.Code != tc.want {
			t.Fatalf("role %v: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}
}
