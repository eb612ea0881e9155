package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/snapbooth/identity/app/entity"
)

func runRequireSession(t *testing.T, auth *stubAuthenticator, cookie string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	e := echo.New()
	httpReq := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if cookie != "" {
		httpReq.AddCookie(&http.Cookie{Name: testCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(httpReq, rec)

	called := false
	handler := NewSessionMiddleware(auth, testCookieName).RequireSession(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, called
}

func TestRequireSessionMissingCookie(t *testing.T) {
	rec, called := runRequireSession(t, &stubAuthenticator{}, "")
	if called {
		t.Fatalf("handler must not run without a cookie")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSessionUnknownSession(t *testing.T) {
	rec, called := runRequireSession(t, &stubAuthenticator{}, "unknown")
	if called {
		t.Fatalf("handler must not run with an unknown session")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireSessionValid(t *testing.T) {
	auth := &stubAuthenticator{session: &entity.Session{ID: "sess", UserID: 9, CSRFToken: "token"}}

	e := echo.New()
	httpReq := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	httpReq.AddCookie(&http.Cookie{Name: testCookieName, Value: "sess"})
	rec := httptest.NewRecorder()
	c := e.NewContext(httpReq, rec)

	handler := NewSessionMiddleware(auth, testCookieName).RequireSession(func(c echo.Context) error {
		if c.Get("user_id").(uint64) != 9 {
			t.Errorf("expected user_id 9 in context, got %v", c.Get("user_id"))
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
