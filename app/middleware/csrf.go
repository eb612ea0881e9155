package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/snapbooth/identity/app/dto"
	"github.com/snapbooth/identity/app/entity"
)

// CSRFHeader carries the per-session secret on state-changing requests.
const CSRFHeader = "X-CSRF-Token"

// Pre-authentication routes cannot hold a CSRF secret yet and bypass the
// guard; everything else that mutates state must present one.
var csrfExemptPaths = map[string]struct{}{
	"/api/register":        {},
	"/api/verify":          {},
	"/api/login":           {},
	"/api/forgot-password": {},
	"/api/reset-password":  {},
}

type sessionAuthenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*entity.Session, error)
}

type CSRFMiddleware struct {
	sessions   sessionAuthenticator
	cookieName string
}

func NewCSRFMiddleware(sessions sessionAuthenticator, cookieName string) *CSRFMiddleware {
	return &CSRFMiddleware{sessions: sessions, cookieName: cookieName}
}

// Guard rejects state-changing requests that do not echo the session's CSRF
// secret. Checks run in a fixed order: safe methods pass, allow-listed
// pre-auth routes pass, then token header, session cookie, session validity
// and finally a constant-time token comparison.
func (m *CSRFMiddleware) Guard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()

		switch req.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return next(c)
		}

		if _, exempt := csrfExemptPaths[c.Path()]; exempt {
			return next(c)
		}

		token := req.Header.Get(CSRFHeader)
		if token == "" {
			logrus.WithField("path", c.Path()).Debug("CSRF token missing")
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "CSRF token missing"})
		}

		sessionID := sessionIDFromCookie(c, m.cookieName)
		if sessionID == "" {
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "not authenticated"})
		}

		session, err := m.sessions.Authenticate(req.Context(), sessionID)
		if err != nil {
			logrus.WithError(err).Error("CSRF guard failed to resolve session")
			return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		}
		if session == nil {
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid session"})
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(session.CSRFToken)) != 1 {
			logrus.WithField("user_id", session.UserID).Warn("Invalid CSRF token")
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "invalid CSRF token"})
		}

		c.Set("user_id", session.UserID)
		c.Set("session_id", session.ID)

		return next(c)
	}
}

func sessionIDFromCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
