package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/snapbooth/identity/app/dto"
)

type SessionMiddleware struct {
	sessions   sessionAuthenticator
	cookieName string
}

func NewSessionMiddleware(sessions sessionAuthenticator, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName}
}

// RequireSession resolves the session cookie and stores the owning user id
// in the request context for the handler.
func (m *SessionMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID := sessionIDFromCookie(c, m.cookieName)
		if sessionID == "" {
			logrus.Debug("Missing session cookie")
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "not authenticated"})
		}

		session, err := m.sessions.Authenticate(c.Request().Context(), sessionID)
		if err != nil {
			logrus.WithError(err).Error("Failed to resolve session")
			return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		}
		if session == nil {
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid session"})
		}

		c.Set("user_id", session.UserID)
		c.Set("session_id", session.ID)

		return next(c)
	}
}
