package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/snapbooth/identity/app/dto"
	"github.com/snapbooth/identity/app/entity"
	"github.com/snapbooth/identity/app/service"
	"github.com/snapbooth/identity/config"
)

type accountService interface {
	Register(ctx context.Context, username, email, password string) (*entity.User, error)
	Verify(ctx context.Context, email, code string) (*entity.Session, error)
	Login(ctx context.Context, identifier, password string) (*entity.Session, error)
	GetUser(ctx context.Context, userID uint64) (*entity.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type sessionRevoker interface {
	Revoke(ctx context.Context, sessionID string) (bool, error)
}

type AuthController struct {
	accounts accountService
	sessions sessionRevoker
	cfg      *config.Config
}

func NewAuthController(accounts accountService, sessions sessionRevoker, cfg *config.Config) *AuthController {
	return &AuthController{accounts: accounts, sessions: sessions, cfg: cfg}
}

func (c *AuthController) Register(ctx echo.Context) error {
	req := new(dto.RegisterRequest)
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	user, err := c.accounts.Register(ctx.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUsername),
			errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrWeakPassword):
			logrus.WithField("email", req.Email).Warn("Register failed: validation")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
			logrus.WithField("email", req.Email).Warn("Register failed: duplicate account")
			return ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, dto.RegisterResponse{
		UserID:  user.ID,
		Message: "registration successful, check your email for the verification code",
	})
}

func (c *AuthController) Verify(ctx echo.Context) error {
	req := new(dto.VerifyRequest)
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind verify request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Verify validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Verify request received")
	session, err := c.accounts.Verify(ctx.Request().Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidVerification) {
			logrus.WithField("email", req.Email).Warn("Verify failed")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid or expired verification code"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Verify failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	c.setSessionCookie(ctx, session.ID)

	logrus.WithField("user_id", session.UserID).Info("Email verified")
	return ctx.JSON(http.StatusOK, dto.SessionResponse{
		Message:   "email verified successfully",
		CSRFToken: session.CSRFToken,
	})
}

func (c *AuthController) Login(ctx echo.Context) error {
	req := new(dto.LoginRequest)
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	session, err := c.accounts.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		}
		if errors.Is(err, service.ErrNotVerified) {
			logrus.WithField("email", req.Email).Warn("Login failed: email not verified")
			return ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "email not verified"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	c.setSessionCookie(ctx, session.ID)

	logrus.WithField("user_id", session.UserID).Info("Login successful")
	return ctx.JSON(http.StatusOK, dto.SessionResponse{
		Message:   "login successful",
		CSRFToken: session.CSRFToken,
	})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	sessionID, _ := ctx.Get("session_id").(string)
	if sessionID != "" {
		if _, err := c.sessions.Revoke(ctx.Request().Context(), sessionID); err != nil {
			logrus.WithError(err).Error("Logout failed")
			return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		}
	}

	c.clearSessionCookie(ctx)

	logrus.Info("Logout successful")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "logged out successfully"})
}

func (c *AuthController) Me(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		logrus.Warn("Me failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "not authenticated"})
	}

	user, err := c.accounts.GetUser(ctx.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid session"})
		}
		logrus.WithError(err).WithField("user_id", userID).Error("Me failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, dto.UserResponse{
		ID:                   user.ID,
		Username:             user.Username,
		Email:                user.Email,
		IsVerified:           user.IsVerified,
		ReceiveNotifications: user.ReceiveNotifications,
		CreatedAt:            user.CreatedAt,
	})
}

func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	req := new(dto.ForgotPasswordRequest)
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind forgot password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Forgot password validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if err := c.accounts.RequestPasswordReset(ctx.Request().Context(), req.Email); err != nil {
		logrus.WithError(err).WithField("email", req.Email).Error("Forgot password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	// Same response whether or not the account exists.
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "if the email exists, a reset link has been sent"})
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	req := new(dto.ResetPasswordRequest)
	if err := ctx.Bind(req); err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed")
		return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	logrus.Info("Reset password request received")
	if err := c.accounts.ResetPassword(ctx.Request().Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.Warn("Reset password failed: weak password")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrInvalidToken) {
			logrus.Warn("Reset password failed: invalid token")
			return ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid or expired token"})
		}
		logrus.WithError(err).Error("Reset password failed")
		return ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
	}

	logrus.Info("Password reset successful")
	return ctx.JSON(http.StatusOK, dto.MessageResponse{Message: "password reset successfully"})
}

func (c *AuthController) setSessionCookie(ctx echo.Context, sessionID string) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.cfg.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(c.cfg.SessionCookieMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *AuthController) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
