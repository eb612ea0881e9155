package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/snapbooth/identity/app/entity"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "is_verified",
	"verification_code", "verification_expiry", "reset_token", "reset_expiry",
	"receive_notifications", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func userRow(user *entity.User) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsVerified,
		user.VerificationCode, user.VerificationExpiry, user.ResetToken, user.ResetExpiry,
		user.ReceiveNotifications, user.CreatedAt, user.UpdatedAt,
	)
}

func sampleUser() *entity.User {
	now := time.Now()
	return &entity.User{
		ID:                   1,
		Username:             "member",
		Email:                "member@example.com",
		PasswordHash:         "$2a$10$hash",
		IsVerified:           true,
		ReceiveNotifications: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	user := sampleUser()
	user.ID = 0

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			user.Username, user.Email, user.PasswordHash, user.IsVerified,
			user.VerificationCode, user.VerificationExpiry,
			user.ReceiveNotifications, user.CreatedAt, user.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(42, 1))

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.ID != 42 {
		t.Fatalf("expected generated id 42, got %d", user.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	user := sampleUser()
	user.ID = 0
	dupErr := errors.New("Error 1062: Duplicate entry 'member@example.com' for key 'users.email'")

	mock.ExpectExec("INSERT INTO users").WillReturnError(dupErr)

	if err := repo.Create(context.Background(), user); !errors.Is(err, dupErr) {
		t.Fatalf("expected duplicate error to pass through, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	user := sampleUser()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs(user.Email).
		WillReturnRows(userRow(user))

	got, err := repo.FindByEmail(context.Background(), user.Email)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got == nil || got.Username != user.Username {
		t.Fatalf("unexpected user %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryFindByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("expected no error for missing row, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil user, got %+v", got)
	}
}

func TestUserRepositoryFindByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	user := sampleUser()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = ?").
		WithArgs(user.Username).
		WillReturnRows(userRow(user))

	got, err := repo.FindByUsername(context.Background(), user.Username)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got == nil || got.Email != user.Email {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	user := sampleUser()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WithArgs(user.ID).
		WillReturnRows(userRow(user))

	got, err := repo.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestUserRepositoryConsumeVerification(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec("UPDATE users SET is_verified = TRUE").
		WithArgs(now, "member@example.com", "123456", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ConsumeVerification(context.Background(), "member@example.com", "123456", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected consumption to report success")
	}
}

func TestUserRepositoryConsumeVerificationNoMatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec("UPDATE users SET is_verified = TRUE").
		WithArgs(now, "member@example.com", "000000", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ConsumeVerification(context.Background(), "member@example.com", "000000", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no rows to match")
	}
}

func TestUserRepositorySetResetToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	expiry := time.Now().Add(time.Hour)

	mock.ExpectExec("UPDATE users SET reset_token = \\?, reset_expiry = \\?").
		WithArgs("token", expiry, sqlmock.AnyArg(), "member@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.SetResetToken(context.Background(), "member@example.com", "token", expiry)
	if err != nil {
		t.Fatalf("set reset token failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected a row to be updated")
	}
}

func TestUserRepositoryConsumeReset(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec("UPDATE users SET password_hash = \\?, reset_token = NULL").
		WithArgs("$2a$10$newhash", now, "token", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ConsumeReset(context.Background(), "token", "$2a$10$newhash", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected consumption to report success")
	}
}

func TestUserRepositoryConsumeResetNoMatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectExec("UPDATE users SET password_hash = \\?, reset_token = NULL").
		WithArgs("$2a$10$newhash", now, "stale", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ConsumeReset(context.Background(), "stale", "$2a$10$newhash", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no rows to match")
	}
}

func TestUserRepositoryUpdatePasswordHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET password_hash = \\?, updated_at = \\? WHERE id = ?").
		WithArgs("$2a$10$newhash", sqlmock.AnyArg(), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePasswordHash(context.Background(), 1, "$2a$10$newhash"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("DELETE FROM users WHERE id = ?").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Delete(context.Background(), 1)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected a row to be deleted")
	}
}
