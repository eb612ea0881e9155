package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/snapbooth/identity/app/entity"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, is_verified, verification_code, verification_expiry, receive_notifications, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.VerificationCode,
		user.VerificationExpiry,
		user.ReceiveNotifications,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, is_verified, verification_code, verification_expiry,
		       reset_token, reset_expiry, receive_notifications, created_at, updated_at
		FROM users WHERE email = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, is_verified, verification_code, verification_expiry,
		       reset_token, reset_expiry, receive_notifications, created_at, updated_at
		FROM users WHERE username = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, is_verified, verification_code, verification_expiry,
		       reset_token, reset_expiry, receive_notifications, created_at, updated_at
		FROM users WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// ConsumeVerification activates the account in a single conditional
// statement. Two concurrent attempts with the same code cannot both see a
// positive row count.
func (r *UserRepository) ConsumeVerification(ctx context.Context, email, code string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET is_verified = TRUE, verification_code = NULL, verification_expiry = NULL, updated_at = ?
		WHERE email = ? AND is_verified = FALSE AND verification_code = ? AND verification_expiry > ?
	`
	result, err := r.db.ExecContext(ctx, query, now, email, code, now)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, email, token string, expiry time.Time) (bool, error) {
	query := `
		UPDATE users SET reset_token = ?, reset_expiry = ?, updated_at = ?
		WHERE email = ?
	`
	result, err := r.db.ExecContext(ctx, query, token, expiry, time.Now(), email)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ConsumeReset swaps the password hash and clears the token pair in one
// conditional statement, making reset tokens single-use.
func (r *UserRepository) ConsumeReset(ctx context.Context, token, newHash string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET password_hash = ?, reset_token = NULL, reset_expiry = NULL, updated_at = ?
		WHERE reset_token = ? AND reset_expiry > ?
	`
	result, err := r.db.ExecContext(ctx, query, newHash, now, token, now)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID uint64, newHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, newHash, time.Now(), userID)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, userID uint64) (bool, error) {
	query := `DELETE FROM users WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*entity.User, error) {
	user := &entity.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.VerificationCode,
		&user.VerificationExpiry,
		&user.ResetToken,
		&user.ResetExpiry,
		&user.ReceiveNotifications,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
