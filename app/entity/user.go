package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID                   uint64
	Username             string
	Email                string
	PasswordHash         string
	IsVerified           bool
	VerificationCode     sql.NullString
	VerificationExpiry   sql.NullTime
	ResetToken           sql.NullString
	ResetExpiry          sql.NullTime
	ReceiveNotifications bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
