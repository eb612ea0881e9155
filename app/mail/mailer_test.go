package mail

import (
	"strings"
	"testing"
	"time"
)

func TestVerificationBody(t *testing.T) {
	body := verificationBody("member", "123456", 24*time.Hour)

	if !strings.Contains(body, "Hi member,") {
		t.Fatalf("expected greeting with username, got:\n%s", body)
	}
	if !strings.Contains(body, "123456") {
		t.Fatalf("expected verification code in body, got:\n%s", body)
	}
	if !strings.Contains(body, "expire in 24 hours") {
		t.Fatalf("expected TTL in body, got:\n%s", body)
	}
}

func TestResetBody(t *testing.T) {
	body := resetBody("member", "https://snapbooth.example.com", "abc123", time.Hour)

	if !strings.Contains(body, "Hi member,") {
		t.Fatalf("expected greeting with username, got:\n%s", body)
	}
	if !strings.Contains(body, "https://snapbooth.example.com/reset-password?token=abc123") {
		t.Fatalf("expected reset link in body, got:\n%s", body)
	}
	if !strings.Contains(body, "expire in 1 hour") {
		t.Fatalf("expected TTL in body, got:\n%s", body)
	}
}

func TestNopMailer(t *testing.T) {
	mailer := NopMailer{}

	if err := mailer.SendVerificationCode("to@example.com", "member", "123456"); err != nil {
		t.Fatalf("nop mailer must never fail, got %v", err)
	}
	if err := mailer.SendResetLink("to@example.com", "member", "token"); err != nil {
		t.Fatalf("nop mailer must never fail, got %v", err)
	}
}
