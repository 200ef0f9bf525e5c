package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func TestSignupAndLogin(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	createdAt := time.Now().Add(-time.Minute)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "user", "user@example.com", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	svc := NewService("test-secret", mock)
	user, err := svc.Signup(context.Background(), SignupRequest{
		Email:    " User@Example.com ",
		Username: "user",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.ID == "" || user.PasswordHash == "" || !user.CreatedAt.Equal(createdAt) {
		t.Fatalf("unexpected user %+v", user)
	}

	mock.ExpectQuery(`SELECT id, password_hash`).
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "password_hash"}).AddRow(user.ID, user.PasswordHash))

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" || resp.UserID != user.ID {
		t.Fatalf("unexpected login response %+v", resp)
	}
	userID, err := svc.ValidateToken(resp.Token)
	if err != nil || userID != user.ID {
		t.Fatalf("validate token: %q %v", userID, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSignupDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "user", "user@example.com", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	svc := NewService("test-secret", mock)
	_, err = svc.Signup(context.Background(), SignupRequest{Email: "user@example.com", Username: "user", Password: "p"})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSignupMissingFields(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := NewService("test-secret", mock)
	_, err = svc.Signup(context.Background(), SignupRequest{Email: "", Username: "u", Password: "p"})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected error for missing email, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)

	mock.ExpectQuery(`SELECT id, password_hash`).
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "password_hash"}).AddRow("user-1", string(hash)))

	svc := NewService("test-secret", mock)
	_, err = svc.Login(context.Background(), LoginRequest{Email: "user@example.com", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, password_hash`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	svc := NewService("test-secret", mock)
	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "x"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewService("one", nil).signToken("user-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewService("two", nil).ValidateToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to fail")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewService("secret", nil)
	token, err := svc.signToken("user-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
