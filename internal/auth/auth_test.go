package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	users map[string]User
}

func (f *fakeStore) Lookup(_ context.Context, username string) (User, error) {
	u, ok := f.users[username]
	if !ok {
		return User{}, errors.New("not found")
	}
	return u, nil
}

func newTestService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	store := &fakeStore{users: map[string]User{
		"ops": {Username: "ops", PasswordHash: hash},
	}}
	return NewService(store, "test-secret", ttl)
}

func TestLoginAndValidate(t *testing.T) {
	svc := newTestService(t, time.Hour)

	token, err := svc.Login(context.Background(), "ops", "hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	subject, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if subject != "ops" {
		t.Errorf("subject = %q, want ops", subject)
	}
}

func TestLoginRejections(t *testing.T) {
	svc := newTestService(t, time.Hour)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "ops", "wrong"},
		{"unknown user", "nobody", "hunter2"},
		{"empty password", "ops", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(context.Background(), tt.username, tt.password); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestValidateTokenRejections(t *testing.T) {
	svc := newTestService(t, time.Hour)
	other := NewService(&fakeStore{}, "other-secret", time.Hour)

	valid, err := svc.GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	foreign, err := other.GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService(t, -time.Minute)
	token, err := svc.GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() on expired token error = %v, want ErrInvalidToken", err)
	}
}
