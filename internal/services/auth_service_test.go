package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"relay-chat/config"
	"relay-chat/internal/redis"
	relay_errors "relay-chat/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newAuthService(t *testing.T, env *testEnv) (*AuthService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	otps := redis.NewOTPStore(client, 5*time.Minute)
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiryHours: 1}
	return NewAuthService(env.userRepo, otps, cfg), mr
}

func TestAuthFlowRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuthService(t, env)
	ctx := context.Background()

	u, err := auth.Register(ctx, RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Phone:    "+15550100",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Password == "hunter22" {
		t.Fatal("password stored in plaintext")
	}

	code, err := auth.RequestOTP(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("otp length = %d, want 6", len(code))
	}

	token, got, err := auth.VerifyOTP(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("verified user = %s, want %s", got.ID, u.ID)
	}

	claims, err := auth.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != u.ID || claims.Email != "alice@example.com" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuthService(t, env)

	_, err := auth.Register(context.Background(), RegisterInput{
		Email:    "  ",
		Username: "alice",
		Password: "pw",
	})
	if !errors.Is(err, relay_errors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuthService(t, env)
	ctx := context.Background()

	input := RegisterInput{Email: "alice@example.com", Username: "alice", Password: "pw"}
	if _, err := auth.Register(ctx, input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	input.Username = "alice2"
	_, err := auth.Register(ctx, input)
	if !errors.Is(err, relay_errors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRequestOTPWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuthService(t, env)
	ctx := context.Background()

	if _, err := auth.Register(ctx, RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "right",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := auth.RequestOTP(ctx, "alice@example.com", "wrong")
	if !errors.Is(err, relay_errors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRequestOTPUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuthService(t, env)

	_, err := auth.RequestOTP(context.Background(), "nobody@example.com", "pw")
	if !errors.Is(err, relay_errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyOTPSingleUse(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuthService(t, env)
	ctx := context.Background()

	if _, err := auth.Register(ctx, RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "pw",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	code, err := auth.RequestOTP(ctx, "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}

	if _, _, err := auth.VerifyOTP(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	_, _, err = auth.VerifyOTP(ctx, "alice@example.com", code)
	if !errors.Is(err, relay_errors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on reuse, got %v", err)
	}
}

func TestVerifyOTPExpired(t *testing.T) {
	env := newTestEnv(t)
	auth, mr := newAuthService(t, env)
	ctx := context.Background()

	if _, err := auth.Register(ctx, RegisterInput{
		Email: "alice@example.com", Username: "alice", Password: "pw",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	code, err := auth.RequestOTP(ctx, "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("request otp: %v", err)
	}

	mr.FastForward(6 * time.Minute)

	_, _, err = auth.VerifyOTP(ctx, "alice@example.com", code)
	if !errors.Is(err, relay_errors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput after expiry, got %v", err)
	}
}

func TestParseAccessTokenGarbage(t *testing.T) {
	env := newTestEnv(t)
	auth, _ := newAuthService(t, env)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := auth.ParseAccessToken(tok); !errors.Is(err, relay_errors.ErrUnauthorized) {
			t.Fatalf("token %q: expected ErrUnauthorized, got %v", tok, err)
		}
	}
}
