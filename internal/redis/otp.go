package redis

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	relay_errors "relay-chat/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
)

// OTP key pattern: otp:{email} with the code as value, expiring with the
// configured TTL. Requesting a new code overwrites any previous one, so at
// most one code per email is live at a time.

type OTPStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewOTPStore(client *goredis.Client, ttl time.Duration) *OTPStore {
	return &OTPStore{client: client, ttl: ttl}
}

// GenerateCode returns a random 6-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (s *OTPStore) Put(ctx context.Context, email, code string) error {
	return s.client.Set(ctx, otpKey(email), code, s.ttl).Err()
}

// Consume verifies the code for an email and deletes it so it cannot be
// reused. An expired or mismatched code fails with ErrInvalidInput.
func (s *OTPStore) Consume(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, otpKey(email)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return relay_errors.ErrInvalidInput
		}
		return err
	}
	if stored != code {
		return relay_errors.ErrInvalidInput
	}
	return s.client.Del(ctx, otpKey(email)).Err()
}

func otpKey(email string) string {
	return "otp:" + email
}
