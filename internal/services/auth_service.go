package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"relay-chat/config"
	"relay-chat/internal/domain/user"
	"relay-chat/internal/redis"
	"relay-chat/internal/repository"
	"relay-chat/internal/transport/httpdto"
	relay_errors "relay-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService covers the registration/OTP/token glue around the chat core.
type AuthService struct {
	userRepo  repository.UserRepository
	otps      *redis.OTPStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(userRepo repository.UserRepository, otps *redis.OTPStore, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		otps:      otps,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  time.Duration(cfg.JWTExpiryHours) * time.Hour,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Phone    string
	Password string
}

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (user.User, error) {
	email := strings.TrimSpace(input.Email)
	username := strings.TrimSpace(input.Username)
	if email == "" || username == "" || input.Password == "" {
		return user.User{}, relay_errors.ErrInvalidInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, err
	}

	u := user.User{
		ID:       uuid.NewString(),
		Email:    email,
		Username: username,
		Password: string(hashed),
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		u.Phone = sql.NullString{String: phone, Valid: true}
	}

	if err := s.userRepo.Create(ctx, &u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// RequestOTP checks the credentials and issues a fresh login code. The code
// replaces any earlier one for the same email.
func (s *AuthService) RequestOTP(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", relay_errors.ErrUnauthorized
	}

	code, err := redis.GenerateCode()
	if err != nil {
		return "", err
	}
	if err := s.otps.Put(ctx, email, code); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyOTP consumes the login code and, when valid, issues an access token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, user.User, error) {
	if email == "" || code == "" {
		return "", user.User{}, relay_errors.ErrInvalidInput
	}
	if err := s.otps.Consume(ctx, email, code); err != nil {
		return "", user.User{}, err
	}
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", user.User{}, err
	}

	now := time.Now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", user.User{}, err
	}
	return token, u, nil
}

func (s *AuthService) ParseAccessToken(token string) (*Claims, error) {
	if token == "" {
		return nil, relay_errors.ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, relay_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, relay_errors.ErrUnauthorized
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, relay_errors.ErrUnauthorized
	}
	return claims, nil
}

func userShort(u user.User) httpdto.UserShort {
	short := httpdto.UserShort{ID: u.ID, Username: u.Username}
	if u.ProfilePic.Valid {
		pic := u.ProfilePic.String
		short.ProfilePic = &pic
	}
	return short
}
