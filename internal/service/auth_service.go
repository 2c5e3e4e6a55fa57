package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/domain"
	"github.com/vvasilje/murmur/internal/repository"
	"github.com/vvasilje/murmur/internal/session"
	"golang.org/x/crypto/argon2"
)

var (
	ErrEmailTaken     = errors.New("email already taken")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrInvalidCreds   = errors.New("invalid email or password")
	ErrSessionExpired = errors.New("refresh session expired or unknown")
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// SessionStore keeps refresh-token sessions; implemented by
// session.RedisStore.
type SessionStore interface {
	Save(ctx context.Context, token string, data session.Data, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (*session.Data, error)
	Delete(ctx context.Context, token string) error
}

type AuthService struct {
	profileRepo repository.ProfileRepository
	sessions    SessionStore
	jwtSecret   []byte
}

func NewAuthService(profileRepo repository.ProfileRepository, sessions SessionStore, jwtSecret string) *AuthService {
	return &AuthService{
		profileRepo: profileRepo,
		sessions:    sessions,
		jwtSecret:   []byte(jwtSecret),
	}
}

type RegisterInput struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Profile      *domain.Profile `json:"profile"`
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	existing, err := s.profileRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	existing, err = s.profileRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	profile := &domain.Profile{
		ID:           uuid.New(),
		Email:        input.Email,
		Username:     input.Username,
		DisplayName:  input.DisplayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	return s.issueTokens(ctx, profile)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrInvalidCreds
	}

	if !verifyPassword(input.Password, profile.PasswordHash) {
		return nil, ErrInvalidCreds
	}

	return s.issueTokens(ctx, profile)
}

// Refresh rotates the refresh token: the old session is deleted and a
// fresh access/refresh pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	data, err := s.sessions.Lookup(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrSessionExpired
	}

	profile, err := s.profileRepo.GetByID(ctx, data.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrSessionExpired
	}

	if err := s.sessions.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, profile)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Delete(ctx, refreshToken)
}

func (s *AuthService) issueTokens(ctx context.Context, profile *domain.Profile) (*AuthResponse, error) {
	access, err := s.generateToken(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	err = s.sessions.Save(ctx, refresh, session.Data{
		ProfileID: profile.ID,
		CreatedAt: time.Now(),
	}, refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("saving refresh session: %w", err)
	}

	return &AuthResponse{Profile: profile, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) generateToken(profileID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": profileID.String(),
		"exp": time.Now().Add(accessTokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	return fmt.Sprintf("%s:%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func verifyPassword(password, encoded string) bool {
	saltB64, hashB64, ok := strings.Cut(encoded, ":")
	if !ok {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(hash, expectedHash) == 1
}
