package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidRole        = errors.New("unknown admin role")
)

// TokenType distinguishes respondent vs admin tokens.
type TokenType string

const (
	TokenTypeRespondent TokenType = "respondent"
	TokenTypeAdmin      TokenType = "admin"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   TokenType  `json:"token_type"`
	UserID      int        `json:"user_id"`
	Role        model.Role `json:"role,omitempty"`        // Admin only
	Permissions []string   `json:"permissions,omitempty"` // Admin only
}

// AuthService handles admin authentication and the JWTs for both admins and respondents.
type AuthService struct {
	cfg    *config.Config
	admins AdminStore
	log    zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, admins AdminStore, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		admins: admins,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies admin credentials and returns the admin with a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Admin, string, error) {
	admin, err := s.admins.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := s.CheckPassword(admin.PasswordHash, password); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateAdminToken(admin)
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

// GetAdmin retrieves an admin by ID.
func (s *AuthService) GetAdmin(ctx context.Context, id int) (*model.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return admin, err
}

// CreateAdmin stores a new admin with a hashed password.
func (s *AuthService) CreateAdmin(ctx context.Context, username, name, password string, role model.Role) (*model.Admin, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &model.Admin{
		Username:     strings.TrimSpace(username),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateAdminUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return admin, nil
}

// EnsureDefaultAdmin creates the configured default admin when no admin exists yet.
// It reports whether an admin was created.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) (bool, error) {
	n, err := s.admins.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if s.cfg.DefaultAdminPassword == "" {
		s.log.Warn().Msg("No admin exists and DEFAULT_ADMIN_PASSWORD is empty; run cmd/create-admin")
		return false, nil
	}

	admin, err := s.CreateAdmin(ctx, s.cfg.DefaultAdminUsername, "Administrator", s.cfg.DefaultAdminPassword, model.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	s.log.Info().Str("username", admin.Username).Msg("Default admin created")
	return true, nil
}

// GenerateAdminToken creates a JWT for an admin with role permissions embedded.
func (s *AuthService) GenerateAdminToken(admin *model.Admin) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(admin.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType:   TokenTypeAdmin,
		UserID:      admin.ID,
		Role:        admin.Role,
		Permissions: admin.Role.Permissions(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// GenerateRespondentToken creates the survey token handed out at registration.
// It lives as long as buffered answers do.
func (s *AuthService) GenerateRespondentToken(respondentID int) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   strconv.Itoa(respondentID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SurveyStateTTL)),
		},
		TokenType: TokenTypeRespondent,
		UserID:    respondentID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
