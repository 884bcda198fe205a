package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
)

// TokenConfig defines how staff access tokens are signed and verified.
type TokenConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

// StaffIdentity is the subject of an issued token.
type StaffIdentity struct {
	ID    string
	Email string
	Name  string
	Role  models.StaffRole
}

// TokenService issues and verifies HS256 staff bearer tokens.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig) *TokenService {
	if config.Expiry <= 0 {
		config.Expiry = 12 * time.Hour
	}
	return &TokenService{config: config, now: time.Now}
}

// Issue signs an access token for a staff member.
func (s *TokenService) Issue(identity StaffIdentity) (string, time.Time, error) {
	switch identity.Role {
	case models.RoleOwner, models.RoleAdmin, models.RoleEducator:
	default:
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown staff role %q", identity.Role))
	}
	if strings.TrimSpace(identity.ID) == "" {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "staff id is required")
	}
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiry)
	claims := &models.JWTClaims{
		UserID: identity.ID,
		Role:   identity.Role,
		Email:  identity.Email,
		Name:   identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to sign token")
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a bearer token.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrUnauthorized, err, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
