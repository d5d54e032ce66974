package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/config"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/security"
)

const refreshTokenByteLength = 64

// AccessTokenClaims is the JWT payload carried by access tokens.
type AccessTokenClaims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies the two credential kinds: signed,
// self-contained access tokens and opaque random refresh tokens. Access
// tokens are never looked up in storage; refresh tokens are never decoded.
type TokenService struct {
	cfg *config.AppConfig
	now func() time.Time
}

// NewTokenService constructs a TokenService instance.
func NewTokenService(cfg *config.AppConfig) *TokenService {
	service := &TokenService{cfg: cfg}
	service.now = func() time.Time { return time.Now().UTC() }
	return service
}

// WithClock overrides the service clock for deterministic tests.
func (s *TokenService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// MintAccessToken returns a signed HS256 token for the account and its expiry.
func (s *TokenService) MintAccessToken(accountID string, roles []string) (string, time.Time, error) {
	if strings.TrimSpace(accountID) == "" {
		return "", time.Time{}, fmt.Errorf("account id is required")
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.JWT.AccessTokenTTL)

	claims := AccessTokenClaims{
		Roles: copyRoles(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			Issuer:    s.cfg.JWT.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.JWT.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken validates signature, issuer, audience, and expiry with
// zero clock-skew tolerance. Pure function of the token and the signing key.
func (s *TokenService) VerifyAccessToken(token string) (*AccessTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidAccessToken
	}

	claims := &AccessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.cfg.JWT.Issuer),
		jwt.WithAudience(s.cfg.JWT.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	if parsed == nil || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

// MintRefreshToken generates an opaque refresh token. The raw value goes to
// the client; the returned record carries only its hash and is not yet
// persisted, so the caller can save it inside the same transaction that
// revokes a predecessor.
func (s *TokenService) MintRefreshToken(accountID, ip string) (string, domain.RefreshToken, error) {
	raw, err := security.GenerateSecureToken(refreshTokenByteLength)
	if err != nil {
		return "", domain.RefreshToken{}, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.now()
	record := domain.RefreshToken{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		TokenHash:   security.HashToken(raw),
		CreatedByIP: ip,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.JWT.RefreshTokenTTL),
	}

	return raw, record, nil
}

func copyRoles(input []string) []string {
	if len(input) == 0 {
		return nil
	}
	result := make([]string, len(input))
	copy(result, input)
	return result
}
