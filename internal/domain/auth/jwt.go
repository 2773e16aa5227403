// Package auth validates bearer tokens and turns them into farm-scoped user
// context.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"herdbook/internal/core/apperror"
	appctx "herdbook/internal/core/context"
)

// JWTConfig holds the HMAC secret and token lifetime.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig issues 15-minute tokens as "herdbook".
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "herdbook",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims represents JWT claims. FarmID is the farm the token may generate
// tags for; admins may act on any farm.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string   `json:"uid"`
	FarmID  string   `json:"fid"`
	Email   string   `json:"email,omitempty"`
	Roles   []string `json:"roles,omitempty"`
	IsAdmin bool     `json:"adm,omitempty"`
}

// JWTService signs and validates HS256 access tokens.
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config, now: time.Now}
}

// GenerateAccessToken mints a token for userID scoped to farmID. tagctl uses
// it for local testing; production tokens come from the identity provider.
func (s *JWTService) GenerateAccessToken(userID, farmID, email string, roles []string, isAdmin bool) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.AccessTokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:  userID,
		FarmID:  farmID,
		Email:   email,
		Roles:   roles,
		IsAdmin: isAdmin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken checks signature, issuer and expiry. Tokens without a farm are
// accepted only for admins.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.key, append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))...)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid token").WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperror.NewUnauthorized("invalid token claims")
	}
	if claims.FarmID == "" && !claims.IsAdmin {
		return nil, apperror.NewUnauthorized("token has no farm")
	}

	return &appctx.UserContext{
		UserID:  claims.UserID,
		FarmID:  claims.FarmID,
		Email:   claims.Email,
		Roles:   claims.Roles,
		IsAdmin: claims.IsAdmin,
	}, nil
}

func (s *JWTService) key(*jwt.Token) (any, error) {
	return []byte(s.config.Secret), nil
}
