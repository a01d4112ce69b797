package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager validates platform access tokens and, for tooling and tests,
// issues them. Tokens carry the user as subject and the tenant as a claim.
type JWTManager struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewJWTManager creates a new JWT manager.
// secret must be at least 32 characters for HS256 security.
func NewJWTManager(secret string, issuer string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// accessClaims extends standard JWT claims with the tenant and role.
type accessClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	Role     string `json:"role,omitempty"`
}

// GenerateAccessToken creates a signed HS256 JWT for id.
func (m *JWTManager) GenerateAccessToken(id Identity) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: id.TenantID,
		Role:     id.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ValidateAccessToken parses and validates a JWT access token.
// Tokens without a subject or tenant are rejected.
func (m *JWTManager) ValidateAccessToken(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != m.issuer {
		return Identity{}, fmt.Errorf("invalid issuer: expected %s, got %s", m.issuer, claims.Issuer)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Identity{}, fmt.Errorf("token has no subject")
	}
	tenant := strings.TrimSpace(claims.TenantID)
	if tenant == "" {
		return Identity{}, fmt.Errorf("token has no tenant_id")
	}

	return Identity{TenantID: tenant, UserID: subject, Role: claims.Role}, nil
}
