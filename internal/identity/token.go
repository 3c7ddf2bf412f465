package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/config"
	"github.com/HimanshuJangid2147/Medicus-Patient-Management-System-sub000/pkg/types"
)

// TokenIssuer signs and validates session tokens
type TokenIssuer struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	audience string
}

// NewTokenIssuer creates a new token issuer
func NewTokenIssuer(cfg *config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(cfg.SecretKey),
		ttl:      time.Duration(cfg.AccessTokenTTL) * time.Second,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// JWTClaims represents the signed token payload. The role claim is the
// single source of truth for the caller's tier; identity ids are only
// ever compared within a role namespace.
type JWTClaims struct {
	IdentityID string `json:"identity_id"`
	Role       string `json:"role"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	jwt.RegisteredClaims
}

// Issue signs a session token for the given identity
func (ti *TokenIssuer) Issue(identity *types.Identity) (*types.AuthToken, error) {
	now := time.Now()
	expiresAt := now.Add(ti.ttl)

	claims := &JWTClaims{
		IdentityID: identity.ID,
		Role:       string(identity.Role),
		Email:      identity.Email,
		Name:       identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    ti.issuer,
			Audience:  jwt.ClaimStrings{ti.audience},
			Subject:   identity.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &types.AuthToken{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	}, nil
}

// Validate parses a session token and returns the caller claims
func (ti *TokenIssuer) Validate(tokenString string) (*types.IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return nil, fmt.Errorf("token expired")
	}

	role := types.Role(claims.Role)
	if !types.ValidRole(role) {
		return nil, fmt.Errorf("unknown role claim: %s", claims.Role)
	}

	return &types.IdentityClaims{
		IdentityID: claims.IdentityID,
		Role:       role,
		Email:      claims.Email,
		Name:       claims.Name,
	}, nil
}
