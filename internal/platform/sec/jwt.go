// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec verifies and mints the RS256 bearer tokens of editors.
//
// The API server holds only the public key. Tokens come from the identity
// provider in production and from storyctl token during development, which
// loads the private key as well.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// clockSkew tolerates drift between the token issuer and this host.
const clockSkew = 30 * time.Second

// ErrSigningUnavailable is returned by [TokenService.GenerateAccessToken] on a
// service built without a private key.
var ErrSigningUnavailable = errors.New("auth: no private key loaded")

// AuthClaims is the editor identity carried by an access token.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID   string `json:"uid"`
	Username string `json:"name"`
	Role     string `json:"role,omitempty"`
}

// TokenService signs and verifies access tokens for one issuer.
type TokenService struct {
	issuer     string
	publicKey  *rsa.PublicKey
	privateKey *rsa.PrivateKey // nil on verify-only services
}

// NewTokenVerifier loads a PEM public key into a verify-only service.
func NewTokenVerifier(publicKeyPath, issuer string) (*TokenService, error) {
	publicKey, err := loadKey(publicKeyPath, "public", jwt.ParseRSAPublicKeyFromPEM)
	if err != nil {
		return nil, err
	}
	return NewTokenServiceFromKeys(nil, publicKey, issuer), nil
}

// NewTokenService loads both halves of a PEM key pair.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privateKey, err := loadKey(privateKeyPath, "private", jwt.ParseRSAPrivateKeyFromPEM)
	if err != nil {
		return nil, err
	}
	publicKey, err := loadKey(publicKeyPath, "public", jwt.ParseRSAPublicKeyFromPEM)
	if err != nil {
		return nil, err
	}
	return NewTokenServiceFromKeys(privateKey, publicKey, issuer), nil
}

// NewTokenServiceFromKeys builds a service from parsed keys. privateKey may be nil.
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) *TokenService {
	return &TokenService{issuer: issuer, publicKey: publicKey, privateKey: privateKey}
}

// GenerateAccessToken signs a token for userID that expires after ttl.
func (service *TokenService) GenerateAccessToken(userID, username, role string, ttl time.Duration) (string, error) {
	if service.privateKey == nil {
		return "", ErrSigningUnavailable
	}

	issuedAt := time.Now()
	claims := &AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    service.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		UserID:   userID,
		Username: username,
		Role:     role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken accepts only unexpired RS256 tokens from the configured issuer
// that name a user.
func (service *TokenService) VerifyToken(raw string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return service.publicKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}
	if claims.UserID == "" {
		return nil, errors.New("auth: token names no user")
	}
	return claims, nil
}

func loadKey[K any](path, kind string, parse func([]byte) (K, error)) (K, error) {
	var zero K

	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("auth: read %s key %s: %w", kind, path, err)
	}

	key, err := parse(data)
	if err != nil {
		return zero, fmt.Errorf("auth: parse %s key %s: %w", kind, path, err)
	}
	return key, nil
}
