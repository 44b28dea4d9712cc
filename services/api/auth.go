package api

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func verifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (a *API) issueToken(userID uuid.UUID, use string, ttl time.Duration, key []byte) (string, error) {
	now := a.now().UTC()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
		TokenUse: use,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// issueTokenPair returns a short-lived access token and a long-lived refresh
// token for the user. The two kinds are signed with distinct keys.
func (a *API) issueTokenPair(userID uuid.UUID) (access, refresh string, err error) {
	access, err = a.issueToken(userID, tokenUseAccess, a.config.AccessTokenTTL, a.config.SigningKey)
	if err != nil {
		return "", "", err
	}
	refresh, err = a.issueToken(userID, tokenUseRefresh, a.config.RefreshTokenTTL, a.config.RefreshKey)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (a *API) verifyToken(credential, use string, key []byte) (uuid.UUID, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return uuid.Nil, mapJWTError(err)
	}

	if claims.TokenUse != use {
		return uuid.Nil, &AuthError{Reason: "credential not valid for this use"}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, &AuthError{Reason: "invalid credential subject"}
	}
	return userID, nil
}

// verifyAccess validates a bearer credential for resource access. Refresh
// credentials never pass: they carry a different use claim and key.
func (a *API) verifyAccess(credential string) (uuid.UUID, error) {
	return a.verifyToken(credential, tokenUseAccess, a.config.SigningKey)
}

func (a *API) verifyRefresh(credential string) (uuid.UUID, error) {
	return a.verifyToken(credential, tokenUseRefresh, a.config.RefreshKey)
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return &AuthError{Reason: "credential expired", Expired: true}
	}
	return &AuthError{Reason: "invalid credential"}
}
