package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const resetAudience = "password_reset"

// JWTManager handles generation and validation of JWT tokens
type JWTManager struct {
	AccessSecret  []byte
	ResetSecret   []byte
	AccessTTL     time.Duration
	RememberMeTTL time.Duration
	ResetTTL      time.Duration
}

func NewJWTManager(accessSecret, resetSecret string, accessTTL, rememberMeTTL, resetTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		ResetSecret:   []byte(resetSecret),
		AccessTTL:     accessTTL,
		RememberMeTTL: rememberMeTTL,
		ResetTTL:      resetTTL,
	}
}

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// ResetClaims bind a password reset token to the identity's security stamp.
type ResetClaims struct {
	UserID string `json:"uid"`
	Stamp  string `json:"stamp"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues an access token; rememberMe selects the longer lifetime.
func (m *JWTManager) GenerateAccessToken(userID string, rememberMe bool) (string, time.Time, error) {
	ttl := m.AccessTTL
	if rememberMe && m.RememberMeTTL > 0 {
		ttl = m.RememberMeTTL
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.AccessSecret)
	return s, exp, err
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parseToken(tokenStr, m.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateResetToken issues a short-lived token that authorizes one password change.
func (m *JWTManager) GenerateResetToken(userID, stamp string) (string, error) {
	now := time.Now()
	claims := &ResetClaims{
		UserID: userID,
		Stamp:  stamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{resetAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ResetTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.ResetSecret)
}

func (m *JWTManager) ParseResetToken(tokenStr string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := parseToken(tokenStr, m.ResetSecret, claims, jwt.WithAudience(resetAudience)); err != nil {
		return nil, err
	}
	return claims, nil
}

func parseToken(tokenStr string, secret []byte, claims jwt.Claims, opts ...jwt.ParserOption) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return errors.New("invalid token")
	}
	return nil
}
