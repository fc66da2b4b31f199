package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

// placeholderSecrets are sample values that must never sign real tokens.
var placeholderSecrets = map[string]bool{
	"your_jwt_secret": true,
	"changeme":        true,
	"secret":          true,
}

type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(passphrase string) (token string, expiresAt time.Time, err error)
	Verify(token string) (*AdminClaims, error)
}

type authService struct {
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService accepts either a bcrypt hash or a plain passphrase, which is
// hashed once here.
func NewAuthService(passphrase, passphraseHash, secret string, ttl time.Duration) (AuthService, error) {
	hash := []byte(passphraseHash)
	if len(hash) == 0 {
		if passphrase == "" {
			return nil, fmt.Errorf("admin passphrase is not configured")
		}
		var err error
		hash, err = HashPassphrase(passphrase)
		if err != nil {
			return nil, err
		}
	}
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is not configured")
	}
	if placeholderSecrets[strings.ToLower(secret)] {
		return nil, fmt.Errorf("jwt secret %q is a placeholder, set JWT_SECRET", secret)
	}
	return &authService{hash: hash, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func HashPassphrase(passphrase string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash passphrase: %w", err)
	}
	return hash, nil
}

func (s *authService) Login(passphrase string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(passphrase)); err != nil {
		return "", time.Time{}, ErrUnauthorized
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &AdminClaims{
		Role: adminSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *authService) Verify(tokenStr string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Subject != adminSubject {
		return nil, ErrUnauthorized
	}
	return claims, nil
}
