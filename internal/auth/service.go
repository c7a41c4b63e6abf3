package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/bazaarpay/bazaar_wallet/internal/config"
	"github.com/bazaarpay/bazaar_wallet/internal/identity"
)

const (
	// RoleAdmin marks tokens issued against the shared console credential.
	RoleAdmin = "admin"
	// RoleUser marks customer session tokens.
	RoleUser = "user"
)

// ErrInvalidCredentials covers both bad admin credentials and token misuse.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service issues and verifies session tokens. The admin side is a single
// shared credential held in config; it stands in for a real authorization
// model.
type Service struct {
	cfg config.Config
}

// NewService builds the auth service.
func NewService(cfg config.Config) *Service {
	return &Service{cfg: cfg}
}

// Token is an issued session token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// LoginAdmin checks the shared console credential and issues an admin token.
func (s *Service) LoginAdmin(email, password string) (Token, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.AdminEmail))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword))
	if emailOK&passOK != 1 {
		return Token{}, ErrInvalidCredentials
	}
	return s.sign("admin", RoleAdmin)
}

// IssueUserToken creates a session token for an authenticated customer.
func (s *Service) IssueUserToken(user identity.User) (Token, error) {
	return s.sign(user.ID, RoleUser)
}

// Claims is the verified content of a session token.
type Claims struct {
	Subject string
	Role    string
}

// Verify checks the token signature and expiry and returns its claims.
func (s *Service) Verify(token string) (Claims, error) {
	raw, err := ParseAndVerifyHS256(token, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Claims{}, ErrInvalidCredentials
	}
	exp, _ := raw["exp"].(float64)
	if time.Now().Unix() >= int64(exp) {
		return Claims{}, ErrInvalidCredentials
	}
	sub, _ := raw["sub"].(string)
	role, _ := raw["role"].(string)
	if sub == "" || role == "" {
		return Claims{}, ErrInvalidCredentials
	}
	return Claims{Subject: sub, Role: role}, nil
}

func (s *Service) sign(subject, role string) (Token, error) {
	now := time.Now()
	exp := now.Add(s.cfg.AccessTokenTTL)
	claims := map[string]any{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	signed, err := SignHS256(claims, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(time.Until(exp).Seconds())}, nil
}
