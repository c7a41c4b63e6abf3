package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/bazaarpay/bazaar_wallet/internal/config"
	"github.com/bazaarpay/bazaar_wallet/internal/identity"
)

func testConfig() config.Config {
	return config.Config{
		AdminEmail:     "admin@bazaar.local",
		AdminPassword:  "console-pass",
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
	}
}

func TestAdminLoginIssuesAdminToken(t *testing.T) {
	svc := NewService(testConfig())

	token, err := svc.LoginAdmin("admin@bazaar.local", "console-pass")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}

	claims, err := svc.Verify(token.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Fatalf("expected admin role, got %q", claims.Role)
	}
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(testConfig())

	if _, err := svc.LoginAdmin("admin@bazaar.local", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.LoginAdmin("someone@else.com", "console-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUserTokenCarriesSubject(t *testing.T) {
	svc := NewService(testConfig())

	token, err := svc.IssueUserToken(identity.User{ID: "u-42"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	claims, err := svc.Verify(token.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u-42" || claims.Role != RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredAndTampered(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	expiredSvc := NewService(cfg)

	token, err := expiredSvc.IssueUserToken(identity.User{ID: "u-1"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := expiredSvc.Verify(token.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected expiry rejection, got %v", err)
	}

	svc := NewService(testConfig())
	good, _ := svc.IssueUserToken(identity.User{ID: "u-1"})
	if _, err := svc.Verify(good.AccessToken + "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected signature rejection, got %v", err)
	}
}
