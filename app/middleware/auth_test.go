package middleware_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/middleware"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/labstack/echo/v4"
)

func TestRequireAuth_MissingHeader(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(tokenIssuer(newSigner(t)))
	ctx, rec := newContext("")

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Token not found") {
		t.Fatalf("expected Token not found, got %s", rec.Body.String())
	}
}

func TestRequireAuth_InvalidHeaderFormat(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(tokenIssuer(newSigner(t)))
	ctx, rec := newContext("Token abc")

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Token not found") {
		t.Fatalf("expected 401 Token not found, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(tokenIssuer(newSigner(t)))
	ctx, rec := newContext("Bearer invalid.token.value")

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), "Invalid token") {
		t.Fatalf("expected 401 Invalid token, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	signer := newSigner(t)
	authMiddleware := middleware.NewAuthMiddleware(tokenIssuer(signer))
	token := signToken(t, signer, service.Claims{ID: 1}, -time.Minute)
	ctx, rec := newContext("Bearer " + token)

	if err := authMiddleware.RequireAuth(okHandler)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_ValidTokenSetsPrincipal(t *testing.T) {
	signer := newSigner(t)
	authMiddleware := middleware.NewAuthMiddleware(tokenIssuer(signer))
	token := signToken(t, signer, service.Claims{ID: 7, Name: "Ana", Email: "ana@x.com", Role: "STUDENT"}, time.Hour)
	ctx, rec := newContext("bearer " + token)

	handler := authMiddleware.RequireAuth(func(c echo.Context) error {
		if c.Get(middleware.ContextUserID) != uint64(7) {
			t.Fatalf("unexpected user_id %v", c.Get(middleware.ContextUserID))
		}
		if c.Get(middleware.ContextUserEmail) != "ana@x.com" || c.Get(middleware.ContextUserName) != "Ana" {
			t.Fatalf("unexpected principal fields")
		}
		if c.Get(middleware.ContextUserRole) != "STUDENT" {
			t.Fatalf("unexpected role %v", c.Get(middleware.ContextUserRole))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}
