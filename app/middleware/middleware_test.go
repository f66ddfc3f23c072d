package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func newSigner(t *testing.T) *service.JWTSigner {
	t.Helper()

	signer, err := service.NewJWTSigner(testSecret)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	return signer
}

// tokenIssuer exposes the signer through the access-token verifier/decoder
// methods the middleware constructors accept.
func tokenIssuer(signer *service.JWTSigner) *service.TokenIssuer {
	return service.NewTokenIssuer(signer, nil, nil, &config.Config{})
}

func signToken(t *testing.T, signer *service.JWTSigner, claims service.Claims, ttl time.Duration) string {
	t.Helper()

	token, err := signer.Sign(claims, ttl)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func newContext(authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
