package middleware

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserName  = "user_name"
	ContextUserRole  = "user_role"
)

type accessTokenVerifier interface {
	VerifyAccessToken(tokenString string) (*service.Claims, error)
}

type AuthMiddleware struct {
	verifier accessTokenVerifier
}

func NewAuthMiddleware(verifier accessTokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth verifies the bearer token and attaches the principal to the
// echo context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := service.ParseBearer(c.Request().Header.Get("Authorization"))
		if err != nil {
			logrus.Debug("Missing or malformed authorization header")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: service.ErrTokenNotFound.Msg})
		}

		claims, err := m.verifier.VerifyAccessToken(tokenString)
		if err != nil {
			logrus.Debug("Invalid or expired access token")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: service.ErrInvalidToken.Msg})
		}

		c.Set(ContextUserID, claims.ID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserName, claims.Name)
		c.Set(ContextUserRole, claims.Role)

		return next(c)
	}
}
