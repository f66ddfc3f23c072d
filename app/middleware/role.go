package middleware

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type accessTokenDecoder interface {
	DecodeAccessToken(tokenString string) (*service.Claims, error)
}

// RoleMiddleware checks the caller's role against the roles an operation
// requires. It decodes the token without verifying it, so it must only be
// mounted after RequireAuth.
type RoleMiddleware struct {
	decoder accessTokenDecoder
}

func NewRoleMiddleware(decoder accessTokenDecoder) *RoleMiddleware {
	return &RoleMiddleware{decoder: decoder}
}

func (m *RoleMiddleware) RequireOperation(op service.Operation) echo.MiddlewareFunc {
	required := service.RequiredRoles(op)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(required) == 0 {
				return next(c)
			}

			tokenString, err := service.ParseBearer(c.Request().Header.Get("Authorization"))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: service.ErrTokenNotFound.Msg})
			}

			claims, err := m.decoder.DecodeAccessToken(tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: service.ErrInvalidToken.Msg})
			}

			if err = service.AuthorizeRole(claims.Role, required); err != nil {
				logrus.WithFields(logrus.Fields{
					"user_id":   claims.ID,
					"role":      claims.Role,
					"operation": string(op),
				}).Warn("Role check failed")
				return c.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: service.ErrForbidden.Msg})
			}

			return next(c)
		}
	}
}
