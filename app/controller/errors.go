package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a service error onto an HTTP response. Internal errors
// are logged with their cause and answered with a generic message.
func respondError(ctx echo.Context, err error, fields logrus.Fields, action string) error {
	kind := service.KindOf(err)
	entry := logrus.WithFields(fields)

	if kind == service.KindInternal {
		entry.WithError(err).Errorf("%s failed", action)
	} else {
		entry.WithField("reason", err.Error()).Warnf("%s failed", action)
	}

	return ctx.JSON(statusForKind(kind), httpdto.ErrorResponse{Error: service.PublicMessage(err)})
}

func badRequest(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: msg})
}

func currentUserID(ctx echo.Context) (uint64, bool) {
	userID, ok := ctx.Get("user_id").(uint64)
	return userID, ok
}
