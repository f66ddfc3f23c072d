package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

func (c *AuthController) Register(ctx echo.Context) error {
	var req httpdto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return badRequest(ctx, err.Error())
	}

	result, err := c.authService.Register(ctx.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"email": req.Email}, "Register")
	}

	logrus.WithField("user_id", result.User.ID).Info("User registered")
	return ctx.JSON(http.StatusCreated, httpdto.NewUserResponse(result.User))
}

func (c *AuthController) VerifyEmail(ctx echo.Context) error {
	var req httpdto.VerifyEmailRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := c.authService.VerifyEmail(ctx.Request().Context(), req.Token); err != nil {
		return respondError(ctx, err, nil, "Verify email")
	}
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "email verified"})
}

func (c *AuthController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := c.authService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(ctx, err, logrus.Fields{"email": req.Email}, "Login")
	}

	logrus.WithField("user_id", result.User.ID).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.LoginResponse{
		ID:           result.User.ID,
		Name:         result.User.Name,
		Email:        result.User.Email,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	})
}

func (c *AuthController) RefreshToken(ctx echo.Context) error {
	var req httpdto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	pair, err := c.authService.RefreshTokens(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(ctx, err, nil, "Refresh token")
	}
	return ctx.JSON(http.StatusOK, httpdto.NewTokenResponse(pair))
}

func (c *AuthController) Logout(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		logrus.Warn("Logout failed: missing user_id in context")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: service.ErrInvalidToken.Msg})
	}

	if err := c.authService.Logout(ctx.Request().Context(), userID); err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID}, "Logout")
	}

	logrus.WithField("user_id", userID).Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "logged out successfully"})
}

func (c *AuthController) ChangePassword(ctx echo.Context) error {
	userID, ok := currentUserID(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: service.ErrInvalidToken.Msg})
	}

	var req httpdto.ChangePasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := c.authService.ChangePassword(ctx.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return respondError(ctx, err, logrus.Fields{"user_id": userID}, "Change password")
	}

	logrus.WithField("user_id", userID).Info("Password changed")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password changed successfully"})
}

// ForgotPassword always answers 200 with the same body unless the store
// itself fails.
func (c *AuthController) ForgotPassword(ctx echo.Context) error {
	var req httpdto.ForgotPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := c.authService.ForgotPassword(ctx.Request().Context(), req.Email)
	if err != nil {
		return respondError(ctx, err, nil, "Forgot password")
	}
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: result.Message})
}

func (c *AuthController) ResetPassword(ctx echo.Context) error {
	var req httpdto.ResetPasswordRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := c.authService.ResetPassword(ctx.Request().Context(), req.NewPassword, req.ResetToken); err != nil {
		return respondError(ctx, err, nil, "Reset password")
	}
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "password reset successfully"})
}
