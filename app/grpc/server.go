package grpc

import (
	"context"

	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/app/types"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type AuthServer struct {
	types.UnimplementedAuthServiceServer
	authService service.AuthService
	userService service.UserService
}

func NewAuthServer(authService service.AuthService, userService service.UserService) *AuthServer {
	return &AuthServer{
		authService: authService,
		userService: userService,
	}
}

func codeForKind(kind service.Kind) codes.Code {
	switch kind {
	case service.KindUnauthorized:
		return codes.Unauthenticated
	case service.KindForbidden:
		return codes.PermissionDenied
	case service.KindNotFound:
		return codes.NotFound
	case service.KindConflict:
		return codes.AlreadyExists
	case service.KindInvalid:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// statusError converts a service error into a gRPC status, logging internal
// causes before they are replaced by the public message.
func statusError(err error, fields logrus.Fields, action string) error {
	kind := service.KindOf(err)
	entry := logrus.WithFields(fields)
	if kind == service.KindInternal {
		entry.WithError(err).Errorf("%s failed (grpc)", action)
	} else {
		entry.WithField("reason", err.Error()).Warnf("%s failed (grpc)", action)
	}
	return status.Error(codeForKind(kind), service.PublicMessage(err))
}

func (s *AuthServer) Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.GetEmail()).Debug("Login validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.authService.Login(ctx, req.GetEmail(), req.GetPassword())
	if err != nil {
		return nil, statusError(err, logrus.Fields{"email": req.GetEmail()}, "Login")
	}

	logrus.WithField("user_id", res.User.ID).Info("Login successful (grpc)")
	return &types.LoginResponse{
		Id:           res.User.ID,
		Name:         res.User.Name,
		Email:        res.User.Email,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, nil
}

func (s *AuthServer) RefreshToken(ctx context.Context, req *types.RefreshTokenRequest) (*types.RefreshTokenResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.Debug("Refresh token validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	pair, err := s.authService.RefreshTokens(ctx, req.GetRefreshToken())
	if err != nil {
		return nil, statusError(err, nil, "Refresh token")
	}

	return &types.RefreshTokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

func (s *AuthServer) Logout(ctx context.Context, _ *types.LogoutRequest) (*types.LogoutResponse, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, service.ErrTokenNotFound.Msg)
	}

	if err := s.authService.Logout(ctx, principal.ID); err != nil {
		return nil, statusError(err, logrus.Fields{"user_id": principal.ID}, "Logout")
	}

	logrus.WithField("user_id", principal.ID).Info("Logout successful (grpc)")
	return &types.LogoutResponse{Message: "logged out successfully"}, nil
}

func (s *AuthServer) ChangePassword(ctx context.Context, req *types.ChangePasswordRequest) (*types.ChangePasswordResponse, error) {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, service.ErrTokenNotFound.Msg)
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Change password validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	err := s.authService.ChangePassword(ctx, principal.ID, req.GetOldPassword(), req.GetNewPassword())
	if err != nil {
		return nil, statusError(err, logrus.Fields{"user_id": principal.ID}, "Change password")
	}

	logrus.WithField("user_id", principal.ID).Info("Password changed (grpc)")
	return &types.ChangePasswordResponse{Message: "password changed successfully"}, nil
}

func (s *AuthServer) ForgotPassword(ctx context.Context, req *types.ForgotPasswordRequest) (*types.ForgotPasswordResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.Debug("Forgot password validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := s.authService.ForgotPassword(ctx, req.GetEmail())
	if err != nil {
		return nil, statusError(err, nil, "Forgot password")
	}
	return &types.ForgotPasswordResponse{Message: res.Message}, nil
}

func (s *AuthServer) ResetPassword(ctx context.Context, req *types.ResetPasswordRequest) (*types.ResetPasswordResponse, error) {
	if err := req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed (grpc)")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.authService.ResetPassword(ctx, req.GetNewPassword(), req.GetResetToken()); err != nil {
		return nil, statusError(err, nil, "Reset password")
	}

	logrus.Info("Password reset successful (grpc)")
	return &types.ResetPasswordResponse{Message: "password reset successfully"}, nil
}

// ValidateToken never fails on a bad token; it answers Valid=false so peers
// can treat the result as a plain predicate.
func (s *AuthServer) ValidateToken(_ context.Context, req *types.ValidateTokenRequest) (*types.ValidateTokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	claims, err := s.authService.VerifyAccessToken(req.GetAccessToken())
	if err != nil {
		logrus.Debug("Validate token failed (grpc)")
		return &types.ValidateTokenResponse{Valid: false}, nil
	}

	return &types.ValidateTokenResponse{
		Valid:  true,
		UserId: claims.ID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func (s *AuthServer) UpdateRole(ctx context.Context, req *types.UpdateRoleRequest) (*types.UpdateRoleResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	user, err := s.userService.UpdateRole(ctx, req.GetUserId(), req.GetRole())
	if err != nil {
		return nil, statusError(err, logrus.Fields{"user_id": req.GetUserId()}, "Update role")
	}

	admin, _ := PrincipalFromContext(ctx)
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"role":     user.Role,
		"admin_id": admin.ID,
	}).Info("User role updated (grpc)")
	return &types.UpdateRoleResponse{UserId: user.ID, Role: user.Role}, nil
}
