package controller_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/labstack/echo/v4"
)

type stubAuthService struct {
	registerFn       func(ctx context.Context, in service.RegisterInput) (*dto.RegisterResult, error)
	verifyEmailFn    func(ctx context.Context, token string) error
	loginFn          func(ctx context.Context, email, password string) (*dto.LoginResult, error)
	refreshFn        func(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	logoutFn         func(ctx context.Context, userID uint64) error
	federatedFn      func(ctx context.Context, identity service.FederatedIdentity) (*dto.FederatedLoginResult, error)
	forgotPasswordFn func(ctx context.Context, email string) (*dto.MessageResult, error)
	resetPasswordFn  func(ctx context.Context, newPassword, resetToken string) error
	changePasswordFn func(ctx context.Context, userID uint64, oldPassword, newPassword string) error
}

func (s *stubAuthService) Register(ctx context.Context, in service.RegisterInput) (*dto.RegisterResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) VerifyEmail(ctx context.Context, token string) error {
	return s.verifyEmailFn(ctx, token)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*dto.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) ValidateUser(context.Context, string, string) (*dto.UserIdentity, error) {
	return nil, service.ErrInvalidCredentials
}

func (s *stubAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubAuthService) Logout(ctx context.Context, userID uint64) error {
	return s.logoutFn(ctx, userID)
}

func (s *stubAuthService) LoginFederated(ctx context.Context, identity service.FederatedIdentity) (*dto.FederatedLoginResult, error) {
	return s.federatedFn(ctx, identity)
}

func (s *stubAuthService) ForgotPassword(ctx context.Context, email string) (*dto.MessageResult, error) {
	return s.forgotPasswordFn(ctx, email)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, newPassword, resetToken string) error {
	return s.resetPasswordFn(ctx, newPassword, resetToken)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, userID, oldPassword, newPassword)
}

func (s *stubAuthService) VerifyAccessToken(string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

func (s *stubAuthService) DecodeAccessToken(string) (*service.Claims, error) {
	return nil, service.ErrInvalidToken
}

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

