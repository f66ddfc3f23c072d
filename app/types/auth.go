package types

import (
	"errors"
	"strings"
)

type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

func (r *LoginRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

func (r *LoginRequest) GetPassword() string {
	if r == nil {
		return ""
	}
	return r.Password
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.GetEmail()) == "" || r.GetPassword() == "" {
		return errors.New("email and password are required")
	}

	return nil
}

type LoginResponse struct {
	Id           uint64 `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (r *LoginResponse) GetId() uint64 {
	if r == nil {
		return 0
	}
	return r.Id
}

func (r *LoginResponse) GetAccessToken() string {
	if r == nil {
		return ""
	}
	return r.AccessToken
}

func (r *LoginResponse) GetRefreshToken() string {
	if r == nil {
		return ""
	}
	return r.RefreshToken
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (r *RefreshTokenRequest) GetRefreshToken() string {
	if r == nil {
		return ""
	}
	return r.RefreshToken
}

func (r *RefreshTokenRequest) Validate() error {
	if strings.TrimSpace(r.GetRefreshToken()) == "" {
		return errors.New("refresh_token is required")
	}

	return nil
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

func (r *RefreshTokenResponse) GetAccessToken() string {
	if r == nil {
		return ""
	}
	return r.AccessToken
}

func (r *RefreshTokenResponse) GetRefreshToken() string {
	if r == nil {
		return ""
	}
	return r.RefreshToken
}

// LogoutRequest is empty: the caller is identified by the bearer token in
// the authorization metadata.
type LogoutRequest struct{}

type LogoutResponse struct {
	Message string `json:"message,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

func (r *ChangePasswordRequest) GetOldPassword() string {
	if r == nil {
		return ""
	}
	return r.OldPassword
}

func (r *ChangePasswordRequest) GetNewPassword() string {
	if r == nil {
		return ""
	}
	return r.NewPassword
}

func (r *ChangePasswordRequest) Validate() error {
	if r.GetOldPassword() == "" || r.GetNewPassword() == "" {
		return errors.New("old_password and new_password are required")
	}

	return nil
}

type ChangePasswordResponse struct {
	Message string `json:"message,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email,omitempty"`
}

func (r *ForgotPasswordRequest) GetEmail() string {
	if r == nil {
		return ""
	}
	return r.Email
}

func (r *ForgotPasswordRequest) Validate() error {
	if strings.TrimSpace(r.GetEmail()) == "" {
		return errors.New("email is required")
	}

	return nil
}

type ForgotPasswordResponse struct {
	Message string `json:"message,omitempty"`
}

func (r *ForgotPasswordResponse) GetMessage() string {
	if r == nil {
		return ""
	}
	return r.Message
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password,omitempty"`
	ResetToken  string `json:"reset_token,omitempty"`
}

func (r *ResetPasswordRequest) GetNewPassword() string {
	if r == nil {
		return ""
	}
	return r.NewPassword
}

func (r *ResetPasswordRequest) GetResetToken() string {
	if r == nil {
		return ""
	}
	return r.ResetToken
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.GetResetToken()) == "" || r.GetNewPassword() == "" {
		return errors.New("reset_token and new_password are required")
	}

	return nil
}

type ResetPasswordResponse struct {
	Message string `json:"message,omitempty"`
}

type ValidateTokenRequest struct {
	AccessToken string `json:"access_token,omitempty"`
}

func (r *ValidateTokenRequest) GetAccessToken() string {
	if r == nil {
		return ""
	}
	return r.AccessToken
}

func (r *ValidateTokenRequest) Validate() error {
	if strings.TrimSpace(r.GetAccessToken()) == "" {
		return errors.New("access_token is required")
	}

	return nil
}

type ValidateTokenResponse struct {
	Valid  bool   `json:"valid,omitempty"`
	UserId uint64 `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

func (r *ValidateTokenResponse) GetValid() bool {
	if r == nil {
		return false
	}
	return r.Valid
}

func (r *ValidateTokenResponse) GetUserId() uint64 {
	if r == nil {
		return 0
	}
	return r.UserId
}

func (r *ValidateTokenResponse) GetRole() string {
	if r == nil {
		return ""
	}
	return r.Role
}

type UpdateRoleRequest struct {
	UserId uint64 `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

func (r *UpdateRoleRequest) GetUserId() uint64 {
	if r == nil {
		return 0
	}
	return r.UserId
}

func (r *UpdateRoleRequest) GetRole() string {
	if r == nil {
		return ""
	}
	return r.Role
}

func (r *UpdateRoleRequest) Validate() error {
	if r.GetUserId() == 0 || strings.TrimSpace(r.GetRole()) == "" {
		return errors.New("user_id and role are required")
	}

	return nil
}

type UpdateRoleResponse struct {
	UserId uint64 `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

func (r *UpdateRoleResponse) GetRole() string {
	if r == nil {
		return ""
	}
	return r.Role
}
