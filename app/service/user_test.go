package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/service"
)

func TestUserServiceUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "Ana", "ana@x.com", "ana", "secret123")
	users := service.NewUserService(f.users, f.refresh)

	updated, err := users.UpdateRole(ctx, id, entity.RoleAdmin)
	if err != nil {
		t.Fatalf("update role failed: %v", err)
	}
	if updated.Role != entity.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", updated.Role)
	}

	login, err := f.auth.Login(ctx, "ana@x.com", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, _ := f.auth.VerifyAccessToken(login.Tokens.AccessToken)
	if claims.Role != entity.RoleAdmin {
		t.Fatalf("expected new tokens to carry ADMIN, got %s", claims.Role)
	}

	if _, err = users.UpdateRole(ctx, id, "ROOT"); !errors.Is(err, service.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err = users.UpdateRole(ctx, 999, entity.RoleAdmin); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserServiceDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "Ana", "ana@x.com", "ana", "secret123")
	users := service.NewUserService(f.users, f.refresh)

	if _, err := f.auth.Login(ctx, "ana@x.com", "secret123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := users.DeleteUser(ctx, id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if f.refresh.tokenFor(id) != "" {
		t.Fatalf("expected refresh token to be removed")
	}
	if _, err := users.GetUser(ctx, id); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}
	if err := users.DeleteUser(ctx, id); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestUserServiceListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "ana", "secret123")
	f.register(t, "Bo", "bo@x.com", "bo", "secret123")
	users := service.NewUserService(f.users, f.refresh)

	list, err := users.ListUsers(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 2 || list[0].Username != "ana" {
		t.Fatalf("unexpected list: %+v", list)
	}

	list, err = users.ListUsers(ctx, 1, 1)
	if err != nil || len(list) != 1 || list[0].Username != "bo" {
		t.Fatalf("unexpected page: %+v %v", list, err)
	}

	found, err := users.GetUserByEmail(ctx, "BO@x.com")
	if err != nil || found.Username != "bo" {
		t.Fatalf("expected lookup by email, got %+v %v", found, err)
	}
}
