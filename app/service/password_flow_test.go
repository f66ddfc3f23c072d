package service_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/service"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]{64}$`)

func newPasswordService(f *fixture) *service.PasswordService {
	return service.NewPasswordService(f.users, f.resets, f.refresh, f.hasher, f.mailer, f.cfg,
		service.WithPasswordAsyncRunner(syncRunner))
}

func TestForgotPasswordSameMessageAndNoWritesForUnknownEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "ana", "secret123")
	userWrites := f.users.writes

	known, err := f.auth.ForgotPassword(ctx, "ana@x.com")
	if err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	if f.resets.writes != 1 {
		t.Fatalf("expected one reset token write, got %d", f.resets.writes)
	}

	unknown, err := f.auth.ForgotPassword(ctx, "nobody@x.com")
	if err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	if known.Message != unknown.Message || known.Message != service.ForgotPasswordMessage {
		t.Fatalf("expected identical messages, got %q and %q", known.Message, unknown.Message)
	}
	if f.resets.writes != 1 || f.users.writes != userWrites {
		t.Fatalf("expected zero writes for unknown email")
	}
}

func TestForgotPasswordDispatchesHighEntropyToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "Ana", "ana@x.com", "ana", "secret123")

	before := time.Now()
	if _, err := newPasswordService(f).ForgotPassword(ctx, "ANA@x.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}

	sent, ok := f.mailer.last("reset")
	if !ok {
		t.Fatalf("expected reset email")
	}
	if sent.email != "ana@x.com" || !hexToken.MatchString(sent.token) {
		t.Fatalf("unexpected reset email: %+v", sent)
	}

	stored := f.resets.tokens[sent.token]
	if stored == nil || stored.UserID != id {
		t.Fatalf("expected stored reset token for user %d, got %+v", id, stored)
	}
	if stored.ExpiresAt.Before(before.Add(59*time.Minute)) || stored.ExpiresAt.After(time.Now().Add(time.Hour)) {
		t.Fatalf("unexpected reset expiry %v", stored.ExpiresAt)
	}
}

func TestForgotPasswordSucceedsWhenEmailDispatchFails(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ana", "ana@x.com", "ana", "secret123")
	f.mailer.err = errors.New("smtp down")

	res, err := f.auth.ForgotPassword(context.Background(), "ana@x.com")
	if err != nil {
		t.Fatalf("expected success despite dispatch failure, got %v", err)
	}
	if res.Message != service.ForgotPasswordMessage {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "ana", "secret123")

	if _, err := f.auth.ForgotPassword(ctx, "ana@x.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	sent, _ := f.mailer.last("reset")

	if err := f.auth.ResetPassword(ctx, "newpass1", sent.token); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	err := f.auth.ResetPassword(ctx, "another1", sent.token)
	if !errors.Is(err, service.ErrInvalidResetLink) {
		t.Fatalf("expected ErrInvalidResetLink on reuse, got %v", err)
	}
	if err.Error() != "Invalid link" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	if _, err = f.auth.Login(ctx, "ana@x.com", "newpass1"); err != nil {
		t.Fatalf("expected login with reset password, got %v", err)
	}
}

func TestResetPasswordConcurrentRedemption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "ana", "secret123")

	if _, err := f.auth.ForgotPassword(ctx, "ana@x.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	sent, _ := f.mailer.last("reset")

	const n = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.auth.ResetPassword(ctx, "newpass1", sent.token); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful redemption, got %d", successes)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "Ana", "ana@x.com", "ana", "secret123")

	_ = f.resets.Create(ctx, &entity.ResetToken{UserID: id, Token: "stale", ExpiresAt: time.Now().Add(-time.Minute)})

	if err := f.auth.ResetPassword(ctx, "newpass1", "stale"); !errors.Is(err, service.ErrInvalidResetLink) {
		t.Fatalf("expected ErrInvalidResetLink, got %v", err)
	}
}

func TestResetPasswordForVanishedUserIsInternal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.resets.Create(ctx, &entity.ResetToken{UserID: 77, Token: "orphan", ExpiresAt: time.Now().Add(time.Hour)})

	err := f.auth.ResetPassword(ctx, "newpass1", "orphan")
	if service.KindOf(err) != service.KindInternal {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestResetPasswordRejectsWeakPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "ana", "secret123")

	if _, err := f.auth.ForgotPassword(ctx, "ana@x.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	sent, _ := f.mailer.last("reset")

	if err := f.auth.ResetPassword(ctx, "abc", sent.token); !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestResetPasswordKeepsLinkAfterRejectedPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ana", "ana@x.com", "ana", "secret123")

	if _, err := f.auth.ForgotPassword(ctx, "ana@x.com"); err != nil {
		t.Fatalf("forgot password failed: %v", err)
	}
	sent, _ := f.mailer.last("reset")

	if err := f.auth.ResetPassword(ctx, "abc", sent.token); !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	err := f.auth.ResetPassword(ctx, strings.Repeat("x", 80), sent.token)
	if !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword for 80 byte password, got %v", err)
	}
	if service.KindOf(err) != service.KindInvalid {
		t.Fatalf("expected invalid kind, got %v", service.KindOf(err))
	}

	if err = f.auth.ResetPassword(ctx, "strongEnough1", sent.token); err != nil {
		t.Fatalf("expected retry with valid password to succeed, got %v", err)
	}
	if _, err = f.auth.Login(ctx, "ana@x.com", "strongEnough1"); err != nil {
		t.Fatalf("expected login with reset password, got %v", err)
	}
}
