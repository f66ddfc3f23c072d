package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/service"
)

func TestLoginFederatedCreatesPasswordlessUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.LoginFederated(ctx, service.FederatedIdentity{Email: "Fed@X.com", Name: "Fed"})
	if err != nil {
		t.Fatalf("federated login failed: %v", err)
	}
	if !res.Created {
		t.Fatalf("expected user to be created")
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", res.Tokens)
	}

	user, _ := f.users.FindByID(ctx, res.User.ID)
	if user.HasPassword() {
		t.Fatalf("expected no password hash")
	}
	if user.Email != "fed@x.com" || user.Username != "fed@x.com" || user.Role != entity.RoleStudent {
		t.Fatalf("unexpected federated user: %+v", user)
	}
}

func TestLoginFederatedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.auth.LoginFederated(ctx, service.FederatedIdentity{Email: "fed@x.com", Name: "Fed"})
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	second, err := f.auth.LoginFederated(ctx, service.FederatedIdentity{Email: "fed@x.com", Name: "Fed"})
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Fatalf("expected same user id, got %d and %d", first.User.ID, second.User.ID)
	}
	if second.Created {
		t.Fatalf("expected existing user on second call")
	}
	if first.Tokens.RefreshToken == second.Tokens.RefreshToken {
		t.Fatalf("expected re-issued refresh token")
	}
}

func TestLoginFederatedLinksExistingLocalUser(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "Ana", "ana@x.com", "ana", "secret123")

	res, err := f.auth.LoginFederated(context.Background(), service.FederatedIdentity{Email: "ana@x.com", Name: "Ana G"})
	if err != nil {
		t.Fatalf("federated login failed: %v", err)
	}
	if res.User.ID != id || res.Created {
		t.Fatalf("expected existing local user %d, got %+v", id, res.User)
	}
}

func TestLoginFederatedUsernameHeldByAnotherUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherID := f.register(t, "Other", "other@x.com", "carl@x.com", "secret123")

	res, err := f.auth.LoginFederated(ctx, service.FederatedIdentity{Email: "carl@x.com", Name: "Carl"})
	if err != nil {
		t.Fatalf("federated login failed: %v", err)
	}
	if !res.Created || res.User.ID == otherID {
		t.Fatalf("expected a new user, got %+v", res.User)
	}
	if res.Tokens.AccessToken == "" || res.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", res.Tokens)
	}

	user, _ := f.users.FindByID(ctx, res.User.ID)
	if user.Email != "carl@x.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
	if user.Username == "carl@x.com" || !strings.HasPrefix(user.Username, "carl@x.com-") {
		t.Fatalf("expected disambiguated username, got %q", user.Username)
	}

	again, err := f.auth.LoginFederated(ctx, service.FederatedIdentity{Email: "carl@x.com", Name: "Carl"})
	if err != nil {
		t.Fatalf("second federated login failed: %v", err)
	}
	if again.User.ID != res.User.ID || again.Created {
		t.Fatalf("expected the same federated user, got %+v", again.User)
	}
}

func TestLoginFederatedConcurrentFirstLogins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	ids := make([]uint64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.auth.LoginFederated(ctx, service.FederatedIdentity{Email: "race@x.com", Name: "Race"})
			errs[i] = err
			if err == nil {
				ids[i] = res.User.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("login %d failed: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("expected a single user id, got %v", ids)
		}
	}
	users, _ := f.users.List(ctx, 100, 0)
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
}

func TestLoginFederatedRequiresEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.auth.LoginFederated(context.Background(), service.FederatedIdentity{Name: "No Mail"})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
