package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/config"

	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type memUserRepo struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*entity.User
	writes int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uint64]*entity.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return &repository.DuplicateKeyError{Field: "email"}
		}
		if u.Username == user.Username {
			return &repository.DuplicateKeyError{Field: "username"}
		}
	}
	r.nextID++
	user.ID = r.nextID
	cp := *user
	r.users[user.ID] = &cp
	r.writes++
	return nil
}

func (r *memUserRepo) find(match func(*entity.User) bool) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username }), nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uint64) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id }), nil
}

func (r *memUserRepo) FindByVerificationToken(_ context.Context, token string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool {
		return u.VerificationToken.Valid && u.VerificationToken.String == token
	}), nil
}

func (r *memUserRepo) List(_ context.Context, limit, offset int) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uint64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*entity.User, 0)
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		cp := *r.users[ids[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return errors.New("update of unknown user")
	}
	cp := *user
	r.users[user.ID] = &cp
	r.writes++
	return nil
}

func (r *memUserRepo) DeleteByID(_ context.Context, id uint64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	r.writes++
	return true, nil
}

type memRefreshRepo struct {
	mu     sync.Mutex
	tokens map[uint64]*entity.RefreshToken
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{tokens: make(map[uint64]*entity.RefreshToken)}
}

func (r *memRefreshRepo) UpsertByUserID(_ context.Context, userID uint64, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[userID] = &entity.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt, UpdatedAt: time.Now()}
	return nil
}

func (r *memRefreshRepo) FindValidByToken(_ context.Context, token string, now time.Time) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rt := range r.tokens {
		if rt.Token == token && !rt.ExpiresAt.Before(now) {
			cp := *rt
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRefreshRepo) DeleteByUserID(_ context.Context, userID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, userID)
	return nil
}

func (r *memRefreshRepo) tokenFor(userID uint64) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rt, ok := r.tokens[userID]; ok {
		return rt.Token
	}
	return ""
}

type memResetRepo struct {
	mu     sync.Mutex
	tokens map[string]*entity.ResetToken
	writes int
}

func newMemResetRepo() *memResetRepo {
	return &memResetRepo{tokens: make(map[string]*entity.ResetToken)}
}

func (r *memResetRepo) Create(_ context.Context, token *entity.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *token
	r.tokens[token.Token] = &cp
	r.writes++
	return nil
}

func (r *memResetRepo) FindAndDeleteValidByToken(_ context.Context, token string, now time.Time) (*entity.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tokens[token]
	if !ok || rt.ExpiresAt.Before(now) {
		return nil, nil
	}
	delete(r.tokens, token)
	return rt, nil
}

type sentEmail struct {
	kind  string
	email string
	token string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, sentEmail{kind: "verification", email: email, token: token})
	return m.err
}

func (m *recordingMailer) SendPasswordResetEmail(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, sentEmail{kind: "reset", email: email, token: token})
	return m.err
}

func (m *recordingMailer) last(kind string) (sentEmail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i], true
		}
	}
	return sentEmail{}, false
}

func syncRunner(task func()) {
	task()
}

func newTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:          testSecret,
			AccessTokenTTL:  10 * time.Hour,
			RefreshTokenTTL: 72 * time.Hour,
		},
		Tokens: config.TokenConfig{
			ResetTTL: time.Hour,
		},
		Password: config.PasswordConfig{
			BcryptCost: bcrypt.MinCost,
			Policy:     config.PasswordPolicy{MinLength: 6},
		},
	}
}

type fixture struct {
	cfg     *config.Config
	users   *memUserRepo
	refresh *memRefreshRepo
	resets  *memResetRepo
	mailer  *recordingMailer
	hasher  *service.BcryptHasher
	signer  *service.JWTSigner
	auth    service.AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := newTestConfig()
	signer, err := service.NewJWTSigner(cfg.JWT.Secret)
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}

	f := &fixture{
		cfg:     cfg,
		users:   newMemUserRepo(),
		refresh: newMemRefreshRepo(),
		resets:  newMemResetRepo(),
		mailer:  &recordingMailer{},
		hasher:  service.NewBcryptHasher(bcrypt.MinCost),
		signer:  signer,
	}
	f.auth = service.NewAuthService(f.users, f.refresh, f.resets, f.signer, f.hasher, f.mailer, cfg,
		service.WithAsyncRunner(syncRunner))
	return f
}

func (f *fixture) register(t *testing.T, name, email, username, password string) uint64 {
	t.Helper()

	res, err := f.auth.Register(context.Background(), service.RegisterInput{
		Name:     name,
		Email:    email,
		Username: username,
		Password: password,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return res.User.ID
}
