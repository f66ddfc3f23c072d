package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

const (
	Google    = "google"
	Microsoft = "microsoft"

	googleUserInfoURL    = "https://openidconnect.googleapis.com/v1/userinfo"
	microsoftUserInfoURL = "https://graph.microsoft.com/v1.0/me"

	maxProfileBytes = 1 << 20
)

var ErrNoEmail = errors.New("provider profile has no email")

// ProfileMapper extracts the email and display name from a provider's
// userinfo document.
type ProfileMapper func(body []byte) (service.FederatedIdentity, error)

// Provider runs the authorization code exchange for one identity provider
// and maps its profile to a FederatedIdentity.
type Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	mapProfile  ProfileMapper
}

func NewProvider(name string, cfg *oauth2.Config, userInfoURL string, mapper ProfileMapper) *Provider {
	return &Provider{
		name:        name,
		config:      cfg,
		userInfoURL: userInfoURL,
		mapProfile:  mapper,
	}
}

func NewGoogleProvider(cfg config.OAuthProviderConfig) *Provider {
	return NewProvider(Google, &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.CallbackURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}, googleUserInfoURL, mapGoogleProfile)
}

func NewMicrosoftProvider(cfg config.OAuthProviderConfig) *Provider {
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = "common"
	}
	return NewProvider(Microsoft, &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.CallbackURL,
		Endpoint:     microsoft.AzureADEndpoint(tenant),
		Scopes:       []string{"User.Read"},
	}, microsoftUserInfoURL, mapMicrosoftProfile)
}

// NewProviders returns the providers that have client credentials configured,
// keyed by route name.
func NewProviders(cfg config.OAuthConfig) map[string]*Provider {
	providers := make(map[string]*Provider)
	if cfg.Google.Enabled() {
		providers[Google] = NewGoogleProvider(cfg.Google)
	}
	if cfg.Microsoft.Enabled() {
		providers[Microsoft] = NewMicrosoftProvider(cfg.Microsoft)
	}
	return providers
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Identity exchanges the authorization code and fetches the user's profile.
func (p *Provider) Identity(ctx context.Context, code string) (*service.FederatedIdentity, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("read user info: %w", err)
	}

	identity, err := p.mapProfile(body)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func mapGoogleProfile(body []byte) (service.FederatedIdentity, error) {
	var profile struct {
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return service.FederatedIdentity{}, fmt.Errorf("decode google profile: %w", err)
	}
	if profile.Email == "" {
		return service.FederatedIdentity{}, ErrNoEmail
	}
	if profile.EmailVerified != nil && !*profile.EmailVerified {
		return service.FederatedIdentity{}, errors.New("google email is not verified")
	}
	return service.FederatedIdentity{Email: profile.Email, Name: profile.Name}, nil
}

func mapMicrosoftProfile(body []byte) (service.FederatedIdentity, error) {
	var profile struct {
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
		DisplayName       string `json:"displayName"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return service.FederatedIdentity{}, fmt.Errorf("decode microsoft profile: %w", err)
	}

	email := profile.Mail
	if email == "" && strings.Contains(profile.UserPrincipalName, "@") {
		email = profile.UserPrincipalName
	}
	if email == "" {
		return service.FederatedIdentity{}, ErrNoEmail
	}
	return service.FederatedIdentity{Email: email, Name: profile.DisplayName}, nil
}
