package controller

import (
	"context"
	"crypto/subtle"
	"net/http"
	"net/url"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

type identityProvider interface {
	AuthCodeURL(state string) string
	Identity(ctx context.Context, code string) (*service.FederatedIdentity, error)
}

type federatedLoginer interface {
	LoginFederated(ctx context.Context, identity service.FederatedIdentity) (*dto.FederatedLoginResult, error)
}

// OAuthController drives the browser redirect flow of every configured
// provider through the same federated login path.
type OAuthController struct {
	providers   map[string]identityProvider
	linker      federatedLoginer
	frontendURL string
}

func NewOAuthController(linker federatedLoginer, frontendURL string) *OAuthController {
	return &OAuthController{
		providers:   make(map[string]identityProvider),
		linker:      linker,
		frontendURL: frontendURL,
	}
}

func (c *OAuthController) Register(name string, provider identityProvider) {
	c.providers[name] = provider
}

func (c *OAuthController) Start(ctx echo.Context) error {
	name := ctx.Param("provider")
	provider, ok := c.providers[name]
	if !ok {
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "unknown provider"})
	}

	state := uuid.New().String()
	ctx.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/" + name,
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   ctx.Scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})

	return ctx.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

func (c *OAuthController) Callback(ctx echo.Context) error {
	name := ctx.Param("provider")
	provider, ok := c.providers[name]
	if !ok {
		return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "unknown provider"})
	}

	c.clearState(ctx, name)

	cookie, err := ctx.Cookie(oauthStateCookie)
	state := ctx.QueryParam("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		logrus.WithField("provider", name).Warn("OAuth callback with invalid state")
		return c.redirectFailure(ctx)
	}

	code := ctx.QueryParam("code")
	if code == "" {
		logrus.WithFields(logrus.Fields{
			"provider": name,
			"error":    ctx.QueryParam("error"),
		}).Warn("OAuth callback without code")
		return c.redirectFailure(ctx)
	}

	identity, err := provider.Identity(ctx.Request().Context(), code)
	if err != nil {
		logrus.WithError(err).WithField("provider", name).Warn("OAuth identity lookup failed")
		return c.redirectFailure(ctx)
	}

	result, err := c.linker.LoginFederated(ctx.Request().Context(), *identity)
	if err != nil {
		if service.KindOf(err) == service.KindInternal {
			logrus.WithError(err).WithField("provider", name).Error("Federated login failed")
		} else {
			logrus.WithField("provider", name).WithField("reason", err.Error()).Warn("Federated login failed")
		}
		return c.redirectFailure(ctx)
	}

	logrus.WithFields(logrus.Fields{
		"provider": name,
		"user_id":  result.User.ID,
		"created":  result.Created,
	}).Info("Federated login successful")

	// tokens go in the fragment, never the query string
	fragment := url.Values{}
	fragment.Set("token", result.Tokens.AccessToken)
	fragment.Set("refresh", result.Tokens.RefreshToken)
	return ctx.Redirect(http.StatusFound, c.frontendURL+"/oauth#"+fragment.Encode())
}

func (c *OAuthController) redirectFailure(ctx echo.Context) error {
	return ctx.Redirect(http.StatusFound, c.frontendURL+"/cadastro")
}

func (c *OAuthController) clearState(ctx echo.Context, name string) {
	ctx.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/auth/" + name,
		MaxAge:   -1,
		HttpOnly: true,
	})
}
