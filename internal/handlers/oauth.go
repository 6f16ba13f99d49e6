package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/taskify-dev/taskify-api/internal/errors"
	"github.com/taskify-dev/taskify-api/internal/oauth"
	"github.com/taskify-dev/taskify-api/internal/services"
)

// OAuthHandler bridges the OAuth providers to the frontend login flow.
type OAuthHandler struct {
	providers   map[string]*oauth.Provider
	authService *services.AuthService
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(authService *services.AuthService, providers ...*oauth.Provider) *OAuthHandler {
	byName := make(map[string]*oauth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &OAuthHandler{
		providers:   byName,
		authService: authService,
	}
}

func (h *OAuthHandler) provider(c *gin.Context) (*oauth.Provider, bool) {
	name := c.DefaultQuery("provider", oauth.ProviderGithub)
	p, ok := h.providers[name]
	if !ok {
		apierrors.BadRequest(c, "Unknown provider: "+name)
		return nil, false
	}
	return p, true
}

// GetAccessToken exchanges an authorization code for an access token.
func (h *OAuthHandler) GetAccessToken(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}

	code := c.Query("code")
	if code == "" {
		apierrors.BadRequest(c, "Missing code parameter")
		return
	}

	token, err := p.Exchange(c.Request.Context(), code)
	if err != nil {
		apierrors.Upstream(c, "Failed to exchange authorization code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
	})
}

// GetUserData loads the provider profile, resolves the local account and
// returns a signed token for it.
func (h *OAuthHandler) GetUserData(c *gin.Context) {
	p, ok := h.provider(c)
	if !ok {
		return
	}

	accessToken := c.Query("access_token")
	if accessToken == "" {
		apierrors.BadRequest(c, "Missing access_token parameter")
		return
	}

	profile, err := p.FetchUser(c.Request.Context(), accessToken)
	if err != nil {
		apierrors.Upstream(c, "Failed to fetch user profile")
		return
	}

	user, err := h.authService.FindOrCreateOAuthUser(profile.Email, profile.Name, profile.Picture)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  profile,
		"token": token,
	})
}
