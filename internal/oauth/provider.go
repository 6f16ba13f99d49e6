// Package oauth exchanges authorization codes and fetches profile data
// from the supported identity providers.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGithub = "github"
	ProviderGoogle = "google"
)

const (
	githubUserURL = "https://api.github.com/user"
	googleUserURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// UserData is the normalized profile returned by every provider.
type UserData struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Provider wraps one configured OAuth2 application.
type Provider struct {
	name    string
	config  *oauth2.Config
	userURL string
	client  *http.Client
}

func NewGithubProvider(clientID, clientSecret string) *Provider {
	return &Provider{
		name: ProviderGithub,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		userURL: githubUserURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func NewGoogleProvider(clientID, clientSecret, redirectURI string) *Provider {
	return &Provider{
		name: ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
		userURL: googleUserURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Provider) Name() string {
	return p.name
}

// Exchange trades an authorization code for an access token.
func (p *Provider) Exchange(ctx context.Context, code string) (string, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange %s code: %w", p.name, err)
	}
	return token.AccessToken, nil
}

// FetchUser loads the profile for an access token.
func (p *Provider) FetchUser(ctx context.Context, accessToken string) (*UserData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s profile: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("fetch %s profile: status %d: %s", p.name, resp.StatusCode, body)
	}

	switch p.name {
	case ProviderGithub:
		var raw struct {
			Login     string `json:"login"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s profile: %w", p.name, err)
		}
		name := raw.Name
		if name == "" {
			name = raw.Login
		}
		return &UserData{Email: raw.Email, Name: name, Picture: raw.AvatarURL}, nil
	default:
		var raw struct {
			Email   string `json:"email"`
			Name    string `json:"name"`
			Picture string `json:"picture"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s profile: %w", p.name, err)
		}
		return &UserData{Email: raw.Email, Name: raw.Name, Picture: raw.Picture}, nil
	}
}
