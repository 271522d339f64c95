package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/todo-grow/backend/internal/config"
	apperrors "github.com/todo-grow/backend/internal/errors"
	"golang.org/x/oauth2"
)

const (
	kakaoServiceName = "kakao"

	defaultKakaoAuthURL = "https://kauth.kakao.com"
	defaultKakaoAPIURL  = "https://kapi.kakao.com"
)

// SocialProfile is the account data a provider returns after login.
// Empty fields mean the user did not consent to share them.
type SocialProfile struct {
	ProviderID   string
	Email        string
	Nickname     string
	ProfileImage string
}

// SocialAuthProvider is an OAuth login provider
type SocialAuthProvider interface {
	// AuthCodeURL returns the consent page URL carrying state
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a provider access token
	Exchange(ctx context.Context, code string) (string, error)

	// FetchProfile loads the profile behind a provider access token
	FetchProfile(ctx context.Context, accessToken string) (*SocialProfile, error)

	// Unlink disconnects the account from this application at the provider
	Unlink(ctx context.Context, providerUserID string) error
}

// KakaoProvider implements SocialAuthProvider against Kakao Login
type KakaoProvider struct {
	oauth      *oauth2.Config
	apiBaseURL string
	adminKey   string
	httpClient *http.Client
}

// NewKakaoProvider creates a provider for the public Kakao endpoints
func NewKakaoProvider(cfg config.KakaoConfig) *KakaoProvider {
	return NewKakaoProviderWithEndpoints(cfg, defaultKakaoAuthURL, defaultKakaoAPIURL)
}

// NewKakaoProviderWithEndpoints creates a provider talking to the given
// authorization and API hosts.
func NewKakaoProviderWithEndpoints(cfg config.KakaoConfig, authBaseURL, apiBaseURL string) *KakaoProvider {
	authBaseURL = strings.TrimRight(authBaseURL, "/")

	return &KakaoProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authBaseURL + "/oauth/authorize",
				TokenURL:  authBaseURL + "/oauth/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		adminKey:   cfg.AdminKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *KakaoProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *KakaoProvider) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return "", apperrors.NewUpstream(kakaoServiceName, fmt.Errorf("token exchange failed: %w", err))
	}
	if token.AccessToken == "" {
		return "", apperrors.NewUpstream(kakaoServiceName, fmt.Errorf("token response has no access token"))
	}

	return token.AccessToken, nil
}

type kakaoUserResponse struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
	KakaoAccount struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

func (p *KakaoProvider) FetchProfile(ctx context.Context, accessToken string) (*SocialProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/v2/user/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user kakaoUserResponse
	if err := p.do(req, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, apperrors.NewUpstream(kakaoServiceName, fmt.Errorf("profile response has no id"))
	}

	return &SocialProfile{
		ProviderID:   strconv.FormatInt(user.ID, 10),
		Email:        user.KakaoAccount.Email,
		Nickname:     user.Properties.Nickname,
		ProfileImage: user.Properties.ProfileImage,
	}, nil
}

func (p *KakaoProvider) Unlink(ctx context.Context, providerUserID string) error {
	if p.adminKey == "" {
		return apperrors.NewUpstream(kakaoServiceName, fmt.Errorf("admin key %w", apperrors.ErrNotConfigured))
	}

	form := url.Values{}
	form.Set("target_id_type", "user_id")
	form.Set("target_id", providerUserID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBaseURL+"/v1/user/unlink", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build unlink request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+p.adminKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return p.do(req, nil)
}

// do sends req and decodes a 200 JSON body into out when out is non-nil
func (p *KakaoProvider) do(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.NewUpstream(kakaoServiceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewUpstream(kakaoServiceName, fmt.Errorf("%s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewUpstream(kakaoServiceName, fmt.Errorf("invalid response body: %w", err))
	}
	return nil
}
