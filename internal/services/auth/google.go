package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"ai-hub/internal/cache"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	ErrGoogleNotConfigured = errors.New("Google login is not configured")
	ErrInvalidOAuthState   = errors.New("Invalid or expired login state")
	ErrMissingOAuthCode    = errors.New("Missing authorization code")
	ErrGoogleProfile       = errors.New("Google account has no email")
)

// StateStore keeps pending login states until the callback consumes them.
type StateStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	GetDel(ctx context.Context, key string) ([]byte, error)
}

type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	FrontendURL  string
	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

type GoogleLogin struct {
	conf        *oauth2.Config
	userInfoURL string
	frontendURL string
	states      StateStore
	users       UserStore
	tokens      *Tokens
}

func NewGoogleLogin(opts GoogleOptions, states StateStore, users UserStore, tokens *Tokens) *GoogleLogin {
	endpoint := opts.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = endpoints.Google
	}
	userInfoURL := opts.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = GoogleUserInfoURL
	}

	return &GoogleLogin{
		conf: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURI,
			Scopes:       []string{"profile", "email"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		frontendURL: strings.TrimRight(opts.FrontendURL, "/"),
		states:      states,
		users:       users,
		tokens:      tokens,
	}
}

// AuthURL returns the consent page URL for a fresh login attempt.
func (g *GoogleLogin) AuthURL(ctx context.Context) (string, error) {
	if g.conf.ClientID == "" {
		return "", ErrGoogleNotConfigured
	}

	state := uuid.NewString()
	if err := g.states.Set(ctx, cache.OAuthStateKey(state), "1", cache.OAuthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

type googleProfile struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// Callback completes the login and returns the frontend URL carrying the session.
func (g *GoogleLogin) Callback(ctx context.Context, state, code string) (string, error) {
	if state == "" {
		return "", ErrInvalidOAuthState
	}
	if code == "" {
		return "", ErrMissingOAuthCode
	}
	if _, err := g.states.GetDel(ctx, cache.OAuthStateKey(state)); err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return "", ErrInvalidOAuthState
		}
		return "", err
	}

	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}

	profile, err := g.fetchProfile(ctx, token)
	if err != nil {
		return "", err
	}
	if profile.Email == "" {
		return "", ErrGoogleProfile
	}

	name := profile.Name
	if name == "" {
		name = profile.Email
	}
	user, err := g.users.UpsertOAuthUser(ctx, name, normalizeEmail(profile.Email))
	if err != nil {
		return "", err
	}

	jwtToken, err := g.tokens.Issue(user)
	if err != nil {
		return "", err
	}

	log.Info().Int64("user_id", user.ID).Msg("Google login completed")

	q := url.Values{}
	q.Set("token", jwtToken)
	q.Set("name", user.Name)
	q.Set("email", user.Email)
	return g.frontendURL + "/login?" + q.Encode(), nil
}

func (g *GoogleLogin) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return googleProfile{}, err
	}

	resp, err := g.conf.Client(ctx, token).Do(req)
	if err != nil {
		return googleProfile{}, fmt.Errorf("failed to fetch google profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return googleProfile{}, fmt.Errorf("failed to decode google profile: %w", err)
	}
	return profile, nil
}
