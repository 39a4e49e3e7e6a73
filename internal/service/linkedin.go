package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"

	"github.com/kiwy37/careerconnect/internal/config"
	"github.com/kiwy37/careerconnect/internal/observability"
)

const linkedInUserInfoURL = "https://api.linkedin.com/v2/userinfo"

// LinkedInExchanger turns a LinkedIn authorization code into a verified
// identity: code exchange against the LinkedIn token endpoint, then a
// userinfo fetch with the resulting bearer token. LinkedIn may withhold
// the email claim, in which case a placeholder address is synthesized.
type LinkedInExchanger struct {
	oauth             *oauth2.Config
	userInfoURL       string
	placeholderDomain string
	httpClient        *http.Client
	logger            *slog.Logger
}

func NewLinkedInExchanger(cfg config.ProvidersConfig, logger *slog.Logger) *LinkedInExchanger {
	return &LinkedInExchanger{
		oauth: &oauth2.Config{
			ClientID:     cfg.LinkedInClientID,
			ClientSecret: cfg.LinkedInSecret,
			RedirectURL:  cfg.LinkedInRedirectURL,
			Endpoint:     linkedin.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
		},
		userInfoURL:       linkedInUserInfoURL,
		placeholderDomain: cfg.PlaceholderDomain,
		httpClient:        newProviderHTTPClient(cfg.HTTPTimeout),
		logger:            logger,
	}
}

type linkedInUserInfo struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

func (e *LinkedInExchanger) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	if e.oauth.ClientID == "" || e.oauth.ClientSecret == "" {
		return nil, ErrProviderNotConfigured
	}

	start := time.Now()
	identity, err := e.exchange(ctx, code)
	if err != nil {
		observability.RecordFederatedExchangeDuration(ctx, ProviderLinkedIn, "error", time.Since(start))
		return nil, err
	}
	observability.RecordFederatedExchangeDuration(ctx, ProviderLinkedIn, "ok", time.Since(start))
	return identity, nil
}

func (e *LinkedInExchanger) exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	token, err := e.oauth.Exchange(ctx, code)
	if err != nil {
		e.logger.WarnContext(ctx, "linkedin code exchange failed", "error", err)
		return nil, ErrProviderToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build linkedin userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		e.logger.WarnContext(ctx, "linkedin userinfo fetch failed", "error", err)
		return nil, ErrProviderToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.WarnContext(ctx, "linkedin userinfo rejected", "status", resp.StatusCode)
		return nil, ErrProviderToken
	}

	var info linkedInUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil || info.Sub == "" {
		e.logger.WarnContext(ctx, "linkedin userinfo malformed", "error", err)
		return nil, ErrProviderToken
	}

	email := info.Email
	if email == "" {
		email = placeholderEmail("linkedin", info.Sub, e.placeholderDomain)
	}
	return &ExternalIdentity{
		Provider:  ProviderLinkedIn,
		SubjectID: info.Sub,
		Email:     email,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
	}, nil
}
