package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kiwy37/careerconnect/internal/config"
	"github.com/kiwy37/careerconnect/internal/observability"
)

const (
	facebookProfileURL = "https://graph.facebook.com/v18.0/me"
	twitterProfileURL  = "https://api.twitter.com/2/users/me"
)

// SocialLoginInput carries a federated credential for Facebook or Twitter.
// When the client supplies a complete profile alongside the token it is
// accepted as-is; otherwise the profile is fetched server-side with the
// access token.
type SocialLoginInput struct {
	Provider    string
	AccessToken string
	SubjectID   string
	Email       string
	FirstName   string
	LastName    string
}

func (in SocialLoginInput) assertedComplete() bool {
	return in.SubjectID != "" && in.FirstName != "" && in.LastName != ""
}

// SocialResolver handles the Facebook and Twitter login paths.
type SocialResolver struct {
	facebookEnabled   bool
	twitterEnabled    bool
	facebookURL       string
	twitterURL        string
	placeholderDomain string
	httpClient        *http.Client
	logger            *slog.Logger
}

func NewSocialResolver(cfg config.ProvidersConfig, logger *slog.Logger) *SocialResolver {
	return &SocialResolver{
		facebookEnabled:   cfg.FacebookEnabled,
		twitterEnabled:    cfg.TwitterEnabled,
		facebookURL:       facebookProfileURL,
		twitterURL:        twitterProfileURL,
		placeholderDomain: cfg.PlaceholderDomain,
		httpClient:        newProviderHTTPClient(cfg.HTTPTimeout),
		logger:            logger,
	}
}

func (r *SocialResolver) Resolve(ctx context.Context, in SocialLoginInput) (*ExternalIdentity, error) {
	switch in.Provider {
	case ProviderFacebook:
		if !r.facebookEnabled {
			return nil, ErrProviderNotConfigured
		}
	case ProviderTwitter:
		if !r.twitterEnabled {
			return nil, ErrProviderNotConfigured
		}
	default:
		return nil, ErrProviderNotConfigured
	}

	if in.assertedComplete() {
		email := in.Email
		if email == "" {
			email = placeholderEmail(in.Provider, in.SubjectID, r.placeholderDomain)
		}
		return &ExternalIdentity{
			Provider:  in.Provider,
			SubjectID: in.SubjectID,
			Email:     email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
		}, nil
	}

	if in.AccessToken == "" {
		return nil, ErrProviderToken
	}

	start := time.Now()
	var (
		identity *ExternalIdentity
		err      error
	)
	if in.Provider == ProviderFacebook {
		identity, err = r.fetchFacebook(ctx, in.AccessToken)
	} else {
		identity, err = r.fetchTwitter(ctx, in.AccessToken)
	}
	if err != nil {
		observability.RecordFederatedExchangeDuration(ctx, in.Provider, "error", time.Since(start))
		return nil, err
	}
	observability.RecordFederatedExchangeDuration(ctx, in.Provider, "ok", time.Since(start))
	return identity, nil
}

type facebookProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (r *SocialResolver) fetchFacebook(ctx context.Context, accessToken string) (*ExternalIdentity, error) {
	u := fmt.Sprintf("%s?fields=id,first_name,last_name,email&access_token=%s",
		r.facebookURL, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build facebook profile request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.WarnContext(ctx, "facebook profile fetch failed", "error", err)
		return nil, ErrProviderToken
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "facebook profile rejected", "status", resp.StatusCode)
		return nil, ErrProviderToken
	}

	var profile facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil || profile.ID == "" {
		r.logger.WarnContext(ctx, "facebook profile malformed", "error", err)
		return nil, ErrProviderToken
	}

	email := profile.Email
	if email == "" {
		email = placeholderEmail(ProviderFacebook, profile.ID, r.placeholderDomain)
	}
	return &ExternalIdentity{
		Provider:  ProviderFacebook,
		SubjectID: profile.ID,
		Email:     email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}, nil
}

type twitterProfile struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

func (r *SocialResolver) fetchTwitter(ctx context.Context, accessToken string) (*ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.twitterURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build twitter profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.WarnContext(ctx, "twitter profile fetch failed", "error", err)
		return nil, ErrProviderToken
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		r.logger.WarnContext(ctx, "twitter profile rejected", "status", resp.StatusCode)
		return nil, ErrProviderToken
	}

	var profile twitterProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil || profile.Data.ID == "" {
		r.logger.WarnContext(ctx, "twitter profile malformed", "error", err)
		return nil, ErrProviderToken
	}

	first, last := splitDisplayName(profile.Data.Name, profile.Data.Username)
	return &ExternalIdentity{
		Provider:  ProviderTwitter,
		SubjectID: profile.Data.ID,
		Email:     placeholderEmail(ProviderTwitter, profile.Data.ID, r.placeholderDomain),
		FirstName: first,
		LastName:  last,
	}, nil
}

func splitDisplayName(name, fallback string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return fallback, ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
