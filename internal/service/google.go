package service

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/kiwy37/careerconnect/internal/observability"
)

// GoogleVerifier validates Google ID tokens against the configured OAuth
// client id. Profile fields are taken from the verified payload only,
// never from the request body.
type GoogleVerifier struct {
	clientID string
	logger   *slog.Logger
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string, logger *slog.Logger) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		logger:   logger,
		validate: idtoken.Validate,
	}
}

func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error) {
	if v.clientID == "" {
		return nil, ErrProviderNotConfigured
	}

	start := time.Now()
	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		observability.RecordFederatedExchangeDuration(ctx, ProviderGoogle, "error", time.Since(start))
		v.logger.WarnContext(ctx, "google id token rejected", "error", err)
		return nil, ErrProviderToken
	}
	observability.RecordFederatedExchangeDuration(ctx, ProviderGoogle, "ok", time.Since(start))

	return &ExternalIdentity{
		Provider:  ProviderGoogle,
		SubjectID: payload.Subject,
		Email:     claimString(payload.Claims, "email"),
		FirstName: claimString(payload.Claims, "given_name"),
		LastName:  claimString(payload.Claims, "family_name"),
	}, nil
}

func claimString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
