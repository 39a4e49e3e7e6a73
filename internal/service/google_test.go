package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"google.golang.org/api/idtoken"
)

func TestGoogleVerifier(t *testing.T) {
	ctx := context.Background()

	t.Run("missing client id", func(t *testing.T) {
		v := NewGoogleVerifier("", slog.Default())
		if _, err := v.Verify(ctx, "token"); !errors.Is(err, ErrProviderNotConfigured) {
			t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
		}
	})

	t.Run("audience mismatch rejected", func(t *testing.T) {
		v := NewGoogleVerifier("client-1", slog.Default())
		v.validate = func(_ context.Context, _, audience string) (*idtoken.Payload, error) {
			if audience != "other-client" {
				return nil, fmt.Errorf("idtoken: audience provided does not match aud claim in the JWT")
			}
			return &idtoken.Payload{Subject: "g-1"}, nil
		}
		if _, err := v.Verify(ctx, "token"); !errors.Is(err, ErrProviderToken) {
			t.Fatalf("expected ErrProviderToken, got %v", err)
		}
	})

	t.Run("claims come from the verified payload", func(t *testing.T) {
		v := NewGoogleVerifier("client-1", slog.Default())
		v.validate = func(_ context.Context, raw, audience string) (*idtoken.Payload, error) {
			if raw != "good-token" || audience != "client-1" {
				return nil, fmt.Errorf("unexpected verification input")
			}
			return &idtoken.Payload{
				Subject: "g-42",
				Claims: map[string]any{
					"email":       "maria@b.com",
					"given_name":  "Maria",
					"family_name": "Pop",
				},
			}, nil
		}

		identity, err := v.Verify(ctx, "good-token")
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if identity.Provider != ProviderGoogle || identity.SubjectID != "g-42" {
			t.Fatalf("unexpected identity %+v", identity)
		}
		if identity.Email != "maria@b.com" || identity.FirstName != "Maria" || identity.LastName != "Pop" {
			t.Fatalf("unexpected profile %+v", identity)
		}
	})
}
