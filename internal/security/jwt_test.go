package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kiwy37/careerconnect/internal/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *domain.User {
	return &domain.User{
		ID:    7,
		Email: "ana@b.com",
		Role:  domain.Role{ID: 2, Name: domain.RoleEmployee},
	}
}

func TestJWTManager(t *testing.T) {
	t.Run("round trip preserves claims", func(t *testing.T) {
		m, err := NewJWTManager(testSecret, "careerconnect", "careerconnect-api", time.Hour)
		if err != nil {
			t.Fatalf("new manager: %v", err)
		}
		token, err := m.Sign(testUser())
		if err != nil {
			t.Fatalf("sign: %v", err)
		}

		claims, err := m.Parse(token)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		id, err := claims.UserID()
		if err != nil || id != 7 {
			t.Fatalf("subject: id=%d err=%v", id, err)
		}
		if claims.Email != "ana@b.com" || claims.Role != domain.RoleEmployee {
			t.Fatalf("unexpected claims %+v", claims)
		}
		if claims.ID == "" {
			t.Fatal("missing token id")
		}
	})

	t.Run("each token gets a distinct id", func(t *testing.T) {
		m, _ := NewJWTManager(testSecret, "careerconnect", "careerconnect-api", time.Hour)
		first, _ := m.Sign(testUser())
		second, _ := m.Sign(testUser())
		a, err := m.Parse(first)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		b, err := m.Parse(second)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if a.ID == b.ID {
			t.Fatalf("token ids collide: %s", a.ID)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		m, _ := NewJWTManager(testSecret, "careerconnect", "careerconnect-api", time.Millisecond)
		token, err := m.Sign(testUser())
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		if _, err := m.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		a, _ := NewJWTManager(testSecret, "careerconnect", "careerconnect-api", time.Hour)
		b, _ := NewJWTManager(strings.Repeat("x", 32), "careerconnect", "careerconnect-api", time.Hour)
		token, _ := a.Sign(testUser())
		if _, err := b.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("wrong audience rejected", func(t *testing.T) {
		a, _ := NewJWTManager(testSecret, "careerconnect", "careerconnect-api", time.Hour)
		b, _ := NewJWTManager(testSecret, "careerconnect", "other-api", time.Hour)
		token, _ := a.Sign(testUser())
		if _, err := b.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		m, _ := NewJWTManager(testSecret, "careerconnect", "careerconnect-api", time.Hour)
		if _, err := m.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("short secret rejected at construction", func(t *testing.T) {
		if _, err := NewJWTManager("short", "i", "a", time.Hour); err == nil {
			t.Fatal("expected error for short secret")
		}
	})
}
