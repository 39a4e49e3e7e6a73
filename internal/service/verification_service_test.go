package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kiwy37/careerconnect/internal/database"
	"github.com/kiwy37/careerconnect/internal/repository"
)

type sentCode struct {
	email   string
	code    string
	purpose string
}

type captureNotifier struct {
	sent []sentCode
	fail bool
}

func (n *captureNotifier) SendCode(_ context.Context, email, code, purpose string) error {
	if n.fail {
		return fmt.Errorf("smtp unavailable")
	}
	n.sent = append(n.sent, sentCode{email: email, code: code, purpose: purpose})
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

type verificationFixture struct {
	svc      *VerificationService
	notifier *captureNotifier
	clock    *time.Time
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()
	db := newTestDB(t)
	notifier := &captureNotifier{}
	svc := NewVerificationService(
		repository.NewGormVerificationCodeRepository(db),
		notifier,
		10*time.Minute,
		slog.Default(),
	)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return &verificationFixture{svc: svc, notifier: notifier, clock: &now}
}

func (f *verificationFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestVerificationServiceIssue(t *testing.T) {
	t.Run("code is six digits with leading zeros kept", func(t *testing.T) {
		f := newVerificationFixture(t)
		format := regexp.MustCompile(`^[0-9]{6}$`)
		for i := 0; i < 20; i++ {
			code, err := f.svc.Issue(context.Background(), "a@b.com", "Login", "10.0.0.1")
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			if !format.MatchString(code) {
				t.Fatalf("code %q does not match ^[0-9]{6}$", code)
			}
		}
	})

	t.Run("code is dispatched to the notifier", func(t *testing.T) {
		f := newVerificationFixture(t)
		code, err := f.svc.Issue(context.Background(), "a@b.com", "Login", "")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if len(f.notifier.sent) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(f.notifier.sent))
		}
		got := f.notifier.sent[0]
		if got.email != "a@b.com" || got.code != code || got.purpose != "Login" {
			t.Fatalf("unexpected notification %+v", got)
		}
	})

	t.Run("delivery failure surfaces ErrCodeDelivery", func(t *testing.T) {
		f := newVerificationFixture(t)
		f.notifier.fail = true
		if _, err := f.svc.Issue(context.Background(), "a@b.com", "Login", ""); err != ErrCodeDelivery {
			t.Fatalf("expected ErrCodeDelivery, got %v", err)
		}
	})
}

func TestVerificationServiceValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code passes and is consumed once", func(t *testing.T) {
		f := newVerificationFixture(t)
		code, _ := f.svc.Issue(ctx, "a@b.com", "Login", "")

		ok, err := f.svc.Validate(ctx, "a@b.com", code, "Login")
		if err != nil || !ok {
			t.Fatalf("first validate: ok=%v err=%v", ok, err)
		}
		ok, err = f.svc.Validate(ctx, "a@b.com", code, "Login")
		if err != nil {
			t.Fatalf("second validate: %v", err)
		}
		if ok {
			t.Fatal("consumed code validated a second time")
		}
	})

	t.Run("wrong code fails", func(t *testing.T) {
		f := newVerificationFixture(t)
		code, _ := f.svc.Issue(ctx, "a@b.com", "Login", "")
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		ok, err := f.svc.Validate(ctx, "a@b.com", wrong, "Login")
		if err != nil || ok {
			t.Fatalf("wrong code: ok=%v err=%v", ok, err)
		}
	})

	t.Run("purpose scoping rejects cross-flow reuse", func(t *testing.T) {
		f := newVerificationFixture(t)
		code, _ := f.svc.Issue(ctx, "a@b.com", "Login", "")
		ok, err := f.svc.Validate(ctx, "a@b.com", code, "ResetPassword")
		if err != nil || ok {
			t.Fatalf("cross-purpose: ok=%v err=%v", ok, err)
		}
		ok, err = f.svc.Validate(ctx, "a@b.com", code, "Login")
		if err != nil || !ok {
			t.Fatalf("same-purpose after cross-purpose attempt: ok=%v err=%v", ok, err)
		}
	})

	t.Run("no code issued fails", func(t *testing.T) {
		f := newVerificationFixture(t)
		ok, err := f.svc.Validate(ctx, "nobody@b.com", "123456", "Login")
		if err != nil || ok {
			t.Fatalf("missing code: ok=%v err=%v", ok, err)
		}
	})

	t.Run("expired code fails", func(t *testing.T) {
		f := newVerificationFixture(t)
		code, _ := f.svc.Issue(ctx, "a@b.com", "Login", "")
		f.advance(10*time.Minute + time.Second)
		ok, err := f.svc.Validate(ctx, "a@b.com", code, "Login")
		if err != nil || ok {
			t.Fatalf("expired code: ok=%v err=%v", ok, err)
		}
	})

	t.Run("code valid just inside the window", func(t *testing.T) {
		f := newVerificationFixture(t)
		code, _ := f.svc.Issue(ctx, "a@b.com", "ResetPassword", "")
		f.advance(9 * time.Minute)
		ok, err := f.svc.Validate(ctx, "a@b.com", code, "ResetPassword")
		if err != nil || !ok {
			t.Fatalf("code at t0+9m: ok=%v err=%v", ok, err)
		}
	})

	t.Run("reissue supersedes the earlier code", func(t *testing.T) {
		f := newVerificationFixture(t)
		first, _ := f.svc.Issue(ctx, "a@b.com", "Login", "")
		f.advance(time.Second)
		second, _ := f.svc.Issue(ctx, "a@b.com", "Login", "")
		if first != second {
			ok, err := f.svc.Validate(ctx, "a@b.com", first, "Login")
			if err != nil || ok {
				t.Fatalf("superseded code: ok=%v err=%v", ok, err)
			}
		}
		ok, err := f.svc.Validate(ctx, "a@b.com", second, "Login")
		if err != nil || !ok {
			t.Fatalf("latest code: ok=%v err=%v", ok, err)
		}
	})
}

func TestVerificationServicePeek(t *testing.T) {
	ctx := context.Background()

	t.Run("peek does not consume", func(t *testing.T) {
		f := newVerificationFixture(t)
		code, _ := f.svc.Issue(ctx, "a@b.com", "ResetPassword", "")

		for i := 0; i < 3; i++ {
			ok, err := f.svc.Peek(ctx, "a@b.com", code, "ResetPassword")
			if err != nil || !ok {
				t.Fatalf("peek %d: ok=%v err=%v", i, ok, err)
			}
		}
		ok, err := f.svc.Validate(ctx, "a@b.com", code, "ResetPassword")
		if err != nil || !ok {
			t.Fatalf("validate after peeks: ok=%v err=%v", ok, err)
		}
	})

	t.Run("peek rejects consumed code", func(t *testing.T) {
		f := newVerificationFixture(t)
		code, _ := f.svc.Issue(ctx, "a@b.com", "ResetPassword", "")
		if ok, _ := f.svc.Validate(ctx, "a@b.com", code, "ResetPassword"); !ok {
			t.Fatal("setup validate failed")
		}
		ok, err := f.svc.Peek(ctx, "a@b.com", code, "ResetPassword")
		if err != nil || ok {
			t.Fatalf("peek consumed: ok=%v err=%v", ok, err)
		}
	})
}

func TestVerificationServiceCleanup(t *testing.T) {
	ctx := context.Background()
	f := newVerificationFixture(t)

	if _, err := f.svc.Issue(ctx, "old@b.com", "Login", ""); err != nil {
		t.Fatalf("issue: %v", err)
	}
	f.advance(11 * time.Minute)
	fresh, err := f.svc.Issue(ctx, "fresh@b.com", "Login", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	deleted, err := f.svc.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	ok, err := f.svc.Validate(ctx, "fresh@b.com", fresh, "Login")
	if err != nil || !ok {
		t.Fatalf("fresh code after cleanup: ok=%v err=%v", ok, err)
	}
}
