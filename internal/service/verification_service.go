package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/kiwy37/careerconnect/internal/domain"
	"github.com/kiwy37/careerconnect/internal/observability"
	"github.com/kiwy37/careerconnect/internal/repository"
)

// VerificationService issues and validates short-lived numeric codes.
// A code is bound to (email, purpose); issuing a new one supersedes any
// earlier code for the same pair because validation only ever inspects the
// latest row.
type VerificationService struct {
	codes    repository.VerificationCodeRepository
	notifier CodeNotifier
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewVerificationService(
	codes repository.VerificationCodeRepository,
	notifier CodeNotifier,
	ttl time.Duration,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		codes:    codes,
		notifier: notifier,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue generates a fresh 6-digit code, persists it and dispatches it via
// the notifier. The persisted row is kept even when delivery fails so that
// a later resend shares the same audit trail.
func (s *VerificationService) Issue(ctx context.Context, email, purpose, ip string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now()
	record := &domain.VerificationCode{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if ip != "" {
		record.IPAddress = &ip
	}
	if err := s.codes.Create(ctx, record); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	observability.RecordVerificationCodeEvent(ctx, purpose, "issued")

	if err := s.notifier.SendCode(ctx, email, code, purpose); err != nil {
		s.logger.ErrorContext(ctx, "verification code delivery failed", "purpose", purpose, "error", err)
		return "", ErrCodeDelivery
	}
	return code, nil
}

// Validate checks the submitted code against the latest issued one and
// consumes it on success. At most one concurrent validation of the same
// code succeeds.
func (s *VerificationService) Validate(ctx context.Context, email, code, purpose string) (bool, error) {
	record, err := s.codes.FindLatest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordVerificationCodeEvent(ctx, purpose, "missing")
			return false, nil
		}
		return false, fmt.Errorf("load verification code: %w", err)
	}

	if err := s.codes.IncrementAttempts(ctx, record.ID); err != nil {
		s.logger.WarnContext(ctx, "increment code attempts", "error", err)
	}

	if record.Consumed || record.Expired(s.now()) || record.Code != code {
		observability.RecordVerificationCodeEvent(ctx, purpose, "rejected")
		return false, nil
	}

	consumed, err := s.codes.Consume(ctx, record.ID)
	if err != nil {
		return false, fmt.Errorf("consume verification code: %w", err)
	}
	if !consumed {
		observability.RecordVerificationCodeEvent(ctx, purpose, "rejected")
		return false, nil
	}
	observability.RecordVerificationCodeEvent(ctx, purpose, "consumed")
	return true, nil
}

// Peek performs the same checks as Validate but leaves the code usable.
// A subsequent Validate with the same code still succeeds.
func (s *VerificationService) Peek(ctx context.Context, email, code, purpose string) (bool, error) {
	record, err := s.codes.FindLatest(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load verification code: %w", err)
	}
	if record.Consumed || record.Expired(s.now()) || record.Code != code {
		return false, nil
	}
	return true, nil
}

// CleanupExpired removes codes past their TTL and returns how many were
// deleted. Safe to run concurrently with validation.
func (s *VerificationService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.codes.DeleteExpired(ctx, s.now())
	if err != nil {
		observability.RecordCleanupRun(ctx, "error", 0)
		return 0, fmt.Errorf("delete expired verification codes: %w", err)
	}
	observability.RecordCleanupRun(ctx, "ok", deleted)
	return deleted, nil
}

// generateCode draws 6 uniform decimal digits, preserving leading zeros.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
