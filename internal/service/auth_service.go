package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kiwy37/careerconnect/internal/domain"
	"github.com/kiwy37/careerconnect/internal/repository"
	"github.com/kiwy37/careerconnect/internal/security"
)

// PendingVerification acknowledges the first phase of a two-step flow:
// credentials (or profile) accepted, a code is on its way.
type PendingVerification struct {
	Email                string `json:"email"`
	Message              string `json:"message"`
	RequiresVerification bool   `json:"requires_verification"`
}

// AuthResult is the terminal state of every successful login path.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// RegistrationInput is the full profile submitted at both registration
// phases. The client resubmits it at finalize; nothing is held server-side
// between the two calls except the verification code.
type RegistrationInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	BirthDate time.Time
	RoleID    uint
}

type googleVerifier interface {
	Verify(ctx context.Context, rawToken string) (*ExternalIdentity, error)
}

type linkedInExchanger interface {
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

type socialResolver interface {
	Resolve(ctx context.Context, in SocialLoginInput) (*ExternalIdentity, error)
}

type tokenSigner interface {
	Sign(user *domain.User) (string, error)
}

// AuthService orchestrates password login, registration, password reset
// and the federated login paths.
type AuthService struct {
	users        repository.UserRepository
	roles        repository.RoleRepository
	verification *VerificationService
	hasher       *security.PasswordHasher
	tokens       tokenSigner
	google       googleVerifier
	linkedIn     linkedInExchanger
	social       socialResolver
	logger       *slog.Logger
	now          func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	verification *VerificationService,
	hasher *security.PasswordHasher,
	tokens tokenSigner,
	google googleVerifier,
	linkedIn linkedInExchanger,
	social socialResolver,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		roles:        roles,
		verification: verification,
		hasher:       hasher,
		tokens:       tokens,
		google:       google,
		linkedIn:     linkedIn,
		social:       social,
		logger:       logger,
		now:          time.Now,
	}
}

// InitiateLogin checks the password and, when it holds, issues a login
// code. Unknown email, federated-only account and wrong password all
// collapse into ErrInvalidCredentials so the client learns nothing about
// which accounts exist.
func (s *AuthService) InitiateLogin(ctx context.Context, email, password, ip string) (*PendingVerification, error) {
	email = normalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(*user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.verification.Issue(ctx, email, domain.PurposeLogin, ip); err != nil {
		return nil, err
	}
	return &PendingVerification{
		Email:                email,
		Message:              "verification code sent",
		RequiresVerification: true,
	}, nil
}

// CompleteLogin consumes the login code and issues an access token.
func (s *AuthService) CompleteLogin(ctx context.Context, email, code string) (*AuthResult, error) {
	email = normalizeEmail(email)
	ok, err := s.verification.Validate(ctx, email, code, domain.PurposeLogin)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.issueToken(user)
}

// InitiateRegister validates uniqueness and sends a registration code. The
// profile itself is not persisted yet.
func (s *AuthService) InitiateRegister(ctx context.Context, in RegistrationInput, ip string) (*PendingVerification, error) {
	email := normalizeEmail(in.Email)
	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	if _, err := s.verification.Issue(ctx, email, domain.PurposeRegister, ip); err != nil {
		return nil, err
	}
	return &PendingVerification{
		Email:                email,
		Message:              "verification code sent",
		RequiresVerification: true,
	}, nil
}

// FinalizeRegister consumes the registration code, re-checks uniqueness
// (a racing registration may have claimed the email between the phases)
// and creates the account.
func (s *AuthService) FinalizeRegister(ctx context.Context, in RegistrationInput, code string) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	ok, err := s.verification.Validate(ctx, email, code, domain.PurposeRegister)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	roleID := in.RoleID
	if roleID == 0 {
		role, err := s.roles.FindByName(ctx, domain.RoleEmployee)
		if err != nil {
			return nil, fmt.Errorf("find default role: %w", err)
		}
		roleID = role.ID
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: &hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		BirthDate:    in.BirthDate,
		RoleID:       roleID,
		CreatedAt:    s.now(),
	}
	if in.Phone != "" {
		user.Phone = &in.Phone
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	created, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load created user: %w", err)
	}
	return s.issueToken(created)
}

// ResendCode issues a fresh code for an in-flight flow, superseding any
// earlier one for the same (email, purpose).
func (s *AuthService) ResendCode(ctx context.Context, email, purpose, ip string) error {
	switch purpose {
	case domain.PurposeLogin, domain.PurposeRegister, domain.PurposeResetPassword:
	default:
		return fmt.Errorf("unknown verification purpose %q", purpose)
	}
	_, err := s.verification.Issue(ctx, normalizeEmail(email), purpose, ip)
	return err
}

// InitiateForgotPassword starts the reset flow. Unlike login, this flow
// admits account existence: the original product surfaced "not found" and
// "federated account" to the reset form.
func (s *AuthService) InitiateForgotPassword(ctx context.Context, email, ip string) error {
	email = normalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if !user.HasPassword() {
		return ErrFederatedOnly
	}
	_, err = s.verification.Issue(ctx, email, domain.PurposeResetPassword, ip)
	return err
}

// VerifyResetCode checks the reset code without consuming it, so the
// client can gate the new-password form and still redeem the same code in
// ResetPassword.
func (s *AuthService) VerifyResetCode(ctx context.Context, email, code string) (bool, error) {
	return s.verification.Peek(ctx, normalizeEmail(email), code, domain.PurposeResetPassword)
}

// ResetPassword consumes the reset code and replaces the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	ok, err := s.verification.Validate(ctx, email, code, domain.PurposeResetPassword)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = &hash
	now := s.now()
	user.UpdatedAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// GoogleLogin verifies the ID token and signs the resolved account in.
func (s *AuthService) GoogleLogin(ctx context.Context, rawToken string) (*AuthResult, error) {
	identity, err := s.google.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return s.loginExternal(ctx, identity)
}

// LinkedInLogin exchanges the authorization code and signs the resolved
// account in.
func (s *AuthService) LinkedInLogin(ctx context.Context, code string) (*AuthResult, error) {
	identity, err := s.linkedIn.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.loginExternal(ctx, identity)
}

// SocialLogin handles the Facebook and Twitter paths.
func (s *AuthService) SocialLogin(ctx context.Context, in SocialLoginInput) (*AuthResult, error) {
	identity, err := s.social.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.loginExternal(ctx, identity)
}

func (s *AuthService) loginExternal(ctx context.Context, identity *ExternalIdentity) (*AuthResult, error) {
	user, err := s.resolveExternalIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

// resolveExternalIdentity maps a verified federated identity onto an
// account: an existing link wins, then an email match gets the provider id
// linked (never touching the password), and only then is a new account
// created.
func (s *AuthService) resolveExternalIdentity(ctx context.Context, identity *ExternalIdentity) (*domain.User, error) {
	user, err := s.users.FindByProviderID(ctx, identity.Provider, identity.SubjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user by provider id: %w", err)
	}

	email := normalizeEmail(identity.Email)
	user, err = s.users.FindByEmail(ctx, email)
	if err == nil {
		setProviderID(user, identity.Provider, identity.SubjectID)
		now := s.now()
		user.UpdatedAt = &now
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("link provider id: %w", err)
		}
		s.logger.InfoContext(ctx, "linked federated identity to existing account",
			"provider", identity.Provider, "user_id", user.ID)
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	role, err := s.roles.FindByName(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("find default role: %w", err)
	}
	user = &domain.User{
		Email:     email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		BirthDate: s.now().AddDate(-18, 0, 0),
		RoleID:    role.ID,
		CreatedAt: s.now(),
	}
	setProviderID(user, identity.Provider, identity.SubjectID)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create federated user: %w", err)
	}

	created, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load created user: %w", err)
	}
	s.logger.InfoContext(ctx, "created account from federated identity",
		"provider", identity.Provider, "user_id", created.ID)
	return created, nil
}

func (s *AuthService) issueToken(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Sign(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func setProviderID(user *domain.User, provider, subjectID string) {
	id := subjectID
	switch provider {
	case ProviderGoogle:
		user.GoogleID = &id
	case ProviderFacebook:
		user.FacebookID = &id
	case ProviderTwitter:
		user.TwitterID = &id
	case ProviderLinkedIn:
		user.LinkedInID = &id
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
