package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/kiwy37/careerconnect/internal/http/response"
	"github.com/kiwy37/careerconnect/internal/observability"
	"github.com/kiwy37/careerconnect/internal/service"
)

type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type initiateLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type completeLoginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	BirthDate string `json:"birth_date"`
	RoleID    uint   `json:"role_id"`
	Code      string `json:"code"`
}

type resendCodeRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type linkedInLoginRequest struct {
	Code string `json:"code"`
}

type socialLoginRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
	SubjectID   string `json:"subject_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type verifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) InitiateLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login_initiate", statusLabel(status), time.Since(start))
	}()

	var req initiateLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "email and password are required", nil)
		return
	}

	pending, err := h.auth.InitiateLogin(r.Context(), req.Email, req.Password, clientIP(r))
	if err != nil {
		status = h.writeAuthError(w, r, err)
		observability.RecordAuthLogin(r.Context(), "password", "failure")
		observability.Audit(r, "auth.login.initiate.failed", "email", req.Email)
		return
	}
	observability.RecordAuthLogin(r.Context(), "password", "pending")
	observability.Audit(r, "auth.login.initiate", "email", pending.Email)
	response.JSON(w, r, status, pending)
}

func (h *AuthHandler) CompleteLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login_complete", statusLabel(status), time.Since(start))
	}()

	var req completeLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Code == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "email and code are required", nil)
		return
	}

	result, err := h.auth.CompleteLogin(r.Context(), req.Email, req.Code)
	if err != nil {
		status = h.writeAuthError(w, r, err)
		observability.RecordAuthLogin(r.Context(), "password", "failure")
		observability.Audit(r, "auth.login.complete.failed", "email", req.Email)
		return
	}
	observability.RecordAuthLogin(r.Context(), "password", "success")
	observability.Audit(r, "auth.login.complete", "user_id", result.User.ID)
	response.JSON(w, r, status, result)
}

func (h *AuthHandler) InitiateRegister(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register_initiate", statusLabel(status), time.Since(start))
	}()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "malformed request body", nil)
		return
	}
	input, verr := req.toInput()
	if verr != "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", verr, nil)
		return
	}

	pending, err := h.auth.InitiateRegister(r.Context(), input, clientIP(r))
	if err != nil {
		status = h.writeAuthError(w, r, err)
		observability.Audit(r, "auth.register.initiate.failed", "email", req.Email)
		return
	}
	observability.Audit(r, "auth.register.initiate", "email", pending.Email)
	response.JSON(w, r, status, pending)
}

func (h *AuthHandler) FinalizeRegister(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusCreated
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register_finalize", statusLabel(status), time.Since(start))
	}()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "malformed request body", nil)
		return
	}
	if req.Code == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "code is required", nil)
		return
	}
	input, verr := req.toInput()
	if verr != "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", verr, nil)
		return
	}

	result, err := h.auth.FinalizeRegister(r.Context(), input, req.Code)
	if err != nil {
		status = h.writeAuthError(w, r, err)
		observability.Audit(r, "auth.register.finalize.failed", "email", req.Email)
		return
	}
	observability.Audit(r, "auth.register.finalize", "user_id", result.User.ID)
	response.JSON(w, r, status, result)
}

func (h *AuthHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "resend_code", statusLabel(status), time.Since(start))
	}()

	var req resendCodeRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Purpose == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "email and purpose are required", nil)
		return
	}

	if err := h.auth.ResendCode(r.Context(), req.Email, req.Purpose, clientIP(r)); err != nil {
		status = h.writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.code.resend", "email", req.Email, "purpose", req.Purpose)
	response.JSON(w, r, status, map[string]string{"message": "verification code sent"})
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "google_login", statusLabel(status), time.Since(start))
	}()

	var req googleLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.IDToken == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "id_token is required", nil)
		return
	}

	result, err := h.auth.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		status = h.writeAuthError(w, r, err)
		observability.RecordAuthLogin(r.Context(), service.ProviderGoogle, "failure")
		return
	}
	observability.RecordAuthLogin(r.Context(), service.ProviderGoogle, "success")
	observability.Audit(r, "auth.login.google", "user_id", result.User.ID)
	response.JSON(w, r, status, result)
}

func (h *AuthHandler) LinkedInLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "linkedin_login", statusLabel(status), time.Since(start))
	}()

	var req linkedInLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "code is required", nil)
		return
	}

	result, err := h.auth.LinkedInLogin(r.Context(), req.Code)
	if err != nil {
		status = h.writeAuthError(w, r, err)
		observability.RecordAuthLogin(r.Context(), service.ProviderLinkedIn, "failure")
		return
	}
	observability.RecordAuthLogin(r.Context(), service.ProviderLinkedIn, "success")
	observability.Audit(r, "auth.login.linkedin", "user_id", result.User.ID)
	response.JSON(w, r, status, result)
}

func (h *AuthHandler) SocialLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "social_login", statusLabel(status), time.Since(start))
	}()

	var req socialLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.Provider == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "provider is required", nil)
		return
	}

	result, err := h.auth.SocialLogin(r.Context(), service.SocialLoginInput{
		Provider:    strings.ToLower(req.Provider),
		AccessToken: req.AccessToken,
		SubjectID:   req.SubjectID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	})
	if err != nil {
		status = h.writeAuthError(w, r, err)
		observability.RecordAuthLogin(r.Context(), req.Provider, "failure")
		return
	}
	observability.RecordAuthLogin(r.Context(), req.Provider, "success")
	observability.Audit(r, "auth.login.social", "provider", req.Provider, "user_id", result.User.ID)
	response.JSON(w, r, status, result)
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "forgot_password", statusLabel(status), time.Since(start))
	}()

	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "email is required", nil)
		return
	}

	if err := h.auth.InitiateForgotPassword(r.Context(), req.Email, clientIP(r)); err != nil {
		status = h.writeAuthError(w, r, err)
		observability.Audit(r, "auth.password.forgot.failed", "email", req.Email)
		return
	}
	observability.Audit(r, "auth.password.forgot", "email", req.Email)
	response.JSON(w, r, status, map[string]string{"message": "password reset code sent"})
}

func (h *AuthHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify_reset_code", statusLabel(status), time.Since(start))
	}()

	var req verifyResetCodeRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Code == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "email and code are required", nil)
		return
	}

	ok, err := h.auth.VerifyResetCode(r.Context(), req.Email, req.Code)
	if err != nil {
		status = h.writeAuthError(w, r, err)
		return
	}
	if !ok {
		status = http.StatusUnauthorized
		response.Error(w, r, status, "INVALID_CODE", "invalid or expired verification code", nil)
		return
	}
	response.JSON(w, r, status, map[string]bool{"valid": true})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "reset_password", statusLabel(status), time.Since(start))
	}()

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" || req.Code == "" || req.NewPassword == "" {
		status = http.StatusBadRequest
		response.Error(w, r, status, "VALIDATION", "email, code and new_password are required", nil)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		status = h.writeAuthError(w, r, err)
		observability.Audit(r, "auth.password.reset.failed", "email", req.Email)
		return
	}
	observability.Audit(r, "auth.password.reset", "email", req.Email)
	response.JSON(w, r, status, map[string]string{"message": "password updated"})
}

// writeAuthError maps service sentinels onto the HTTP error envelope and
// returns the status for metrics. Provider configuration problems surface
// as a generic 401 so the client cannot probe deployment details.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidCode):
		response.Error(w, r, http.StatusUnauthorized, "INVALID_CODE", "invalid or expired verification code", nil)
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrEmailTaken):
		response.Error(w, r, http.StatusConflict, "EMAIL_TAKEN", "email already registered", nil)
		return http.StatusConflict
	case errors.Is(err, service.ErrAccountNotFound):
		response.Error(w, r, http.StatusNotFound, "ACCOUNT_NOT_FOUND", "no account for that email", nil)
		return http.StatusNotFound
	case errors.Is(err, service.ErrFederatedOnly):
		response.Error(w, r, http.StatusBadRequest, "FEDERATED_ACCOUNT", "account uses social login, sign in with your provider", nil)
		return http.StatusBadRequest
	case errors.Is(err, service.ErrProviderToken):
		response.Error(w, r, http.StatusUnauthorized, "PROVIDER_TOKEN_REJECTED", "could not verify provider credential", nil)
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrProviderNotConfigured):
		h.logger.ErrorContext(r.Context(), "identity provider not configured", "error", err)
		response.Error(w, r, http.StatusUnauthorized, "PROVIDER_TOKEN_REJECTED", "could not verify provider credential", nil)
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrCodeDelivery):
		response.Error(w, r, http.StatusBadRequest, "CODE_DELIVERY_FAILED", "could not send verification email, try again", nil)
		return http.StatusBadRequest
	default:
		h.logger.ErrorContext(r.Context(), "auth request failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return http.StatusInternalServerError
	}
}

func (r registerRequest) toInput() (service.RegistrationInput, string) {
	if r.Email == "" || r.Password == "" {
		return service.RegistrationInput{}, "email and password are required"
	}
	if r.FirstName == "" || r.LastName == "" {
		return service.RegistrationInput{}, "first_name and last_name are required"
	}
	birthDate, err := parseBirthDate(r.BirthDate)
	if err != nil {
		return service.RegistrationInput{}, "birth_date must be YYYY-MM-DD or RFC3339"
	}
	return service.RegistrationInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		BirthDate: birthDate,
		RoleID:    r.RoleID,
	}, ""
}

func parseBirthDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func statusLabel(status int) string {
	if status >= 200 && status < 300 {
		return "success"
	}
	return "failure"
}
