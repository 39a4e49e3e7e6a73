package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kiwy37/careerconnect/internal/config"
	"github.com/kiwy37/careerconnect/internal/database"
	"github.com/kiwy37/careerconnect/internal/domain"
	"github.com/kiwy37/careerconnect/internal/http/handler"
	"github.com/kiwy37/careerconnect/internal/http/router"
	"github.com/kiwy37/careerconnect/internal/repository"
	"github.com/kiwy37/careerconnect/internal/security"
	"github.com/kiwy37/careerconnect/internal/service"
)

type recordingNotifier struct {
	sent []struct{ email, code, purpose string }
}

func (n *recordingNotifier) SendCode(_ context.Context, email, code, purpose string) error {
	n.sent = append(n.sent, struct{ email, code, purpose string }{email, code, purpose})
	return nil
}

type apiFixture struct {
	server   http.Handler
	db       *gorm.DB
	notifier *recordingNotifier
	tokens   *security.JWTManager
}

func newAPIFixture(t *testing.T) *apiFixture {
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

	log := slog.Default()
	notifier := &recordingNotifier{}
	users := repository.NewGormUserRepository(db)
	roles := repository.NewGormRoleRepository(db)
	codes := repository.NewGormVerificationCodeRepository(db)

	verification := service.NewVerificationService(codes, notifier, 10*time.Minute, log)
	hasher, err := security.NewPasswordHasher(security.MinPasswordCost)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	tokens, err := security.NewJWTManager("0123456789abcdef0123456789abcdef", "careerconnect", "careerconnect-api", time.Hour)
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	providers := config.ProvidersConfig{
		FacebookEnabled:   true,
		TwitterEnabled:    true,
		PlaceholderDomain: "careerconnect.temp",
		HTTPTimeout:       time.Second,
	}
	auth := service.NewAuthService(
		users, roles, verification, hasher, tokens,
		service.NewGoogleVerifier("", log),
		service.NewLinkedInExchanger(providers, log),
		service.NewSocialResolver(providers, log),
		log,
	)

	h := router.NewRouter(router.Dependencies{
		AuthHandler: handler.NewAuthHandler(auth, log),
		UserHandler: handler.NewUserHandler(service.NewUserService(users), log),
		JWTManager:  tokens,
		AuthRateLimiter: func(next http.Handler) http.Handler {
			return next
		},
	})
	return &apiFixture{server: h, db: db, notifier: notifier, tokens: tokens}
}

func (f *apiFixture) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) lastCode(t *testing.T, email, purpose string) string {
	t.Helper()
	for i := len(f.notifier.sent) - 1; i >= 0; i-- {
		s := f.notifier.sent[i]
		if s.email == email && s.purpose == purpose {
			return s.code
		}
	}
	t.Fatalf("no code for %s/%s", email, purpose)
	return ""
}

func registerBody(code string) map[string]any {
	return map[string]any{
		"email":      "ana@b.com",
		"password":   "secret123",
		"first_name": "Ana",
		"last_name":  "Blandiana",
		"birth_date": "1996-03-25",
		"code":       code,
	}
}

func TestRegistrationAndLoginEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.post(t, "/api/auth/register/initiate", registerBody(""))
	if rec.Code != http.StatusOK {
		t.Fatalf("register initiate: %d %s", rec.Code, rec.Body.String())
	}

	code := f.lastCode(t, "ana@b.com", domain.PurposeRegister)
	rec = f.post(t, "/api/auth/register/finalize", registerBody(code))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register finalize: %d %s", rec.Code, rec.Body.String())
	}
	var created service.AuthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Token == "" || created.User.Email != "ana@b.com" {
		t.Fatalf("unexpected result %+v", created)
	}

	rec = f.post(t, "/api/auth/register/initiate", registerBody(""))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", rec.Code)
	}

	rec = f.post(t, "/api/auth/login/initiate", map[string]string{"email": "ana@b.com", "password": "secret123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login initiate: %d %s", rec.Code, rec.Body.String())
	}
	loginCode := f.lastCode(t, "ana@b.com", domain.PurposeLogin)

	rec = f.post(t, "/api/auth/login/complete", map[string]string{"email": "ana@b.com", "code": loginCode})
	if rec.Code != http.StatusOK {
		t.Fatalf("login complete: %d %s", rec.Code, rec.Body.String())
	}
	var result service.AuthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	meRec := httptest.NewRecorder()
	f.server.ServeHTTP(meRec, req)
	if meRec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", meRec.Code, meRec.Body.String())
	}
	var me domain.User
	if err := json.Unmarshal(meRec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "ana@b.com" || me.Role.Name != domain.RoleEmployee {
		t.Fatalf("unexpected me %+v", me)
	}
}

func TestAuthEndpointErrors(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("login with unknown email", func(t *testing.T) {
		rec := f.post(t, "/api/auth/login/initiate", map[string]string{"email": "ghost@b.com", "password": "x"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("login complete with bad code", func(t *testing.T) {
		rec := f.post(t, "/api/auth/login/complete", map[string]string{"email": "ghost@b.com", "code": "123456"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("missing fields are a validation error", func(t *testing.T) {
		rec := f.post(t, "/api/auth/login/initiate", map[string]string{"email": "a@b.com"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("forgot password for unknown account", func(t *testing.T) {
		rec := f.post(t, "/api/auth/forgot-password", map[string]string{"email": "ghost@b.com"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("forgot password for federated account", func(t *testing.T) {
		gid := "g-1"
		if err := f.db.Create(&domain.User{
			Email: "fed@b.com", FirstName: "F", LastName: "U",
			BirthDate: time.Now().AddDate(-20, 0, 0), RoleID: 2, GoogleID: &gid,
		}).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
		rec := f.post(t, "/api/auth/forgot-password", map[string]string{"email": "fed@b.com"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("google login without configuration is a generic 401", func(t *testing.T) {
		rec := f.post(t, "/api/auth/google-login", map[string]string{"id_token": "tok"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("me without token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.post(t, "/api/auth/register/initiate", registerBody(""))
	if rec.Code != http.StatusOK {
		t.Fatalf("register initiate: %d", rec.Code)
	}
	code := f.lastCode(t, "ana@b.com", domain.PurposeRegister)
	if rec = f.post(t, "/api/auth/register/finalize", registerBody(code)); rec.Code != http.StatusCreated {
		t.Fatalf("register finalize: %d", rec.Code)
	}

	if rec = f.post(t, "/api/auth/forgot-password", map[string]string{"email": "ana@b.com"}); rec.Code != http.StatusOK {
		t.Fatalf("forgot: %d %s", rec.Code, rec.Body.String())
	}
	resetCode := f.lastCode(t, "ana@b.com", domain.PurposeResetPassword)

	if rec = f.post(t, "/api/auth/verify-reset-code", map[string]string{"email": "ana@b.com", "code": resetCode}); rec.Code != http.StatusOK {
		t.Fatalf("verify reset code: %d %s", rec.Code, rec.Body.String())
	}

	rec = f.post(t, "/api/auth/reset-password", map[string]string{
		"email": "ana@b.com", "code": resetCode, "new_password": "brandnew1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", rec.Code, rec.Body.String())
	}

	if rec = f.post(t, "/api/auth/login/initiate", map[string]string{"email": "ana@b.com", "password": "secret123"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("old password: %d", rec.Code)
	}
	if rec = f.post(t, "/api/auth/login/initiate", map[string]string{"email": "ana@b.com", "password": "brandnew1"}); rec.Code != http.StatusOK {
		t.Fatalf("new password: %d %s", rec.Code, rec.Body.String())
	}
}

func TestResendCodeEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.post(t, "/api/auth/register/initiate", registerBody(""))
	if rec.Code != http.StatusOK {
		t.Fatalf("register initiate: %d", rec.Code)
	}
	if rec = f.post(t, "/api/auth/resend-code", map[string]string{"email": "ana@b.com", "purpose": domain.PurposeRegister}); rec.Code != http.StatusOK {
		t.Fatalf("resend: %d %s", rec.Code, rec.Body.String())
	}
	code := f.lastCode(t, "ana@b.com", domain.PurposeRegister)
	if rec = f.post(t, "/api/auth/register/finalize", registerBody(code)); rec.Code != http.StatusCreated {
		t.Fatalf("finalize with resent code: %d %s", rec.Code, rec.Body.String())
	}
}

func TestSocialLoginEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.post(t, "/api/auth/social-login", map[string]string{
		"provider":   "facebook",
		"subject_id": "fb-22",
		"email":      "fab@b.com",
		"first_name": "Fab",
		"last_name":  "Ionescu",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("social login: %d %s", rec.Code, rec.Body.String())
	}
	var result service.AuthResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.User.FacebookID == nil || *result.User.FacebookID != "fb-22" {
		t.Fatalf("facebook id not linked: %+v", result.User)
	}
	if claims, err := f.tokens.Parse(result.Token); err != nil || claims.Email != "fab@b.com" {
		t.Fatalf("token claims: %v", err)
	}
}
