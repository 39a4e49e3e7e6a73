package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kiwy37/careerconnect/internal/health"
	"github.com/kiwy37/careerconnect/internal/http/handler"
	"github.com/kiwy37/careerconnect/internal/http/middleware"
	"github.com/kiwy37/careerconnect/internal/http/response"
	"github.com/kiwy37/careerconnect/internal/security"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	JWTManager       *security.JWTManager
	CORSOrigins      []string
	MaxBodyBytes     int64
	AuthRateLimiter  func(http.Handler) http.Handler
	AuthRateLimitRPM int
	Readiness        *health.ProbeRunner
	EnableOTelHTTP   bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	maxBody := dep.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	r.Use(middleware.BodyLimit(maxBody))

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		rpm := dep.AuthRateLimitRPM
		if rpm <= 0 {
			rpm = 20
		}
		authLimiter = middleware.NewRateLimiter(rpm, time.Minute).Middleware()
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter)
			r.Post("/login/initiate", dep.AuthHandler.InitiateLogin)
			r.Post("/login/complete", dep.AuthHandler.CompleteLogin)
			r.Post("/register/initiate", dep.AuthHandler.InitiateRegister)
			r.Post("/register/finalize", dep.AuthHandler.FinalizeRegister)
			r.Post("/resend-code", dep.AuthHandler.ResendCode)
			r.Post("/google-login", dep.AuthHandler.GoogleLogin)
			r.Post("/linkedin-login", dep.AuthHandler.LinkedInLogin)
			r.Post("/social-login", dep.AuthHandler.SocialLogin)
			r.Post("/forgot-password", dep.AuthHandler.ForgotPassword)
			r.Post("/verify-reset-code", dep.AuthHandler.VerifyResetCode)
			r.Post("/reset-password", dep.AuthHandler.ResetPassword)
		})

		r.With(middleware.AuthMiddleware(dep.JWTManager)).Get("/me", dep.UserHandler.Me)
	})

	if dep.EnableOTelHTTP {
		return otelhttp.NewHandler(r, "http.server")
	}
	return r
}
