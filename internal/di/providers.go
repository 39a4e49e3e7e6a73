package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kiwy37/careerconnect/internal/app"
	"github.com/kiwy37/careerconnect/internal/config"
	"github.com/kiwy37/careerconnect/internal/database"
	"github.com/kiwy37/careerconnect/internal/health"
	"github.com/kiwy37/careerconnect/internal/http/handler"
	"github.com/kiwy37/careerconnect/internal/http/middleware"
	"github.com/kiwy37/careerconnect/internal/http/router"
	"github.com/kiwy37/careerconnect/internal/observability"
	"github.com/kiwy37/careerconnect/internal/repository"
	"github.com/kiwy37/careerconnect/internal/security"
	"github.com/kiwy37/careerconnect/internal/service"
)

var ConfigSet = wire.NewSet(provideConfig)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewGormUserRepository,
	wire.Bind(new(repository.UserRepository), new(*repository.GormUserRepository)),
	repository.NewGormRoleRepository,
	wire.Bind(new(repository.RoleRepository), new(*repository.GormRoleRepository)),
	repository.NewGormVerificationCodeRepository,
	wire.Bind(new(repository.VerificationCodeRepository), new(*repository.GormVerificationCodeRepository)),
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	providePasswordHasher,
)

var ServiceSet = wire.NewSet(
	provideCodeNotifier,
	provideVerificationService,
	provideSweeper,
	provideGoogleVerifier,
	provideLinkedInExchanger,
	provideSocialResolver,
	provideAuthService,
	service.NewUserService,
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewUserHandler,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

type MigrationRunner struct {
	db *gorm.DB
}

func NewMigrationRunner(db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	if err := database.Seed(m.db); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func provideJWTManager(cfg *config.Config) (*security.JWTManager, error) {
	return security.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL)
}

func providePasswordHasher(cfg *config.Config) (*security.PasswordHasher, error) {
	return security.NewPasswordHasher(cfg.Password.BcryptCost)
}

func provideCodeNotifier(cfg *config.Config, logger *slog.Logger) service.CodeNotifier {
	if cfg.SMTP.Host == "" {
		return service.NewDevCodeNotifier(logger)
	}
	return service.NewSMTPCodeNotifier(cfg.SMTP, logger)
}

func provideVerificationService(
	codes repository.VerificationCodeRepository,
	notifier service.CodeNotifier,
	cfg *config.Config,
	logger *slog.Logger,
) *service.VerificationService {
	return service.NewVerificationService(codes, notifier, cfg.Verification.CodeTTL, logger)
}

func provideSweeper(verification *service.VerificationService, cfg *config.Config, logger *slog.Logger) *service.CleanupSweeper {
	return service.NewCleanupSweeper(verification, cfg.Verification.CleanupInterval, logger)
}

func provideGoogleVerifier(cfg *config.Config, logger *slog.Logger) *service.GoogleVerifier {
	return service.NewGoogleVerifier(cfg.Providers.GoogleClientID, logger)
}

func provideLinkedInExchanger(cfg *config.Config, logger *slog.Logger) *service.LinkedInExchanger {
	return service.NewLinkedInExchanger(cfg.Providers, logger)
}

func provideSocialResolver(cfg *config.Config, logger *slog.Logger) *service.SocialResolver {
	return service.NewSocialResolver(cfg.Providers, logger)
}

func provideAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	verification *service.VerificationService,
	hasher *security.PasswordHasher,
	tokens *security.JWTManager,
	google *service.GoogleVerifier,
	linkedIn *service.LinkedInExchanger,
	social *service.SocialResolver,
	logger *slog.Logger,
) *service.AuthService {
	return service.NewAuthService(users, roles, verification, hasher, tokens, google, linkedIn, social, logger)
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	jwt *security.JWTManager,
	readiness *health.ProbeRunner,
	redisClient redis.UniversalClient,
	cfg *config.Config,
) router.Dependencies {
	var authLimiter func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		mode := middleware.FailClosed
		if cfg.RateLimit.FailOpen {
			mode = middleware.FailOpen
		}
		if redisClient != nil {
			redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, "rl:auth")
			authLimiter = middleware.NewDistributedRateLimiter(
				redisLimiter,
				cfg.RateLimit.RequestsPerWindow,
				cfg.RateLimit.Window,
				mode,
				"auth",
			).Middleware()
		} else {
			authLimiter = middleware.NewDistributedRateLimiter(
				middleware.NewLocalFixedWindowLimiter(),
				cfg.RateLimit.RequestsPerWindow,
				cfg.RateLimit.Window,
				mode,
				"auth",
			).Middleware()
		}
	}

	return router.Dependencies{
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		JWTManager:       jwt,
		CORSOrigins:      cfg.HTTP.AllowedOrigins,
		MaxBodyBytes:     cfg.HTTP.MaxBodyBytes,
		AuthRateLimiter:  authLimiter,
		AuthRateLimitRPM: cfg.RateLimit.RequestsPerWindow,
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.Observability.MetricsEnabled || cfg.Observability.TracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.Redis.Enabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(2*time.Second, 0, checkers...)
}
