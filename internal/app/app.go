package app

import (
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kiwy37/careerconnect/internal/config"
	"github.com/kiwy37/careerconnect/internal/health"
	"github.com/kiwy37/careerconnect/internal/observability"
	"github.com/kiwy37/careerconnect/internal/service"
)

// App aggregates everything the entrypoint needs to run and shut down.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner
	Sweeper       *service.CleanupSweeper
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
	sweeper *service.CleanupSweeper,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
		Readiness:     readiness,
		Sweeper:       sweeper,
	}
}
