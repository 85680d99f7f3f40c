package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gamedesk/backend/libs/db"
	libredis "gamedesk/backend/libs/redis"
	"gamedesk/backend/services/desk-service/internal/config"
	httpserver "gamedesk/backend/services/desk-service/internal/http"
	"gamedesk/backend/services/desk-service/internal/http/handlers"
	"gamedesk/backend/services/desk-service/internal/redisstore"
	"gamedesk/backend/services/desk-service/internal/repository"
	"gamedesk/backend/services/desk-service/internal/service"
	"gamedesk/backend/services/desk-service/internal/ws"
)

// App wires desk-service dependencies.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	sessionRepo := repository.NewSessionRepository(sqlDB)
	stationRepo := repository.NewStationRepository(sqlDB)
	activeStore := redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())

	deskService := service.NewDeskService(sessionRepo, stationRepo, activeStore, logger)

	hub := ws.NewHub(deskService, cfg.DashboardRefresh(), logger)

	sessionsHandler := handlers.NewSessionsHandler(deskService, logger)
	stationsHandler := handlers.NewStationsHandler(deskService, logger)

	routes := httpserver.Routes{
		SessionStart:         sessionsHandler.HandleStart,
		SessionActivate:      sessionsHandler.HandleActivate,
		SessionEnd:           sessionsHandler.HandleEnd,
		SessionExtend:        sessionsHandler.HandleExtend,
		SessionPaymentStatus: sessionsHandler.HandlePaymentStatus,
		SessionsActive:       sessionsHandler.HandleActive,
		SessionsByDate:       sessionsHandler.HandleByDate,
		SessionsPending:      sessionsHandler.HandlePending,
		Stations:             stationsHandler.HandleList,
		StationSave:          stationsHandler.HandleSave,
		DashboardWS:          hub.Handler(),
		Health:               handlers.NewHealthHandler(),
	}

	router := httpserver.NewRouter(routes)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		hub:         hub,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server and the dashboard feed.
func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
