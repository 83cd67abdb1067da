// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"solarcrm-service/internal/config"
	"solarcrm-service/internal/db"
	auditHandler "solarcrm-service/internal/handlers/audit"
	recordHandler "solarcrm-service/internal/handlers/record"
	teamHandler "solarcrm-service/internal/handlers/team"
	"solarcrm-service/internal/repository/postgres"
	lifecycleUsecase "solarcrm-service/internal/service/lifecycle"
	recordUsecase "solarcrm-service/internal/service/record"
	teamUsecase "solarcrm-service/internal/service/team"
	"solarcrm-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer *http.Server
	hubCancel  context.CancelFunc
}

func NewServer(logger *zap.Logger) *Server {
	return &Server{
		cfg:    config.Load(),
		engine: gin.New(),
		logger: logger,
	}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	dbWrapper := postgres.NewDB(pool)
	if err := dbWrapper.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	// ----- Redis (optional; only the rate limiter uses it) -----
	var redisClient *redis.Client
	if s.cfg.RedisAddr != "" {
		redisClient, err = db.NewRedisClient(db.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPass,
			DB:       0,
			PoolSize: 10,
		})
		if err != nil {
			s.logger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
			redisClient = nil
		}
	}

	// ----- Repositories -----
	recordRepo := postgres.NewCustomerRecordRepository(dbWrapper)
	snapshotRepo := postgres.NewSnapshotRepository(dbWrapper)
	teamRepo := postgres.NewConstructionTeamRepository(dbWrapper)

	// ----- Change Feed -----
	hub := websocket.NewHub(s.logger)
	hubCtx, cancel := context.WithCancel(context.Background())
	s.hubCancel = cancel
	go hub.Run(hubCtx)

	// ----- Services -----
	recordService := recordUsecase.NewRecordService(recordRepo, teamRepo, dbWrapper, hub, s.logger)
	lifecycleService := lifecycleUsecase.NewLifecycleService(recordRepo, snapshotRepo, dbWrapper, hub, s.logger)
	teamService := teamUsecase.NewTeamService(teamRepo, recordRepo, dbWrapper, hub, s.logger)

	// ----- Handlers -----
	handlers := &Handlers{
		RecordHandler: recordHandler.NewRecordHandler(recordService),
		AuditHandler:  auditHandler.NewAuditHandler(lifecycleService),
		TeamHandler:   teamHandler.NewTeamHandler(teamService),
		Hub:           hub,
		Redis:         redisClient,
	}

	SetupRouter(s.engine, s.cfg, s.logger, handlers)

	// ----- Start HTTP -----
	s.httpServer = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	s.logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the change feed.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hubCancel != nil {
		s.hubCancel()
	}
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
