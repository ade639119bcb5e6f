// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"kunden-service/internal/config"
	"kunden-service/internal/db"
	auditHandler "kunden-service/internal/handlers/audit"
	authHandler "kunden-service/internal/handlers/auth"
	backupHandler "kunden-service/internal/handlers/backup"
	customerHandler "kunden-service/internal/handlers/customer"
	metaHandler "kunden-service/internal/handlers/meta"
	wsHandler "kunden-service/internal/handlers/websocket"
	"kunden-service/internal/middleware"
	"kunden-service/internal/pkg/jwt"
	"kunden-service/internal/pkg/session"
	"kunden-service/internal/repository/postgres"
	"kunden-service/internal/repository/records"
	"kunden-service/internal/repository/sqlite"
	auditUsecase "kunden-service/internal/service/audit"
	authUsecase "kunden-service/internal/service/auth"
	backupUsecase "kunden-service/internal/service/backup"
	commentUsecase "kunden-service/internal/service/comment"
	customerUsecase "kunden-service/internal/service/customer"
	"kunden-service/internal/storage"
	"kunden-service/internal/storage/csvfile"
	"kunden-service/internal/websocket"
	wsHandlers "kunden-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const backupLockKey = "kunden:backup:lock"

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	// released in reverse order on shutdown
	closers []func()
}

func NewServer(cfg config.AppConfig) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{cfg: cfg, engine: gin.New(), logger: logger}, nil
}

// Start wires every component and serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	defer s.close()
	started := time.Now()

	// ----- Storage -----
	store, err := s.openTableStore(ctx)
	if err != nil {
		return err
	}
	snapshots, err := csvfile.NewSnapshots(s.cfg.BackupDir)
	if err != nil {
		return fmt.Errorf("failed to open backup directory: %w", err)
	}
	locks := storage.NewTableLocks()

	// ----- Redis (optional) -----
	var redisClient *redis.Client
	if s.cfg.RedisAddr != "" {
		redisClient, err = db.NewRedisClient(ctx, db.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPass,
			PoolSize: 10,
		})
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() { redisClient.Close() })
		s.logger.Info("redis connected", zap.String("addr", s.cfg.RedisAddr))
	}

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Store & Rate Limiter -----
	var sessions session.Store
	var rateLimiter session.LoginLimiter
	if redisClient != nil {
		sessions = session.NewManager(redisClient)
		rateLimiter = session.NewRateLimiter(redisClient)
	} else {
		s.logger.Warn("REDIS_ADDR not set, sessions are kept in memory")
		sessions = session.NewMemoryStore()
		rateLimiter = session.NewMemoryRateLimiter()
	}

	users, err := authUsecase.LoadUsers(s.cfg.UsersFile)
	if err != nil {
		return err
	}

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, sessions, s.logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.closers = append(s.closers, stopHub)
	go hub.Run(hubCtx)

	// ----- Repositories -----
	customerRepo := records.NewCustomerRepository(store, s.logger)
	commentRepo := records.NewCommentRepository(store, s.logger)
	auditRepo := records.NewAuditRepository(store, s.logger)
	sequenceRepo := records.NewSequenceRepository(store)

	// ----- Services (Usecases) -----
	auditService := auditUsecase.NewAuditService(auditRepo, locks, hub, s.logger)
	commentService := commentUsecase.NewCommentService(commentRepo, locks, hub, s.logger)
	backupService := backupUsecase.NewBackupService(store, snapshots, locks, auditService, hub, s.cfg.BackupRetention, s.logger)

	var snapshotter customerUsecase.Snapshotter
	if s.cfg.BackupOnWrite {
		snapshotter = backupService
	}
	customerService := customerUsecase.NewCustomerService(
		customerRepo,
		sequenceRepo,
		commentService,
		auditService,
		snapshotter,
		locks,
		hub,
		s.logger,
	)
	authService := authUsecase.NewAuthService(users, jwtManager, sessions, rateLimiter, hub, s.logger)

	hub.RegisterHandler(wsHandlers.NewCustomerHandler(customerService, commentService, s.logger))

	// ----- Backup scheduler -----
	if s.cfg.BackupInterval > 0 {
		var lock backupUsecase.Lock
		if redisClient != nil {
			lock, err = backupUsecase.NewRedisLock(redisClient, backupLockKey, s.cfg.BackupInterval/2)
			if err != nil {
				return err
			}
		}
		scheduler := backupUsecase.NewScheduler(backupService, lock, s.cfg.BackupInterval, s.logger)
		go scheduler.Run(hubCtx)
	}

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(s.logger),
		middleware.LoggingMiddleware(s.logger),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:     authHandler.NewAuthHandler(authService, s.logger),
		CustomerHandler: customerHandler.NewCustomerHandler(customerService, commentService, s.logger),
		AuditHandler:    auditHandler.NewAuditHandler(auditService, s.logger),
		BackupHandler:   backupHandler.NewBackupHandler(backupService, s.logger),
		MetaHandler:     metaHandler.NewMetaHandler(s.cfg.StorageBackend, started),
		WSHandler:       wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, s.logger),
		AuthMiddleware:  middleware.NewAuthMiddleware(authService),
	}
	SetupRouter(s.engine, handlers)

	// ----- Start HTTP -----
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server running",
			zap.String("addr", s.cfg.HTTPAddr),
			zap.String("storage", s.cfg.StorageBackend),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// openTableStore selects the persistence backend.
func (s *Server) openTableStore(ctx context.Context) (storage.TableStore, error) {
	switch s.cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		store := postgres.NewTableStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		s.logger.Info("using postgres storage")
		return store, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, s.cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %s: %w", s.cfg.SQLitePath, err)
		}
		s.closers = append(s.closers, func() {
			if err := store.Close(); err != nil {
				s.logger.Warn("failed to close sqlite", zap.Error(err))
			}
		})
		s.logger.Info("using sqlite storage", zap.String("path", s.cfg.SQLitePath))
		return store, nil

	default:
		store, err := csvfile.NewStore(s.cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open data directory: %w", err)
		}
		s.logger.Info("using csv storage", zap.String("dir", s.cfg.DataDir))
		return store, nil
	}
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
	_ = s.logger.Sync()
}

func newLogger(cfg config.AppConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
