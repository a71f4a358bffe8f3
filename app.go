package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nikodemkorbiel18-create/scale-5000/handlers"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/audit/repository"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/config"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/database"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/export"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/llm"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/sessions"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/storage"
	"github.com/nikodemkorbiel18-create/scale-5000/internal/users"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/metrics"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// stores is what a DATABASE_URL resolves to.
type stores struct {
	kind     database.Kind
	audits   audit.Store
	users    users.UserRepository
	sessions sessions.Repository // nil unless the backend keeps sessions itself
	ping     func(context.Context) error
	close    func()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	return cfg, nil
}

// openStores connects to the backend selected by DATABASE_URL and makes sure
// its schema exists.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	kind, err := database.KindOf(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	switch kind {
	case database.KindMemory:
		logger.Warnf("DATABASE_URL is not set; audits and accounts are kept in memory only")
		return &stores{
			kind:     kind,
			audits:   repository.NewMemoryRepo(),
			users:    users.NewMemoryUserRepository(),
			sessions: sessions.NewMemoryRepository(),
			ping:     func(context.Context) error { return nil },
			close:    func() {},
		}, nil

	case database.KindPostgres, database.KindSQLite:
		timeout := cfg.Database.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		db, dialect, err := database.OpenSQL(ctx, cfg.Database.URL, timeout)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Infof("using %s storage", dialect)
		return &stores{
			kind:   kind,
			audits: repository.NewSQLRepo(db, dialect),
			users:  users.NewSQLUserRepository(db, dialect),
			ping:   db.PingContext,
			close:  func() { _ = db.Close() },
		}, nil

	case database.KindMongo:
		client, err := database.ConnectMongoRetry(ctx, cfg.Database.URL, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			return nil, err
		}
		st, err := mongoStores(ctx, client, cfg.MongoDB.Database)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Infof("using MongoDB storage (database=%s)", cfg.MongoDB.Database)
		return st, nil
	}
	return nil, fmt.Errorf("unsupported backend %q", kind)
}

func mongoStores(ctx context.Context, client *mongo.Client, dbName string) (*stores, error) {
	db := client.Database(dbName)
	auditRepo, err := repository.NewMongoRepo(ctx, db.Collection("ai_audits"))
	if err != nil {
		return nil, err
	}
	userRepo, err := users.NewMongoUserRepository(ctx, db.Collection("users"))
	if err != nil {
		return nil, err
	}
	sessionRepo, err := sessions.NewMongoRepository(ctx, db.Collection("sessions"))
	if err != nil {
		return nil, err
	}
	return &stores{
		kind:     database.KindMongo,
		audits:   auditRepo,
		users:    userRepo,
		sessions: sessionRepo,
		ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close:    func() { _ = client.Disconnect(context.Background()) },
	}, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Host + ":" + cfg.Port, Password: cfg.Password, DB: cfg.DB})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Host, cfg.Port, err)
		_ = client.Close()
		return nil
	}
	logger.Infof("connected to Redis at %s:%s", cfg.Host, cfg.Port)
	return client
}

func buildGenerator(cfg config.ModelConfig) (audit.Generator, error) {
	client := llm.NewLazy(func() (*llm.Client, error) {
		return llm.NewClient(cfg.BaseURL, cfg.APIKey, nil)
	})
	gc := audit.GeneratorConfig{
		Model:          cfg.Name,
		Temperature:    cfg.Temperature,
		Timeout:        cfg.Timeout,
		RetryMalformed: cfg.RetryMalformed,
	}
	mode := audit.Mode(cfg.Mode)
	if mode == audit.ModeSimple {
		gc.MaxTokens = cfg.MaxTokensSimple
	} else {
		gc.MaxTokens = cfg.MaxTokensStructured
	}
	return audit.NewGenerator(mode, client, gc)
}

// buildExporter picks MinIO, then git, then nothing.
func buildExporter(ctx context.Context, cfg config.ExportConfig) export.Exporter {
	if cfg.MinIO.Enabled() {
		store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err == nil {
			logger.Infof("publishing audits to MinIO bucket %s", store.Bucket())
			return export.NewObjectExporter(store, 24*time.Hour)
		}
		logger.Warnf("MinIO export disabled: %v", err)
	}
	if cfg.Git.Dir != "" {
		exp, err := export.NewGitExporter(export.GitConfig{
			Dir:    cfg.Git.Dir,
			Remote: cfg.Git.Remote,
			Branch: cfg.Git.Branch,
			Push:   cfg.Git.Push,
		}, export.OSCommandRunner{}, logger.Zap())
		if err == nil {
			logger.Infof("publishing audits to git working tree %s", cfg.Git.Dir)
			return exp
		}
		logger.Warnf("git export disabled: %v", err)
	}
	return export.NoopExporter{}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// readyHandler returns 200 only when every dependency answers.
func readyHandler(checks map[string]func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ready := true
		deps := map[string]bool{}
		for name, check := range checks {
			err := check(ctx)
			deps[name] = err == nil
			if err != nil {
				logger.Warnf("readiness: %s: %v", name, err)
				ready = false
			}
		}
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	}
}

func newRouter(cfg *config.Config, st *stores, rdb *redis.Client) (*gin.Engine, error) {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gen, err := buildGenerator(cfg.Model)
	if err != nil {
		return nil, err
	}

	sessionRepo := st.sessions
	if rdb != nil {
		sessionRepo = sessions.NewRedisRepository(rdb, "session:")
		logger.Infof("using Redis for session storage")
	} else if sessionRepo == nil {
		logger.Warnf("no Redis or MongoDB configured; sessions are kept in memory")
		sessionRepo = sessions.NewMemoryRepository()
	}
	gate := sessions.NewGate(users.NewService(st.users), sessions.NewService(sessionRepo), cfg.Session.Secret, cfg.Session.TTL)

	var limit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			limit = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
		} else {
			limit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	checks := map[string]func(context.Context) error{"storage": st.ping}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	r.GET("/ready", readyHandler(checks))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterSwagger(r)
	handlers.RegisterAPI(r, handlers.API{
		Gate:      gate,
		Audits:    audit.NewService(gen, st.audits),
		Publisher: export.NewPublisher(buildExporter(context.Background(), cfg.Export), cfg.Export.Timeout),
		Cookie:    handlers.CookieConfig{Name: cfg.Session.CookieName, Secure: cfg.Server.IsProduction(), MaxAge: cfg.Session.TTL},
		RateLimit: limit,
	})
	return r, nil
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Infof("config loaded: env=%s mode=%s redis=%v", cfg.Server.Environment, cfg.Model.Mode, cfg.Redis.Host != "")

	st, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer st.close()

	rdb := connectRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	r, err := newRouter(cfg, st, rdb)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting audit service on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMigrate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kind, err := database.KindOf(cfg.Database.URL)
	if err != nil {
		return err
	}
	if kind == database.KindMemory {
		logger.Infof("DATABASE_URL is not set; nothing to migrate")
		return nil
	}
	st, err := openStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	st.close()
	logger.Infof("%s schema is up to date", kind)
	return nil
}
