package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"qdrt_backend/internal/checklist"
	"qdrt_backend/internal/config"
	"qdrt_backend/internal/controller"
	"qdrt_backend/internal/middleware"
	"qdrt_backend/internal/repository"
	"qdrt_backend/internal/service"
	"qdrt_backend/pkg/configwatcher"
	"qdrt_backend/pkg/database"
	"qdrt_backend/pkg/logger"
	"qdrt_backend/pkg/monitoring"
	"qdrt_backend/pkg/security"
	"qdrt_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigFile      string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	State           repository.StateStore
	services        *services
	tracer          *sdktrace.TracerProvider
	configCallbacks []configwatcher.Reloader

	// ctx lives until Close and bounds background goroutines started by New.
	ctx    context.Context
	cancel context.CancelFunc
}

type repositories struct {
	answers *repository.AnswerRepository
	corpus  *repository.CorpusRepository
}

type services struct {
	ai        *service.AIService
	storage   *service.StorageService
	review    *service.ReviewService
	corpus    *service.CorpusService
	generator *service.GeneratorService
	export    *service.ExportService
}

type controllers struct {
	qdrt   *controller.QDRTController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// initStateStore opens the backend that keeps the answer set and the corpus.
func (a *App) initStateStore(cfg *config.Config) (repository.StateStore, error) {
	switch cfg.State.Backend {
	case config.StateBackendMemory:
		return repository.NewMemoryStateStore(), nil
	case config.StateBackendRedis:
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.Redis = rdb
		return repository.NewRedisStateStore(rdb), nil
	case config.StateBackendDatabase:
		db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.DB = db
		return repository.NewGormStateStore(db), nil
	default:
		store, err := repository.NewFileStateStore(cfg.State.FileDir)
		if err != nil {
			return nil, fmt.Errorf("init state dir: %w", err)
		}
		return store, nil
	}
}

func (a *App) initRepositories(ctx context.Context, store repository.StateStore, cfg *config.Config) *repositories {
	return &repositories{
		answers: repository.NewAnswerRepository(ctx, store, cfg.State.Namespace),
		corpus:  repository.NewCorpusRepository(ctx, store, cfg.State.Namespace),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}
	schema := checklist.Default()

	s.ai = service.NewAIService(cfg.AI)
	s.storage = service.NewStorageService(cfg)
	s.review = service.NewReviewService(schema, repos.answers)
	s.corpus = service.NewCorpusService(repos.corpus, int64(cfg.Upload.MaxFileMB)<<20)
	s.generator = service.NewGeneratorService(schema, repos.answers, repos.corpus, s.ai, cfg.AI.MaxContextChars)
	s.export = service.NewExportService(schema, repos.answers, s.storage)

	// API key, model and endpoint can change without a restart.
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.ai.UpdateConfig(newCfg.AI)
		logger.Log.Info("AI settings reloaded",
			zap.String("model", newCfg.AI.Model),
			zap.Bool("configured", s.ai.Configured()))
	})

	return s
}

func (a *App) initControllers(s *services, repos *repositories, cfg *config.Config) *controllers {
	return &controllers{
		qdrt: controller.NewQDRTController(s.review, s.corpus, s.generator, s.export),
		health: controller.NewHealthController(a.State, cfg.State.Backend, map[string]controller.Durability{
			"answers": repos.answers,
			"corpus":  repos.corpus,
		}),
	}
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New wires the application without touching process-global state, so tests can build
// as many instances as they need. NewApp adds logging, metrics and tracing on top.
func New(cfg *config.Config) (*App, error) {
	cfg.ApplyDefaults()

	app := &App{Config: cfg}

	store, err := app.initStateStore(cfg)
	if err != nil {
		return nil, err
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())
	app.State = store

	repos := app.initRepositories(app.ctx, store, cfg)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, repos, cfg)

	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.Upload.MaxFileMB) << 20
	app.Router = router

	app.setupMiddlewares(app.ctx, router, cfg)
	app.registerRoutes(router, controllers)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app, nil
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	monitoring.Init()

	app, err := New(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("qdrt-reviewer", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	if a.ConfigFile == "" || len(a.configCallbacks) == 0 {
		return
	}
	go func() {
		if err := configwatcher.Watch(ctx, a.ConfigFile, configwatcher.DefaultDebounce, a.configCallbacks...); err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := context.WithCancel(a.ctx)
	defer stop()
	a.watchConfig(ctx)

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stop()

	// A running generate-all holds its request open; give it a little longer than a plain request.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Server forced to shutdown:", err)
	}

	a.Close()
	log.Println("Server exiting")
}

// Close releases connections opened by New and NewApp.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	logger.Log.Sync()
}
