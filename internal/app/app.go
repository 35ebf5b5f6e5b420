package app

import (
	"agri_training_backend/internal/config"
	"agri_training_backend/internal/controller"
	"agri_training_backend/internal/model"
	"agri_training_backend/internal/repository"
	"agri_training_backend/internal/service"
	"agri_training_backend/internal/util"
	"agri_training_backend/pkg/configwatcher"
	"agri_training_backend/pkg/database"
	"agri_training_backend/pkg/logger"
	"agri_training_backend/pkg/monitoring"
	"agri_training_backend/pkg/security"
	"agri_training_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Sessions service.SessionStore

	services        *services
	controllers     *controllers
	limiter         *security.IPLimiter
	loginLimiter    *security.IPLimiter
	tracer          *sdktrace.TracerProvider
	cfgMu           sync.RWMutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	employee   *repository.EmployeeRepository
	quizRecord *repository.QuizRecordRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	catalog    *service.CatalogService
	quiz       *service.QuizService
	content    *service.ContentService
	progress   *service.ProgressService
	calculator *service.CalculatorService
	employee   *service.EmployeeService
	pmu        *service.PMUServices
}

type controllers struct {
	auth       *controller.AuthController
	catalog    *controller.CatalogController
	content    *controller.ContentController
	quiz       *controller.QuizController
	progress   *controller.ProgressController
	calculator *controller.CalculatorController
	employee   *controller.EmployeeController
	health     *controller.HealthController

	programs    *controller.EntityController[model.Program, *model.Program]
	workStreams *controller.EntityController[model.WorkStream, *model.WorkStream]
	workPlans   *controller.EntityController[model.WorkPlan, *model.WorkPlan]
	targets     *controller.EntityController[model.Target, *model.Target]
	schedules   *controller.EntityController[model.Schedule, *model.Schedule]
	fieldTeams  *controller.EntityController[model.FieldTeam, *model.FieldTeam]
	tasks       *controller.EntityController[model.Task, *model.Task]
	farmerData  *controller.EntityController[model.FarmerData, *model.FarmerData]
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// CurrentConfig 热更新后的配置
func (a *App) CurrentConfig() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.Config
}

func (a *App) applyConfig(cfg *config.Config) {
	// 运行时标志不来自配置文件
	old := a.CurrentConfig()
	cfg.ConfigFile = old.ConfigFile
	cfg.MigrateOnly = old.MigrateOnly
	cfg.ResetDemo = old.ResetDemo

	a.cfgMu.Lock()
	a.Config = cfg
	a.cfgMu.Unlock()

	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		employee:   repository.NewEmployeeRepository(db),
		quizRecord: repository.NewQuizRecordRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.auth, err = service.NewAuthService(repos.employee, a.Sessions, cfg)
	if err != nil {
		return nil, err
	}
	s.quiz = service.NewQuizService(s.storage, repos.quizRecord)
	s.catalog = service.NewCatalogService(s.storage, s.quiz)
	s.content = service.NewContentService(s.storage)
	s.progress = service.NewProgressService(a.Sessions)
	s.calculator = service.NewCalculatorService(&cfg.Calculator)
	s.employee = service.NewEmployeeService(db)
	s.pmu = service.NewPMUServices(db)
	return s, nil
}

func (a *App) initControllers(s *services, cfg *config.Config, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		catalog:    controller.NewCatalogController(s.catalog, s.progress),
		content:    controller.NewContentController(s.content, cfg.Upload.MaxBytes),
		quiz:       controller.NewQuizController(s.quiz, s.progress),
		progress:   controller.NewProgressController(s.progress),
		calculator: controller.NewCalculatorController(s.calculator),
		employee:   controller.NewEmployeeController(s.employee),
		health:     controller.NewHealthController(db, a.pingSessions),

		programs:    controller.NewEntityController(s.pmu.Programs),
		workStreams: controller.NewEntityController(s.pmu.WorkStreams),
		workPlans:   controller.NewEntityController(s.pmu.WorkPlans),
		targets:     controller.NewEntityController(s.pmu.Targets),
		schedules:   controller.NewEntityController(s.pmu.Schedules),
		fieldTeams:  controller.NewEntityController(s.pmu.FieldTeams),
		tasks:       controller.NewEntityController(s.pmu.Tasks),
		farmerData:  controller.NewEntityController(s.pmu.FarmerData),
	}
}

func (a *App) pingSessions(ctx context.Context) error {
	if a.Redis == nil {
		return nil
	}
	return a.Redis.Ping(ctx).Err()
}

func (a *App) initSessions(cfg *config.Config) error {
	switch cfg.Session.Store {
	case util.SessionRedis:
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = rdb
		a.Sessions = service.NewRedisSessionStore(rdb)
	case util.SessionMemory, "":
		a.Sessions = service.NewMemorySessionStore()
	default:
		return fmt.Errorf("unsupported session store: %s", cfg.Session.Store)
	}
	return nil
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(func() []string {
		return a.CurrentConfig().CORS.AllowedOrigins
	}))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.limiter))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 在已连接的数据库上组装应用，测试直接使用
func New(cfg *config.Config, db *gorm.DB) (*App, error) {
	app := &App{Config: cfg, DB: db}

	if err := app.initSessions(cfg); err != nil {
		return nil, err
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, db)
	if err != nil {
		return nil, err
	}
	app.services = services
	app.controllers = app.initControllers(services, cfg, db)

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	app.limiter = security.NewIPLimiter(cfg.RateLimit.MaxRequests, window)
	app.loginLimiter = security.NewIPLimiter(cfg.RateLimit.LoginPerMinute, time.Minute)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, app.controllers)

	app.RegisterConfigCallback(func(c *config.Config) {
		if err := app.services.auth.Reload(c); err != nil {
			logger.Log.Error("Admin credential reload rejected", zap.Error(err))
		}
	})
	app.RegisterConfigCallback(func(c *config.Config) {
		app.services.calculator.Reload(&c.Calculator)
	})
	app.RegisterConfigCallback(func(c *config.Config) {
		app.controllers.content.SetMaxBytes(c.Upload.MaxBytes)
	})

	return app, nil
}

// Bootstrap 连接数据库、迁移并写入种子数据
func Bootstrap(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode != "release", cfg.ResetDemo)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	seed, err := database.DefaultSeed()
	if err != nil {
		return nil, err
	}
	stats, err := database.Seed(db, seed)
	if err != nil {
		return nil, fmt.Errorf("seed database: %w", err)
	}
	logger.Log.Info("Seed data applied",
		zap.Int("employees", stats.Employees),
		zap.Int("programs", stats.Programs),
		zap.Int("workstreams", stats.WorkStreams))
	return db, nil
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := Bootstrap(cfg)
	if err != nil {
		return nil, err
	}

	app, err := New(cfg, db)
	if err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("agri-training-portal", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		app.tracer = tp
	}
	return app, nil
}

// sweep 定期清理限流器和内存会话
func (a *App) sweep(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.limiter.Sweep(10 * time.Minute)
			a.loginLimiter.Sweep(10 * time.Minute)
			if mem, ok := a.Sessions.(*service.MemorySessionStore); ok {
				mem.Sweep()
			}
		}
	}
}

// Run 阻塞到收到 SIGINT/SIGTERM，然后在 5 秒内优雅关闭
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.sweep(gctx)
	})
	if a.Config.ConfigFile != "" {
		g.Go(func() error {
			return configwatcher.WatchConfig(gctx, a.Config.ConfigFile, a.applyConfig)
		})
	}

	err := g.Wait()
	a.Close()
	logger.Log.Info("Server exiting")
	return err
}

func (a *App) Close() {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Log.Sync()
}
