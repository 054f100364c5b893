package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"matrix_exam_backend/internal/config"
	"matrix_exam_backend/internal/controller"
	"matrix_exam_backend/internal/repository"
	"matrix_exam_backend/internal/service"
	"matrix_exam_backend/internal/util"
	"matrix_exam_backend/pkg/configwatcher"
	"matrix_exam_backend/pkg/database"
	"matrix_exam_backend/pkg/logger"
	"matrix_exam_backend/pkg/monitoring"
	"matrix_exam_backend/pkg/security"
	"matrix_exam_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	// ConfigPath 配置目录，热更新时监听其中的 config.yaml
	ConfigPath string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client
	Events     service.EventPublisher
	Hub        *service.SessionHub

	services        *services
	rateLimiter     *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	sweepReset      chan time.Duration
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	student      *repository.StudentRepository
	teacher      *repository.TeacherRepository
	subject      *repository.SubjectRepository
	grade        *repository.GradeRepository
	lesson       *repository.LessonRepository
	questionType *repository.QuestionTypeRepository
	level        *repository.LevelRepository
	question     *repository.QuestionRepository
	option       *repository.OptionRepository
	exam         *repository.ExamRepository
	matrix       *repository.MatrixRepository
	session      *repository.ExamSessionRepository
	answer       *repository.StudentAnswerRepository
	result       *repository.ExamResultRepository
	appSetting   *repository.AppSettingRepository
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	student      *service.StudentService
	teacher      *service.TeacherService
	subject      *service.SubjectService
	grade        *service.GradeService
	lesson       *service.LessonService
	questionType *service.QuestionTypeService
	level        *service.LevelService
	question     *service.QuestionService
	exam         *service.ExamService
	matrix       *service.MatrixService
	session      *service.ExamSessionService
	result       *service.ExamResultService
	appSetting   *service.AppSettingService
	importer     *service.BankImporter
}

type controllers struct {
	auth         *controller.AuthController
	student      *controller.StudentController
	teacher      *controller.TeacherController
	subject      *controller.SubjectController
	grade        *controller.GradeController
	lesson       *controller.LessonController
	questionType *controller.QuestionTypeController
	level        *controller.LevelController
	question     *controller.QuestionController
	exam         *controller.ExamController
	matrix       *controller.MatrixController
	session      *controller.ExamSessionController
	result       *controller.ExamResultController
	appSetting   *controller.AppSettingController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		student:      repository.NewStudentRepository(db),
		teacher:      repository.NewTeacherRepository(db),
		subject:      repository.NewSubjectRepository(db),
		grade:        repository.NewGradeRepository(db),
		lesson:       repository.NewLessonRepository(db),
		questionType: repository.NewQuestionTypeRepository(db),
		level:        repository.NewLevelRepository(db),
		question:     repository.NewQuestionRepository(db),
		option:       repository.NewOptionRepository(db),
		exam:         repository.NewExamRepository(db),
		matrix:       repository.NewMatrixRepository(db),
		session:      repository.NewExamSessionRepository(db),
		answer:       repository.NewStudentAnswerRepository(db),
		result:       repository.NewExamResultRepository(db),
		appSetting:   repository.NewAppSettingRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) *services {
	s := &services{}

	var locker service.Locker
	if a.Redis != nil {
		locker = service.NewRedisLocker(a.Redis, cfg.Exam.LockTTL)
	} else {
		locker = service.NewLocalLocker()
	}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(db, repos.user, cfg)
	s.student = service.NewStudentService(db, repos.student, repos.user)
	s.teacher = service.NewTeacherService(db, repos.teacher)
	s.subject = service.NewSubjectService(repos.subject)
	s.grade = service.NewGradeService(repos.grade, repos.subject)
	s.lesson = service.NewLessonService(repos.lesson, repos.grade)
	s.questionType = service.NewQuestionTypeService(repos.questionType)
	s.level = service.NewLevelService(repos.level)
	s.question = service.NewQuestionService(db, repos.question, repos.option, repos.lesson, repos.questionType, repos.level)
	s.exam = service.NewExamService(db, repos.exam, repos.matrix, repos.session)
	s.matrix = service.NewMatrixService(db, repos.question, repos.exam, repos.matrix, repos.session, a.Events, &cfg.Exam)
	s.session = service.NewExamSessionService(db, repos.session, repos.answer, repos.result, repos.exam, repos.matrix, locker, a.Events, &cfg.Exam)
	s.session.Notifier = a.Hub
	a.Hub.Lookup = s.session.Active
	s.result = service.NewExamResultService(repos.result, repos.session, repos.exam, repos.user, s.session, s.storage)
	s.appSetting = service.NewAppSettingService(repos.appSetting)
	s.importer = service.NewBankImporter(db)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		student:      controller.NewStudentController(s.student),
		teacher:      controller.NewTeacherController(s.teacher),
		subject:      controller.NewSubjectController(s.subject),
		grade:        controller.NewGradeController(s.grade),
		lesson:       controller.NewLessonController(s.lesson),
		questionType: controller.NewQuestionTypeController(s.questionType),
		level:        controller.NewLevelController(s.level),
		question:     controller.NewQuestionController(s.question, s.importer),
		exam:         controller.NewExamController(s.exam),
		matrix:       controller.NewMatrixController(s.matrix),
		session:      controller.NewExamSessionController(s.session, s.result, a.Hub),
		result:       controller.NewExamResultController(s.result),
		appSetting:   controller.NewAppSettingController(s.appSetting),
		health:       controller.NewHealthController(db, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(a.rateLimiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 在已经建立好的数据库和 Redis 连接上组装应用，rdb 可以为空
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	gin.SetMode(cfg.Server.Mode)
	util.RegisterValidators()
	monitoring.Init()

	app := &App{
		Config:     cfg,
		ConfigPath: "configs",
		DB:         db,
		Redis:      rdb,
		Events:     newEventPublisher(&cfg.Events),
		Hub:        service.NewSessionHub(rdb, cfg.Exam.TimerPushInterval),
		sweepReset: make(chan time.Duration, 1),
	}
	app.rateLimiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, db)
	controllers := app.initControllers(app.services, db)

	router := gin.New()
	app.Router = router
	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
		app.rateLimiter.Update(newCfg.RateLimit.MaxRequests, time.Duration(newCfg.RateLimit.WindowMinutes)*time.Minute)
		select {
		case app.sweepReset <- newCfg.Exam.SweepInterval:
		default:
		}
	})

	return app
}

func newEventPublisher(cfg *config.EventsConfig) service.EventPublisher {
	if cfg.AMQPURL == "" {
		return &service.NoopPublisher{}
	}
	pub, err := service.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange)
	if err != nil {
		logger.Log.Warn("AMQP unavailable, domain events are disabled", zap.Error(err))
		return &service.NoopPublisher{}
	}
	return pub
}

// Connect 初始化日志、数据库和 Redis
func Connect(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
	}
	return db, rdb, nil
}

func NewApp(cfg *config.Config, configPath string) (*App, error) {
	db, rdb, err := Connect(cfg)
	if err != nil {
		return nil, err
	}

	app := New(cfg, db, rdb)
	app.ConfigPath = configPath

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("matrix-exam-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}
	return app, nil
}

// SweepOnce 自动提交所有已超时的会话
func (a *App) SweepOnce(ctx context.Context) (int, error) {
	return a.services.session.ExpireOverdue(ctx)
}

// runSweeper 周期性地关闭超时会话，间隔可随配置热更新
func (a *App) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(a.Config.Exam.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-a.sweepReset:
			if d > 0 {
				ticker.Reset(d)
				logger.Log.Info("sweep interval updated", zap.Duration("interval", d))
			}
		case <-ticker.C:
			n, err := a.SweepOnce(ctx)
			if err != nil {
				logger.Log.Error("expire overdue sessions failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Log.Info("overdue sessions auto-submitted", zap.Int("count", n))
			}
		}
	}
}

func (a *App) watchConfig(ctx context.Context) {
	path := filepath.Join(a.ConfigPath, "config.yaml")
	err := configwatcher.WatchConfig(ctx, path, func(newCfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	})
	if err != nil {
		logger.Log.Warn("config hot reload disabled", zap.Error(err))
	}
}

// Close 释放外部连接
func (a *App) Close() {
	a.rateLimiter.Stop()
	if err := a.Events.Close(); err != nil {
		logger.Log.Error("Failed to close event publisher", zap.Error(err))
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.Hub.Run(ctx)
	go a.runSweeper(ctx)
	go a.watchConfig(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		a.Close()
		return err
	}
	logger.Log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	err := srv.Shutdown(shutdownCtx)
	a.Close()
	if err != nil {
		return err
	}

	logger.Log.Info("Server exiting")
	return nil
}
