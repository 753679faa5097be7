// Package main - точка входа движка инсайтов ClassPulse.
//
// Worker связывает весь конвейер:
// - события завершения попыток порождают инсайты через движок правил;
// - менеджер жизненного цикла следит за статусами и сроками ревью;
// - планировщик гасит просроченные инсайты и сверяет награды с журналом.
//
// Внешнего API у процесса нет: команды и запросы собраны в контейнер App
// и вызываются шиной событий, задачами планировщика и тестами.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/classpulse/insight-engine/config"
	"github.com/classpulse/insight-engine/internal/application/command"
	"github.com/classpulse/insight-engine/internal/application/eventhandler"
	"github.com/classpulse/insight-engine/internal/application/lifecycle"
	"github.com/classpulse/insight-engine/internal/application/query"
	"github.com/classpulse/insight-engine/internal/application/workqueue"
	"github.com/classpulse/insight-engine/internal/domain/action"
	"github.com/classpulse/insight-engine/internal/domain/badge"
	"github.com/classpulse/insight-engine/internal/domain/insight"
	"github.com/classpulse/insight-engine/internal/domain/progress"
	"github.com/classpulse/insight-engine/internal/domain/roster"
	"github.com/classpulse/insight-engine/internal/domain/shared"
	"github.com/classpulse/insight-engine/internal/infrastructure/messaging"
	"github.com/classpulse/insight-engine/internal/infrastructure/persistence/memory"
	"github.com/classpulse/insight-engine/internal/infrastructure/persistence/postgres"
	"github.com/classpulse/insight-engine/internal/infrastructure/persistence/redis"
	"github.com/classpulse/insight-engine/internal/infrastructure/scheduler"
	"github.com/classpulse/insight-engine/internal/infrastructure/scheduler/jobs"
	"github.com/classpulse/insight-engine/pkg/identifier"
	"github.com/classpulse/insight-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION CONTAINER
// ══════════════════════════════════════════════════════════════════════════════

// Stores объединяет все репозитории независимо от бэкенда хранения.
type Stores struct {
	Insights insight.Repository
	Actions  action.Repository
	Progress progress.Repository
	Roster   roster.Repository
	Badges   badge.Repository
}

// App содержит собранный прикладной слой движка.
type App struct {
	// Команды
	StartAttempt       *command.StartAttemptHandler
	CompleteAttempt    *command.CompleteAttemptHandler
	RecordHintUsage    *command.RecordHintUsageHandler
	RecordCoachSession *command.RecordCoachSessionHandler
	RecordAction       *command.RecordTeacherActionHandler

	// Жизненный цикл и очередь
	Lifecycle *lifecycle.Manager
	Queue     *workqueue.Builder
	QueueOps  *workqueue.Operations

	// Запросы
	AssignmentRoster *query.GetAssignmentRosterHandler
	ArchiveReadiness *query.GetArchiveReadinessHandler
}

// buildApp собирает прикладной слой поверх репозиториев и шины событий.
func buildApp(stores Stores, bus *messaging.InMemoryEventBus, log *slog.Logger) *App {
	idGen := identifier.NewUUIDGenerator()
	thresholds := insight.DefaultThresholds()
	dedup := insight.NewDedupIndex(stores.Insights)

	recorder := command.NewRecordTeacherActionHandler(
		stores.Insights, stores.Actions, stores.Progress, stores.Roster,
		stores.Badges, dedup, idGen, bus, log,
	)
	lifecycleManager := lifecycle.NewManager(stores.Insights, bus, log)
	builder := workqueue.NewBuilder(stores.Insights, stores.Progress, stores.Roster, thresholds, log)
	rosterHandler := query.NewGetAssignmentRosterHandler(stores.Progress, stores.Insights, stores.Roster, thresholds)

	return &App{
		StartAttempt:       command.NewStartAttemptHandler(stores.Progress, stores.Roster, bus),
		CompleteAttempt:    command.NewCompleteAttemptHandler(stores.Progress, stores.Roster, bus),
		RecordHintUsage:    command.NewRecordHintUsageHandler(stores.Progress, bus),
		RecordCoachSession: command.NewRecordCoachSessionHandler(stores.Progress, bus),
		RecordAction:       recorder,
		Lifecycle:          lifecycleManager,
		Queue:              builder,
		QueueOps:           workqueue.NewOperations(builder, recorder, lifecycleManager, log),
		AssignmentRoster:   rosterHandler,
		ArchiveReadiness:   query.NewGetArchiveReadinessHandler(rosterHandler, stores.Insights),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	// Отсутствие .env не ошибка: в контейнерах всё приходит через окружение.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting ClassPulse insight engine",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ (PostgreSQL или in-memory для dev-режима)
	// ─────────────────────────────────────────────────────────────────────────
	var stores Stores

	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		// База может ещё подниматься, поэтому handshake с ретраями.
		err = retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
			return retry.Retryable(dbConn.Ping(ctx))
		})
		if err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")

		stores = Stores{
			Insights: postgres.NewInsightRepository(dbConn, log),
			Actions:  postgres.NewActionRepository(dbConn, log),
			Progress: postgres.NewProgressRepository(dbConn),
			Roster:   postgres.NewRosterRepository(dbConn),
			Badges:   postgres.NewBadgeRepository(dbConn),
		}
	} else {
		log.Warn("DATABASE_URL is not set, using in-memory storage (data is lost on restart)")
		stores = Stores{
			Insights: memory.NewInsightRepository(),
			Actions:  memory.NewActionRepository(),
			Progress: memory.NewProgressRepository(),
			Roster:   memory.NewRosterRepository(),
			Badges:   memory.NewBadgeRepository(),
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS READ-CACHE (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		if host, port, ok := splitHostPort(cfg.Redis.Addr); ok {
			redisCfg.Host = host
			redisCfg.Port = port
		}
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err := retry.DoWithData(ctx, func(ctx context.Context) (*redis.Cache, error) {
			c, err := redis.NewCache(redisCfg)
			return c, retry.Retryable(err)
		})
		if err != nil {
			log.Warn("failed to connect to Redis, insight caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			stores.Insights = redis.NewCachedInsightRepository(stores.Insights, redisCache, log)
			log.Info("Redis connection established, insight read-cache enabled")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	// Синхронный режим: генератор должен видеть собственные записи при
	// дедупликации следующего события.
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ПРИКЛАДНОЙ СЛОЙ И ПОДПИСКИ
	// ─────────────────────────────────────────────────────────────────────────
	app := buildApp(stores, bus, log)

	idGen := identifier.NewUUIDGenerator()
	generator := insight.NewGenerator(insight.DefaultThresholds(), idGen)
	onCompleted := eventhandler.NewOnAttemptCompleted(
		generator,
		insight.NewDedupIndex(stores.Insights),
		stores.Insights,
		bus,
		log,
	)
	// Диспетчер добавляет к обработчикам recovery, логирование и ретраи
	// с DLQ. Генератор регистрируется синхронно: его записи должны быть
	// видны дедупликации до следующего события.
	dispCfg := messaging.DefaultDispatcherConfig(bus)
	dispCfg.Logger = log
	dispatcher := messaging.NewDispatcher(dispCfg)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	if err := dispatcher.RegisterSync(shared.EventAttemptCompleted, "insight-generator", onCompleted.EventHandler()); err != nil {
		return fmt.Errorf("failed to register insight generator: %w", err)
	}
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer func() {
		log.Info("stopping dispatcher...")
		_ = dispatcher.Stop()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled {
		schedConfig := scheduler.DefaultSchedulerConfig()
		schedConfig.Logger = log
		sched := scheduler.NewScheduler(schedConfig)

		expireJob := jobs.NewExpireInsightsJob(app.Lifecycle, log)
		if err := sched.Register(expireJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ExpirySweepInterval)); err != nil {
			return fmt.Errorf("failed to register expiry job: %w", err)
		}

		// Сверку наград можно привязать к фиксированному времени суток,
		// например к вечеру после занятий.
		var reconcileSchedule scheduler.Schedule = scheduler.NewIntervalSchedule(cfg.Scheduler.BadgeReconcileInterval)
		if cfg.Scheduler.BadgeReconcileCron != "" {
			expr, err := scheduler.ParseCronExpression(cfg.Scheduler.BadgeReconcileCron)
			if err != nil {
				return fmt.Errorf("invalid BADGE_RECONCILE_CRON: %w", err)
			}
			reconcileSchedule = expr
		}

		reconcileJob := jobs.NewReconcileBadgesJob(
			stores.Badges, stores.Actions, cfg.Scheduler.BadgeReconcileWindow, log,
		)
		if err := sched.Register(reconcileJob, reconcileSchedule); err != nil {
			return fmt.Errorf("failed to register badge reconcile job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()

		log.Info("scheduler started",
			"expiry_sweep", cfg.Scheduler.ExpirySweepInterval.String(),
			"badge_reconcile", reconcileSchedule.String(),
		)
	} else {
		log.Warn("scheduler is disabled, insights will not expire automatically")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("insight engine is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())
	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// splitHostPort разбирает адрес вида "host:port".
func splitHostPort(addr string) (string, int, bool) {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return "", 0, false
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return addr[:idx], port, true
}
