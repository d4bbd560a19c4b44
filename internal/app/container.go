// Package app wires recurra's repositories, handlers and infrastructure.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sharedApplication "github.com/felixgeelhaar/recurra/internal/shared/application"
	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/services"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/subscribers"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/felixgeelhaar/recurra/internal/tasks/infrastructure/icalendar"
	"github.com/felixgeelhaar/recurra/pkg/config"
	"github.com/felixgeelhaar/recurra/pkg/observability"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  domain.Clock

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	TaskRepo       task.Repository
	TaskListRepo   tasklist.Repository
	OccurrenceRepo task.OccurrenceRepository
	CompletionRepo task.CompletionRepository
	OutboxRepo     outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork
	Outbox     *outbox.Recorder

	// Services
	Generator        *recurrence.Generator
	Materializer     *services.OccurrenceMaterializer
	PreviewCache     queries.PreviewCache
	CalendarExporter *icalendar.Exporter

	// Events
	EventBus        *eventbus.InProcessBus
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor
	TopUpSubscriber *subscribers.OccurrenceTopUpSubscriber

	// Command Handlers
	CreateTaskListHandler         *commands.CreateTaskListHandler
	UpdateTaskListHandler         *commands.UpdateTaskListHandler
	AddListMemberHandler          *commands.AddListMemberHandler
	RemoveListMemberHandler       *commands.RemoveListMemberHandler
	CreateTaskHandler             *commands.CreateTaskHandler
	UpdateTaskHandler             *commands.UpdateTaskHandler
	UpdateRecurrenceHandler       *commands.UpdateRecurrenceHandler
	ToggleOccurrenceHandler       *commands.ToggleOccurrenceHandler
	MaterializeOccurrencesHandler *commands.MaterializeOccurrencesHandler

	// Query Handlers
	ListTaskListsHandler     *queries.ListTaskListsHandler
	GetTaskHandler           *queries.GetTaskHandler
	ListOccurrencesHandler   *queries.ListOccurrencesHandler
	PreviewRecurrenceHandler *queries.PreviewRecurrenceHandler
	ExportCalendarHandler    *queries.ExportCalendarHandler

	Health *observability.HealthRegistry

	memoryCache *cache.MemoryCache
}

// Option customizes a container before it is wired.
type Option func(*Container)

// WithClock replaces the system clock.
func WithClock(clock domain.Clock) Option {
	return func(c *Container) { c.Clock = clock }
}

// NewContainer connects to the configured backends and wires all handlers.
// Redis and RabbitMQ are optional in development; when they are unreachable
// the container falls back to the in-memory cache and the in-process bus.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
		Clock:  domain.SystemClock,
		Health: observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, conn.Ping))

	repos, err := NewRepositoryFactory(conn).Repositories()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.TaskRepo = repos.Tasks
	c.TaskListRepo = repos.TaskLists
	c.OccurrenceRepo = repos.Occurrences
	c.CompletionRepo = repos.Completions
	c.OutboxRepo = repos.Outbox
	c.UnitOfWork = database.NewUnitOfWork(conn)
	c.Outbox = outbox.NewRecorder(c.OutboxRepo)

	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initEvents(); err != nil {
		c.Close()
		return nil, err
	}

	c.Generator = recurrence.NewGenerator(logger)
	c.Materializer = services.NewOccurrenceMaterializer(c.OccurrenceRepo, c.Generator, services.MaterializeConfig{
		HorizonDays: cfg.MaterializeHorizonDays,
		Count:       cfg.MaterializeCount,
	}, logger)
	c.CalendarExporter = icalendar.NewExporter(c.Clock)

	// Create command handlers
	c.CreateTaskListHandler = commands.NewCreateTaskListHandler(c.TaskListRepo, c.Outbox, c.UnitOfWork)
	c.UpdateTaskListHandler = commands.NewUpdateTaskListHandler(c.TaskListRepo, c.Outbox, c.UnitOfWork)
	c.AddListMemberHandler = commands.NewAddListMemberHandler(c.TaskListRepo, c.Outbox, c.UnitOfWork)
	c.RemoveListMemberHandler = commands.NewRemoveListMemberHandler(c.TaskListRepo, c.Outbox, c.UnitOfWork)
	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.TaskRepo, c.TaskListRepo, c.Materializer, c.Outbox, c.UnitOfWork, c.Clock)
	c.UpdateTaskHandler = commands.NewUpdateTaskHandler(c.TaskRepo, c.TaskListRepo, c.Materializer, c.Outbox, c.UnitOfWork, c.Clock)
	c.UpdateRecurrenceHandler = commands.NewUpdateRecurrenceHandler(c.TaskRepo, c.Materializer, c.Outbox, c.UnitOfWork, c.Clock)
	c.ToggleOccurrenceHandler = commands.NewToggleOccurrenceHandler(c.OccurrenceRepo, c.CompletionRepo, c.Outbox, c.UnitOfWork, c.Clock)
	c.MaterializeOccurrencesHandler = commands.NewMaterializeOccurrencesHandler(c.TaskRepo, c.Materializer, c.Outbox, c.UnitOfWork, c.Clock, logger)

	// Create query handlers
	c.ListTaskListsHandler = queries.NewListTaskListsHandler(c.TaskListRepo)
	c.GetTaskHandler = queries.NewGetTaskHandler(c.TaskRepo, c.Generator, c.Clock)
	c.ListOccurrencesHandler = queries.NewListOccurrencesHandler(c.TaskRepo, c.OccurrenceRepo, c.Clock)
	c.PreviewRecurrenceHandler = queries.NewPreviewRecurrenceHandler(c.Generator, c.PreviewCache, c.Clock, logger)
	c.ExportCalendarHandler = queries.NewExportCalendarHandler(c.TaskListRepo, c.TaskRepo, c.OccurrenceRepo, c.CalendarExporter)

	c.TopUpSubscriber = subscribers.NewOccurrenceTopUpSubscriber(c.MaterializeOccurrencesHandler, logger)
	c.EventBus.Register(c.TopUpSubscriber)

	return c, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	dbCfg := database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	}
	if dbCfg.Driver == database.DriverSQLite {
		if dbCfg.SQLitePath == "" {
			dbCfg.SQLitePath = database.DefaultSQLitePath()
		}
		if err := database.EnsureDirectory(dbCfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("connected to database", "driver", conn.Driver(), "path", dbCfg.SQLitePath)
	return conn, nil
}

func (c *Container) initCache(ctx context.Context) error {
	if c.Config.RedisURL != "" {
		client, err := cache.Connect(ctx, c.Config.RedisURL)
		if err == nil {
			c.RedisClient = client
			c.PreviewCache = cache.NewRedisCache(client, c.Config.PreviewCacheTTL)
			c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded,
				func(ctx context.Context) error { return client.Ping(ctx).Err() }))
			c.Logger.Info("connected to Redis")
			return nil
		}
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, preview cache will use memory", "error", err)
	}

	cacheCfg := cache.DefaultConfig()
	if c.Config.PreviewCacheTTL > 0 {
		cacheCfg.TTL = c.Config.PreviewCacheTTL
	}
	c.memoryCache = cache.NewMemoryCache(cacheCfg)
	c.PreviewCache = c.memoryCache
	return nil
}

func (c *Container) initEvents() error {
	c.EventBus = eventbus.NewInProcessBus(c.Logger)

	switch {
	case !c.Config.EventsEnabled:
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
	case c.Config.RabbitMQURL != "":
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err != nil {
			if !c.Config.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
			c.EventPublisher = c.EventBus
			break
		}
		c.EventPublisher = eventbus.NewBreakerPublisher(publisher, eventbus.DefaultBreakerConfig(), c.Logger)
	default:
		c.EventPublisher = c.EventBus
	}

	processorCfg := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		processorCfg.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		processorCfg.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		processorCfg.MaxRetries = c.Config.OutboxMaxRetries
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorCfg, c.Logger)
	return nil
}

// StartOutbox starts relaying recorded events when enabled.
func (c *Container) StartOutbox(ctx context.Context) {
	if c.Config.OutboxProcessorEnabled {
		c.OutboxProcessor.Start(ctx)
	}
}

// FlushOutbox relays pending events once. Short-lived commands call it so
// subscribers run before the process exits.
func (c *Container) FlushOutbox(ctx context.Context) {
	if !c.Config.OutboxProcessorEnabled {
		return
	}
	if _, err := c.OutboxProcessor.ProcessOnce(ctx); err != nil {
		c.Logger.Warn("failed to flush outbox", "error", err)
	}
}

// CleanupOutbox removes published messages past the retention period.
func (c *Container) CleanupOutbox(ctx context.Context) error {
	retention := time.Duration(c.Config.OutboxRetentionDays) * 24 * time.Hour
	_, err := c.OutboxProcessor.Cleanup(ctx, retention)
	return err
}

// UserID returns the acting user.
func (c *Container) UserID() uuid.UUID {
	return c.Config.ActingUserID()
}

// Close releases every connection.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.memoryCache != nil {
		_ = c.memoryCache.Close()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
