// Package scheduler содержит приложение фоновых задач: обслуживание
// подписок и еженедельные отчёты.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/mindwellhq/mindwell-backend/internal/aiclient"
	"github.com/mindwellhq/mindwell-backend/internal/cache"
	"github.com/mindwellhq/mindwell-backend/internal/config"
	"github.com/mindwellhq/mindwell-backend/internal/metrics"
	"github.com/mindwellhq/mindwell-backend/internal/rabbitmq"
	analysisservice "github.com/mindwellhq/mindwell-backend/internal/services/analysis"
	maintenanceservice "github.com/mindwellhq/mindwell-backend/internal/services/maintenance"
	reportsservice "github.com/mindwellhq/mindwell-backend/internal/services/reports"
	"github.com/mindwellhq/mindwell-backend/internal/storage/repository"
	"github.com/mindwellhq/mindwell-backend/internal/taskqueue"
)

// App представляет приложение планировщика.
type App struct {
	maintenanceService *maintenanceservice.MaintenanceService
	reportsService     *reportsservice.ReportsService
	conn               *amqp.Connection
	ch                 *amqp.Channel
	logger             *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	if err := waitForDB(db); err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	maintenanceService := maintenanceservice.NewMaintenanceService(db, cacheRedis, logger, cfg.Maintenance)

	queue := taskqueue.New(ctx, cfg.Reports.ReportWorkers, logger,
		taskqueue.WithFailureHook(func(error) {
			metrics.QueueJobFailures.Inc()
		}))

	companion := aiclient.NewClient(cfg.CompanionURL, cfg.CompanionKey,
		cfg.CompanionTimeout, cfg.CompanionRPS)
	analysisService := analysisservice.NewAnalysisService(db, db, logger)
	reportsService := reportsservice.NewReportsService(db, analysisService, companion,
		&reportsservice.AMQPPublisher{Ch: ch}, queue, logger, cfg.Reports)

	return &App{
		maintenanceService: maintenanceService,
		reportsService:     reportsService,
		conn:               conn,
		ch:                 ch,
		logger:             logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает джобу обслуживания подписок и планировщик отчётов.
func (a *App) Run(ctx context.Context) error {
	go a.maintenanceService.StartRecurring(ctx)
	go a.reportsService.StartRecurring(ctx)

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
