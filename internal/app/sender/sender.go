// Package sender содержит приложение доставки отчётов по почте.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/mindwellhq/mindwell-backend/internal/config"
	"github.com/mindwellhq/mindwell-backend/internal/lib/smtp"
	"github.com/mindwellhq/mindwell-backend/internal/rabbitmq"
	senderservice "github.com/mindwellhq/mindwell-backend/internal/services/sender"
)

// App представляет приложение отправителя отчётов.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает новый экземпляр приложения отправителя.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		return nil, err
	}

	newTransport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewSenderService(newTransport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run подписывается на очередь отчётов и отправляет их по почте.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.WeeklyQueue, a.senderService.SendWeeklyReport)
	if err != nil {
		a.logger.Error("failed to start weekly reports consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
