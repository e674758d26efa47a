package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Exchange и очередь конвейера еженедельных отчётов.
const (
	ReportsExchange  = "reports"
	WeeklyQueue      = "reports.weekly"
	WeeklyRoutingKey = "weekly"
)

// SetupChannel открывает канал и объявляет exchange и очередь отчётов.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	err = ch.ExchangeDeclare(
		ReportsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		WeeklyQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.QueueBind(WeeklyQueue, WeeklyRoutingKey, ReportsExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}
