package notificator

import (
	"context"

	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/config"
	"coffee-storefront/internal/connections/rabbitmq"
	"coffee-storefront/internal/microservices/notificator/service"
)

// Run consumes the receipts queue until ctx ends.
func Run(ctx context.Context, cfg *config.Config) error {
	lg := logger.New("receipt-subscriber")

	client, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareFanout(cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue); err != nil {
		return err
	}
	deliveries, err := client.Consume(cfg.RabbitMQ.Queue, "receipt-subscriber")
	if err != nil {
		return err
	}
	lg.Info("subscriber_started", map[string]any{"queue": cfg.RabbitMQ.Queue, "exchange": cfg.RabbitMQ.Exchange})

	return service.NewReceiptSubscriber(nil).Run(ctx, deliveries)
}
