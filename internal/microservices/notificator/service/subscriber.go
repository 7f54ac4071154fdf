package service

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/domain"
)

// Acknowledger is the part of amqp.Delivery the subscriber settles with.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// ReceiptSubscriber logs every receipt it sees. Undecodable messages are
// rejected without requeue.
type ReceiptSubscriber struct {
	log     *logger.Logger
	handled func(domain.Receipt)
}

func NewReceiptSubscriber(handled func(domain.Receipt)) *ReceiptSubscriber {
	return &ReceiptSubscriber{log: logger.New("receipt-subscriber"), handled: handled}
}

// Run drains deliveries until ctx ends or the channel closes.
func (s *ReceiptSubscriber) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			s.Handle(d.Body, d.MessageId, d)
		}
	}
}

func (s *ReceiptSubscriber) Handle(body []byte, messageID string, ack Acknowledger) {
	var r domain.Receipt
	if err := json.Unmarshal(body, &r); err != nil || r.OrderID == "" {
		s.log.Warn("receipt_rejected", map[string]any{"message_id": messageID})
		_ = ack.Nack(false, false)
		return
	}
	s.log.Info("receipt_received", map[string]any{
		"order_id":       r.OrderID,
		"customer":       r.Customer.Name,
		"items":          len(r.Items),
		"total":          r.Total.String(),
		"payment_method": r.PaymentMethod,
	})
	if s.handled != nil {
		s.handled(r)
	}
	_ = ack.Ack(false)
}
