package service

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"coffee-storefront/internal/common/logger"
	"coffee-storefront/internal/domain"
)

// ReceiptPublisher announces completed receipts on a fanout exchange.
type ReceiptPublisher struct {
	pub      Publisher
	exchange string
	source   string
	log      *logger.Logger
}

func NewReceiptPublisher(pub Publisher, exchange, source string) *ReceiptPublisher {
	return &ReceiptPublisher{pub: pub, exchange: exchange, source: source, log: logger.New("notificator")}
}

func (p *ReceiptPublisher) NotifyReceipt(ctx context.Context, r domain.Receipt) error {
	body, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode receipt")
	}
	err = p.pub.Publish(ctx, p.exchange, "", amqp.Publishing{
		ContentType:  ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    r.OrderID,
		Type:         MessageType,
		Timestamp:    r.Timestamp,
		Headers:      amqp.Table{SourceHeader: p.source},
		Body:         body,
	})
	if err != nil {
		return errors.Wrapf(err, "publish receipt %s", r.OrderID)
	}
	p.log.Debug("receipt_published", map[string]any{"order_id": r.OrderID, "exchange": p.exchange})
	return nil
}
