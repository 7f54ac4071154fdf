package service

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the broker side of the receipt publisher.
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error
}

const (
	ContentType  = "application/json"
	MessageType  = "receipt.completed"
	SourceHeader = "x-source"
)
