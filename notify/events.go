package notify

import (
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Arjun-745/TrendKart/models"
)

const orderEventsExchange = "order.events"

// EventPublisher pushes order events onto the message bus for downstream
// consumers (analytics, SMS workers). Publishing is best-effort like every
// other notification channel.
type EventPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewEventPublisher connects to the broker and declares the order-events
// exchange.
func NewEventPublisher(amqpURL string) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		orderEventsExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &EventPublisher{conn: conn, channel: ch}, nil
}

// Publish emits one order event, routed by event name.
func (p *EventPublisher) Publish(order models.Order, event string) error {
	body, err := json.Marshal(map[string]interface{}{
		"order_id":       order.ID,
		"user_id":        order.UserID,
		"event":          event,
		"status":         order.Status,
		"return_status":  order.ReturnStatus,
		"is_paid":        order.IsPaid,
		"payment_method": order.PaymentMethod,
		"at":             time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return p.channel.Publish(
		orderEventsExchange,
		"order."+event,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			ContentType:  "application/json",
			Body:         body,
		},
	)
}

// Close releases the broker connection.
func (p *EventPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
