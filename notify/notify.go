// Package notify delivers best-effort order-event messages. Every channel is
// fire-and-forget: a provider failure is logged and swallowed, never surfaced
// to the state transition that triggered it.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Arjun-745/TrendKart/models"
	"github.com/Arjun-745/TrendKart/utils"
)

// Dispatcher fans one order event out to email, a chat webhook, and the
// order-events queue. Channels with empty configuration are skipped.
type Dispatcher struct {
	mailDialer *gomail.Dialer
	mailFrom   string

	chatWebhookURL string
	httpc          *http.Client

	events *EventPublisher
}

// NewDispatcher wires the configured channels. Any of dialer, chat URL or
// publisher may be absent.
func NewDispatcher(dialer *gomail.Dialer, from, chatWebhookURL string, events *EventPublisher) *Dispatcher {
	return &Dispatcher{
		mailDialer:     dialer,
		mailFrom:       from,
		chatWebhookURL: chatWebhookURL,
		httpc:          &http.Client{Timeout: 10 * time.Second},
		events:         events,
	}
}

// OrderEvent dispatches notifications for a committed state change. It
// detaches from the caller: the triggering request has already been answered
// by the time any provider is contacted.
func (d *Dispatcher) OrderEvent(order models.Order, event string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				utils.LogError("Notification dispatch panicked for order %s: %v", order.ID, r)
			}
		}()
		d.Send(order, event)
	}()
}

// Send runs one at-most-once delivery attempt per channel, synchronously.
// OrderEvent wraps it in a goroutine; tests call it directly.
func (d *Dispatcher) Send(order models.Order, event string) {
	if err := d.sendEmail(order, event); err != nil {
		utils.LogError("Order %s: email notification failed: %v", order.ID, err)
	}
	if err := d.sendChat(order, event); err != nil {
		utils.LogError("Order %s: chat notification failed: %v", order.ID, err)
	}
	if d.events != nil {
		if err := d.events.Publish(order, event); err != nil {
			utils.LogError("Order %s: event publish failed: %v", order.ID, err)
		}
	}
}

func (d *Dispatcher) sendEmail(order models.Order, event string) error {
	if d.mailDialer == nil || order.CustomerEmail == "" {
		return nil
	}
	subject, body := emailContent(order, event)

	m := gomail.NewMessage()
	m.SetHeader("From", d.mailFrom)
	m.SetHeader("To", order.CustomerEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return d.mailDialer.DialAndSend(m)
}

func (d *Dispatcher) sendChat(order models.Order, event string) error {
	if d.chatWebhookURL == "" {
		return nil
	}
	payload, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("Order %s: %s (status %s, total ₹%.2f)", order.ID, event, order.Status, order.TotalPrice),
	})
	resp, err := d.httpc.Post(d.chatWebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chat webhook status %d", resp.StatusCode)
	}
	return nil
}

func emailContent(order models.Order, event string) (string, string) {
	subject := fmt.Sprintf("Your TrendKart order is %s", order.Status)
	switch event {
	case "OrderPlaced":
		subject = "Your TrendKart order is confirmed"
	case "ReturnRequested":
		subject = "We received your return request"
	case "ReturnApproved":
		subject = "Your return has been approved"
	case "ReturnRejected":
		subject = "Update on your return request"
	}

	body := fmt.Sprintf(`
		<h2>Hi,</h2>
		<p>Your order <b>%s</b> has an update: <b>%s</b>.</p>
		<p>Order total: ₹%.2f (%s)</p>
		<p>Track your order from your account page.</p>
	`, order.ID, order.Status, order.TotalPrice, order.PaymentMethod)
	return subject, body
}
