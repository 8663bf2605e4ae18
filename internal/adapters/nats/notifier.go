package natsadapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

// Notifier implements ports.CourierNotifier by pushing assignments on
// the courier's personal subject. Courier apps hold a plain NATS
// subscription on courier.notify.<id>.
type Notifier struct {
	conn *nats.Conn
}

// NewNotifier wraps an existing NATS connection.
func NewNotifier(conn *nats.Conn) *Notifier {
	return &Notifier{conn: conn}
}

type assignmentMsg struct {
	CourierID string    `json:"courier_id"`
	OrderID   string    `json:"order_id"`
	SentAt    time.Time `json:"sent_at"`
}

func (n *Notifier) NotifyAssignment(ctx context.Context, courierID, orderID string) error {
	data, err := json.Marshal(assignmentMsg{
		CourierID: courierID,
		OrderID:   orderID,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.conn.Publish("courier.notify."+courierID, data)
}
