// Package notification carries best-effort user and store notifications out
// of the transactional code paths. Producers publish messages onto Kafka
// after the owning write has committed; the notifier process consumes them
// and sends email. A failed send never propagates back into order state.
package notification

import (
	"context"
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

type Kind string

const (
	KindOrderConfirmation   Kind = "order_confirmation"
	KindNewOrderAlert       Kind = "new_order_alert"
	KindOrderStatusUpdate   Kind = "order_status_update"
	KindPaymentConfirmation Kind = "payment_confirmation"
)

// Message is the envelope published on the notification topic. UserID is
// resolved to an email address by the notifier process; Email, when set,
// short-circuits the lookup (store alert recipients are plain addresses).
type Message struct {
	ID        string       `json:"id"`
	Kind      Kind         `json:"kind"`
	UserID    string       `json:"user_id,omitempty"`
	Email     string       `json:"email,omitempty"`
	Order     *order.Order `json:"order"`
	CreatedAt time.Time    `json:"created_at"`
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// KafkaNotifier publishes notification messages to the notification topic.
type KafkaNotifier struct {
	producer *kafka.Producer
}

func NewKafkaNotifier(producer *kafka.Producer) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

func (n *KafkaNotifier) Send(ctx context.Context, msg Message) error {
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now()
	key := msg.ID
	if msg.Order != nil {
		key = msg.Order.ID
	}
	return n.producer.Publish(ctx, key, msg)
}
