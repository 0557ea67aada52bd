package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/email"
)

// Handler consumes notification messages and sends email
type Handler struct {
	emailService *email.Service
	users        auth.UserRepository
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service, users auth.UserRepository) *Handler {
	return &Handler{
		emailService: emailSvc,
		users:        users,
	}
}

// HandleMessage processes one message from the notification topic. Returning
// nil on unrecoverable messages keeps the consumer moving; a bad envelope is
// logged and skipped, never retried forever.
func (h *Handler) HandleMessage(ctx context.Context, key, value []byte) error {
	var msg Message
	if err := json.Unmarshal(value, &msg); err != nil {
		log.Printf("[Notifier] Failed to unmarshal message: %v", err)
		return nil
	}
	if msg.Order == nil {
		log.Printf("[Notifier] Message %s has no order, skipping", msg.ID)
		return nil
	}

	to, name := msg.Email, ""
	if to == "" {
		user, err := h.users.GetByID(ctx, msg.UserID)
		if err != nil {
			log.Printf("[Notifier] Cannot resolve recipient for user %s: %v", msg.UserID, err)
			return nil
		}
		to, name = user.Email, user.Name
	}

	var err error
	switch msg.Kind {
	case KindOrderConfirmation:
		err = h.emailService.SendOrderConfirmation(to, name, msg.Order)
	case KindNewOrderAlert:
		err = h.emailService.SendNewOrderAlert(to, msg.Order)
	case KindOrderStatusUpdate:
		err = h.emailService.SendOrderStatusUpdate(to, name, msg.Order)
	case KindPaymentConfirmation:
		err = h.emailService.SendPaymentConfirmation(to, name, msg.Order)
	default:
		log.Printf("[Notifier] Unknown notification kind %q, skipping", msg.Kind)
		return nil
	}
	if err != nil {
		log.Printf("[Notifier] Failed to send %s email to %s: %v", msg.Kind, to, err)
		return err
	}

	log.Printf("[Notifier] Sent %s email to %s for order %s", msg.Kind, to, msg.Order.Code)
	return nil
}
