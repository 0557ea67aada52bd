package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/storefront/internal/reconcile"
)

// WebhookHandlers receives payment gateway notifications. The gateway retries
// any non-2xx response, so every recoverable condition is acknowledged with
// 200 and resolved through the engine's own redelivery handling.
type WebhookHandlers struct {
	engine *reconcile.Engine
}

func NewWebhookHandlers(engine *reconcile.Engine) *WebhookHandlers {
	return &WebhookHandlers{engine: engine}
}

// webhookPayload is the gateway's notification body. Only the resource id is
// taken from it; payment state is fetched from the gateway, never trusted
// from the payload.
type webhookPayload struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (h *WebhookHandlers) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("[Webhook] Unreadable payload: %v", err)
		respondError(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// The query string mirrors the body on some gateway API versions; use it
	// as a fallback for the resource id.
	resourceID := payload.Data.ID
	if resourceID == "" {
		resourceID = r.URL.Query().Get("data.id")
	}
	topic := payload.Type
	if topic == "" {
		topic = r.URL.Query().Get("type")
	}

	result, err := h.engine.Process(r.Context(), reconcile.Delivery{
		Key:        r.Header.Get("X-Request-Id"),
		Type:       topic,
		Action:     payload.Action,
		ResourceID: resourceID,
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrMalformedDelivery) {
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Unexpected failure: acknowledge anyway and let the gateway's
		// redelivery schedule drive the retry.
		log.Printf("[Webhook] Processing failed, acknowledging: %v", err)
		respondJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": string(result.Outcome)})
}
