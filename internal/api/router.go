package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
)

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, webhooks *WebhookHandlers, jwtService *auth.JWTService) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.AuthMiddleware(jwtService)

	// Auth
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Login(w, r)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Refresh(w, r)
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Logout(w, r)
	})
	mux.Handle("/auth/me", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authHandlers.Me(w, r)
	})))

	// Orders
	mux.Handle("/orders", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.ListOrders(w, r)
		case http.MethodPost:
			handlers.CreateOrder(w, r)
		default:
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/orders/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/status") && r.Method == http.MethodPut:
			handlers.UpdateOrderStatus(w, r)
		case strings.HasSuffix(path, "/payment-status") && r.Method == http.MethodPut:
			handlers.UpdatePaymentStatus(w, r)
		case strings.HasSuffix(path, "/payment-status") && r.Method == http.MethodGet:
			handlers.GetOrderPaymentStatus(w, r)
		case r.Method == http.MethodGet:
			handlers.GetOrder(w, r)
		case r.Method == http.MethodDelete:
			handlers.DeleteOrder(w, r)
		default:
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Payments. The webhook endpoint is unauthenticated: the gateway calls it.
	mux.HandleFunc("/payments/webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		webhooks.HandlePaymentWebhook(w, r)
	})

	mux.Handle("/payments/intent", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.CreatePaymentIntent(w, r)
	})))

	mux.Handle("/payments/", requireAuth(middleware.RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/refund") && r.Method == http.MethodPost:
			handlers.RefundPayment(w, r)
		case r.Method == http.MethodGet:
			handlers.GetPayment(w, r)
		default:
			respondError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}))))

	// Health
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return withLogging(mux)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
