package http

import (
	"net/http"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the public surface of the service. Health and
// metrics stay outside authentication, everything else requires an
// identity.
func NewRouter(cart *CartHandler, checkout *CheckoutHandler, orders *OrdersHandler, authenticator auth.Authenticator, requestTimeout time.Duration, metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authenticator))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.GetCart)
			r.Put("/", cart.ReplaceCart)
			r.Delete("/", cart.ClearCart)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/create", checkout.CreateOrder)
			r.Post("/capture", checkout.CaptureOrder)
			r.Get("/", orders.ListOrders)
			r.Get("/{order_id}", orders.GetOrder)
		})
	})

	return r
}
