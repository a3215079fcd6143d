package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// OrdersAPI answers order history queries.
type OrdersAPI interface {
	ListByUser(ctx context.Context, identity auth.Identity) ([]domain.Order, error)
	GetByID(ctx context.Context, identity auth.Identity, orderID string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrdersAPI
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersAPI, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderItemDTO struct {
	TrackID  string          `json:"track_id"`
	Title    string          `json:"title"`
	Artist   string          `json:"artist"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

type PaymentDTO struct {
	CaptureID  string `json:"capture_id,omitempty"`
	Status     string `json:"status"`
	PayerEmail string `json:"payer_email,omitempty"`
}

type OrderResponseDTO struct {
	ID              string          `json:"id"`
	ProviderOrderID string          `json:"provider_order_id"`
	Total           decimal.Decimal `json:"total"`
	Status          string          `json:"status"`
	Items           []OrderItemDTO  `json:"items"`
	Payment         *PaymentDTO     `json:"payment,omitempty"`
	CreatedAt       string          `json:"created_at"`
	PaidAt          string          `json:"paid_at,omitempty"`
}

// GET /orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListByUser(ctx, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, convertOrder(&orders[i]))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID := chi.URLParam(r, "order_id")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}

	order, err := h.orders.GetByID(ctx, identity, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			TrackID:  it.TrackID,
			Title:    it.Title,
			Artist:   it.Artist,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}

	dto := OrderResponseDTO{
		ID:              o.ID,
		ProviderOrderID: o.ProviderOrderID,
		Total:           o.Total,
		Status:          o.Status.String(),
		Items:           items,
		CreatedAt:       o.CreatedAt.UTC().Format(time.RFC3339),
	}

	if o.PaymentResult != nil {
		dto.Payment = &PaymentDTO{
			CaptureID:  o.PaymentResult.CaptureID,
			Status:     o.PaymentResult.Status,
			PayerEmail: o.PaymentResult.PayerEmail,
		}
	}
	if o.PaidAt != nil {
		dto.PaidAt = o.PaidAt.UTC().Format(time.RFC3339)
	}

	return dto
}
