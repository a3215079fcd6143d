package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CartAPI is the slice of the cart service the handler calls.
type CartAPI interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ReplaceCart(ctx context.Context, userID string, items []domain.CartItem) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type CartHandler struct {
	carts   CartAPI
	timeout time.Duration
}

func NewCartHandler(carts CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type CartItemDTO struct {
	TrackID  string          `json:"track_id"`
	Title    string          `json:"title"`
	Artist   string          `json:"artist"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	ImageURL string          `json:"image_url,omitempty"`
}

type CartResponseDTO struct {
	UserID    string          `json:"user_id"`
	Items     []CartItemDTO   `json:"items"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt string          `json:"updated_at"`
}

type ReplaceCartRequestDTO struct {
	Items []CartItemDTO `json:"items"`
}

// GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.GetCart(ctx, identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertCart(cart))
}

// PUT /cart
func (h *CartHandler) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ReplaceCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]domain.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.CartItem{
			TrackID:  it.TrackID,
			Title:    it.Title,
			Artist:   it.Artist,
			Price:    it.Price,
			Quantity: it.Quantity,
			ImageURL: it.ImageURL,
		})
	}

	cart, err := h.carts.ReplaceCart(ctx, identity.UserID, items)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertCart(cart))
}

// DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.ClearCart(ctx, identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertCart(cart))
}

func convertCart(cart *domain.Cart) CartResponseDTO {
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, CartItemDTO{
			TrackID:  it.TrackID,
			Title:    it.Title,
			Artist:   it.Artist,
			Price:    it.Price,
			Quantity: it.Quantity,
			ImageURL: it.ImageURL,
		})
	}

	return CartResponseDTO{
		UserID:    cart.UserID,
		Items:     items,
		Total:     cart.Total(),
		UpdatedAt: cart.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
