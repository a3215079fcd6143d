package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/service"
)

// CheckoutAPI starts and settles checkouts.
type CheckoutAPI interface {
	CreateOrder(ctx context.Context, identity auth.Identity) (*service.CheckoutIntent, error)
	CaptureOrder(ctx context.Context, identity auth.Identity, providerOrderID string) (*service.CaptureOutcome, error)
}

type CheckoutHandler struct {
	checkout CheckoutAPI
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutAPI, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type CaptureRequestDTO struct {
	ProviderOrderID string `json:"provider_order_id"`
}

type DownloadLinkDTO struct {
	TrackID   string `json:"track_id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

type CreateOrderResponseDTO struct {
	Order         OrderResponseDTO  `json:"order"`
	ApprovalURL   string            `json:"approval_url,omitempty"`
	Completed     bool              `json:"completed"`
	DownloadLinks []DownloadLinkDTO `json:"download_links,omitempty"`
}

type CaptureResponseDTO struct {
	Order         OrderResponseDTO  `json:"order"`
	DownloadLinks []DownloadLinkDTO `json:"download_links"`
	Replayed      bool              `json:"replayed,omitempty"`
}

// POST /orders/create
func (h *CheckoutHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	intent, err := h.checkout.CreateOrder(ctx, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateOrderResponseDTO{
		Order:         convertOrder(intent.Order),
		ApprovalURL:   intent.ApprovalURL,
		Completed:     intent.Completed,
		DownloadLinks: convertLinks(intent.Links),
	})
}

// POST /orders/capture
func (h *CheckoutHandler) CaptureOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	identity, ok := identityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CaptureRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	outcome, err := h.checkout.CaptureOrder(ctx, identity, req.ProviderOrderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CaptureResponseDTO{
		Order:         convertOrder(outcome.Order),
		DownloadLinks: convertLinks(outcome.Links),
		Replayed:      outcome.Replayed,
	})
}

func convertLinks(links []domain.DownloadLink) []DownloadLinkDTO {
	dtos := make([]DownloadLinkDTO, 0, len(links))
	for _, l := range links {
		dtos = append(dtos, DownloadLinkDTO{
			TrackID:   l.TrackID,
			Title:     l.Title,
			Artist:    l.Artist,
			URL:       l.URL,
			ExpiresAt: l.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
	return dtos
}
