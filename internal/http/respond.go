package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/paypal"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/repository"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/service"
)

type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Issues []domain.FieldIssue `json:"issues,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError translates service and domain errors into HTTP
// responses. Provider failures map to a generic message, raw gateway
// bodies never reach a client.
func handleServiceError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  vErr.Error(),
			Code:   "validation_failed",
			Issues: vErr.Issues,
		})
		return
	}

	var incErr *service.PaymentIncompleteError
	if errors.As(err, &incErr) {
		respondError(w, http.StatusPaymentRequired, "payment_incomplete", incErr.Error())
		return
	}

	var gwErr *paypal.GatewayError
	if errors.As(err, &gwErr) {
		slog.Error("payment provider failure",
			"op", gwErr.Op, "status_code", gwErr.StatusCode, "body", string(gwErr.Body))
		respondError(w, http.StatusBadGateway, "payment_provider_error", "payment provider request failed")
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, service.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount", "order total is invalid")
	case errors.Is(err, service.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", "you do not have access to this order")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		slog.Error("unhandled service error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
