package service

import (
	"context"
	"fmt"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/repository"
)

// OrderService answers order history queries. All reads are scoped to
// the requesting user; admins may read any order.
type OrderService struct {
	ledger repository.OrderRepository
}

func NewOrderService(ledger repository.OrderRepository) *OrderService {
	return &OrderService{ledger: ledger}
}

func (s *OrderService) ListByUser(ctx context.Context, identity auth.Identity) ([]domain.Order, error) {
	orders, err := s.ledger.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetByID(ctx context.Context, identity auth.Identity, orderID string) (*domain.Order, error) {
	order, err := s.ledger.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order.UserID != identity.UserID && !identity.Admin {
		return nil, ErrForbidden
	}
	return order, nil
}
