package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/cache"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/repository"
	"golang.org/x/sync/singleflight"
)

type CartService struct {
	repo  repository.CartRepository
	cache cache.CartCache
	log   *slog.Logger
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, log *slog.Logger) *CartService {
	return &CartService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get failed", "user_id", userID, "error", err) // log cache error but continue
		}

		cart, err = s.repo.Ensure(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}

		// set cache
		go func() {
			if err := s.cache.Set(context.Background(), userID, cart); err != nil {
				s.log.Warn("cache set failed", "user_id", userID, "error", err)
			}
		}()

		return cart, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// ReplaceCart overwrites the whole cart with the client's view of it.
// Either every item passes validation or nothing changes.
func (s *CartService) ReplaceCart(ctx context.Context, userID string, items []domain.CartItem) (*domain.Cart, error) {
	if err := domain.ValidateItems(items); err != nil {
		return nil, err
	}

	cart, err := s.repo.Replace(ctx, userID, items)
	if err != nil {
		return nil, fmt.Errorf("failed to replace cart: %w", err)
	}

	s.invalidateCache(userID)
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.Clear(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	s.invalidateCache(userID)
	return cart, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate failed", "user_id", userID, "error", err)
	}
}
