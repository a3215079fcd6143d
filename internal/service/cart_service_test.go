package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCart_MissFallsThroughToRepo(t *testing.T) {
	cart := &domain.Cart{
		UserID: "u-1",
		Items: []domain.CartItem{
			{TrackID: "t-1", Title: "Driftwood", Artist: "Low Tide", Price: decimal.RequireFromString("4.99"), Quantity: 1},
		},
	}
	mockRepo := &mockCartRepo{cart: cart}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	ret, err := sut.GetCart(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, ret.Items, 1)
	assert.Equal(t, "t-1", ret.Items[0].TrackID)

	require.Eventually(t, func() bool {
		return mockC.getCart() != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not set in cache")
}

func TestGetCart_CacheHitSkipsRepo(t *testing.T) {
	cart := &domain.Cart{
		UserID: "u-1",
		Items:  []domain.CartItem{{TrackID: "t-1", Quantity: 2}},
	}
	mockRepo := &mockCartRepo{}
	mockC := &mockCartCache{cart: cart}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	ret, err := sut.GetCart(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Len(t, ret.Items, 1)
	assert.Equal(t, 0, mockRepo.getEnsureCalls())
}

func TestGetCart_FirstAccessCreatesEmptyCart(t *testing.T) {
	mockRepo := &mockCartRepo{}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	ret, err := sut.GetCart(context.Background(), "new-user")
	require.NoError(t, err)
	assert.Equal(t, "new-user", ret.UserID)
	assert.Empty(t, ret.Items)
	assert.Equal(t, 1, mockRepo.getEnsureCalls())
}

func TestGetCart_CacheErrorStillServes(t *testing.T) {
	cart := &domain.Cart{UserID: "u-1", Items: []domain.CartItem{{TrackID: "t-1", Quantity: 1}}}
	mockRepo := &mockCartRepo{cart: cart}
	mockC := &mockCartCache{err: fmt.Errorf("redis gone")}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	ret, err := sut.GetCart(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Len(t, ret.Items, 1)
}

func TestGetCart_RepoError(t *testing.T) {
	mockRepo := &mockCartRepo{err: fmt.Errorf("database error")}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	ret, err := sut.GetCart(context.Background(), "u-1")
	require.ErrorContains(t, err, "database error")
	assert.Nil(t, ret)
}

func TestReplaceCart_Success(t *testing.T) {
	mockRepo := &mockCartRepo{}
	mockC := &mockCartCache{cart: &domain.Cart{UserID: "u-1"}}

	items := []domain.CartItem{
		{TrackID: "t-1", Title: "Driftwood", Artist: "Low Tide", Price: decimal.RequireFromString("4.99"), Quantity: 1},
		{TrackID: "t-2", Title: "Night Bus", Artist: "Meridian", Price: decimal.RequireFromString("7.50"), Quantity: 2},
	}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	ret, err := sut.ReplaceCart(context.Background(), "u-1", items)
	require.NoError(t, err)
	assert.Len(t, ret.Items, 2)

	// stale cached cart must not survive a write
	assert.Nil(t, mockC.getCart())
}

func TestReplaceCart_InvalidItemsChangeNothing(t *testing.T) {
	existing := &domain.Cart{
		UserID: "u-1",
		Items:  []domain.CartItem{{TrackID: "keep", Title: "Keep", Artist: "Keeper", Quantity: 1}},
	}
	mockRepo := &mockCartRepo{cart: existing}
	mockC := &mockCartCache{cart: existing}

	bad := []domain.CartItem{
		{TrackID: "t-1", Title: "Fine", Artist: "Fine", Price: decimal.RequireFromString("1.00"), Quantity: 1},
		{TrackID: "", Title: "", Artist: "x", Price: decimal.RequireFromString("-2.00"), Quantity: 0},
	}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	ret, err := sut.ReplaceCart(context.Background(), "u-1", bad)
	assert.Nil(t, ret)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Issues, 4)
	for _, issue := range vErr.Issues {
		assert.Equal(t, 1, issue.Index)
	}

	// repo untouched, cache untouched
	assert.Equal(t, "keep", mockRepo.cart.Items[0].TrackID)
	assert.NotNil(t, mockC.getCart())
}

func TestReplaceCart_RepoError(t *testing.T) {
	mockRepo := &mockCartRepo{err: fmt.Errorf("database error")}
	mockC := &mockCartCache{}

	items := []domain.CartItem{
		{TrackID: "t-1", Title: "A", Artist: "B", Price: decimal.RequireFromString("1.00"), Quantity: 1},
	}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	_, err := sut.ReplaceCart(context.Background(), "u-1", items)
	require.ErrorContains(t, err, "database error")
}

func TestClearCart_Success(t *testing.T) {
	full := &domain.Cart{
		UserID: "u-1",
		Items:  []domain.CartItem{{TrackID: "t-1", Quantity: 1}},
	}
	mockRepo := &mockCartRepo{cart: full}
	mockC := &mockCartCache{cart: full}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	ret, err := sut.ClearCart(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, ret.Items)
	assert.Empty(t, mockRepo.cart.Items)
	assert.Nil(t, mockC.getCart())
}

func TestClearCart_RepoError(t *testing.T) {
	mockRepo := &mockCartRepo{err: fmt.Errorf("database error")}
	mockC := &mockCartCache{}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	_, err := sut.ClearCart(context.Background(), "u-1")
	require.ErrorContains(t, err, "database error")
}

func TestClearCart_CacheDeleteFailureIsSwallowed(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{UserID: "u-1"}}
	mockC := &mockCartCache{err: errors.New("redis gone")}

	sut := NewCartService(mockRepo, mockC, discardLogger())
	_, err := sut.ClearCart(context.Background(), "u-1")
	require.NoError(t, err)
}
