package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/cache"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/paypal"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/repository"
	"github.com/Nitinjr812/Waslerrfields-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *metrics.CheckoutMetrics {
	return metrics.NewCheckoutMetrics(prometheus.NewRegistry())
}

type mockCartRepo struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error

	ensureCalls int
}

func (m *mockCartRepo) Ensure(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.ensureCalls++
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	}
	return m.cart, nil
}

func (m *mockCartRepo) Replace(_ context.Context, userID string, items []domain.CartItem) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.cart = &domain.Cart{UserID: userID, Items: items}
	return m.cart, nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.cart = &domain.Cart{UserID: userID, Items: []domain.CartItem{}}
	return m.cart, nil
}

func (m *mockCartRepo) CreateIndexes(context.Context) error { return nil }

func (m *mockCartRepo) getEnsureCalls() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.ensureCalls
}

type mockCartCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCartCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCartCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCartCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCartCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

// mockLedger keeps orders in memory with the same transition rules the
// mongo repository enforces.
type mockLedger struct {
	m      sync.Mutex
	orders map[string]*domain.Order // keyed by provider order id
	err    error

	createPendingCalls   int
	createCompletedCalls int
	markFailedCalls      int
}

func newMockLedger() *mockLedger {
	return &mockLedger{orders: make(map[string]*domain.Order)}
}

func (m *mockLedger) CreatePending(_ context.Context, userID string, items []domain.OrderItem, total decimal.Decimal, providerOrderID string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.createPendingCalls++
	if m.err != nil {
		return nil, m.err
	}
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		Total:           total,
		ProviderOrderID: providerOrderID,
		Status:          domain.OrderPending,
		CreatedAt:       time.Now(),
	}
	m.orders[providerOrderID] = order
	return order, nil
}

func (m *mockLedger) CreateCompleted(_ context.Context, userID string, items []domain.OrderItem, total decimal.Decimal, providerOrderID string, result domain.PaymentResult) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.createCompletedCalls++
	if m.err != nil {
		return nil, m.err
	}
	now := time.Now()
	order := &domain.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		Total:           total,
		ProviderOrderID: providerOrderID,
		Status:          domain.OrderCompleted,
		PaymentResult:   &result,
		CreatedAt:       now,
		PaidAt:          &now,
	}
	m.orders[providerOrderID] = order
	return order, nil
}

func (m *mockLedger) Finalize(_ context.Context, providerOrderID, userID string, result domain.PaymentResult) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	order, ok := m.orders[providerOrderID]
	if !ok || order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	if order.Status != domain.OrderPending {
		return nil, repository.ErrAlreadyFinalized
	}
	now := time.Now()
	order.Status = domain.OrderCompleted
	order.PaymentResult = &result
	order.PaidAt = &now
	return order, nil
}

func (m *mockLedger) MarkFailed(_ context.Context, providerOrderID, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.markFailedCalls++
	if m.err != nil {
		return m.err
	}
	order, ok := m.orders[providerOrderID]
	if ok && order.UserID == userID && order.Status == domain.OrderPending {
		order.Status = domain.OrderFailed
	}
	return nil
}

func (m *mockLedger) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, order := range m.orders {
		if order.ID == orderID {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockLedger) GetByProviderID(_ context.Context, providerOrderID, userID string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	order, ok := m.orders[providerOrderID]
	if !ok || order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockLedger) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (m *mockLedger) ListUnpublishedCompleted(_ context.Context, _ int64) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockLedger) MarkPublished(_ context.Context, _ string) error { return nil }

func (m *mockLedger) CreateIndexes(context.Context) error { return nil }

func (m *mockLedger) getOrder(providerOrderID string) *domain.Order {
	m.m.Lock()
	defer m.m.Unlock()
	return m.orders[providerOrderID]
}

type mockCartAccess struct {
	m          sync.Mutex
	cart       *domain.Cart
	getErr     error
	clearErr   error
	clearCalls int
}

func (m *mockCartAccess) GetCart(_ context.Context, _ string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.cart, nil
}

func (m *mockCartAccess) ClearCart(_ context.Context, _ string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.clearCalls++
	if m.clearErr != nil {
		return nil, m.clearErr
	}
	m.cart = &domain.Cart{UserID: m.cart.UserID, Items: []domain.CartItem{}}
	return m.cart, nil
}

func (m *mockCartAccess) getClearCalls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.clearCalls
}

type mockGateway struct {
	m             sync.Mutex
	order         paypal.ProviderOrder
	createErr     error
	captureResult paypal.CaptureResult
	captureErr    error
	createCalls   int
	captureCalls  int
	lastTotal     decimal.Decimal
	lastDesc      string
}

func (m *mockGateway) CreateOrder(_ context.Context, total decimal.Decimal, description string) (paypal.ProviderOrder, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.createCalls++
	m.lastTotal = total
	m.lastDesc = description
	if m.createErr != nil {
		return paypal.ProviderOrder{}, m.createErr
	}
	return m.order, nil
}

func (m *mockGateway) CaptureOrder(_ context.Context, providerOrderID string) (paypal.CaptureResult, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.captureCalls++
	if m.captureErr != nil {
		return paypal.CaptureResult{}, m.captureErr
	}
	result := m.captureResult
	result.ProviderOrderID = providerOrderID
	return result, nil
}

func (m *mockGateway) getCreateCalls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.createCalls
}

type mockLinkResolver struct {
	m     sync.Mutex
	links []domain.DownloadLink
	err   error
	calls int
}

func (m *mockLinkResolver) Links(_ context.Context, _ *domain.Order) ([]domain.DownloadLink, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.links, nil
}

func (m *mockLinkResolver) getCalls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls
}

type mockNotifier struct {
	m         sync.Mutex
	err       error
	calls     int
	lastLinks []domain.DownloadLink
}

func (m *mockNotifier) OrderConfirmation(_ context.Context, _ auth.Identity, _ *domain.Order, links []domain.DownloadLink) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	m.lastLinks = links
	return m.err
}

func (m *mockNotifier) getCalls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.calls
}

type mockTrackRepo struct {
	tracks map[string]*domain.Track
}

func (m *mockTrackRepo) GetByID(_ context.Context, trackID string) (*domain.Track, error) {
	track, ok := m.tracks[trackID]
	if !ok {
		return nil, repository.ErrTrackNotFound
	}
	return track, nil
}

type mockSigner struct {
	failKeys map[string]bool
}

func (m *mockSigner) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if m.failKeys[key] {
		return "", context.DeadlineExceeded
	}
	return "https://cdn.test/" + key + "?sig=abc", nil
}

type mockMailSender struct {
	m       sync.Mutex
	err     error
	sends   int
	lastTo  string
	lastSub string
	lastMsg string
}

func (m *mockMailSender) Send(_ context.Context, to, subject, htmlBody string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.sends++
	m.lastTo = to
	m.lastSub = subject
	m.lastMsg = htmlBody
	return m.err
}

// newTestCheckoutService wires a CheckoutService around the given mocks.
func newTestCheckoutService(carts *mockCartAccess, ledger *mockLedger, gateway *mockGateway, links *mockLinkResolver, notifier *mockNotifier) *CheckoutService {
	return NewCheckoutService(carts, ledger, gateway, links, notifier, testMetrics(), discardLogger())
}
