// Package paypal talks to the PayPal REST API: one client-credentials
// token shared by all calls, order creation and order capture. The zero
// provider knowledge outside this package is deliberate, the rest of the
// system only sees ProviderOrder, CaptureResult and GatewayError.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/text/currency"
)

const (
	tokenPath  = "/v1/oauth2/token"
	ordersPath = "/v2/checkout/orders"

	intentCapture = "CAPTURE"

	// refresh the cached token a minute before the provider expires it
	tokenSkew = time.Minute

	// purchase unit descriptions are capped by the provider
	maxDescription = 127

	maxResponseBytes = 1 << 20
)

// errServerStatus marks 5xx answers inside the breaker so they count as
// failures without losing the response.
var errServerStatus = errors.New("provider server error")

type Config struct {
	BaseURL   string
	ClientID  string
	Secret    string
	Currency  string
	ReturnURL string
	CancelURL string
	Timeout   time.Duration
}

// Client owns the cached access token; nothing about authentication
// lives outside it, so two Clients are two independent gateways.
type Client struct {
	cfg      Config
	currency currency.Unit
	httpc    *http.Client
	log      *slog.Logger
	breaker  *gobreaker.CircuitBreaker[apiResponse]

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// New validates the config and builds a client. httpc may be nil, tests
// pass their server's client.
func New(cfg Config, httpc *http.Client, log *slog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, errors.New("paypal: client id and secret are required")
	}
	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("paypal: parse currency %q: %w", cfg.Currency, err)
	}
	if httpc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		httpc = &http.Client{Timeout: timeout}
	}

	breaker := gobreaker.NewCircuitBreaker[apiResponse](gobreaker.Settings{
		Name:    "paypal",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		cfg:      cfg,
		currency: unit,
		httpc:    httpc,
		log:      log,
		breaker:  breaker,
	}, nil
}

// CreateOrder registers a provider-side order for the given total and
// returns its id together with the buyer approval URL. Never retried,
// a failed creation is simply reported.
func (c *Client) CreateOrder(ctx context.Context, total decimal.Decimal, description string) (ProviderOrder, error) {
	payload, err := json.Marshal(createOrderRequest{
		Intent: intentCapture,
		PurchaseUnits: []purchaseUnit{{
			Amount: purchaseAmount{
				CurrencyCode: c.currency.String(),
				Value:        total.StringFixed(2),
			},
			Description: truncate(description, maxDescription),
		}},
		ApplicationContext: &applicationContext{
			ReturnURL: c.cfg.ReturnURL,
			CancelURL: c.cfg.CancelURL,
		},
	})
	if err != nil {
		return ProviderOrder{}, fmt.Errorf("marshal create order request: %w", err)
	}

	resp, err := c.doAuthorized(ctx, "create order", http.MethodPost, ordersPath, payload)
	if err != nil {
		return ProviderOrder{}, err
	}
	if resp.status != http.StatusCreated && resp.status != http.StatusOK {
		return ProviderOrder{}, &GatewayError{Op: "create order", StatusCode: resp.status, Body: resp.body}
	}

	var out createOrderResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return ProviderOrder{}, &GatewayError{Op: "create order", StatusCode: resp.status, Body: resp.body, Err: err}
	}
	approval := approvalLink(out.Links)
	if out.ID == "" || approval == "" {
		return ProviderOrder{}, &GatewayError{Op: "create order", StatusCode: resp.status, Body: resp.body,
			Err: errors.New("response missing order id or approval link")}
	}

	return ProviderOrder{ID: out.ID, ApprovalURL: approval}, nil
}

// CaptureOrder asks the provider to take the money for an approved
// order. A repeated capture of the same order comes back from the
// provider as ORDER_ALREADY_CAPTURED; that answer is reported as
// completed so the ledger can resolve the replay itself.
func (c *Client) CaptureOrder(ctx context.Context, providerOrderID string) (CaptureResult, error) {
	path := ordersPath + "/" + url.PathEscape(providerOrderID) + "/capture"

	resp, err := c.doAuthorized(ctx, "capture order", http.MethodPost, path, []byte("{}"))
	if err != nil {
		return CaptureResult{}, err
	}

	if resp.status == http.StatusUnprocessableEntity && hasIssue(resp.body, "ORDER_ALREADY_CAPTURED") {
		return CaptureResult{
			ProviderOrderID: providerOrderID,
			Status:          StatusCompleted,
			Raw:             json.RawMessage(resp.body),
		}, nil
	}
	if resp.status != http.StatusCreated && resp.status != http.StatusOK {
		return CaptureResult{}, &GatewayError{Op: "capture order", StatusCode: resp.status, Body: resp.body}
	}

	var out captureResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return CaptureResult{}, &GatewayError{Op: "capture order", StatusCode: resp.status, Body: resp.body, Err: err}
	}

	result := CaptureResult{
		ProviderOrderID: out.ID,
		Status:          out.Status,
		PayerEmail:      out.Payer.EmailAddress,
		Raw:             json.RawMessage(resp.body),
	}
	if result.ProviderOrderID == "" {
		result.ProviderOrderID = providerOrderID
	}
	for _, unit := range out.PurchaseUnits {
		if len(unit.Payments.Captures) > 0 {
			result.CaptureID = unit.Payments.Captures[0].ID
			break
		}
	}
	return result, nil
}

// AccessToken returns the cached token, fetching a fresh one when the
// cache is empty or past its validity window.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}
	return c.refreshTokenLocked(ctx)
}

func (c *Client) refreshTokenLocked(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+tokenPath,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.send(req, "token")
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", &GatewayError{Op: "token", StatusCode: resp.status, Body: resp.body}
	}

	var tok tokenResponse
	if err := json.Unmarshal(resp.body, &tok); err != nil {
		return "", &GatewayError{Op: "token", StatusCode: resp.status, Body: resp.body, Err: err}
	}
	if tok.AccessToken == "" {
		return "", &GatewayError{Op: "token", StatusCode: resp.status, Body: resp.body,
			Err: errors.New("response missing access token")}
	}

	ttl := time.Duration(tok.ExpiresIn) * time.Second
	if ttl > tokenSkew {
		ttl -= tokenSkew
	}
	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(ttl)
	return c.token, nil
}

// invalidate drops the cached token, but only if it is still the one
// the failed call used. A concurrent refresh must not be thrown away.
func (c *Client) invalidate(stale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == stale {
		c.token = ""
	}
}

// doAuthorized performs a bearer-authenticated API call. A 401 answer
// means the token died early; the call refreshes it and replays exactly
// once, then gives up.
func (c *Client) doAuthorized(ctx context.Context, op, method, path string, payload []byte) (apiResponse, error) {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return apiResponse{}, err
	}

	resp, err := c.send(c.newJSONRequest(ctx, method, path, payload, token), op)
	if err != nil {
		return apiResponse{}, err
	}
	if resp.status != http.StatusUnauthorized {
		return resp, nil
	}

	c.log.Warn("provider rejected access token, refreshing", "op", op)
	c.invalidate(token)
	token, err = c.AccessToken(ctx)
	if err != nil {
		return apiResponse{}, err
	}

	resp, err = c.send(c.newJSONRequest(ctx, method, path, payload, token), op)
	if err != nil {
		return apiResponse{}, err
	}
	if resp.status == http.StatusUnauthorized {
		return apiResponse{}, &GatewayError{Op: op, StatusCode: resp.status, Body: resp.body}
	}
	return resp, nil
}

type apiResponse struct {
	status int
	body   []byte
}

// send pushes one request through the circuit breaker. Transport errors
// and 5xx answers count against the breaker; provider rejections below
// 500 flow back untouched, a declined payment is not an outage.
func (c *Client) send(req *http.Request, op string) (apiResponse, error) {
	resp, err := c.breaker.Execute(func() (apiResponse, error) {
		httpResp, err := c.httpc.Do(req)
		if err != nil {
			return apiResponse{}, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
		if err != nil {
			return apiResponse{}, err
		}

		out := apiResponse{status: httpResp.StatusCode, body: body}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return out, errServerStatus
		}
		return out, nil
	})

	if errors.Is(err, errServerStatus) {
		return apiResponse{}, &GatewayError{Op: op, StatusCode: resp.status, Body: resp.body}
	}
	if err != nil {
		return apiResponse{}, &GatewayError{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload []byte, token string) *http.Request {
	// URL and method are under our control, construction cannot fail
	req, _ := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func approvalLink(links []orderLink) string {
	for _, l := range links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}

func hasIssue(body []byte, issue string) bool {
	var provider providerErrorResponse
	if err := json.Unmarshal(body, &provider); err != nil {
		return false
	}
	for _, d := range provider.Details {
		if d.Issue == issue {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
