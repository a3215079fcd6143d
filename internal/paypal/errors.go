package paypal

import "fmt"

// GatewayError is any failed exchange with the payment provider. Body
// keeps the raw provider answer for operators; messages shown to buyers
// never include it.
type GatewayError struct {
	Op         string
	StatusCode int // 0 when no HTTP answer arrived
	Body       []byte
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("paypal %s: provider returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("paypal %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
