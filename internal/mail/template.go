package mail

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Confirmation feeds the order confirmation template.
type Confirmation struct {
	Name     string
	OrderID  string
	Total    string
	Currency string
	Links    []ConfirmationLink
	LinkTTL  time.Duration
}

type ConfirmationLink struct {
	Title  string
	Artist string
	URL    string
}

const orderConfirmationTmpl = `<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Thanks for your purchase{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Order <strong>{{.OrderID}}</strong> is complete. Total: {{.Total}} {{.Currency}}.</p>
  {{if .Links}}
  <p>Your tracks are ready to download:</p>
  <ul>
    {{range .Links}}<li>{{.Title}} by {{.Artist}}: <a href="{{.URL}}">Download</a></li>
    {{end}}
  </ul>
  <p>Download links expire in {{.ExpiryText}}. If a link has expired, contact support and we will issue a fresh one.</p>
  {{else}}
  <p>Your downloads are being prepared. Contact support if they do not arrive shortly.</p>
  {{end}}
</body>
</html>`

var confirmationTemplate = template.Must(template.New("order_confirmation").Parse(orderConfirmationTmpl))

type confirmationData struct {
	Confirmation
	ExpiryText string
}

// RenderOrderConfirmation produces the subject and HTML body of the
// post-purchase email. Rendering is pure, so it can be tested without
// any SMTP server.
func RenderOrderConfirmation(c Confirmation) (subject, body string, err error) {
	data := confirmationData{
		Confirmation: c,
		ExpiryText:   humanDuration(c.LinkTTL),
	}

	var buf strings.Builder
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render order confirmation: %w", err)
	}

	return fmt.Sprintf("Your downloads are ready (order %s)", c.OrderID), buf.String(), nil
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour {
		hours := int(d.Round(time.Hour).Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}

	minutes := int(d.Round(time.Minute).Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
