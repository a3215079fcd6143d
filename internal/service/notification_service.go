package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/auth"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/mail"
	"github.com/Nitinjr812/Waslerrfields-backend/pkg/metrics"
)

// NotificationService sends the order confirmation mail with the
// freshly signed download links.
type NotificationService struct {
	sender   mail.Sender
	currency string
	linkTTL  time.Duration
	metrics  *metrics.CheckoutMetrics
	log      *slog.Logger
}

func NewNotificationService(sender mail.Sender, currency string, linkTTL time.Duration, m *metrics.CheckoutMetrics, log *slog.Logger) *NotificationService {
	return &NotificationService{
		sender:   sender,
		currency: currency,
		linkTTL:  linkTTL,
		metrics:  m,
		log:      log,
	}
}

// OrderConfirmation renders and sends the confirmation email. A buyer
// without a known address is skipped with a log line.
func (s *NotificationService) OrderConfirmation(ctx context.Context, identity auth.Identity, order *domain.Order, links []domain.DownloadLink) error {
	if identity.Email == "" {
		s.log.Warn("buyer has no email address, skipping confirmation", "order_id", order.ID)
		return nil
	}

	confLinks := make([]mail.ConfirmationLink, 0, len(links))
	for _, l := range links {
		confLinks = append(confLinks, mail.ConfirmationLink{
			Title:  l.Title,
			Artist: l.Artist,
			URL:    l.URL,
		})
	}

	subject, body, err := mail.RenderOrderConfirmation(mail.Confirmation{
		Name:     identity.Name,
		OrderID:  order.ID,
		Total:    order.Total.StringFixed(2),
		Currency: s.currency,
		Links:    confLinks,
		LinkTTL:  s.linkTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to render order confirmation: %w", err)
	}

	if err := s.sender.Send(ctx, identity.Email, subject, body); err != nil {
		s.metrics.MailFailures.Inc()
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}

	s.log.Info("order confirmation sent", "order_id", order.ID)
	return nil
}
