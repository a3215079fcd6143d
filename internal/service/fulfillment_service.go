package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Nitinjr812/Waslerrfields-backend/internal/assets"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/domain"
	"github.com/Nitinjr812/Waslerrfields-backend/internal/repository"
	"github.com/Nitinjr812/Waslerrfields-backend/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const signConcurrency = 4

// FulfillmentService resolves a completed order into signed download
// links. Items that cannot be resolved are logged and skipped; a buyer
// getting most of an order beats a buyer getting nothing, support picks
// up the rest.
type FulfillmentService struct {
	tracks  repository.TrackRepository
	signer  assets.Signer
	ttl     time.Duration
	metrics *metrics.CheckoutMetrics
	log     *slog.Logger
}

func NewFulfillmentService(tracks repository.TrackRepository, signer assets.Signer, ttl time.Duration, m *metrics.CheckoutMetrics, log *slog.Logger) *FulfillmentService {
	return &FulfillmentService{
		tracks:  tracks,
		signer:  signer,
		ttl:     ttl,
		metrics: m,
		log:     log,
	}
}

// Links signs one URL per purchased track. The error return only ever
// reflects a dead context; per-item failures shrink the result instead.
func (s *FulfillmentService) Links(ctx context.Context, order *domain.Order) ([]domain.DownloadLink, error) {
	results := make([]*domain.DownloadLink, len(order.Items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(signConcurrency)

	for i, item := range order.Items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			track, err := s.tracks.GetByID(ctx, item.TrackID)
			if err != nil {
				s.log.Warn("skipping unresolvable order item",
					"order_id", order.ID, "track_id", item.TrackID, "error", err)
				return nil
			}
			if track.AudioKey == "" {
				s.log.Warn("skipping track without audio asset",
					"order_id", order.ID, "track_id", item.TrackID)
				return nil
			}

			signed, err := s.signer.SignedURL(ctx, track.AudioKey, s.ttl)
			if err != nil {
				s.log.Warn("skipping track that failed to sign",
					"order_id", order.ID, "track_id", item.TrackID, "error", err)
				return nil
			}

			results[i] = &domain.DownloadLink{
				TrackID:   track.ID,
				Title:     track.Title,
				Artist:    track.Artist,
				URL:       signed,
				ExpiresAt: time.Now().Add(s.ttl),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	links := make([]domain.DownloadLink, 0, len(results))
	for _, l := range results {
		if l != nil {
			links = append(links, *l)
		}
	}

	s.metrics.LinksIssued.Add(float64(len(links)))
	return links, nil
}
