package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Track is a catalog entry. AudioKey locates the deliverable file in
// object storage and is never exposed to clients directly.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Price    decimal.Decimal
	ImageURL string
	AudioKey string
}

// DownloadLink is an ephemeral, pre-signed pointer to a purchased file.
// Links are minted on demand and never persisted.
type DownloadLink struct {
	TrackID   string
	Title     string
	Artist    string
	URL       string
	ExpiresAt time.Time
}
