package domain

import (
	"fmt"
	"strings"
)

const maxItemQuantity = 99

// FieldIssue points at one rejected field. Index is the position of the
// offending item, or -1 when the issue concerns the request as a whole.
type FieldIssue struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries every issue found in a request, not just the
// first, so clients can fix a whole payload in one round trip.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		i := e.Issues[0]
		return fmt.Sprintf("validation failed: %s: %s", i.Field, i.Reason)
	}
	return fmt.Sprintf("validation failed: %d issues", len(e.Issues))
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Issues: []FieldIssue{{Index: -1, Field: field, Reason: reason}}}
}

// ValidateItems checks a proposed cart payload. Zero prices are legal,
// free tracks exist in the catalog.
func ValidateItems(items []CartItem) error {
	var issues []FieldIssue
	add := func(idx int, field, reason string) {
		issues = append(issues, FieldIssue{Index: idx, Field: field, Reason: reason})
	}

	for i, it := range items {
		if strings.TrimSpace(it.TrackID) == "" {
			add(i, "track_id", "must not be empty")
		}
		if strings.TrimSpace(it.Title) == "" {
			add(i, "title", "must not be empty")
		}
		if strings.TrimSpace(it.Artist) == "" {
			add(i, "artist", "must not be empty")
		}
		if it.Price.IsNegative() {
			add(i, "price", "must not be negative")
		}
		if it.Quantity < 1 || it.Quantity > maxItemQuantity {
			add(i, "quantity", fmt.Sprintf("must be between 1 and %d", maxItemQuantity))
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
