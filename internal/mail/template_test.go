package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOrderConfirmation(t *testing.T) {
	subject, body, err := RenderOrderConfirmation(Confirmation{
		Name:     "Ada",
		OrderID:  "ord-123",
		Total:    "18.99",
		Currency: "USD",
		Links: []ConfirmationLink{
			{Title: "Song A", Artist: "Artist X", URL: "https://store/dl/1?sig=abc"},
			{Title: "Song B", Artist: "Artist Y", URL: "https://store/dl/2?sig=def"},
		},
		LinkTTL: 10 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "Your downloads are ready (order ord-123)", subject)
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "18.99 USD")
	assert.Contains(t, body, `<a href="https://store/dl/1?sig=abc">`)
	assert.Contains(t, body, "Song B by Artist Y")
	assert.Contains(t, body, "expire in 10 minutes")
}

func TestRenderOrderConfirmation_NoLinks(t *testing.T) {
	_, body, err := RenderOrderConfirmation(Confirmation{
		OrderID:  "ord-123",
		Total:    "0",
		Currency: "USD",
		LinkTTL:  time.Minute,
	})
	require.NoError(t, err)

	assert.Contains(t, body, "being prepared")
	assert.NotContains(t, body, "<li>")
}

func TestRenderOrderConfirmation_EscapesContent(t *testing.T) {
	_, body, err := RenderOrderConfirmation(Confirmation{
		OrderID: "ord-123",
		Links: []ConfirmationLink{
			{Title: `<script>alert("x")</script>`, Artist: "A", URL: "https://store/dl/1"},
		},
		LinkTTL: time.Minute,
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.True(t, strings.Contains(body, "&lt;script&gt;"))
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "1 minute", humanDuration(30*time.Second))
	assert.Equal(t, "10 minutes", humanDuration(10*time.Minute))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
}
