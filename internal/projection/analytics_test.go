package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensavor/internal/domain"
)

func TestSummarize(t *testing.T) {
	orders := []domain.Order{
		{Total: 39.26, Status: domain.StatusCompleted},
		{Total: 20.74, Status: domain.StatusPending},
		{Total: 40.00, Status: domain.StatusCompleted},
		{Total: 10.00, Status: domain.StatusCancelled},
	}

	s := Summarize(orders)
	assert.Equal(t, 110.00, s.TotalRevenue)
	assert.Equal(t, 4, s.TotalOrders)
	assert.Equal(t, 2, s.CompletedOrders)
	assert.Equal(t, 0.5, s.CompletionRate)
	assert.Equal(t, 27.5, s.AverageOrderValue)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalOrders)
	assert.Zero(t, s.CompletionRate)
	assert.Zero(t, s.AverageOrderValue)
}

func TestDailyRevenue(t *testing.T) {
	now := time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC)
	orders := []domain.Order{
		{Total: 10, CreatedAt: now},
		{Total: 15, CreatedAt: now.Add(-2 * time.Hour)},
		{Total: 20, CreatedAt: now.AddDate(0, 0, -1)},
		{Total: 99, CreatedAt: now.AddDate(0, 0, -10)}, // outside window
	}

	buckets := DailyRevenue(orders, 7, now)
	require.Len(t, buckets, 7)

	// Oldest bucket first, empty days present.
	assert.Equal(t, "2026-08-25", buckets[0].Date)
	assert.Zero(t, buckets[0].Revenue)

	assert.Equal(t, "2026-08-30", buckets[5].Date)
	assert.Equal(t, 20.0, buckets[5].Revenue)
	assert.Equal(t, 1, buckets[5].Orders)

	assert.Equal(t, "2026-08-31", buckets[6].Date)
	assert.Equal(t, 25.0, buckets[6].Revenue)
	assert.Equal(t, 2, buckets[6].Orders)
}

func TestBestSellers(t *testing.T) {
	orders := []domain.Order{
		{Items: []domain.LineItem{
			{Name: "Mantu", Quantity: 2},
			{Name: "Bolani", Quantity: 1},
		}},
		{Items: []domain.LineItem{
			{Name: "Mantu", Quantity: 3},
			{Name: "Kabuli Palow", Quantity: 1},
		}},
	}

	ranked := BestSellers(orders, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, ItemCount{Name: "Mantu", Count: 5}, ranked[0])
	assert.Equal(t, ItemCount{Name: "Bolani", Count: 1}, ranked[1])
}

func TestBestSellersTieBreak(t *testing.T) {
	orders := []domain.Order{
		{Items: []domain.LineItem{
			{Name: "Firnee", Quantity: 1},
			{Name: "Afghan Dogh", Quantity: 1},
		}},
	}
	ranked := BestSellers(orders, 5)
	require.Len(t, ranked, 2)
	assert.Equal(t, "Afghan Dogh", ranked[0].Name)
}
