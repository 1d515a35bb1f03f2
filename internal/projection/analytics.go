package projection

import (
	"math"
	"sort"
	"time"

	"gensavor/internal/domain"
)

// Summary holds the headline numbers of the admin dashboard. Pure
// folds over the admin feed; nothing here queries storage.
type Summary struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalOrders       int     `json:"total_orders"`
	CompletedOrders   int     `json:"completed_orders"`
	CompletionRate    float64 `json:"completion_rate"`
	AverageOrderValue float64 `json:"average_order_value"`
}

func Summarize(orders []domain.Order) Summary {
	var s Summary
	for _, o := range orders {
		s.TotalRevenue += o.Total
		s.TotalOrders++
		if o.Status == domain.StatusCompleted {
			s.CompletedOrders++
		}
	}
	s.TotalRevenue = round2(s.TotalRevenue)
	if s.TotalOrders > 0 {
		s.CompletionRate = round2(float64(s.CompletedOrders) / float64(s.TotalOrders))
		s.AverageOrderValue = round2(s.TotalRevenue / float64(s.TotalOrders))
	}
	return s
}

// DailyBucket is one day of the revenue trend.
type DailyBucket struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// DailyRevenue buckets revenue per calendar day for the trailing
// days, oldest bucket first and empty days included.
func DailyRevenue(orders []domain.Order, days int, now time.Time) []DailyBucket {
	byDay := make(map[string]*DailyBucket)
	buckets := make([]DailyBucket, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		buckets = append(buckets, DailyBucket{Date: date})
		byDay[date] = &buckets[len(buckets)-1]
	}

	for _, o := range orders {
		date := o.CreatedAt.Format("2006-01-02")
		if b, ok := byDay[date]; ok {
			b.Revenue = round2(b.Revenue + o.Total)
			b.Orders++
		}
	}
	return buckets
}

// ItemCount ranks a line item by units sold.
type ItemCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// BestSellers counts units sold per item name across all orders and
// returns the top n, most sold first. Names tie-break alphabetically
// so the ranking is stable.
func BestSellers(orders []domain.Order, n int) []ItemCount {
	counts := make(map[string]int)
	for _, o := range orders {
		for _, item := range o.Items {
			counts[item.Name] += item.Quantity
		}
	}

	ranked := make([]ItemCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, ItemCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
