package projection

import (
	"sort"

	"gensavor/internal/domain"
)

// AdminFeed is the unfiltered operational view, newest first. The
// store already lists in that order; sorting here keeps the guarantee
// independent of the source.
func AdminFeed(orders []domain.Order) []domain.Order {
	feed := make([]domain.Order, len(orders))
	copy(feed, orders)
	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed
}
