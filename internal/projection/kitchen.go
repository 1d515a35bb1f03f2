package projection

import (
	"sort"

	"gensavor/internal/domain"
)

// KitchenQueue filters the live collection down to what the kitchen
// works on: pending orders first (new tickets take the front of the
// queue), then preparing, oldest first within each group so tickets
// are cooked in arrival order.
func KitchenQueue(orders []domain.Order) []domain.Order {
	var queue []domain.Order
	for _, o := range orders {
		if o.Status == domain.StatusPending || o.Status == domain.StatusPreparing {
			queue = append(queue, o)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].Status != queue[j].Status {
			return queue[i].Status == domain.StatusPending
		}
		return queue[i].CreatedAt.Before(queue[j].CreatedAt)
	})
	return queue
}

// PendingIDs returns the id set of pending orders, the input for
// new-ticket detection.
func PendingIDs(orders []domain.Order) map[string]bool {
	ids := make(map[string]bool)
	for _, o := range orders {
		if o.Status == domain.StatusPending {
			ids[o.ID] = true
		}
	}
	return ids
}

// NewPending returns orders pending now that were not pending in the
// previous delivery. Consumers use it to trigger an attention signal
// distinct from routine re-sorts; the projection itself owns no alert
// mechanism.
func NewPending(prev map[string]bool, current []domain.Order) []domain.Order {
	var fresh []domain.Order
	for _, o := range current {
		if o.Status == domain.StatusPending && !prev[o.ID] {
			fresh = append(fresh, o)
		}
	}
	return fresh
}
