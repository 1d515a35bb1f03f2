package projection

import "gensavor/internal/domain"

// DispatchView groups ready orders for the hand-off counter: pickups
// wait for the customer, deliveries wait for a driver. Order within
// each group follows the underlying feed (newest first).
type DispatchView struct {
	Pickup   []domain.Order `json:"pickup"`
	Delivery []domain.Order `json:"delivery"`
}

// DispatchQueue keeps exactly the ready orders and splits them by
// type.
func DispatchQueue(orders []domain.Order) DispatchView {
	var view DispatchView
	for _, o := range orders {
		if o.Status != domain.StatusReady {
			continue
		}
		if o.Type == domain.TypeDelivery {
			view.Delivery = append(view.Delivery, o)
		} else {
			view.Pickup = append(view.Pickup, o)
		}
	}
	return view
}
