package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors live on the default registry so every package can count
// without threading a registry through constructors.
var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gensavor_orders_created_total",
		Help: "Orders accepted through checkout.",
	})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gensavor_order_transitions_total",
		Help: "Successful status transitions by target status.",
	}, []string{"to"})

	InvalidTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gensavor_invalid_transitions_total",
		Help: "Rejected status transitions.",
	})

	WatchSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gensavor_watch_subscribers",
		Help: "Live watch subscriptions currently registered.",
	})
)

func Handler() http.Handler { return promhttp.Handler() }
