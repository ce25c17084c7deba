// Package metrics defines and registers all custom Prometheus metrics for
// the sweet shop API. It is the single source of truth for metric names,
// labels, and help strings; registration happens at import time via
// promauto. HTTP-level request metrics come from the echoprometheus
// middleware and are not duplicated here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sweetshop"

// UsersRegisteredTotal counts successful registrations.
var UsersRegisteredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of user accounts created.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PurchasesTotal counts purchase attempts.
// Label:
//   - result: "success", "insufficient_stock", or "error"
var PurchasesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchases_total",
		Help:      "Total number of purchase attempts, by result.",
	},
	[]string{"result"},
)

// RestocksTotal counts successful restocks.
var RestocksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "restocks_total",
		Help:      "Total number of successful restock operations.",
	},
)

// SearchCacheTotal counts catalog cache lookups.
// Label:
//   - result: "hit" or "miss"
var SearchCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_cache_total",
		Help:      "Total number of catalog cache lookups, by result (hit/miss).",
	},
	[]string{"result"},
)
