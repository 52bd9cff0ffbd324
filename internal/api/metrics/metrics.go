// Package metrics defines all custom Prometheus metrics for the sweetshop
// inventory API. It is the single source of truth for metric names, labels,
// and help strings. Metrics register with the default Prometheus registry on
// package initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sweetshop"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts registration and login attempts.
// Labels:
//   - operation: "register" or "login"
//   - result: "success" or the error code returned to the client (e.g. "duplicate_email")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"operation", "result"},
)

// ── Stock metrics ─────────────────────────────────────────────────────────────

// StockOperationsTotal counts purchase and restock requests.
// Labels:
//   - operation: "purchase" or "restock"
//   - result: "success" or the error code returned to the client (e.g. "insufficient_stock")
var StockOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_operations_total",
		Help:      "Total number of purchase and restock requests, by outcome.",
	},
	[]string{"operation", "result"},
)

// CatalogCacheLookupsTotal counts catalog cache reads.
// Label:
//   - result: "hit", "miss" or "error"
var CatalogCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_cache_lookups_total",
		Help:      "Total number of catalog cache lookups, labelled by result (hit/miss/error).",
	},
	[]string{"result"},
)

// ── Stock event metrics ───────────────────────────────────────────────────────

// StockEventsTotal counts stock events leaving the dispatcher.
// Labels:
//   - kind: "purchased" or "restocked"
//   - result: "published", "failed" or "dropped" (worker queue full)
var StockEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_events_total",
		Help:      "Total number of stock events handled by the dispatcher, by kind and result.",
	},
	[]string{"kind", "result"},
)

// StockEventsQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var StockEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stock_events_queue_depth",
		Help:      "Current number of stock events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// StockEventPublishDuration measures how long one publish takes.
var StockEventPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stock_event_publish_duration_seconds",
		Help:      "Duration of a single stock event publish.",
		Buckets:   prometheus.DefBuckets,
	},
)

// LowStockItemsTotal counts committed stock changes that left an item at or
// below the low-stock threshold.
var LowStockItemsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "low_stock_events_total",
		Help:      "Total number of stock changes that left an item at or below the low-stock threshold.",
	},
)
