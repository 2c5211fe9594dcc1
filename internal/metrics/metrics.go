package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per route, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monetization_requests_total",
			Help: "Total API requests received",
		},
		[]string{"route", "method", "status"},
	)

	// request latency in seconds per route/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monetization_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// impression outcomes: counted, duplicate, exhausted, not_found, error
	ImpressionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monetization_impressions_total",
			Help: "Total impression events by outcome",
		},
		[]string{"ad_type", "result"},
	)

	DedupeFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "monetization_dedupe_fallback_total",
			Help: "Duplicate checks served by postgres because redis failed",
		},
	)

	ClickCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monetization_clicks_total",
			Help: "Total ad clicks",
		},
		[]string{"counted"},
	)

	RevenueTransferred = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "monetization_revenue_transferred_total",
			Help: "Creator revenue moved into withdrawable balances",
		},
	)

	TransferCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monetization_transfers_total",
			Help: "Revenue transfer attempts by result",
		},
		[]string{"result"},
	)

	WithdrawalCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monetization_withdrawals_total",
			Help: "Withdrawal requests by resulting status",
		},
		[]string{"status"},
	)

	CampaignsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "monetization_campaigns_expired_total",
			Help: "Campaigns deactivated by the worker",
		},
	)

	// requests rejected by RequirePermission; financial marks money-moving permissions
	PermissionDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monetization_permission_denied_total",
			Help: "Requests rejected for missing permissions",
		},
		[]string{"permission", "financial"},
	)

	BalanceDrift = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "monetization_balance_drift_users",
			Help: "Creators whose balance disagrees with the ledger at the last reconciliation",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		ImpressionCount,
		DedupeFallbacks,
		ClickCount,
		RevenueTransferred,
		TransferCount,
		WithdrawalCount,
		CampaignsExpired,
		PermissionDenied,
		BalanceDrift,
	)
}
