// Package metrics declares the Prometheus collectors of the engine. They
// register on the default registry, served by the admin HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SwipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_swipes_total",
			Help: "Recorded swipes by direction",
		},
		[]string{"direction"},
	)

	QuotaRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_swipe_quota_rejections_total",
			Help: "Swipes rejected because the daily quota was used up",
		},
	)

	MatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_matches_total",
			Help: "Total number of matches created",
		},
	)

	UnmatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_unmatches_total",
			Help: "Total number of matches dissolved",
		},
	)

	SubscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_subscriptions_total",
			Help: "Paid subscription activations and renewals",
		},
		[]string{"tier", "kind"},
	)

	StakesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_stakes_total",
			Help: "Stakes opened per lock duration tier",
		},
		[]string{"duration_index"},
	)

	UnstakesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "engagement_unstakes_total",
			Help: "Stakes claimed",
		},
	)

	RewardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_rewards_total",
			Help: "Token rewards distributed by kind",
		},
		[]string{"kind"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_events_published_total",
			Help: "Domain events handed to the event sink",
		},
		[]string{"type", "result"},
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_events_consumed_total",
			Help: "Events read from upstream topics by result",
		},
		[]string{"type", "result"},
	)

	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_grpc_requests_total",
			Help: "gRPC requests by method and status code",
		},
		[]string{"method", "code"},
	)

	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engagement_grpc_request_duration_seconds",
			Help:    "gRPC request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
