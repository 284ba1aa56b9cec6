package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Discovery results partitioned by outcome status
	DiscoveryResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_discovery_results_total",
			Help: "Organizations processed by contact discovery, by result status",
		},
		[]string{"status"},
	)

	// Outbound calls to search and messaging providers
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_provider_requests_total",
			Help: "Calls made to external providers, by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	MessagesDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_messages_dispatched_total",
			Help: "Dispatch attempts by channel, resulting message status and failure kind",
		},
		[]string{"channel", "status", "kind"},
	)

	Retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outreach_retries_total",
			Help: "Operator-triggered message retries by outcome",
		},
		[]string{"outcome"},
	)
)
