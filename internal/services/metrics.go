package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Delivery tiers, in fallback order.
const (
	TierStreaming = "streaming"
	TierSync      = "sync"
	TierLocal     = "local"
)

var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_deliveries_total",
		Help: "Completed message deliveries by tier.",
	}, []string{"tier"})

	remoteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisor_remote_failures_total",
		Help: "Remote channel attempts that failed and triggered a fallback.",
	}, []string{"channel"})

	streamChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "advisor_stream_chunks_total",
		Help: "Stream fragments applied to in-flight messages.",
	})
)
