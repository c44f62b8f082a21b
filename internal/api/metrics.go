package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	receiptsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tabsplit_receipts_created_total",
		Help: "Receipts created or replaced via the API.",
	})
	claimsAdjusted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tabsplit_claims_adjusted_total",
		Help: "Claim adjustments that applied a non-zero delta.",
	})
	settlementsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tabsplit_settlements_finalized_total",
		Help: "Receipts transitioned to the finalized phase.",
	})
	liveObservers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tabsplit_settlement_observers",
		Help: "Currently connected settlement stream observers.",
	})
)
