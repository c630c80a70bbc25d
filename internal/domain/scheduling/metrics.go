package scheduling

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronos",
		Name:      "recalculations_total",
		Help:      "Recalculation passes by result",
	}, []string{"result"})

	recalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chronos",
		Name:      "recalculation_duration_seconds",
		Help:      "Duration of recalculation passes",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	statusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chronos",
		Name:      "participant_status_changes_total",
		Help:      "Participant status rewrites by resulting status",
	}, []string{"status"})
)
