package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reflectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tastetrail",
			Name:      "reflections_total",
			Help:      "Reflection submissions by outcome.",
		},
		[]string{"result"}, // "accepted" or "follow_up"
	)

	followUpDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tastetrail",
			Name:      "follow_up_depth",
			Help:      "Follow-up rounds served before a reflection was accepted.",
			Buckets:   []float64{0, 1, 2, 3},
		},
	)

	specificityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tastetrail",
			Name:      "specificity_score",
			Help:      "Specificity scores of accepted reflections.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	patternRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tastetrail",
			Name:      "pattern_runs_total",
			Help:      "Completed pattern detection runs.",
		},
	)

	patternsDetected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tastetrail",
			Name:      "patterns_detected",
			Help:      "Patterns produced by the most recent detection run.",
		},
	)

	metadataLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tastetrail",
			Name:      "metadata_lookups_total",
			Help:      "TMDB lookups by outcome.",
		},
		[]string{"outcome"}, // "hit", "miss" or "error"
	)
)
