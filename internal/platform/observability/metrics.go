// Package observability exposes Prometheus metrics and the health endpoint
// for the curator job.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CandidatesConsidered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_candidates_considered_total",
		Help: "The total number of raw candidates received from the generator",
	}, []string{"scope"})

	CandidatesAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_candidates_accepted_total",
		Help: "The total number of candidates accepted into a keyword pool",
	}, []string{"scope"})

	CandidateDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_candidate_drops_total",
		Help: "Total number of dropped candidates by reason",
	}, []string{"reason"})

	RefillAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_refill_attempts_total",
		Help: "Total number of refill requests issued to the generator",
	}, []string{"scope"})

	PicksSelected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_picks_selected_total",
		Help: "Total number of candidates picked into the final result set",
	}, []string{"scope"})

	KeywordsStarved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_keywords_starved_total",
		Help: "Total number of keywords that ended a run with zero picks",
	}, []string{"scope"})

	GeneratorRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "curator_generator_request_duration_seconds",
		Help:    "Duration of generator requests",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"kind"})

	GeneratorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_generator_requests_total",
		Help: "Total number of generator requests",
	}, []string{"kind", "status"})

	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_fetch_requests_total",
		Help: "Total number of page fetch attempts",
	}, []string{"status"})

	ImageProbes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_image_probes_total",
		Help: "Total number of image URL probes",
	}, []string{"result"})

	SnapshotsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curator_snapshots_saved_total",
		Help: "Total number of snapshot replacements by status",
	}, []string{"scope", "status"})

	ScopeRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "curator_scope_run_duration_seconds",
		Help:    "Duration of one full scope run",
		Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
	}, []string{"scope"})
)
