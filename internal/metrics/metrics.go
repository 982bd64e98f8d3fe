// Package metrics provides Prometheus metrics for extractor runs, download
// jobs and artifact retrievals. Labels stay low-cardinality: no URLs or job IDs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExtractorRunsTotal counts extractor invocations by mode (collect/stream) and outcome.
	ExtractorRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotranscriber_extractor_runs_total",
		Help: "Total number of extractor invocations, by mode and outcome.",
	}, []string{"mode", "outcome"})

	// ExtractorTerminateTotal counts termination signals sent to extractor process groups.
	ExtractorTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotranscriber_extractor_terminate_total",
		Help: "Total number of termination signals sent to extractor process groups, by signal and result.",
	}, []string{"signal", "result"})

	// DownloadJobsTotal counts finished download jobs by outcome (done/error/cancelled).
	DownloadJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotranscriber_download_jobs_total",
		Help: "Total number of download jobs, by outcome.",
	}, []string{"outcome"})

	// ActiveDownloads tracks download jobs whose extractor is still running.
	ActiveDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "videotranscriber_active_downloads",
		Help: "Current number of running download jobs.",
	})

	// ArtifactRetrievalsTotal counts artifact retrieval attempts by result.
	ArtifactRetrievalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotranscriber_artifact_retrievals_total",
		Help: "Total number of artifact retrieval attempts, by result.",
	}, []string{"result"})

	// ScratchCleanupTotal counts scratch directory removals by reason and result.
	ScratchCleanupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videotranscriber_scratch_cleanup_total",
		Help: "Total number of scratch directory removals, by reason and result.",
	}, []string{"reason", "result"})

	// CaptionSegments observes how many segments a parsed caption track yields.
	CaptionSegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "videotranscriber_caption_segments",
		Help:    "Number of transcript segments per caption fetch.",
		Buckets: prometheus.ExponentialBuckets(10, 4, 6),
	})
)

// IncExtractorRun records one extractor invocation.
func IncExtractorRun(mode, outcome string) {
	ExtractorRunsTotal.WithLabelValues(mode, outcome).Inc()
}

// IncTerminate records a termination signal sent to an extractor.
func IncTerminate(signal, result string) {
	ExtractorTerminateTotal.WithLabelValues(signal, result).Inc()
}

// IncDownloadJob records a finished download job.
func IncDownloadJob(outcome string) {
	DownloadJobsTotal.WithLabelValues(outcome).Inc()
}

// IncRetrieval records an artifact retrieval attempt.
func IncRetrieval(result string) {
	ArtifactRetrievalsTotal.WithLabelValues(result).Inc()
}

// IncScratchCleanup records a scratch directory removal.
func IncScratchCleanup(reason, result string) {
	ScratchCleanupTotal.WithLabelValues(reason, result).Inc()
}
