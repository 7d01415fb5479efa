// Package metrics defines the Prometheus collectors exported by sourcekit.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Status label values.
const (
	Fail = "fail"
	Ok   = "ok"
)

// Keys for classifier metrics.
const (
	ClassifiedTotalKey         = "sourcekit_classified_total"
	ClassifyDurationSecondsKey = "sourcekit_classify_duration_seconds"
)

// Collectors for the type classifier.
var (
	ClassifiedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ClassifiedTotalKey,
		Help: "Cumulative number of classified files, by resulting type.",
	}, []string{"type"})
	ClassifyDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: ClassifyDurationSecondsKey,
		Help: "Time spent classifying a single file.",
	})
)

// Keys for repair pipeline metrics.
const (
	ChecksTotalKey             = "sourcekit_checks_total"
	RepairsTotalKey            = "sourcekit_repairs_total"
	ArchiveEntriesRejectedKey  = "sourcekit_archive_entries_rejected_total"
	ArchiveEntriesExtractedKey = "sourcekit_archive_entries_extracted_total"
	FilesRemovedTotalKey       = "sourcekit_files_removed_total"
	PipelineRunsTotalKey       = "sourcekit_pipeline_runs_total"
	BytesStrippedTotalKey      = "sourcekit_bytes_stripped_total"
)

// Collectors for the repair pipeline.
var (
	ChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ChecksTotalKey,
		Help: "Cumulative number of checker invocations.",
	}, []string{"checker", "status"})
	RepairsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: RepairsTotalKey,
		Help: "Cumulative number of file repairs, by kind.",
	}, []string{"kind", "status"})
	ArchiveEntriesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ArchiveEntriesRejectedKey,
		Help: "Cumulative number of archive entries skipped for safety.",
	}, []string{"reason"})
	ArchiveEntriesExtractedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: ArchiveEntriesExtractedKey,
		Help: "Cumulative number of archive entries extracted.",
	})
	FilesRemovedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: FilesRemovedTotalKey,
		Help: "Cumulative number of files moved to the removed area.",
	}, []string{"checker"})
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: PipelineRunsTotalKey,
		Help: "Cumulative number of workspace pipeline runs.",
	}, []string{"status"})
	BytesStrippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: BytesStrippedTotalKey,
		Help: "Cumulative number of bytes removed by preview and TIFF stripping.",
	})
)

// ClassifierCollectors lists collectors used by the type classifier.
func ClassifierCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		ClassifiedTotal,
		ClassifyDurationSeconds,
	}
}

// PipelineCollectors lists collectors used by the repair pipeline.
func PipelineCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		ChecksTotal,
		RepairsTotal,
		ArchiveEntriesRejectedTotal,
		ArchiveEntriesExtractedTotal,
		FilesRemovedTotal,
		PipelineRunsTotal,
		BytesStrippedTotal,
	}
}
