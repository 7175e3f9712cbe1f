// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Archive metrics.
	MetricArchiveFiles      = "hdfsutil_archive_files_total"
	MetricArchiveDirs       = "hdfsutil_archive_dirs_total"
	MetricArchiveBytes      = "hdfsutil_archive_bytes_total"
	MetricArchiveSkipped    = "hdfsutil_archive_subtrees_skipped_total"
	MetricArchiveFailed     = "hdfsutil_archive_files_failed_total"
	MetricArchiveDuration   = "hdfsutil_archive_duration_seconds"
	MetricTranscodeOps      = "hdfsutil_transcode_ops_total"
	MetricTranscodeBytes    = "hdfsutil_transcode_bytes_total"
	MetricTranscodeFailures = "hdfsutil_transcode_failures_total"

	// Cache metrics.
	MetricCacheHits   = "hdfsutil_cache_hits_total"
	MetricCacheMisses = "hdfsutil_cache_misses_total"
	MetricCacheSize   = "hdfsutil_cache_size"
)

var help = map[string]string{
	MetricArchiveFiles:      "Files written to archives.",
	MetricArchiveDirs:       "Directory entries written to archives.",
	MetricArchiveBytes:      "File content bytes copied into archives.",
	MetricArchiveSkipped:    "Directories whose listing failed and were skipped.",
	MetricArchiveFailed:     "Files that could not be opened or read while archiving.",
	MetricArchiveDuration:   "Duration of archive walks.",
	MetricTranscodeOps:      "Compress and decompress operations.",
	MetricTranscodeBytes:    "Bytes read from transcoder sources.",
	MetricTranscodeFailures: "Compress and decompress operations that failed.",
	MetricCacheHits:         "Read cache hits.",
	MetricCacheMisses:       "Read cache misses.",
	MetricCacheSize:         "Entries held by the read cache.",
}

// Help returns the description of a metric, or its name if unknown.
func Help(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
