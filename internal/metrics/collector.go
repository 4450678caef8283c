package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineStats provides the metrics collector access to live pipeline state.
type PipelineStats interface {
	InFlight() int
	Processed() int64
	Failed() int64
}

// ArchiveStats provides access to the async uploader's queue.
type ArchiveStats interface {
	Pending() int
	Uploaded() int64
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	pipeline PipelineStats
	archive  ArchiveStats

	inFlightFiles   *prometheus.Desc
	archivePending  *prometheus.Desc
	archiveUploaded *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// archive may be nil when S3 archival is not configured.
func NewCollector(pipeline PipelineStats, archive ArchiveStats) *Collector {
	return &Collector{
		pipeline: pipeline,
		archive:  archive,
		inFlightFiles: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "in_flight_files"),
			"Files currently being transcribed.",
			nil, nil,
		),
		archivePending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "archive", "pending"),
			"Transcripts waiting in the archive upload queue.",
			nil, nil,
		),
		archiveUploaded: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "archive", "uploaded_total"),
			"Transcripts archived to object storage.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inFlightFiles
	ch <- c.archivePending
	ch <- c.archiveUploaded
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.inFlightFiles, prometheus.GaugeValue, float64(c.pipeline.InFlight()))

	if c.archive != nil {
		ch <- prometheus.MustNewConstMetric(c.archivePending, prometheus.GaugeValue, float64(c.archive.Pending()))
		ch <- prometheus.MustNewConstMetric(c.archiveUploaded, prometheus.CounterValue, float64(c.archive.Uploaded()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.archivePending, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.archiveUploaded, prometheus.CounterValue, 0)
	}
}
