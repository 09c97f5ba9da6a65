// Package metrics exposes Prometheus counters for the bridge cycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the orchestrator and its collaborators report to.
type Recorder interface {
	RecordFetchSuccess()
	RecordFetchFailure(reason string)
	RecordNewItems(mode string, count int)
	RecordPostPublished(publisher string)
	RecordPostFailed(publisher string)
	RecordSnapshotWrite(mode string)
	RecordImageFailure()
}

// Collector is the Prometheus backed Recorder.
type Collector struct {
	fetchSuccess   prometheus.Counter
	fetchFail      *prometheus.CounterVec
	newItems       *prometheus.CounterVec
	postsPublished *prometheus.CounterVec
	postsFailed    *prometheus.CounterVec
	snapshotWrites *prometheus.CounterVec
	imageFail      prometheus.Counter
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsbridge_fetch_success_total",
			Help: "Successful news feed retrievals.",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsbridge_fetch_fail_total",
			Help: "Failed news feed retrievals by reason.",
		}, []string{"reason"}),
		newItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsbridge_new_items_total",
			Help: "Qualifying new items detected by mode.",
		}, []string{"mode"}),
		postsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsbridge_posts_published_total",
			Help: "Posts accepted by a publisher.",
		}, []string{"publisher"}),
		postsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsbridge_posts_failed_total",
			Help: "Posts rejected by a publisher or skipped after an authentication failure.",
		}, []string{"publisher"}),
		snapshotWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsbridge_snapshot_writes_total",
			Help: "Snapshot files written by mode.",
		}, []string{"mode"}),
		imageFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsbridge_image_compose_fail_total",
			Help: "Image compositions that failed.",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.newItems,
		c.postsPublished,
		c.postsFailed,
		c.snapshotWrites,
		c.imageFail,
	)

	return c
}

func (c *Collector) RecordFetchSuccess() {
	c.fetchSuccess.Inc()
}

func (c *Collector) RecordFetchFailure(reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordNewItems(mode string, count int) {
	c.newItems.WithLabelValues(mode).Add(float64(count))
}

func (c *Collector) RecordPostPublished(publisher string) {
	c.postsPublished.WithLabelValues(publisher).Inc()
}

func (c *Collector) RecordPostFailed(publisher string) {
	c.postsFailed.WithLabelValues(publisher).Inc()
}

func (c *Collector) RecordSnapshotWrite(mode string) {
	c.snapshotWrites.WithLabelValues(mode).Inc()
}

func (c *Collector) RecordImageFailure() {
	c.imageFail.Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
