// Package metrics collects and exposes prometheus counters for the pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts pipeline events for operational visibility.
type Collector struct {
	itemsCrawled    prometheus.Counter
	crawlFailures   prometheus.Counter
	classified      *prometheus.CounterVec
	rejects         prometheus.Counter
	retrains        prometheus.Counter
	retrainFailures prometheus.Counter
}

// NewCollector registers the pipeline counters on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		itemsCrawled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentifeed_items_crawled_total",
			Help: "News items persisted and queued for classification.",
		}),
		crawlFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentifeed_crawl_failures_total",
			Help: "Feed fetches that failed.",
		}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentifeed_items_classified_total",
			Help: "Classification outcomes by label.",
		}, []string{"label"}),
		rejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentifeed_messages_rejected_total",
			Help: "Queue deliveries rejected back to the broker.",
		}),
		retrains: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentifeed_retrains_total",
			Help: "Successful classifier retraining passes.",
		}),
		retrainFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentifeed_retrain_failures_total",
			Help: "Retraining passes that failed.",
		}),
	}

	reg.MustRegister(
		c.itemsCrawled,
		c.crawlFailures,
		c.classified,
		c.rejects,
		c.retrains,
		c.retrainFailures,
	)

	return c
}

// RecordItemCrawled counts one persisted + queued item.
func (c *Collector) RecordItemCrawled() { c.itemsCrawled.Inc() }

// RecordCrawlFailure counts one failed feed fetch.
func (c *Collector) RecordCrawlFailure() { c.crawlFailures.Inc() }

// RecordClassified counts one classification outcome.
func (c *Collector) RecordClassified(label string) { c.classified.WithLabelValues(label).Inc() }

// RecordReject counts one rejected delivery.
func (c *Collector) RecordReject() { c.rejects.Inc() }

// RecordRetrain counts one successful retraining pass.
func (c *Collector) RecordRetrain() { c.retrains.Inc() }

// RecordRetrainFailure counts one failed retraining pass.
func (c *Collector) RecordRetrainFailure() { c.retrainFailures.Inc() }

// Handler serves the registry over HTTP for scraping.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
