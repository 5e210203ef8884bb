// Copyright © 2021-2025 The Gomon Project.

package serve

import (
	"github.com/prometheus/client_golang/prometheus"
)

type (
	// collector complies with the Prometheus Collector interface.
	collector struct {
		server *Server
	}
)

var (
	labels = []string{"pid", "session"}

	residentDesc = prometheus.NewDesc("pidmon_process_resident_bytes",
		"Resident set size of the process.", labels, nil)
	virtualDesc = prometheus.NewDesc("pidmon_process_virtual_bytes",
		"Virtual memory size of the process.", labels, nil)
	uniqueDesc = prometheus.NewDesc("pidmon_process_unique_bytes",
		"Unique set size of the process, if it may be read.", labels, nil)
	percentDesc = prometheus.NewDesc("pidmon_process_memory_percent",
		"Resident set size as a percentage of physical memory.", labels, nil)
	peakDesc = prometheus.NewDesc("pidmon_process_resident_peak_bytes",
		"Peak resident set size of the process during the session.", labels, nil)
	samplesDesc = prometheus.NewDesc("pidmon_samples_total",
		"Count of samples taken during the session.", labels, nil)
	requestsDesc = prometheus.NewDesc("pidmon_http_requests_total",
		"Count of HTTP requests to the pidmon server.", nil, nil)
)

// Describe returns metric descriptions for the collector.
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range []*prometheus.Desc{
		residentDesc,
		virtualDesc,
		uniqueDesc,
		percentDesc,
		peakDesc,
		samplesDesc,
		requestsDesc,
	} {
		ch <- desc
	}
}

// Collect returns the latest sample of the session to Prometheus.
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	c.server.mu.RLock()
	requests := c.server.requests
	c.server.mu.RUnlock()
	ch <- prometheus.MustNewConstMetric(requestsDesc, prometheus.CounterValue, float64(requests))

	r, ok := c.server.snapshot()
	if !ok {
		return
	}
	values := []string{r.Pid.String(), r.Session.String()}

	ch <- prometheus.MustNewConstMetric(peakDesc, prometheus.GaugeValue, float64(r.Peak), values...)
	ch <- prometheus.MustNewConstMetric(samplesDesc, prometheus.CounterValue, float64(r.Samples), values...)
	if r.Outcome != "" { // the process' current footprint is unknown once the session stops
		return
	}
	ch <- prometheus.MustNewConstMetric(residentDesc, prometheus.GaugeValue, float64(r.Sample.Rss), values...)
	ch <- prometheus.MustNewConstMetric(virtualDesc, prometheus.GaugeValue, float64(r.Sample.Vms), values...)
	if uss, ok := r.Sample.Uss.Get(); ok {
		ch <- prometheus.MustNewConstMetric(uniqueDesc, prometheus.GaugeValue, float64(uss), values...)
	}
	if pct, ok := r.Sample.Percent.Get(); ok {
		ch <- prometheus.MustNewConstMetric(percentDesc, prometheus.GaugeValue, pct, values...)
	}
}
