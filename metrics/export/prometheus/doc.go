// Package prometheus exports authkit engine metrics through
// github.com/prometheus/client_golang.
//
// [Collector] reads [authkit.Engine.MetricsSnapshot] on every scrape and
// turns it into const metrics: one authkit_*_total counter per
// [authkit.CounterDefs] entry and, when latency histograms are enabled, the
// authkit_validate_latency_seconds histogram. Nothing is registered in the
// global registry; use [Handler] or register the collector yourself.
package prometheus
