// Package metrics records watch cycle observability.
//
// Components receive a Recorder through their constructors. NoopRecorder is the
// default, so nothing needs a nil check:
//
//	engine := watch.NewEngine(cfg, backend, fetcher, notifier, metrics.NoopRecorder{}, logger)
//
// The daemon serves a PrometheusRecorder's registry over HTTP. One-shot runs
// started by cron write the registry to a node_exporter textfile instead.
package metrics
