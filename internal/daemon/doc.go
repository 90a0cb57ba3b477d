// Package daemon keeps the page watcher running in-process: a gocron job runs a
// cycle for every configured target on an interval, the configuration file is
// watched for changes, and Prometheus metrics are served over HTTP.
package daemon
