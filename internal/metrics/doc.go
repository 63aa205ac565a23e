// Package metrics records merge-run observability data.
//
// Components receive a Recorder through dependency injection and default to NoopRecorder,
// so no nil checks are needed at call sites. PrometheusRecorder backs the interface with
// client_golang collectors on a private registry; since depmerge is a one-shot CLI the
// registry is exported with WriteTextfile for the node-exporter textfile collector rather
// than served over HTTP.
package metrics
