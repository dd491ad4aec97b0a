/*
Package observability provides the Prometheus collectors for the learning path engine.

Components take an optional *Metrics; a nil value disables recording so that
libraries and tests need no registry. The HTTP adapter exposes the registry at /metrics.
*/
package observability
