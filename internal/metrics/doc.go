// Package metrics provides observability hooks for build cycles.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks at call sites:
//
//	d := queue.NewDispatcher(steps, policy, log, state, queue.WithRecorder(recorder))
//
// PrometheusRecorder registers its collectors on a caller-provided registry,
// and Serve exposes that registry for scraping when the long-running
// commands are started with a metrics address.
package metrics
