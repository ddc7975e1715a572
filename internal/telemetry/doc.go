// Package telemetry exports render graph activity to Prometheus. Metrics
// plugs into the graph as a rendergraph.Hooks implementation and is served
// on /metrics next to the health check.
package telemetry
