/*
Package metrics exposes Prometheus instrumentation for etcdmate.

Collectors cover the three things worth watching in a session-based
client: store operations (count and latency per operation), session
health (connected gauge, stale-auth reconnect counter), and the local
HTTP API surface. All collectors register at init; Handler() returns
the /metrics endpoint mounted by the API server.

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.OperationDuration, "list")
	metrics.OperationsTotal.WithLabelValues("list", "ok").Inc()

A spike in etcdmate_reconnects_total means tokens are expiring faster
than the UI keeps the session warm; a reconnect per operation points at
an auth misconfiguration rather than idle expiry.
*/
package metrics
