/*
Package observability turns session lifecycle events into Prometheus metrics
and structured audit logs.

Both are delivered as domain.LifecycleHooks, so they can be merged and handed
to a Controller or Service:

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	hooks := domain.MergeHooks(metrics.Hooks(), observability.LogHooks(logger))
*/
package observability
