/*
Package observability turns engine lifecycle hooks into metrics and logs.

Metrics exposes Prometheus counters for transitions, option fallbacks,
checkpoint operations and restores. LogHooks writes the same events to a
structured logger. Both return domain.LifecycleHooks and can be combined with
LifecycleHooks.Merge.
*/
package observability
