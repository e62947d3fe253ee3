// Package resolve turns a loaded spec into per-phase runner queues. It checks
// every phase against the catalog, looks each plugin up in the registry,
// normalizes single and list configurations, and admits a runner only after
// its Check succeeds.
package resolve
