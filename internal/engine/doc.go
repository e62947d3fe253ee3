// Package engine executes the runner queues produced by the resolver. Phases
// run in catalog order and runners within a phase run in queue order; the
// first failure stops the run.
package engine
