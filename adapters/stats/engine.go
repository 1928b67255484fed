// Package stats computes the descriptive, correlation and reliability
// tables served by the backend.
package stats

import "runtime"

// Engine runs analyses over numeric datasets
type Engine struct {
	workers int
}

// NewEngine creates an engine; workers bounds concurrent pair
// computations and defaults to the CPU count
func NewEngine(workers int) *Engine {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Engine{workers: workers}
}
