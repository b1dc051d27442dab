package app

import "time"

// TickMsg drives the 50 ms poll loop. Each tick reads the freshest capture
// window, runs pitch detection, and feeds the coordinator.
type TickMsg struct {
	Time time.Time
}
