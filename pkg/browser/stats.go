package browser

import "sync/atomic"

var (
	acquiredCount atomic.Int64
	releasedCount atomic.Int64
)

// Stats counts sessions across the whole process.
type Stats struct {
	Acquired int64
	Released int64
}

// Live is the number of sessions acquired but not yet released.
func (s Stats) Live() int64 { return s.Acquired - s.Released }

// CurrentStats returns a snapshot of the session counters. A test binary
// checks Live() == 0 after m.Run to detect leaked browsers.
func CurrentStats() Stats {
	return Stats{
		Acquired: acquiredCount.Load(),
		Released: releasedCount.Load(),
	}
}
