package save

import "time"

// DefaultAutoSaveInterval is how often the world is saved while enabled.
const DefaultAutoSaveInterval = 60 * time.Second

// AutoSave is a game-loop timer that fires once per interval.
type AutoSave struct {
	interval time.Duration
	elapsed  time.Duration
	enabled  bool
}

// NewAutoSave returns an enabled timer. A non-positive interval uses the default.
func NewAutoSave(interval time.Duration) *AutoSave {
	if interval <= 0 {
		interval = DefaultAutoSaveInterval
	}
	return &AutoSave{interval: interval, enabled: true}
}

// Update advances the timer by dt and reports whether a save is due.
func (a *AutoSave) Update(dt time.Duration) bool {
	if !a.enabled {
		return false
	}
	a.elapsed += dt
	if a.elapsed < a.interval {
		return false
	}
	a.elapsed = 0
	return true
}

// SetEnabled turns the timer on or off. Disabling keeps the elapsed time.
func (a *AutoSave) SetEnabled(enabled bool) { a.enabled = enabled }

func (a *AutoSave) Enabled() bool { return a.enabled }

func (a *AutoSave) Interval() time.Duration { return a.interval }

// Reset restarts the interval, typically after a manual save.
func (a *AutoSave) Reset() { a.elapsed = 0 }
