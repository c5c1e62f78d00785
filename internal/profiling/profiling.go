package profiling

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Process-wide timing accumulator for world operations (streaming,
// generation, meshing). Totals grow until Reset.

// Stat is the accumulated cost of one named operation.
type Stat struct {
	Name  string
	Total time.Duration
	Count int
}

// Mean is the average duration per call.
func (s Stat) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

var (
	mu    sync.Mutex
	stats = make(map[string]*Stat)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("subsystem.Operation")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s, ok := stats[name]
		if !ok {
			s = &Stat{Name: name}
			stats[name] = s
		}
		s.Total += d
		s.Count++
		mu.Unlock()
	}
}

// Reset clears all totals.
func Reset() {
	mu.Lock()
	clear(stats)
	mu.Unlock()
}

// Snapshot returns the current totals ordered by descending total time.
func Snapshot() []Stat {
	mu.Lock()
	out := make([]Stat, 0, len(stats))
	for _, s := range stats {
		out = append(out, *s)
	}
	mu.Unlock()
	slices.SortFunc(out, func(a, b Stat) int {
		if a.Total != b.Total {
			if a.Total > b.Total {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// TopN formats the n most expensive operations.
// Example: "world.UpdateAround:42.1ms/3, meshing.Build:12.0ms/25"
func TopN(n int) string {
	ss := Snapshot()
	n = min(n, len(ss))
	parts := make([]string, 0, n)
	for _, s := range ss[:n] {
		ms := float64(s.Total.Microseconds()) / 1000.0
		parts = append(parts, fmt.Sprintf("%s:%.1fms/%d", s.Name, ms, s.Count))
	}
	return strings.Join(parts, ", ")
}
