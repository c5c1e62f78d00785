package world

import (
	"sync"
	"sync/atomic"

	"voxelcraft/internal/profiling"
)

// Streamer loads chunks in the background for callers that cannot block on
// generation. Finished chunks are installed into the world as they complete;
// until then Block reports them as not loaded. The latest Request or Evict
// sets the target: a queued chunk that has fallen outside radius+EvictMargin
// of the target center by the time a worker reaches it is dropped.
type Streamer struct {
	jobs       chan ChunkPos
	pending    map[ChunkPos]struct{}
	pendingMu  sync.Mutex
	maxPending int

	maxJobsPerCall int

	inflight sync.WaitGroup
	workers  sync.WaitGroup
	closeMu  sync.Mutex
	closed   bool

	// targetMu also covers the final check and Install of a finished chunk.
	targetMu  sync.Mutex
	center    ChunkPos
	limit     int
	hasTarget bool
	dropped   atomic.Int64

	world *World
}

// NewStreamer starts one background worker per configured world worker.
func NewStreamer(w *World) *Streamer {
	s := &Streamer{
		jobs:           make(chan ChunkPos, 4096),
		pending:        make(map[ChunkPos]struct{}),
		maxJobsPerCall: 2048,
		maxPending:     16384,
		world:          w,
	}
	for range w.workers {
		s.workers.Add(1)
		go s.worker()
	}
	return s
}

// Close stops the workers after the queued jobs finish.
func (s *Streamer) Close() {
	s.closeMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.closeMu.Unlock()
	s.workers.Wait()
}

// Wait blocks until every queued chunk is installed. It must not run
// concurrently with Request.
func (s *Streamer) Wait() { s.inflight.Wait() }

// Pending returns the number of queued or running jobs.
func (s *Streamer) Pending() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// Dropped returns how many queued chunks were discarded because the target
// moved away from them.
func (s *Streamer) Dropped() int64 { return s.dropped.Load() }

func (s *Streamer) setTarget(center ChunkPos, radius int) {
	s.targetMu.Lock()
	s.center, s.limit, s.hasTarget = center, radius+EvictMargin, true
	s.targetMu.Unlock()
}

// inTarget requires targetMu to be held.
func (s *Streamer) inTarget(pos ChunkPos) bool {
	return !s.hasTarget || pos.DistSq(s.center) <= s.limit*s.limit
}

func (s *Streamer) load(pos ChunkPos) {
	if s.world.HasChunk(pos) {
		return
	}
	s.targetMu.Lock()
	wanted := s.inTarget(pos)
	s.targetMu.Unlock()
	if !wanted {
		s.dropped.Add(1)
		return
	}

	c, _ := s.world.produce(pos)

	// The target may have moved during generation.
	s.targetMu.Lock()
	defer s.targetMu.Unlock()
	if !s.inTarget(pos) {
		s.dropped.Add(1)
		return
	}
	s.world.Install(c)
}

func (s *Streamer) worker() {
	defer s.workers.Done()
	for pos := range s.jobs {
		s.load(pos)
		s.pendingMu.Lock()
		delete(s.pending, pos)
		s.pendingMu.Unlock()
		s.inflight.Done()
	}
}

// Request queues the missing chunks within radius of center, nearest ring
// first, and returns how many were queued.
func (s *Streamer) Request(center ChunkPos, radius int) int {
	defer profiling.Track("world.StreamRequest")()
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed || radius < 0 {
		return 0
	}
	s.setTarget(center, radius)

	pushed := 0
	for r := 0; r <= radius && pushed < s.maxJobsPerCall; r++ {
		if r == 0 {
			pushed += s.enqueue(center)
			continue
		}
		x0, x1 := center.X-r, center.X+r
		z0, z1 := center.Z-r, center.Z+r

		// walk the ring perimeter
		for x := x0; x <= x1; x++ {
			pushed += s.enqueue(ChunkPos{x, z0})
			pushed += s.enqueue(ChunkPos{x, z1})
		}
		for z := z0 + 1; z <= z1-1; z++ {
			pushed += s.enqueue(ChunkPos{x0, z})
			pushed += s.enqueue(ChunkPos{x1, z})
		}
	}
	return pushed
}

// enqueue respects the pending cap and returns 1 if the job was queued.
func (s *Streamer) enqueue(pos ChunkPos) int {
	if s.world.HasChunk(pos) {
		return 0
	}

	s.pendingMu.Lock()
	if _, ok := s.pending[pos]; ok {
		s.pendingMu.Unlock()
		return 0
	}
	if s.maxPending > 0 && len(s.pending) >= s.maxPending {
		s.pendingMu.Unlock()
		return 0
	}
	s.pending[pos] = struct{}{}
	s.pendingMu.Unlock()

	s.inflight.Add(1)
	select {
	case s.jobs <- pos:
		return 1
	default:
		// queue full: rollback
		s.inflight.Done()
		s.pendingMu.Lock()
		delete(s.pending, pos)
		s.pendingMu.Unlock()
		return 0
	}
}

// Evict removes chunks beyond radius+EvictMargin of center, persisting dirty
// ones like UpdateAround does, and makes center the target.
func (s *Streamer) Evict(center ChunkPos, radius int) (StreamStats, error) {
	s.setTarget(center, radius)
	s.world.streamMu.Lock()
	defer s.world.streamMu.Unlock()
	var stats StreamStats
	err := s.world.evictFar(center, radius+EvictMargin, &stats)
	return stats, err
}
