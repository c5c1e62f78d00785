package meshing

import (
	"context"
	"sync"

	"voxelcraft/internal/world"
)

// MeshResult contains the result of a meshing job.
type MeshResult struct {
	Mesh ChunkMesh
	// Current is false when the chunk changed while the job ran; the mesh
	// is stale and the chunk stays in the invalid set.
	Current bool
}

// Pool meshes chunks of one world on a fixed set of goroutines. Workers read
// neighborhood snapshots only; the world remains the sole writer.
type Pool struct {
	world    *world.World
	jobQueue chan world.ChunkPos
	results  chan MeshResult
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	pending map[world.ChunkPos]struct{}
}

// NewPool creates a mesh worker pool.
func NewPool(w *world.World, workers, queueSize int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		world:    w,
		jobQueue: make(chan world.ChunkPos, queueSize),
		results:  make(chan MeshResult, queueSize),
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[world.ChunkPos]struct{}),
	}
	for range max(workers, 1) {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Results delivers finished meshes. The consumer must drain it.
func (p *Pool) Results() <-chan MeshResult { return p.results }

// SubmitJob queues pos for meshing. It returns false if the queue is full,
// the pool is shut down, or pos is already queued.
func (p *Pool) SubmitJob(pos world.ChunkPos) bool {
	if p.ctx.Err() != nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[pos]; ok {
		return false
	}
	select {
	case p.jobQueue <- pos:
		p.pending[pos] = struct{}{}
		return true
	default:
		return false
	}
}

// SubmitInvalid queues every loaded chunk whose mesh is invalid and returns
// how many were queued.
func (p *Pool) SubmitInvalid() int {
	n := 0
	for _, pos := range p.world.InvalidMeshes() {
		if p.SubmitJob(pos) {
			n++
		}
	}
	return n
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case pos := <-p.jobQueue:
			res, ok := p.build(pos)
			p.mu.Lock()
			delete(p.pending, pos)
			p.mu.Unlock()
			if !ok {
				// Evicted before its turn.
				continue
			}
			select {
			case p.results <- res:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) build(pos world.ChunkPos) (MeshResult, bool) {
	n, ok := p.world.Neighborhood(pos)
	if !ok {
		return MeshResult{}, false
	}
	mesh := Build(n)
	return MeshResult{Mesh: mesh, Current: p.world.MarkMeshValid(pos, mesh.Revision)}, true
}

// Shutdown stops the workers and waits for them. Queued jobs are dropped.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// QueueLength returns the current number of jobs in the queue.
func (p *Pool) QueueLength() int {
	return len(p.jobQueue)
}
