package world

import "errors"

var (
	// ErrInvalidArgument reports a malformed request such as a zero ray direction.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrChunkNotLoaded reports a query against a chunk that is not in memory.
	ErrChunkNotLoaded = errors.New("chunk not loaded")
	// ErrOutOfRangeY reports a y coordinate outside [0, ChunkHeight).
	ErrOutOfRangeY = errors.New("y out of range")
)
