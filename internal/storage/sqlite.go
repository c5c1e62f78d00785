// Package storage keeps evicted chunks in a SQLite database so that edits
// survive leaving and re-entering an area.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"voxelcraft/internal/world"
)

// ErrSeedMismatch reports an archive that belongs to a different world seed.
var ErrSeedMismatch = errors.New("archive belongs to another seed")

// SQLiteArchive is a world.ChunkArchive backed by one SQLite file. Chunk
// payloads are zstd-compressed block ordinals.
type SQLiteArchive struct {
	db   *sql.DB
	id   uuid.UUID
	seed uint64
	log  *slog.Logger

	enc *zstd.Encoder
	dec *zstd.Decoder

	closeOnce sync.Once
	closeErr  error
}

var _ world.ChunkArchive = (*SQLiteArchive)(nil)

// OpenSQLite opens or creates the archive at path for the world with seed.
func OpenSQLite(path string, seed uint64, log *slog.Logger) (*SQLiteArchive, error) {
	if path == "" {
		return nil, fmt.Errorf("empty archive path: %w", world.ErrInvalidArgument)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	a := &SQLiteArchive{db: db, seed: seed, log: log}
	if err := a.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if a.enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	if a.dec, err = zstd.NewReader(nil); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	log.Debug("chunk archive opened", "path", path, "world", a.id)
	return a, nil
}

func (a *SQLiteArchive) init() error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			cx INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			blocks BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (cx, cz)
		);`,
	}
	for _, s := range stmts {
		if _, err := a.db.Exec(s); err != nil {
			return fmt.Errorf("init archive: %w", err)
		}
	}

	id, err := a.meta("world_id")
	if err != nil {
		return err
	}
	if id == "" {
		a.id = uuid.New()
		if err := a.setMeta("world_id", a.id.String()); err != nil {
			return err
		}
		return a.setMeta("seed", strconv.FormatUint(a.seed, 10))
	}
	if a.id, err = uuid.Parse(id); err != nil {
		return fmt.Errorf("archive world id %q: %w", id, err)
	}
	stored, err := a.meta("seed")
	if err != nil {
		return err
	}
	if stored != strconv.FormatUint(a.seed, 10) {
		return fmt.Errorf("archive seed %s, world seed %d: %w", stored, a.seed, ErrSeedMismatch)
	}
	return nil
}

func (a *SQLiteArchive) meta(key string) (string, error) {
	var v string
	err := a.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read archive meta %s: %w", key, err)
	}
	return v, nil
}

func (a *SQLiteArchive) setMeta(key, value string) error {
	if _, err := a.db.Exec(`INSERT INTO meta(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("write archive meta %s: %w", key, err)
	}
	return nil
}

// ID identifies the world the archive belongs to.
func (a *SQLiteArchive) ID() uuid.UUID { return a.id }

// Load returns the archived chunk at pos. ok is false when none is stored.
func (a *SQLiteArchive) Load(pos world.ChunkPos) (*world.Chunk, bool, error) {
	var blob []byte
	err := a.db.QueryRow(`SELECT blocks FROM chunks WHERE cx = ? AND cz = ?`, pos.X, pos.Z).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load chunk %v: %w", pos, err)
	}
	raw, err := a.dec.DecodeAll(blob, make([]byte, 0, world.ChunkVolume))
	if err != nil {
		return nil, false, fmt.Errorf("decompress chunk %v: %w", pos, err)
	}
	c := world.NewChunk(pos.X, pos.Z)
	if err := c.SetBytes(raw); err != nil {
		return nil, false, fmt.Errorf("chunk %v: %w", pos, err)
	}
	return c, true, nil
}

// Store writes c, replacing any earlier copy.
func (a *SQLiteArchive) Store(c *world.Chunk) error {
	blob := a.enc.EncodeAll(c.Bytes(), nil)
	_, err := a.db.Exec(`INSERT INTO chunks(cx, cz, blocks, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(cx, cz) DO UPDATE SET blocks = excluded.blocks, updated_at = excluded.updated_at`,
		c.Pos.X, c.Pos.Z, blob, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store chunk %v: %w", c.Pos, err)
	}
	a.log.Debug("chunk archived", "chunk", c.Pos, "bytes", len(blob))
	return nil
}

// Stats summarizes the archive contents.
type Stats struct {
	Chunks int
	// Bytes is the total compressed payload size.
	Bytes int64
}

// Stats counts stored chunks and their payload size.
func (a *SQLiteArchive) Stats() (Stats, error) {
	var s Stats
	err := a.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(LENGTH(blocks)), 0) FROM chunks`).Scan(&s.Chunks, &s.Bytes)
	if err != nil {
		return Stats{}, fmt.Errorf("archive stats: %w", err)
	}
	return s, nil
}

// Positions lists every stored chunk ordered by x then z.
func (a *SQLiteArchive) Positions() ([]world.ChunkPos, error) {
	rows, err := a.db.Query(`SELECT cx, cz FROM chunks ORDER BY cx, cz`)
	if err != nil {
		return nil, fmt.Errorf("list archived chunks: %w", err)
	}
	defer rows.Close()
	var out []world.ChunkPos
	for rows.Next() {
		var p world.ChunkPos
		if err := rows.Scan(&p.X, &p.Z); err != nil {
			return nil, fmt.Errorf("list archived chunks: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Close releases the database and codecs. Later calls are no-ops.
func (a *SQLiteArchive) Close() error {
	a.closeOnce.Do(func() {
		a.dec.Close()
		a.closeErr = errors.Join(a.enc.Close(), a.db.Close())
	})
	return a.closeErr
}
