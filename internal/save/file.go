package save

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Ext is the file extension of save files.
const Ext = ".dat"

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// WriteFile writes rec to path atomically: the record goes to a temporary file
// in the same directory which then replaces path. With compress set the
// record is zstd-compressed.
func WriteFile(path string, rec Record, compress bool) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create save directory %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriterSize(f, 256*1024)
	var out io.Writer = bw
	var enc *zstd.Encoder
	if compress {
		enc, err = zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}
		out = enc
	}
	if err := Encode(out, rec); err != nil {
		return err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("finish zstd stream: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync save: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close save: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename save: %w", err)
	}
	return nil
}

// ReadFile decodes the save at path, detecting zstd compression from the
// stream magic.
func ReadFile(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open save: %w", err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 256*1024)
	var in io.Reader = br
	if head, _ := br.Peek(len(zstdMagic)); bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return Record{}, fmt.Errorf("create zstd reader: %w", err)
		}
		defer dec.Close()
		in = dec
	}
	rec, err := Decode(in)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// Info describes a save file on disk.
type Info struct {
	Name     string
	Path     string
	Size     int64
	Modified time.Time
}

// List returns the saves in dir, newest first. A missing directory holds no saves.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			// Removed while listing.
			continue
		}
		out = append(out, Info{
			Name:     strings.TrimSuffix(e.Name(), Ext),
			Path:     filepath.Join(dir, e.Name()),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}
	slices.SortFunc(out, func(a, b Info) int {
		if c := b.Modified.Compare(a.Modified); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Delete removes a save file.
func Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

// PathFor returns the file of the named save in dir.
func PathFor(dir, name string) string {
	return filepath.Join(dir, name+Ext)
}
