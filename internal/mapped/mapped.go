// Package mapped exposes a whole archive file as a shared read-only
// memory-mapped byte region.
package mapped

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/exp/mmap"
)

// ErrMap indicates the file was opened but could not be memory-mapped.
var ErrMap = errors.New("mapped: unable to map file")

// Region is an immutable view over the full content of one file. It is safe
// for concurrent ReadAt calls from any number of goroutines and must outlive
// every reader derived from it. Mutating or truncating the underlying file
// while the region is open is undefined behavior; callers own that guarantee.
type Region struct {
	r    *mmap.ReaderAt
	path string
}

// Open maps the entire file at path. Stat or open failures are returned as
// wrapped I/O errors; mapping failures, including a zero-length file which
// cannot be mapped, are reported via ErrMap.
func Open(path string) (*Region, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fi.Size() == 0 {
		return nil, fmt.Errorf("%w: %s: file is empty", ErrMap, path)
	}

	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMap, path, err)
	}

	return &Region{r: r, path: path}, nil
}

func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	return r.r.ReadAt(p, off)
}

// Len returns the size of the mapped file in bytes.
func (r *Region) Len() int64 {
	return int64(r.r.Len())
}

// Path returns the file path the region was opened from.
func (r *Region) Path() string {
	return r.path
}

func (r *Region) Close() error {
	return r.r.Close()
}
