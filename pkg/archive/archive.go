// Package archive reads and writes ZIP archives in bulk.
//
// Reading is parallel: entries are decoded by a pool of workers sharing one
// read-only memory-mapped view of the archive, each worker holding its own
// cheaply constructed central directory view so the decode path needs no
// cross-goroutine synchronization. Writing is sequential, streaming entries
// into a single new output file.
//
// Failure semantics are partial: the first failing entry aborts a call and is
// the single reported error, while output produced by entries that already
// completed (files on disk, buffered content) is left in place. The source
// archive must not be mutated or truncated while an operation is in flight.
// Entry names are joined to the extraction root exactly as stored, with no
// traversal sanitization; callers extracting untrusted archives must vet
// entry names themselves.
package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// ChecksumSHA256 wraps an io.Writer and records the sha256 of every byte
// written through it.
type ChecksumSHA256 struct {
	f      io.Writer
	sha256 hash.Hash
}

func NewChecksumSHA256(f io.Writer) *ChecksumSHA256 {
	return &ChecksumSHA256{
		f:      f,
		sha256: sha256.New(),
	}
}

func (c *ChecksumSHA256) Write(p []byte) (n int, err error) {
	n, err = c.f.Write(p)
	if err != nil {
		return n, err
	}
	c.sha256.Write(p)
	return n, nil
}

func (c *ChecksumSHA256) Sum() string {
	return hex.EncodeToString(c.sha256.Sum(nil))
}
