// Package zipview parses ZIP central directories over a shared read-only byte
// region. A View holds only directory metadata, never payload bytes, so each
// parallel worker constructs its own View over the same region and decodes
// entries without any cross-goroutine synchronization.
package zipview

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/wolfeidau/mapzip/internal/zipcrypto"
)

const (
	// FlagEncrypted is bit 0 of the entry flags, set when the payload is
	// protected by the legacy stream cipher.
	FlagEncrypted uint16 = 0x1

	// MethodXZ is the XZ compression method id from the ZIP appnote.
	MethodXZ uint16 = 95
)

var (
	ErrCorruptArchive    = errors.New("zipview: invalid or truncated archive")
	ErrInvalidEntryIndex = errors.New("zipview: entry index out of range")
	ErrEntryNotFound     = errors.New("zipview: entry not found")
	ErrMissingPassword   = errors.New("zipview: entry is encrypted and no password was provided")
	ErrUnsupportedMethod = errors.New("zipview: unsupported compression method")
)

// View is a parsed central directory borrowing an archive region. The region
// must remain open for as long as the View and any stream opened from it are
// in use.
type View struct {
	zr *zip.Reader
}

// New parses the end-of-central-directory record and central directory found
// in src. Construction touches only directory metadata, which keeps it cheap
// enough to repeat per worker.
func New(src io.ReaderAt, size int64) (*View, error) {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	zr.RegisterDecompressor(MethodXZ, xzDecompressor)

	return &View{zr: zr}, nil
}

// Count returns the number of entries in the archive.
func (v *View) Count() int {
	return len(v.zr.File)
}

// Files returns every entry in central directory order.
func (v *View) Files() []*zip.File {
	return v.zr.File
}

// Entry returns the entry at ordinal i.
func (v *View) Entry(i int) (*zip.File, error) {
	if i < 0 || i >= len(v.zr.File) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidEntryIndex, i, len(v.zr.File))
	}
	return v.zr.File[i], nil
}

// EntryByName returns the first entry whose stored name matches name exactly.
func (v *View) EntryByName(name string) (*zip.File, error) {
	for _, f := range v.zr.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}

// Open returns the decoded payload stream for f. Encrypted entries require a
// password; the decrypted stream is decompressed without extra checksum
// validation, so a falsely accepted password surfaces as garbage output or a
// codec error rather than a password failure.
func (v *View) Open(f *zip.File, password string) (io.ReadCloser, error) {
	if f.Flags&FlagEncrypted == 0 {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
		}
		return rc, nil
	}

	if password == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingPassword, f.Name)
	}

	raw, err := f.OpenRaw()
	if err != nil {
		return nil, fmt.Errorf("failed to open raw entry %s: %w", f.Name, err)
	}

	dec, err := zipcrypto.NewReader(raw, []byte(password), f.Flags, f.CRC32, f.ModifiedTime)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", f.Name, err)
	}

	switch f.Method {
	case zip.Store:
		return io.NopCloser(dec), nil
	case zip.Deflate:
		return flate.NewReader(dec), nil
	case zstd.ZipMethodWinZip:
		zr, err := zstd.NewReader(dec)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder for %s: %w", f.Name, err)
		}
		return zr.IOReadCloser(), nil
	case MethodXZ:
		xr, err := xz.NewReader(dec)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader for %s: %w", f.Name, err)
		}
		return io.NopCloser(xr), nil
	default:
		return nil, fmt.Errorf("%w: %s uses method %d", ErrUnsupportedMethod, f.Name, f.Method)
	}
}

// xzDecompressor adapts xz.NewReader to the codec's Decompressor shape, which
// has no error return. Construction failures are deferred to the first Read.
func xzDecompressor(r io.Reader) io.ReadCloser {
	xr, err := xz.NewReader(r)
	if err != nil {
		return io.NopCloser(&errReader{err: err})
	}
	return io.NopCloser(xr)
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}
