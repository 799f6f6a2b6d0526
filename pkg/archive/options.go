package archive

import (
	"runtime"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/wolfeidau/mapzip/internal/zipview"
)

// Compression methods accepted by WithMethod.
const (
	MethodStore   = zip.Store
	MethodDeflate = zip.Deflate
	MethodZstd    = uint16(zstd.ZipMethodWinZip)
	MethodXZ      = zipview.MethodXZ
)

type options struct {
	password    string
	concurrency int
	method      uint16
	level       int
	modified    time.Time
}

// Option configures the archive operations.
type Option func(*options)

// WithPassword sets the password applied to every encrypted entry when
// reading, and enables legacy ZipCrypto encryption of every entry when
// building. The scheme is the original ZIP stream cipher: weak, and with a
// probabilistic password check on the read side.
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

// WithConcurrency caps the number of parallel workers used by the reading
// operations. Values below one leave the default of runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMethod selects the compression method used when building an archive.
func WithMethod(method uint16) Option {
	return func(o *options) {
		o.method = method
	}
}

// WithLevel sets the compression level passed through to the codec for the
// deflate and zstd methods. Levels are codec specific and not validated here.
func WithLevel(level int) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithModifiedEpoch pins every written entry's modification time, which makes
// archive output reproducible for identical input trees.
func WithModifiedEpoch(modified time.Time) Option {
	return func(o *options) {
		o.modified = modified
	}
}

func newOptions(opts []Option) options {
	o := options{
		concurrency: runtime.GOMAXPROCS(0),
		method:      MethodDeflate,
		level:       flate.DefaultCompression,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
