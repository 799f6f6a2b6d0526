package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/wolfeidau/mapzip/internal/mapped"
	"github.com/wolfeidau/mapzip/internal/trace"
	"github.com/wolfeidau/mapzip/internal/zipview"
)

// ReadIntoBuffers decodes every entry of the archive at zipPath into memory,
// returning a map from entry name to its complete content. Decoding fans out
// across workers sharing one memory-mapped view of the archive; the map
// insert is the only synchronized step. Directory entries are skipped and a
// duplicate entry name keeps the last write.
//
// On failure exactly one error is returned and no partial map accompanies
// it.
func ReadIntoBuffers(ctx context.Context, zipPath string, opts ...Option) (map[string][]byte, error) {
	ctx, span := trace.Start(ctx, "ReadIntoBuffers")
	defer span.End()

	o := newOptions(opts)

	region, err := mapped.Open(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to map archive: %w", err)
	}
	defer region.Close()

	root, err := zipview.New(region, region.Len())
	if err != nil {
		return nil, err
	}

	count := root.Count()
	start := time.Now()

	var (
		mu  sync.Mutex
		out = make(map[string][]byte, count)
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i := 0; i < count; i++ {
		i := i // per-iteration copy; required for go directives below 1.22
		g.Go(func() error {
			name, buf, err := bufferEntry(ctx, region, i, o)
			if err != nil {
				return err
			}
			if buf == nil {
				return nil
			}

			mu.Lock()
			out[name] = buf
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	totalBytes := int64(0)
	for _, buf := range out {
		totalBytes += int64(len(buf))
	}

	span.SetAttributes(
		attribute.String("path", region.Path()),
		attribute.Int("entries", len(out)),
		attribute.Int64("bytes", totalBytes),
	)

	log.Info().
		Str("path", region.Path()).
		Int("entries", len(out)).
		Int64("bytes", totalBytes).
		Dur("duration_ms", time.Since(start)).
		Msg("archive buffered")

	return out, nil
}

// bufferEntry decodes one entry into an owned buffer. Directory entries are
// reported with a nil buffer.
func bufferEntry(ctx context.Context, region *mapped.Region, index int, o options) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	view, err := zipview.New(region, region.Len())
	if err != nil {
		return "", nil, err
	}

	f, err := view.Entry(index)
	if err != nil {
		return "", nil, err
	}

	if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
		return "", nil, nil
	}

	rc, err := view.Open(f, o.password)
	if err != nil {
		return "", nil, err
	}
	defer rc.Close()

	buf := bytes.NewBuffer(make([]byte, 0, bufferCap(f.UncompressedSize64)))
	if _, err := io.Copy(buf, rc); err != nil {
		return "", nil, fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}

	return f.Name, buf.Bytes(), nil
}

// bufferCap bounds preallocation from the declared uncompressed size, which
// is attacker controlled in a hostile archive.
func bufferCap(size uint64) int {
	const maxPrealloc = 1 << 30
	if size > maxPrealloc {
		return maxPrealloc
	}
	return int(size)
}
