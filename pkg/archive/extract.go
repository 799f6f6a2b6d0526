package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/wolfeidau/mapzip/internal/mapped"
	"github.com/wolfeidau/mapzip/internal/trace"
	"github.com/wolfeidau/mapzip/internal/zipview"
)

// Extract decodes every entry of the archive at zipPath into extractPath,
// recreating the stored directory structure. Entries are decoded in parallel
// by workers sharing one memory-mapped view of the archive, each worker
// parsing its own central directory view.
//
// The first failing entry aborts the call and is the single reported error;
// files extracted by entries that already completed stay on disk. Entry
// names are joined to extractPath exactly as stored, with no traversal
// sanitization.
func Extract(ctx context.Context, zipPath, extractPath string, opts ...Option) error {
	ctx, span := trace.Start(ctx, "Extract")
	defer span.End()

	o := newOptions(opts)

	region, err := mapped.Open(zipPath)
	if err != nil {
		return fmt.Errorf("failed to map archive: %w", err)
	}
	defer region.Close()

	root, err := zipview.New(region, region.Len())
	if err != nil {
		return err
	}

	count := root.Count()
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i := 0; i < count; i++ {
		i := i // per-iteration copy; required for go directives below 1.22
		g.Go(func() error {
			return extractEntry(ctx, region, i, extractPath, o)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	span.SetAttributes(
		attribute.String("path", region.Path()),
		attribute.Int64("size", region.Len()),
		attribute.Int("entries", count),
	)

	log.Info().
		Str("archive", region.Path()).
		Str("path", extractPath).
		Int("entries", count).
		Dur("duration_ms", time.Since(start)).
		Msg("archive extracted")

	return nil
}

func extractEntry(ctx context.Context, region *mapped.Region, index int, extractPath string, o options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	view, err := zipview.New(region, region.Len())
	if err != nil {
		return err
	}

	f, err := view.Entry(index)
	if err != nil {
		return err
	}

	if f.Name == "" {
		return fmt.Errorf("%w: entry %d has an empty name", ErrInvalidEntryPath, index)
	}

	dest := filepath.Join(extractPath, filepath.FromSlash(f.Name))

	if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}

	// parents are created lazily; concurrent MkdirAll on a shared parent is
	// safe and idempotent
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	rc, err := view.Open(f, o.password)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(out, rc)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}

	log.Debug().Str("name", f.Name).Int64("size", n).Msg("entry extracted")

	return nil
}
