package archive

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/slices"

	"github.com/wolfeidau/mapzip/internal/mapped"
	"github.com/wolfeidau/mapzip/internal/trace"
	"github.com/wolfeidau/mapzip/internal/zipview"
)

// EntryInfo describes one archive entry.
type EntryInfo struct {
	Name             string
	UncompressedSize uint64
	CompressedSize   uint64
	Method           uint16
	Encrypted        bool
	Modified         time.Time
}

// List returns a descriptor for every entry in the archive at zipPath,
// sorted by name.
func List(ctx context.Context, zipPath string) ([]EntryInfo, error) {
	_, span := trace.Start(ctx, "List")
	defer span.End()

	region, err := mapped.Open(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to map archive: %w", err)
	}
	defer region.Close()

	view, err := zipview.New(region, region.Len())
	if err != nil {
		return nil, err
	}

	entries := make([]EntryInfo, 0, view.Count())
	for _, f := range view.Files() {
		entries = append(entries, EntryInfo{
			Name:             f.Name,
			UncompressedSize: f.UncompressedSize64,
			CompressedSize:   f.CompressedSize64,
			Method:           f.Method,
			Encrypted:        f.Flags&zipview.FlagEncrypted != 0,
			Modified:         f.Modified,
		})
	}

	slices.SortFunc(entries, func(a, b EntryInfo) int {
		return cmp.Compare(a.Name, b.Name)
	})

	span.SetAttributes(attribute.Int("entries", len(entries)))

	return entries, nil
}

// ReadEntry decodes the single entry stored under name from the archive at
// zipPath.
func ReadEntry(ctx context.Context, zipPath, name string, opts ...Option) ([]byte, error) {
	_, span := trace.Start(ctx, "ReadEntry")
	defer span.End()

	o := newOptions(opts)

	region, err := mapped.Open(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to map archive: %w", err)
	}
	defer region.Close()

	view, err := zipview.New(region, region.Len())
	if err != nil {
		return nil, err
	}

	f, err := view.EntryByName(name)
	if err != nil {
		return nil, err
	}

	rc, err := view.Open(f, o.password)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := bytes.NewBuffer(make([]byte, 0, bufferCap(f.UncompressedSize64)))
	if _, err := io.Copy(buf, rc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}

	span.SetAttributes(
		attribute.String("name", name),
		attribute.Int("size", buf.Len()),
	)

	return buf.Bytes(), nil
}
