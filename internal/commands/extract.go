package commands

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfeidau/mapzip/internal/trace"
	"github.com/wolfeidau/mapzip/pkg/archive"
)

type ExtractCmd struct {
	Archive     string `arg:"" help:"path of the zip file to extract."`
	Output      string `help:"folder to extract entries into." default:"."`
	Password    string `help:"password for legacy zip encryption." env:"MAPZIP_PASSWORD"`
	Concurrency int    `help:"number of workers decoding entries, defaults to GOMAXPROCS."`
}

func (c *ExtractCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, span := trace.Start(ctx, "ExtractCmd.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("archive", c.Archive),
		attribute.String("output", c.Output),
		attribute.Int("concurrency", c.Concurrency),
	)

	archivePath, err := archive.ResolveHomeDir(c.Archive)
	if err != nil {
		return fmt.Errorf("failed to resolve home dir: %w", err)
	}

	output, err := archive.ResolveHomeDir(c.Output)
	if err != nil {
		return fmt.Errorf("failed to resolve home dir: %w", err)
	}

	var opts []archive.Option
	if c.Password != "" {
		opts = append(opts, archive.WithPassword(c.Password))
	}
	if c.Concurrency > 0 {
		opts = append(opts, archive.WithConcurrency(c.Concurrency))
	}

	if err := archive.Extract(ctx, archivePath, output, opts...); err != nil {
		return fmt.Errorf("failed to extract archive: %w", err)
	}

	return nil
}
