package commands

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfeidau/mapzip/internal/trace"
	"github.com/wolfeidau/mapzip/pkg/archive"
)

type CatCmd struct {
	Archive  string `arg:"" help:"path of the zip file to read."`
	Name     string `arg:"" help:"name of the entry to print."`
	Password string `help:"password for legacy zip encryption." env:"MAPZIP_PASSWORD"`
}

func (c *CatCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, span := trace.Start(ctx, "CatCmd.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("archive", c.Archive),
		attribute.String("name", c.Name),
	)

	archivePath, err := archive.ResolveHomeDir(c.Archive)
	if err != nil {
		return fmt.Errorf("failed to resolve home dir: %w", err)
	}

	var opts []archive.Option
	if c.Password != "" {
		opts = append(opts, archive.WithPassword(c.Password))
	}

	data, err := archive.ReadEntry(ctx, archivePath, c.Name, opts...)
	if err != nil {
		return fmt.Errorf("failed to read entry: %w", err)
	}

	if _, err := os.Stdout.Write(data); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}

	return nil
}
