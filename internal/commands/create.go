package commands

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfeidau/mapzip/internal/trace"
	"github.com/wolfeidau/mapzip/pkg/archive"
)

type CreateCmd struct {
	Output   string   `arg:"" help:"path of the zip file to create."`
	Folder   string   `help:"archive the contents of this folder." xor:"source" required:""`
	Paths    []string `help:"archive these files and directories under their base names." xor:"source" required:""`
	Password string   `help:"password for legacy zip encryption." env:"MAPZIP_PASSWORD"`
	Method   string   `help:"compression method for entry payloads." enum:"store,deflate,zstd,xz" default:"deflate"`
	Level    int      `help:"compression level passed to the method." default:"-1"`
}

func (c *CreateCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, span := trace.Start(ctx, "CreateCmd.Run")
	defer span.End()

	span.SetAttributes(
		attribute.String("output", c.Output),
		attribute.String("method", c.Method),
		attribute.Int("level", c.Level),
	)

	method, err := methodFromName(c.Method)
	if err != nil {
		return err
	}

	opts := []archive.Option{
		archive.WithMethod(method),
		archive.WithLevel(c.Level),
	}
	if c.Password != "" {
		opts = append(opts, archive.WithPassword(c.Password))
	}

	output, err := archive.ResolveHomeDir(c.Output)
	if err != nil {
		return fmt.Errorf("failed to resolve home dir: %w", err)
	}

	if c.Folder != "" {
		folder, err := archive.ResolveHomeDir(c.Folder)
		if err != nil {
			return fmt.Errorf("failed to resolve home dir: %w", err)
		}

		return archive.CreateFromFolder(ctx, output, folder, opts...)
	}

	paths := make([]string, 0, len(c.Paths))
	for _, p := range c.Paths {
		p, err := archive.ResolveHomeDir(p)
		if err != nil {
			return fmt.Errorf("failed to resolve home dir: %w", err)
		}
		paths = append(paths, p)
	}

	return archive.CreateFromPaths(ctx, output, paths, opts...)
}
