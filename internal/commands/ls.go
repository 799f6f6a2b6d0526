package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfeidau/mapzip/internal/trace"
	"github.com/wolfeidau/mapzip/pkg/archive"
)

type LsCmd struct {
	Archive string `arg:"" help:"path of the zip file to list."`
	Long    bool   `help:"include size, method, modification time and encryption." short:"l"`
}

func (c *LsCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, span := trace.Start(ctx, "LsCmd.Run")
	defer span.End()

	span.SetAttributes(attribute.String("archive", c.Archive))

	archivePath, err := archive.ResolveHomeDir(c.Archive)
	if err != nil {
		return fmt.Errorf("failed to resolve home dir: %w", err)
	}

	entries, err := archive.List(ctx, archivePath)
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}

	return renderEntries(os.Stdout, entries, c.Long)
}

func renderEntries(w io.Writer, entries []archive.EntryInfo, long bool) error {
	if !long {
		for _, e := range entries {
			fmt.Fprintln(w, e.Name)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	for _, e := range entries {
		enc := "-"
		if e.Encrypted {
			enc = "enc"
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.UncompressedSize, methodName(e.Method), enc,
			e.Modified.UTC().Format(time.RFC3339), e.Name)
	}

	return tw.Flush()
}
