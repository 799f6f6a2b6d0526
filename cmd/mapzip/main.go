package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/wolfeidau/mapzip/internal/commands"
	"github.com/wolfeidau/mapzip/internal/trace"
)

var (
	version = "dev"

	cli struct {
		Create  commands.CreateCmd  `cmd:"" help:"create a zip archive from local files."`
		Extract commands.ExtractCmd `cmd:"" help:"extract a zip archive in parallel."`
		Ls      commands.LsCmd      `cmd:"" help:"list the entries of a zip archive."`
		Cat     commands.CatCmd     `cmd:"" help:"print one entry of a zip archive."`
		Debug   bool                `help:"Enable debug mode."`
		Version kong.VersionFlag
	}
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Caller().Logger()

	ctx := context.Background()

	tp, err := trace.NewProvider(ctx, "github.com/wolfeidau/mapzip", version)
	if err != nil {
		log.Fatal().Msgf("failed to create trace provider: %v", err)
	}
	defer func() {
		_ = tp.Shutdown(ctx)
	}()

	var span oteltrace.Span
	ctx, span = trace.Start(ctx, "mapzip")
	defer span.End()

	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	enableDebug(cli.Debug) // enable debug logging
	err = cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	span.RecordError(err)
	cmd.FatalIfErrorf(err)
}

func enableDebug(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
