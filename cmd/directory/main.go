package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/clientes/internal/app"
)

func main() {
	_ = godotenv.Load()

	var args app.Args
	arg.MustParse(&args)

	zerolog.TimeFieldFormat = time.RFC3339
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if lvl, err := args.Level(); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	application, err := app.NewApp(args)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create app")
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- application.Console(os.Stdin, os.Stdout).Run(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			zlog.Error().Err(err).Msg("console stopped")
		}
	case <-ctx.Done():
		zlog.Info().Msg("shutting down")
	}
}
