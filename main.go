package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

const usage = `usage:
  bgremover remove -in <path|url> [-out file.png|file.webp] [-aggr 0..100] [-feather N] [-morph N]
                   [-format png|webp] [-mask mask.png] [-trim] [-square] [-premultiply] [-frames N] [-remote URL]
  bgremover serve  [-config config.yaml] [-addr :8080] [-log-level info]
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupGracefulShutdown(cancel)

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		log.Fatal().Err(err).Msg("bgremover failed")
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing sub-command: %w", errUsage)
	}

	switch args[0] {
	case "remove":
		return runRemove(ctx, args[1:], stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	default:
		return fmt.Errorf("unknown sub-command %q: %w", args[0], errUsage)
	}
}

// setupGracefulShutdown 收到中断信号时取消 ctx，由各子命令自行收尾
func setupGracefulShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("signal received, shutting down")
		cancel()
	}()
}
