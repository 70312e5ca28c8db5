package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	var logLevel string
	rootCmd := &cobra.Command{
		Use:   "war",
		Short: "Two-player War card game over TCP",
		Long: `War pairs clients in arrival order, deals each pair a shuffled deck and
arbitrates the game round by round.

  server   accept clients and run games
  client   play a single game
  clients  play many games at once and count the successful ones`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		serverCmd(),
		clientCmd(),
		clientsCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var l pterm.LogLevel
	switch strings.ToLower(level) {
	case "debug":
		l = pterm.LogLevelDebug
	case "info":
		l = pterm.LogLevelInfo
	case "warn", "warning":
		l = pterm.LogLevelWarn
	case "error":
		l = pterm.LogLevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	handler := pterm.NewSlogHandler(pterm.DefaultLogger.WithLevel(l))
	return slog.New(handler), nil
}
