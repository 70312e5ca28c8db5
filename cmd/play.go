package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/war/client"
	"github.com/luca-patrignani/war/metrics"
	"github.com/luca-patrignani/war/network"
)

type clientFlags struct {
	timeout            time.Duration
	useTLS             bool
	caFile             string
	insecureSkipVerify bool
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Deadline for dialing and for each read and write (0 waits forever)")
	cmd.Flags().BoolVar(&f.useTLS, "tls", false, "Connect over TLS")
	cmd.Flags().StringVar(&f.caFile, "ca", "", "PEM certificate to trust, e.g. the one written by server --self-signed-tls")
	cmd.Flags().BoolVar(&f.insecureSkipVerify, "insecure-skip-verify", false, "Do not verify the server certificate")
}

func (f *clientFlags) driverFactory(addr string) (func() *client.Driver, error) {
	var tlsConfig *tls.Config
	if f.useTLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		if f.caFile != "" {
			certPEM, err := os.ReadFile(f.caFile)
			if err != nil {
				return nil, err
			}
			cfg, ok := network.ClientTLSConfig(certPEM)
			if !ok {
				return nil, fmt.Errorf("no certificate found in %s", f.caFile)
			}
			tlsConfig = cfg
		}
		tlsConfig.InsecureSkipVerify = f.insecureSkipVerify
	}
	logger := slog.Default()
	return func() *client.Driver {
		return client.NewDriver(addr,
			client.WithTimeout(f.timeout),
			client.WithTLSConfig(tlsConfig),
			client.WithLogger(logger),
		)
	}, nil
}

func clientCmd() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "client <host> <port>",
		Short: "Play a single game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := address(args[0], args[1])
			if err != nil {
				return err
			}
			newDriver, err := flags.driverFactory(addr)
			if err != nil {
				return err
			}
			spinner, _ := pterm.DefaultSpinner.Start("Waiting for an opponent ...")
			out, err := newDriver().Play(cmd.Context())
			if err != nil {
				spinner.Fail(fmt.Sprintf("Game failed (%s)", client.Classify(err)))
				return err
			}
			spinner.Success("Game over")
			printOutcome(out)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func clientsCmd() *cobra.Command {
	var (
		flags       clientFlags
		concurrency int
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "clients <host> <port> <count>",
		Short: "Play many games at once and count the successful ones",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := address(args[0], args[1])
			if err != nil {
				return err
			}
			n, err := parseCount(args[2])
			if err != nil {
				return err
			}
			newDriver, err := flags.driverFactory(addr)
			if err != nil {
				return err
			}
			spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Running %d clients, at most %d at a time ...", n, concurrency))
			start := time.Now()
			report, err := runClients(context.WithoutCancel(cmd.Context()), n, concurrency, newDriver, metricsFile)
			if report.Completed == n {
				spinner.Success()
			} else {
				spinner.Warning()
			}
			printReport(report, n, time.Since(start))
			if err != nil {
				return fmt.Errorf("writing metrics: %w", err)
			}
			if metricsFile != "" {
				pterm.Info.Printfln("Metrics written to %s", metricsFile)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&concurrency, "concurrency", client.DefaultConcurrency, "Maximum number of clients in flight")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write client run metrics in Prometheus text format to this file")
	return cmd
}

// runClients runs the batch with its own registry and, when path is set,
// writes the run counters there in the textfile collector format.
func runClients(ctx context.Context, n, concurrency int, newDriver func() *client.Driver, path string) (client.Report, error) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	report := client.RunMany(ctx, n, concurrency, newDriver, client.WithMetrics(m))
	if path == "" {
		return report, nil
	}
	return report, prometheus.WriteToTextfile(path, reg)
}
