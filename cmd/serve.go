package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/luca-patrignani/war/matchmaking"
	"github.com/luca-patrignani/war/metrics"
	"github.com/luca-patrignani/war/network"
	"github.com/luca-patrignani/war/server"
)

const defaultMetricsPort = 9090

func serverCmd() *cobra.Command {
	var (
		readTimeout   time.Duration
		requeue       bool
		metricsAddr   string
		selfSignedTLS bool
		certOut       string
		grace         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "server <host> <port>",
		Short: "Accept clients and run games until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := address(args[0], args[1])
			if err != nil {
				return err
			}
			logger := slog.Default()

			l, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			if selfSignedTLS {
				cert, certPEM, err := network.GenerateSelfSignedCert(l.Addr().String())
				if err != nil {
					l.Close()
					return err
				}
				if err := os.WriteFile(certOut, certPEM, 0o644); err != nil {
					l.Close()
					return err
				}
				logger.Info("serving TLS with a self-signed certificate", "certificate", certOut)
				l = network.NewTLSListener(l, cert)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(metrics.WithRegistry(reg))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				host, port, err := splitHostPort(metricsAddr, defaultMetricsPort)
				if err != nil {
					l.Close()
					return err
				}
				httpServer := &http.Server{
					Addr:              net.JoinHostPort(host, port),
					Handler:           metrics.Router(reg),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics server failed", "error", err)
					}
				}()
				defer httpServer.Close()
				logger.Info("metrics available", "address", httpServer.Addr)
			}

			policy := matchmaking.DropPair
			if requeue {
				policy = matchmaking.RequeueValid
			}
			srv := server.New(l,
				server.WithReadTimeout(readTimeout),
				server.WithPolicy(policy),
				server.WithLogger(logger),
				server.WithMetrics(m),
			)
			printServerInfo(srv.Addr().String(), policy, selfSignedTLS)

			if err := srv.Serve(ctx); err != nil {
				return err
			}
			spinner, _ := pterm.DefaultSpinner.Start("Waiting for running games ...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				spinner.Warning("Running games were killed")
				return nil
			}
			spinner.Success("Server stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&readTimeout, "read-timeout", 0, "Deadline for each read and write on player connections (0 waits forever)")
	cmd.Flags().BoolVar(&requeue, "requeue", false, "Put the honest peer of a rejected handshake back in the queue instead of dropping it")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&selfSignedTLS, "self-signed-tls", false, "Serve TLS with a freshly generated self-signed certificate")
	cmd.Flags().StringVar(&certOut, "cert-out", "war-cert.pem", "Where to write the self-signed certificate")
	cmd.Flags().DurationVar(&grace, "shutdown-grace", 10*time.Second, "How long running games may continue after an interrupt")

	return cmd
}
