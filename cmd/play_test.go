package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luca-patrignani/war/client"
)

func hangupListener(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	t.Cleanup(func() { l.Close() })
	return l.Addr().String()
}

func TestRunClientsWritesMetrics(t *testing.T) {
	addr := hangupListener(t)
	path := filepath.Join(t.TempDir(), "war.prom")
	report, err := runClients(context.Background(), 4, 2, func() *client.Driver {
		return client.NewDriver(addr)
	}, path)
	if err != nil {
		t.Fatal(err)
	}
	if report.Completed != 0 || len(report.Results) != 4 {
		t.Fatalf("expected 4 failed runs, actual %d completed of %d", report.Completed, len(report.Results))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(b)
	if !strings.Contains(text, "war_client_runs_total{outcome=") {
		t.Fatalf("expected client run counters, actual:\n%s", text)
	}
	if strings.Contains(text, `outcome="completed"`) {
		t.Fatalf("no run completed against a hanging up server, actual:\n%s", text)
	}
}

func TestRunClientsWithoutMetricsFile(t *testing.T) {
	addr := hangupListener(t)
	report, err := runClients(context.Background(), 2, 1, func() *client.Driver {
		return client.NewDriver(addr)
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if report.Launched != 2 {
		t.Fatalf("expected 2 launched, actual %d", report.Launched)
	}
}
