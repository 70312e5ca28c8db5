package main

import (
	"strings"
	"testing"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/war/client"
	"github.com/luca-patrignani/war/domain/card"
	"github.com/luca-patrignani/war/protocol"
)

func TestFailureTable(t *testing.T) {
	report := client.Report{
		Failures: map[client.FailureKind]int{
			client.IO:              1,
			client.ConnectionReset: 3,
			client.ShortRead:       2,
		},
	}
	data := failureTable(report)
	expected := pterm.TableData{
		{"Failure", "Clients"},
		{"connection_reset", "3"},
		{"short_read", "2"},
		{"io", "1"},
	}
	if len(data) != len(expected) {
		t.Fatalf("expected %d rows, actual %d", len(expected), len(data))
	}
	for i := range expected {
		if strings.Join(data[i], ",") != strings.Join(expected[i], ",") {
			t.Fatalf("row %d: expected %v, actual %v", i, expected[i], data[i])
		}
	}
}

func TestOutcomeBox(t *testing.T) {
	pterm.DisableColor()
	defer pterm.EnableColor()

	out := client.Outcome{
		Hand:    []card.Card{card.Ace, card.Two},
		Results: []protocol.Result{protocol.Win, protocol.Lose},
		Verdict: client.Drew,
	}
	box := outcomeBox(out)
	for _, want := range []string{"DRAW", "Score: 0", "A", "2"} {
		if !strings.Contains(box, want) {
			t.Fatalf("expected %q in\n%s", want, box)
		}
	}
}
