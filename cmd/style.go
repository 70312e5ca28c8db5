package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/luca-patrignani/war/client"
	"github.com/luca-patrignani/war/matchmaking"
	"github.com/luca-patrignani/war/protocol"
)

func printServerInfo(addr string, policy matchmaking.Policy, useTLS bool) {
	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("W", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("ar", pterm.FgDarkGray.ToStyle()),
	).Render()
	pterm.Info.Printfln("Listening on %s (handshake policy: %s, tls: %t)", addr, policy, useTLS)
}

func printOutcome(out client.Outcome) {
	pterm.Println(outcomeBox(out))
}

func outcomeBox(out client.Outcome) string {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	var rounds strings.Builder
	for i, c := range out.Hand {
		if i > 0 {
			rounds.WriteString(" ")
		}
		rounds.WriteString(c.String())
		if i < len(out.Results) {
			rounds.WriteString(resultMark(out.Results[i]))
		}
		if i%13 == 12 {
			rounds.WriteString("\n")
		}
	}
	var title string
	switch out.Verdict {
	case client.Won:
		title = pterm.LightGreen("|YOU WON|")
	case client.Lost:
		title = pterm.LightRed("|YOU LOST|")
	default:
		title = pterm.LightYellow("|DRAW|")
	}
	body := pterm.Sprintfln("%sScore: %d", rounds.String(), out.Score)
	if out.OpeningHand != "" {
		body += pterm.Sprintfln("Opening seven: %s", pterm.LightCyan(out.OpeningHand))
	}
	return pbox.WithTitle(title).WithTitleTopCenter().Sprint(body)
}

func resultMark(r protocol.Result) string {
	switch r {
	case protocol.Win:
		return pterm.Green("+")
	case protocol.Lose:
		return pterm.Red("-")
	default:
		return pterm.Gray("=")
	}
}

func printReport(report client.Report, n int, elapsed time.Duration) {
	if report.Completed == n {
		pterm.Success.Printfln("%d/%d clients completed in %s", report.Completed, n, elapsed.Round(time.Millisecond))
	} else {
		pterm.Warning.Printfln("%d/%d clients completed in %s", report.Completed, n, elapsed.Round(time.Millisecond))
	}
	if len(report.Failures) == 0 {
		return
	}
	pterm.DefaultTable.WithHasHeader().WithData(failureTable(report)).Render()
}

func failureTable(report client.Report) pterm.TableData {
	kinds := make([]client.FailureKind, 0, len(report.Failures))
	for k := range report.Failures {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	data := pterm.TableData{{"Failure", "Clients"}}
	for _, k := range kinds {
		data = append(data, []string{k.String(), fmt.Sprint(report.Failures[k])})
	}
	return data
}
