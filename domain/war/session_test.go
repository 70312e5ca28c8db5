package war

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/luca-patrignani/war/domain/card"
	"github.com/luca-patrignani/war/network"
	"github.com/luca-patrignani/war/protocol"
)

// fixedHands deals clubs and diamonds to player 1, hearts and spades to
// player 2.
func fixedHands() ([]card.Card, []card.Card) {
	h1 := make([]card.Card, card.HandSize)
	h2 := make([]card.Card, card.HandSize)
	for i := range card.HandSize {
		h1[i] = card.Card(i)
		h2[i] = card.Card(card.HandSize + i)
	}
	return h1, h2
}

func reversed(cards []card.Card) []card.Card {
	out := make([]card.Card, len(cards))
	for i, c := range cards {
		out[len(cards)-1-i] = c
	}
	return out
}

// newPair returns the server side of a session and the two client conns.
func newPair(t *testing.T) ([2]*network.Channel, [2]net.Conn) {
	t.Helper()
	s1, c1 := net.Pipe()
	s2, c2 := net.Pipe()
	t.Cleanup(func() {
		c1.Close()
		c2.Close()
	})
	return [2]*network.Channel{network.NewChannel(s1), network.NewChannel(s2)}, [2]net.Conn{c1, c2}
}

// play sends each card in order and collects the results.
func play(conn net.Conn, cards []card.Card) ([]protocol.Result, error) {
	ch := network.NewChannel(conn)
	results := []protocol.Result{}
	for _, c := range cards {
		if err := ch.Write(protocol.PlayCardMessage(c).Encode()); err != nil {
			return results, err
		}
		b, err := ch.ReadExact(protocol.MessageSize)
		if err != nil {
			return results, err
		}
		r, err := protocol.DecodeResult(b)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

type playerRun struct {
	results []protocol.Result
	err     error
}

func runPlayers(conns [2]net.Conn, plays [2][]card.Card) [2]playerRun {
	var out [2]playerRun
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i].results, out[i].err = play(conns[i], plays[i])
		}()
	}
	wg.Wait()
	return out
}

func TestSessionHonestGame(t *testing.T) {
	h1, h2 := fixedHands()
	server, clients := newPair(t)
	var rounds []Round
	s, err := NewSession("honest", server[0], server[1], h1, h2,
		WithRoundObserver(func(r Round) { rounds = append(rounds, r) }))
	if err != nil {
		t.Fatal(err)
	}

	type outcome struct {
		summary Summary
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		summary, err := s.Run(context.Background())
		done <- outcome{summary, err}
	}()

	p2 := reversed(h2)
	runs := runPlayers(clients, [2][]card.Card{h1, p2})
	for i, r := range runs {
		if r.err != nil {
			t.Fatalf("player %d: %v", i+1, r.err)
		}
		if len(r.results) != card.HandSize {
			t.Fatalf("player %d: expected %d results, got %d", i+1, card.HandSize, len(r.results))
		}
	}
	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
	if res.summary.Rounds != card.HandSize {
		t.Fatalf("expected %d rounds, got %d", card.HandSize, res.summary.Rounds)
	}
	if res.summary.Wins[0]+res.summary.Wins[1]+res.summary.Draws != card.HandSize {
		t.Fatalf("summary does not add up: %+v", res.summary)
	}
	if s.State() != Done {
		t.Fatalf("expected done, got %v", s.State())
	}
	if !s.Hand(1).Empty() || !s.Hand(2).Empty() {
		t.Fatal("expected both hands empty")
	}

	for i := range card.HandSize {
		a, b := runs[0].results[i], runs[1].results[i]
		ok := (a == protocol.Win && b == protocol.Lose) ||
			(a == protocol.Lose && b == protocol.Win) ||
			(a == protocol.Draw && b == protocol.Draw)
		if !ok {
			t.Fatalf("round %d: inconsistent results %v / %v", i+1, a, b)
		}
		want := protocol.Draw
		switch card.Compare(h1[i], p2[i]) {
		case card.Greater:
			want = protocol.Win
		case card.Less:
			want = protocol.Lose
		}
		if a != want {
			t.Fatalf("round %d: %v vs %v, expected %v, got %v", i+1, h1[i], p2[i], want, a)
		}
		if rounds[i].Number != i+1 || rounds[i].Results[0] != a {
			t.Fatalf("observer saw %+v for round %d", rounds[i], i+1)
		}
	}
}

func TestSessionAllDraws(t *testing.T) {
	h1, h2 := fixedHands()
	server, clients := newPair(t)
	s, err := NewSession("draws", server[0], server[1], h1, h2)
	if err != nil {
		t.Fatal(err)
	}
	errChan := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		errChan <- err
	}()
	runs := runPlayers(clients, [2][]card.Card{h1, h2})
	for _, r := range runs {
		for _, res := range r.results {
			if res != protocol.Draw {
				t.Fatalf("expected only draws, got %v", res)
			}
		}
	}
	if err := <-errChan; err != nil {
		t.Fatal(err)
	}
}

// faultCase plays the given first moves and expects the session to die
// without sending any result.
func faultCase(t *testing.T, first [2][]byte) (error, [2]error) {
	t.Helper()
	h1, h2 := fixedHands()
	server, clients := newPair(t)
	s, err := NewSession("fault", server[0], server[1], h1, h2)
	if err != nil {
		t.Fatal(err)
	}
	errChan := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		errChan <- err
	}()
	var readErrs [2]error
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := network.NewChannel(clients[i])
			if first[i] == nil {
				clients[i].Close()
				return
			}
			if err := ch.Write(first[i]); err != nil {
				readErrs[i] = err
				return
			}
			_, readErrs[i] = ch.ReadExact(protocol.MessageSize)
		}()
	}
	wg.Wait()
	runErr := <-errChan
	if s.State() != Killed {
		t.Fatalf("expected killed, got %v", s.State())
	}
	return runErr, readErrs
}

func TestSessionKilledOnIllegalPlay(t *testing.T) {
	tests := []struct {
		name   string
		first  [2][]byte
		reason string
	}{
		{"card of opponent", [2][]byte{{2, 30}, {2, 26}}, ReasonNotDealt},
		{"out of deck", [2][]byte{{2, 0}, {2, 99}}, ReasonNotDealt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runErr, readErrs := faultCase(t, tt.first)
			var ip *IllegalPlayError
			if !errors.As(runErr, &ip) || ip.Reason != tt.reason {
				t.Fatalf("expected illegal play %q, got %v", tt.reason, runErr)
			}
			for i, err := range readErrs {
				if !errors.Is(err, network.ErrShortRead) {
					t.Fatalf("player %d: expected the connection to close without a result, got %v", i+1, err)
				}
			}
			if FaultReason(runErr) != "illegal_play" {
				t.Fatalf("unexpected reason %q", FaultReason(runErr))
			}
		})
	}
}

func TestSessionKilledOnWrongCommand(t *testing.T) {
	runErr, readErrs := faultCase(t, [2][]byte{{2, 0}, {0, 0}})
	var uc *protocol.UnexpectedCommandError
	if !errors.As(runErr, &uc) || uc.Got != protocol.WantGame {
		t.Fatalf("expected unexpected command, got %v", runErr)
	}
	for i, err := range readErrs {
		if !errors.Is(err, network.ErrShortRead) {
			t.Fatalf("player %d: expected no result, got %v", i+1, err)
		}
	}
}

func TestSessionKilledOnDisconnect(t *testing.T) {
	runErr, readErrs := faultCase(t, [2][]byte{{2, 0}, nil})
	if !errors.Is(runErr, network.ErrShortRead) {
		t.Fatalf("expected short read, got %v", runErr)
	}
	if FaultReason(runErr) != "short_read" {
		t.Fatalf("unexpected reason %q", FaultReason(runErr))
	}
	if !errors.Is(readErrs[0], network.ErrShortRead) && !errors.Is(readErrs[0], network.ErrWriteFailure) {
		t.Fatalf("expected player 1 to see the close, got %v", readErrs[0])
	}
}

func TestSessionKilledOnReplay(t *testing.T) {
	h1, h2 := fixedHands()
	server, clients := newPair(t)
	s, err := NewSession("replay", server[0], server[1], h1, h2)
	if err != nil {
		t.Fatal(err)
	}
	errChan := make(chan error, 1)
	go func() {
		_, err := s.Run(context.Background())
		errChan <- err
	}()
	runs := runPlayers(clients, [2][]card.Card{
		{h1[0], h1[1], h1[0]},
		{h2[0], h2[1], h2[2]},
	})
	runErr := <-errChan
	var ip *IllegalPlayError
	if !errors.As(runErr, &ip) || ip.Reason != ReasonAlreadyPlayed || ip.Player != 1 {
		t.Fatalf("expected player 1 replay, got %v", runErr)
	}
	for i, r := range runs {
		if len(r.results) != 2 {
			t.Fatalf("player %d: expected 2 results before the fault, got %d", i+1, len(r.results))
		}
		if !errors.Is(r.err, network.ErrShortRead) {
			t.Fatalf("player %d: expected close, got %v", i+1, r.err)
		}
	}
}

func TestSessionCancel(t *testing.T) {
	h1, h2 := fixedHands()
	server, _ := newPair(t)
	s, err := NewSession("cancel", server[0], server[1], h1, h2)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		_, err := s.Run(ctx)
		errChan <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errChan:
		if FaultReason(err) != "canceled" {
			t.Fatalf("expected canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
}

func TestFaultIsolation(t *testing.T) {
	const games = 6
	h1, h2 := fixedHands()
	fatal := make(chan error, games)
	for g := range games {
		go func() {
			server, clients := newPair(t)
			s, err := NewSession(fmt.Sprint(g), server[0], server[1], h1, h2)
			if err != nil {
				fatal <- err
				return
			}
			errChan := make(chan error, 1)
			go func() {
				_, err := s.Run(context.Background())
				errChan <- err
			}()
			plays := [2][]card.Card{h1, h2}
			if g%2 == 1 {
				plays[1] = []card.Card{h1[0]}
			}
			runPlayers(clients, plays)
			runErr := <-errChan
			if g%2 == 1 {
				if !errors.Is(runErr, ErrIllegalPlay) {
					fatal <- fmt.Errorf("game %d: expected illegal play, got %v", g, runErr)
					return
				}
				fatal <- nil
				return
			}
			if runErr != nil {
				fatal <- fmt.Errorf("game %d: %w", g, runErr)
				return
			}
			fatal <- nil
		}()
	}
	for range games {
		if err := <-fatal; err != nil {
			t.Fatal(err)
		}
	}
}

func TestNewSessionRejectsBadHand(t *testing.T) {
	h1, h2 := fixedHands()
	h2[0] = h2[1]
	server, _ := newPair(t)
	if _, err := NewSession("bad", server[0], server[1], h1, h2); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunAfterEnd(t *testing.T) {
	h1, h2 := fixedHands()
	server, clients := newPair(t)
	s, err := NewSession("twice", server[0], server[1], h1, h2)
	if err != nil {
		t.Fatal(err)
	}
	players := make(chan [2]playerRun, 1)
	go func() {
		players <- runPlayers(clients, [2][]card.Card{h1, h2})
	}()
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-players
	if !s.State().Terminal() {
		t.Fatalf("expected a terminal state, got %s", s.State())
	}
	if _, err := s.Run(context.Background()); !errors.Is(err, ErrSessionOver) {
		t.Fatalf("expected ErrSessionOver, got %v", err)
	}
}

func TestRunAfterKill(t *testing.T) {
	h1, h2 := fixedHands()
	server, _ := newPair(t)
	s, err := NewSession("killed", server[0], server[1], h1, h2)
	if err != nil {
		t.Fatal(err)
	}
	s.Kill()
	if s.State() != Killed {
		t.Fatalf("expected killed, got %s", s.State())
	}
	if _, err := s.Run(context.Background()); !errors.Is(err, ErrSessionOver) {
		t.Fatalf("expected ErrSessionOver, got %v", err)
	}
}

func TestTerminalStates(t *testing.T) {
	for _, st := range []State{RoundStart, AwaitPlays, Validate, Resolve} {
		if st.Terminal() {
			t.Fatalf("%s must not be terminal", st)
		}
	}
	for _, st := range []State{Done, Killed} {
		if !st.Terminal() {
			t.Fatalf("%s must be terminal", st)
		}
	}
}
