package war

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/luca-patrignani/war/domain/card"
	"github.com/luca-patrignani/war/protocol"
)

// Endpoint is one player's connection as seen by the arbiter.
type Endpoint interface {
	ReadExact(n int) ([]byte, error)
	Write(b []byte) error
	Close() error
	RemoteAddr() string
}

// Round is the outcome of one resolved round. Index 0 is player 1.
type Round struct {
	Number  int
	Cards   [2]card.Card
	Results [2]protocol.Result
}

// Summary describes a session that ran to completion.
type Summary struct {
	Rounds int
	Wins   [2]int
	Draws  int
}

// Session arbitrates one game. Run must be called at most once.
type Session struct {
	ID      string
	players [2]Endpoint
	hands   [2]*Hand
	state   atomic.Int32
	logger  *slog.Logger
	onRound func(Round)

	killOnce sync.Once
}

type sessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) sessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRoundObserver registers fn to be called after every resolved round,
// once both results have been sent.
func WithRoundObserver(fn func(Round)) sessionOption {
	return func(s *Session) {
		s.onRound = fn
	}
}

// NewSession creates a session between p1 and p2 holding the dealt hands.
func NewSession(id string, p1, p2 Endpoint, hand1, hand2 []card.Card, opts ...sessionOption) (*Session, error) {
	h1, err := NewHand(hand1)
	if err != nil {
		return nil, fmt.Errorf("player 1: %w", err)
	}
	h2, err := NewHand(hand2)
	if err != nil {
		return nil, fmt.Errorf("player 2: %w", err)
	}
	s := &Session{
		ID:      id,
		players: [2]Endpoint{p1, p2},
		hands:   [2]*Hand{h1, h2},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("game", id)
	return s, nil
}

// State returns the current state. It is safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Hand returns the hand of player 1 or 2. It must not be used while Run is
// in progress.
func (s *Session) Hand(player int) *Hand {
	return s.hands[player-1]
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// Run plays rounds until both hands are empty or a fault occurs. A fault
// closes both endpoints and is returned; it never affects other sessions.
// Cancelling ctx kills the session.
func (s *Session) Run(ctx context.Context) (Summary, error) {
	if s.State().Terminal() {
		return Summary{}, ErrSessionOver
	}
	var summary Summary
	stop := context.AfterFunc(ctx, s.kill)
	defer stop()

	for {
		s.setState(RoundStart)
		if s.hands[0].Empty() && s.hands[1].Empty() {
			s.setState(Done)
			s.closeAll()
			return summary, nil
		}

		s.setState(AwaitPlays)
		msgs, err := s.readPlays()
		if err != nil {
			return summary, s.fault(ctx, err)
		}

		s.setState(Validate)
		cards, err := s.validate(msgs)
		if err != nil {
			return summary, s.fault(ctx, err)
		}

		s.setState(Resolve)
		round, err := s.resolve(summary.Rounds+1, cards)
		if err != nil {
			return summary, s.fault(ctx, err)
		}
		summary.Rounds++
		switch round.Results[0] {
		case protocol.Win:
			summary.Wins[0]++
		case protocol.Lose:
			summary.Wins[1]++
		default:
			summary.Draws++
		}
		if s.onRound != nil {
			s.onRound(round)
		}
	}
}

// readPlays reads one message from each player concurrently. The first
// failure kills the session so that the other read does not block.
func (s *Session) readPlays() ([2]protocol.Message, error) {
	var msgs [2]protocol.Message
	var first error
	var once sync.Once
	var wg sync.WaitGroup
	for i, p := range s.players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := p.ReadExact(protocol.MessageSize)
			if err == nil {
				msgs[i], err = protocol.Decode(b)
			}
			if err != nil {
				once.Do(func() {
					first = fmt.Errorf("player %d: %w", i+1, err)
					s.kill()
				})
			}
		}()
	}
	wg.Wait()
	return msgs, first
}

// validate checks both plays before either hand is touched.
func (s *Session) validate(msgs [2]protocol.Message) ([2]card.Card, error) {
	var cards [2]card.Card
	for i, m := range msgs {
		if err := m.Expect(protocol.PlayCard); err != nil {
			return cards, fmt.Errorf("player %d: %w", i+1, err)
		}
		c := card.Card(m.Payload)
		if err := s.hands[i].Check(c); err != nil {
			var ip *IllegalPlayError
			if errors.As(err, &ip) {
				ip.Player = i + 1
			}
			return cards, err
		}
		cards[i] = c
	}
	return cards, nil
}

func (s *Session) resolve(number int, cards [2]card.Card) (Round, error) {
	for i, c := range cards {
		if err := s.hands[i].Remove(c); err != nil {
			return Round{}, err
		}
	}
	var r protocol.Result
	switch card.Compare(cards[0], cards[1]) {
	case card.Greater:
		r = protocol.Win
	case card.Less:
		r = protocol.Lose
	default:
		r = protocol.Draw
	}
	round := Round{
		Number:  number,
		Cards:   cards,
		Results: [2]protocol.Result{r, r.Opposite()},
	}
	for i, p := range s.players {
		if err := p.Write(protocol.PlayResultMessage(round.Results[i]).Encode()); err != nil {
			return Round{}, fmt.Errorf("player %d: %w", i+1, err)
		}
	}
	s.logger.Debug("round resolved",
		"round", number,
		"p1", cards[0].String(),
		"p2", cards[1].String(),
		"result", round.Results[0].String(),
	)
	return round, nil
}

func (s *Session) fault(ctx context.Context, err error) error {
	s.kill()
	if ctx.Err() != nil {
		err = errors.Join(errCanceled, ctx.Err(), err)
	}
	s.logger.Warn("killing game", "reason", FaultReason(err), "error", err)
	return err
}

// Kill aborts the session from outside Run.
func (s *Session) Kill() {
	s.kill()
}

// kill closes both endpoints and marks the session Killed.
func (s *Session) kill() {
	s.killOnce.Do(func() {
		s.setState(Killed)
		for _, p := range s.players {
			p.Close()
		}
	})
}

func (s *Session) closeAll() {
	s.killOnce.Do(func() {
		for _, p := range s.players {
			p.Close()
		}
	})
}
