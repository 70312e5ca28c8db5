package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulhankin/poker"

	"github.com/luca-patrignani/war/domain/card"
	"github.com/luca-patrignani/war/network"
	"github.com/luca-patrignani/war/protocol"
)

// Verdict is the overall result of a game from the player's side.
type Verdict int

const (
	Drew Verdict = iota
	Won
	Lost
)

func (v Verdict) String() string {
	switch v {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "drew"
	}
}

// Outcome is what a driver saw during one complete game.
type Outcome struct {
	Hand    []card.Card
	Results []protocol.Result
	Score   int
	Verdict Verdict
	// OpeningHand describes the first seven dealt cards as a poker hand.
	// It is empty when the description fails.
	OpeningHand string
}

// Driver plays one game against a server.
type Driver struct {
	addr      string
	timeout   time.Duration
	tlsConfig *tls.Config
	logger    *slog.Logger
}

type driverOption func(*Driver)

// WithTimeout bounds the dial and every read and write.
func WithTimeout(timeout time.Duration) driverOption {
	return func(d *Driver) {
		d.timeout = timeout
	}
}

// WithTLSConfig dials with TLS. A nil cfg dials plain TCP.
func WithTLSConfig(cfg *tls.Config) driverOption {
	return func(d *Driver) {
		d.tlsConfig = cfg
	}
}

func WithLogger(logger *slog.Logger) driverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

func NewDriver(addr string, opts ...driverOption) *Driver {
	d := &Driver{
		addr:   addr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Play runs a whole game. ctx only bounds connection establishment: once
// connected the game runs to completion or failure.
func (d *Driver) Play(ctx context.Context) (Outcome, error) {
	dialOpts := []network.DialOption{network.WithDialTimeout(d.timeout)}
	if d.tlsConfig != nil {
		dialOpts = append(dialOpts, network.WithTLSConfig(d.tlsConfig))
	}
	ch, err := network.Dial(ctx, d.addr, dialOpts...)
	if err != nil {
		return Outcome{}, fmt.Errorf("dialing %s: %w", d.addr, err)
	}
	defer ch.Close()

	if err := ch.Write(protocol.WantGameMessage().Encode()); err != nil {
		return Outcome{}, err
	}
	b, err := ch.ReadExact(protocol.GameStartSize)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: reading game start: %w", protocol.ErrProtocol, err)
	}
	hand, err := protocol.DecodeGameStart(b)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{
		Hand:        hand,
		Results:     make([]protocol.Result, 0, len(hand)),
		OpeningHand: describeOpening(hand),
	}
	d.logger.Debug("dealt", "server", d.addr, "opening", out.OpeningHand)

	for i, c := range hand {
		if err := ch.Write(protocol.PlayCardMessage(c).Encode()); err != nil {
			return out, fmt.Errorf("round %d: %w", i+1, err)
		}
		b, err := ch.ReadExact(protocol.MessageSize)
		if err != nil {
			return out, fmt.Errorf("round %d: %w", i+1, err)
		}
		r, err := protocol.DecodeResult(b)
		if err != nil {
			return out, fmt.Errorf("round %d: %w", i+1, err)
		}
		switch r {
		case protocol.Win:
			out.Score++
		case protocol.Lose:
			out.Score--
		}
		out.Results = append(out.Results, r)
	}

	switch {
	case out.Score > 0:
		out.Verdict = Won
	case out.Score < 0:
		out.Verdict = Lost
	}
	d.logger.Debug("game over", "server", d.addr, "score", out.Score, "verdict", out.Verdict.String())
	return out, nil
}

func describeOpening(hand []card.Card) string {
	if len(hand) < 7 {
		return ""
	}
	cards := make([]poker.Card, 7)
	for i, c := range hand[:7] {
		pc, err := c.Poker()
		if err != nil {
			return ""
		}
		cards[i] = pc
	}
	desc, err := poker.Describe(cards)
	if err != nil {
		return ""
	}
	return desc
}
