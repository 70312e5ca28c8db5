package matchmaking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luca-patrignani/war/domain/deck"
	"github.com/luca-patrignani/war/domain/war"
	"github.com/luca-patrignani/war/metrics"
	"github.com/luca-patrignani/war/network"
	"github.com/luca-patrignani/war/protocol"
)

// ErrClosed is returned by Enqueue once the matchmaker has stopped.
var ErrClosed = errors.New("matchmaker closed")

// Policy decides what happens to the peers of a pair whose handshake failed.
type Policy int

const (
	// DropPair closes both connections.
	DropPair Policy = iota
	// RequeueValid closes the faulty peer and queues the other one again.
	RequeueValid
)

func (p Policy) String() string {
	if p == RequeueValid {
		return "requeue"
	}
	return "drop"
}

// DispatchFunc runs a fully dealt game. It is called on a goroutine owned by
// the pair, so it may block for the whole game.
type DispatchFunc func(ctx context.Context, s *war.Session)

// Matchmaker pairs waiting connections in arrival order.
type Matchmaker struct {
	arrivals chan *Entry
	done     chan struct{}
	queue    *Queue

	dealMu sync.Mutex
	dealer *deck.Dealer

	policy   Policy
	dispatch DispatchFunc
	logger   *slog.Logger
	metrics  *metrics.Metrics

	games       sync.WaitGroup
	gameCtx     context.Context
	cancelGames context.CancelFunc
}

// Option configures a Matchmaker.
type Option func(*Matchmaker)

// WithPolicy sets the handshake rejection policy. Default: DropPair.
func WithPolicy(p Policy) Option {
	return func(m *Matchmaker) {
		m.policy = p
	}
}

// WithDealer replaces the default randomly seeded dealer.
func WithDealer(d *deck.Dealer) Option {
	return func(m *Matchmaker) {
		m.dealer = d
	}
}

// WithDispatch sets the function that runs dealt games.
func WithDispatch(fn DispatchFunc) Option {
	return func(m *Matchmaker) {
		m.dispatch = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matchmaker) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Matchmaker) {
		m.metrics = mt
	}
}

// New creates a Matchmaker. Run must be called before connections are
// enqueued.
func New(opts ...Option) *Matchmaker {
	m := &Matchmaker{
		arrivals: make(chan *Entry),
		done:     make(chan struct{}),
		queue:    NewQueue(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dealer == nil {
		m.dealer = deck.NewDealer()
	}
	if m.dispatch == nil {
		m.dispatch = m.runGame
	}
	m.gameCtx, m.cancelGames = context.WithCancel(context.Background())
	return m
}

// Enqueue hands a new connection to the matchmaker. It blocks until the
// matchmaker goroutine has taken it, which keeps arrival order.
func (m *Matchmaker) Enqueue(ch *network.Channel) error {
	return m.push(&Entry{Channel: ch, Arrived: time.Now()})
}

func (m *Matchmaker) push(e *Entry) error {
	select {
	case m.arrivals <- e:
		return nil
	case <-m.done:
		return ErrClosed
	}
}

// Run owns the waiting queue until ctx is cancelled. On return every
// connection still waiting is closed; games already dealt keep running.
func (m *Matchmaker) Run(ctx context.Context) error {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			for _, e := range m.queue.Drain() {
				e.Channel.Close()
			}
			m.metrics.SetWaiting(0)
			return ctx.Err()
		case e := <-m.arrivals:
			m.queue.Push(e)
			for {
				pair, ok := m.queue.PopPair()
				if !ok {
					break
				}
				m.logger.Debug("pair formed",
					"p1", pair[0].Channel.RemoteAddr(),
					"p2", pair[1].Channel.RemoteAddr(),
					"waited", time.Since(pair[0].Arrived),
				)
				m.games.Add(1)
				go m.start(pair)
			}
			m.metrics.SetWaiting(m.queue.Len())
		}
	}
}

// Wait blocks until every pair handed off so far has finished its game.
func (m *Matchmaker) Wait() {
	m.games.Wait()
}

// Abort kills every running game.
func (m *Matchmaker) Abort() {
	m.cancelGames()
}

func (m *Matchmaker) start(pair [2]*Entry) {
	defer m.games.Done()

	errs := handshakePair(pair)
	if err := errors.Join(errs[0], errs[1]); err != nil {
		m.metrics.HandshakeRejected()
		m.logger.Warn("a client has sent an incorrect message", "policy", m.policy.String(), "error", err)
		m.reject(pair, errs)
		return
	}

	h1, h2 := m.deal()
	if err := deck.Validate(h1, h2); err != nil {
		m.logger.Error("dealer produced an invalid deck", "error", err)
		closePair(pair)
		return
	}
	hands := [2]deck.Hand{h1, h2}
	for i, e := range pair {
		frame, err := protocol.EncodeGameStart(hands[i].Cards())
		if err == nil {
			err = e.Channel.Write(frame)
		}
		if err != nil {
			m.logger.Warn("could not start game", "peer", e.Channel.RemoteAddr(), "error", err)
			m.abandon(pair, i)
			return
		}
	}

	id := uuid.NewString()
	session, err := war.NewSession(id, pair[0].Channel, pair[1].Channel, h1.Cards(), h2.Cards(),
		war.WithLogger(m.logger),
		war.WithRoundObserver(func(war.Round) { m.metrics.RoundResolved() }),
	)
	if err != nil {
		m.logger.Error("could not create session", "game", id, "error", err)
		closePair(pair)
		return
	}
	m.logger.Info("game started", "game", id, "p1", pair[0].Channel.RemoteAddr(), "p2", pair[1].Channel.RemoteAddr())
	m.dispatch(m.gameCtx, session)
}

func (m *Matchmaker) deal() (deck.Hand, deck.Hand) {
	m.dealMu.Lock()
	defer m.dealMu.Unlock()
	return m.dealer.Deal()
}

func (m *Matchmaker) reject(pair [2]*Entry, errs [2]error) {
	for i, e := range pair {
		if errs[i] == nil && m.policy == RequeueValid {
			if err := m.push(e); err == nil {
				continue
			}
		}
		e.Channel.Close()
	}
}

// runGame is the default dispatch: it runs the session and logs its end.
// A panic inside the session kills that session only.
func (m *Matchmaker) runGame(ctx context.Context, s *war.Session) {
	m.metrics.GameStarted()
	defer func() {
		if r := recover(); r != nil {
			s.Kill()
			m.metrics.GameEnded("panic")
			m.logger.Error("game panicked", "game", s.ID, "panic", r)
		}
	}()
	summary, err := s.Run(ctx)
	m.metrics.GameEnded(war.FaultReason(err))
	if err != nil {
		return
	}
	m.logger.Info("game complete", "game", s.ID, "rounds", summary.Rounds, "p1_wins", summary.Wins[0], "p2_wins", summary.Wins[1], "draws", summary.Draws)
}

// abandon closes the peer whose GAMESTART could not be sent. Under
// RequeueValid a partner that has not been dealt yet goes back in the queue;
// one that already received its hand is closed.
func (m *Matchmaker) abandon(pair [2]*Entry, failed int) {
	for i, e := range pair {
		if i > failed && m.policy == RequeueValid {
			if err := m.push(e); err == nil {
				continue
			}
		}
		e.Channel.Close()
	}
}

func closePair(pair [2]*Entry) {
	for _, e := range pair {
		e.Channel.Close()
	}
}
