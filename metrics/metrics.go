// Package metrics exposes Prometheus collectors for the War server and the
// load-generating clients. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "war").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "war",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors.
type Metrics struct {
	connectionsAccepted prometheus.Counter
	waitingPlayers      prometheus.Gauge
	handshakesRejected  prometheus.Counter
	gamesStarted        prometheus.Counter
	gamesCompleted      prometheus.Counter
	gamesKilled         *prometheus.CounterVec
	activeGames         prometheus.Gauge
	roundsResolved      prometheus.Counter
	clientRuns          *prometheus.CounterVec
}

// New registers the collectors.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		connectionsAccepted: counter("connections_accepted_total", "Total number of accepted connections"),
		waitingPlayers:      gauge("waiting_players", "Connections waiting for a partner"),
		handshakesRejected:  counter("handshakes_rejected_total", "Pairs discarded because of a bad WANTGAME"),
		gamesStarted:        counter("games_started_total", "Games dealt and handed to the arbiter"),
		gamesCompleted:      counter("games_completed_total", "Games that ran through both hands"),
		gamesKilled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "games_killed_total",
			Help:        "Games terminated by a fault",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),
		activeGames:    gauge("active_games", "Games currently being arbitrated"),
		roundsResolved: counter("rounds_resolved_total", "Rounds resolved across all games"),
		clientRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "client_runs_total",
			Help:        "Client driver runs by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *Metrics) SetWaiting(n int) {
	if m == nil {
		return
	}
	m.waitingPlayers.Set(float64(n))
}

func (m *Metrics) HandshakeRejected() {
	if m == nil {
		return
	}
	m.handshakesRejected.Inc()
}

// GameStarted counts a new game and marks it active.
func (m *Metrics) GameStarted() {
	if m == nil {
		return
	}
	m.gamesStarted.Inc()
	m.activeGames.Inc()
}

// GameEnded marks a game inactive. An empty reason means normal completion.
func (m *Metrics) GameEnded(reason string) {
	if m == nil {
		return
	}
	m.activeGames.Dec()
	if reason == "" {
		m.gamesCompleted.Inc()
		return
	}
	m.gamesKilled.WithLabelValues(reason).Inc()
}

func (m *Metrics) RoundResolved() {
	if m == nil {
		return
	}
	m.roundsResolved.Inc()
}

// ClientRun records the outcome of one client driver.
func (m *Metrics) ClientRun(outcome string) {
	if m == nil {
		return
	}
	m.clientRuns.WithLabelValues(outcome).Inc()
}
