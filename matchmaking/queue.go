package matchmaking

import (
	"time"

	"github.com/luca-patrignani/war/network"
)

// Entry is a connection waiting for a partner.
type Entry struct {
	Channel *network.Channel
	Arrived time.Time
	// Greeted is set once the peer has sent a valid WANTGAME.
	Greeted bool
}

// Queue is a FIFO of waiting entries.
type Queue struct {
	entries []*Entry
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(e *Entry) {
	q.entries = append(q.entries, e)
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Pop removes the oldest entry.
func (q *Queue) Pop() (*Entry, bool) {
	if len(q.entries) == 0 {
		return nil, false
	}
	e := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return e, true
}

// PopPair removes the two oldest entries, or nothing if fewer than two wait.
func (q *Queue) PopPair() ([2]*Entry, bool) {
	if len(q.entries) < 2 {
		return [2]*Entry{}, false
	}
	a, _ := q.Pop()
	b, _ := q.Pop()
	return [2]*Entry{a, b}, true
}

// Drain removes and returns every entry.
func (q *Queue) Drain() []*Entry {
	entries := q.entries
	q.entries = nil
	return entries
}
