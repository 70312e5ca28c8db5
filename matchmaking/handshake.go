package matchmaking

import (
	"errors"
	"fmt"
	"sync"

	"github.com/luca-patrignani/war/protocol"
)

// ErrHandshake is matched by every HandshakeError.
var ErrHandshake = errors.New("handshake rejected")

// HandshakeError reports a peer that did not open with WANTGAME(0, 0).
// Got holds the bytes received, if any.
type HandshakeError struct {
	Peer string
	Got  []byte
	Err  error
}

func (e *HandshakeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("handshake from %s: %v", e.Peer, e.Err)
	}
	return fmt.Sprintf("handshake from %s: got %v, want %v", e.Peer, e.Got, protocol.WantGameMessage().Encode())
}

func (e *HandshakeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrHandshake}
	}
	return []error{ErrHandshake, e.Err}
}

// handshake reads the opening message of e unless it was already accepted.
func handshake(e *Entry) error {
	if e.Greeted {
		return nil
	}
	b, err := e.Channel.ReadExact(protocol.MessageSize)
	if err != nil {
		return &HandshakeError{Peer: e.Channel.RemoteAddr(), Err: err}
	}
	if !protocol.IsWantGame(b) {
		return &HandshakeError{Peer: e.Channel.RemoteAddr(), Got: b}
	}
	e.Greeted = true
	return nil
}

// handshakePair runs both handshakes concurrently and returns one result per
// peer.
func handshakePair(pair [2]*Entry) [2]error {
	var errs [2]error
	var wg sync.WaitGroup
	for i, e := range pair {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = handshake(e)
		}()
	}
	wg.Wait()
	return errs
}
