// Package matchmaking pairs waiting connections into games.
//
// # Core Components
//
// Queue: FIFO of connections that have not been paired yet. It is not safe
// for concurrent use; the Matchmaker goroutine is its only owner.
//
// Matchmaker: an actor that receives arrivals on a channel, pairs them two at
// a time in arrival order, and hands every pair to its own goroutine for the
// WANTGAME handshake, the deal and the game. Pairing never waits on a
// handshake or a running game.
//
// # Handshake Rejection
//
// When either peer of a pair sends something other than WANTGAME(0, 0) no
// game is created. With DropPair both connections are closed. With
// RequeueValid the peer that did send a valid handshake re-enters the queue
// at its tail and is not asked for WANTGAME again.
package matchmaking
