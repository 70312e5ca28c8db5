// Package client drives War games from the player side.
//
// A Driver connects to a server, asks for a game, plays its dealt hand in
// order and keeps a running score. RunMany runs many drivers at once behind
// a counting admission gate and aggregates their outcomes.
package client
