// Package war implements the round arbiter of a two-player game of War.
//
// # Core Types
//
// Hand: the cards dealt to one player, split into the fixed given set and
// the shrinking remaining set.
//
// Session: one running game between two endpoints, from the deal until
// both hands are exhausted or a fault kills it.
//
// # Game Flow
//
// Each round moves through RoundStart → AwaitPlays → Validate → Resolve.
// A session whose hands are empty is Done. Any failed read, wrong command,
// illegal card or failed write moves the session to Killed: both endpoints
// are closed and no result is sent for the faulting round.
//
// Equal ranks are reported as a draw to both players; there is no war
// tie-break.
package war
