// Package protocol defines the messages exchanged between a War client and
// server.
//
// Every message is a command byte followed by a payload. All messages are
// two bytes long except GAMESTART, which carries the 26 cards of the
// receiving player's hand:
//
//	WANTGAME   0  payload 0                  client -> server
//	GAMESTART  1  26 card bytes              server -> client
//	PLAYCARD   2  card in [0, 52)            client -> server
//	PLAYRESULT 3  0 = win, 1 = draw, 2 = lose server -> client
//
// The package only encodes and decodes; reading exact byte counts from a
// stream is the job of package network.
package protocol
