package protocol

import (
	"errors"
	"fmt"

	"github.com/luca-patrignani/war/domain/card"
)

// Command is the first byte of every message.
type Command uint8

const (
	WantGame   Command = 0
	GameStart  Command = 1
	PlayCard   Command = 2
	PlayResult Command = 3
)

func (c Command) String() string {
	switch c {
	case WantGame:
		return "WANTGAME"
	case GameStart:
		return "GAMESTART"
	case PlayCard:
		return "PLAYCARD"
	case PlayResult:
		return "PLAYRESULT"
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

// Result is the payload of a PLAYRESULT message, from the point of view of
// the receiving player.
type Result uint8

const (
	Win  Result = 0
	Draw Result = 1
	Lose Result = 2
)

func (r Result) String() string {
	switch r {
	case Win:
		return "WIN"
	case Draw:
		return "DRAW"
	case Lose:
		return "LOSE"
	}
	return fmt.Sprintf("Result(%d)", uint8(r))
}

// Valid reports whether r is one of Win, Draw or Lose.
func (r Result) Valid() bool {
	return r <= Lose
}

// Opposite returns the result seen by the other player of the round.
func (r Result) Opposite() Result {
	switch r {
	case Win:
		return Lose
	case Lose:
		return Win
	}
	return r
}

// Message sizes in bytes.
const (
	MessageSize   = 2
	GameStartSize = 1 + card.HandSize
)

// ErrProtocol is matched by every decoding failure.
var ErrProtocol = errors.New("protocol error")

// UnexpectedCommandError reports a message whose command byte is not the one
// required at that point of the exchange.
type UnexpectedCommandError struct {
	Want Command
	Got  Command
}

func (e *UnexpectedCommandError) Error() string {
	return fmt.Sprintf("expected %v, got %v", e.Want, e.Got)
}

func (e *UnexpectedCommandError) Is(target error) bool {
	return target == ErrProtocol
}

// Message is a two-byte {command, payload} unit.
type Message struct {
	Command Command
	Payload byte
}

// Encode returns the wire bytes of m.
func (m Message) Encode() []byte {
	return []byte{byte(m.Command), m.Payload}
}

// Decode parses a two-byte message. It does not check the command.
func Decode(b []byte) (Message, error) {
	if len(b) != MessageSize {
		return Message{}, fmt.Errorf("%w: message of %d bytes, want %d", ErrProtocol, len(b), MessageSize)
	}
	return Message{Command: Command(b[0]), Payload: b[1]}, nil
}

// Expect returns an error unless m carries the want command.
func (m Message) Expect(want Command) error {
	if m.Command != want {
		return &UnexpectedCommandError{Want: want, Got: m.Command}
	}
	return nil
}

// WantGameMessage is the handshake a client sends right after connecting.
func WantGameMessage() Message {
	return Message{Command: WantGame, Payload: 0}
}

// PlayCardMessage plays c.
func PlayCardMessage(c card.Card) Message {
	return Message{Command: PlayCard, Payload: byte(c)}
}

// PlayResultMessage reports r to a player.
func PlayResultMessage(r Result) Message {
	return Message{Command: PlayResult, Payload: byte(r)}
}

// IsWantGame reports whether b is exactly the WANTGAME handshake.
func IsWantGame(b []byte) bool {
	return len(b) == MessageSize && b[0] == byte(WantGame) && b[1] == 0
}

// DecodeResult parses a PLAYRESULT message.
func DecodeResult(b []byte) (Result, error) {
	m, err := Decode(b)
	if err != nil {
		return 0, err
	}
	if err := m.Expect(PlayResult); err != nil {
		return 0, err
	}
	r := Result(m.Payload)
	if !r.Valid() {
		return 0, fmt.Errorf("%w: invalid result %d", ErrProtocol, m.Payload)
	}
	return r, nil
}

// EncodeGameStart frames hand as [GAMESTART, card_0, ..., card_25].
func EncodeGameStart(hand []card.Card) ([]byte, error) {
	if len(hand) != card.HandSize {
		return nil, fmt.Errorf("%w: hand of %d cards, want %d", ErrProtocol, len(hand), card.HandSize)
	}
	return append([]byte{byte(GameStart)}, card.Bytes(hand)...), nil
}

// DecodeGameStart parses a GAMESTART message into the dealt hand.
func DecodeGameStart(b []byte) ([]card.Card, error) {
	if len(b) != GameStartSize {
		return nil, fmt.Errorf("%w: game start of %d bytes, want %d", ErrProtocol, len(b), GameStartSize)
	}
	if Command(b[0]) != GameStart {
		return nil, &UnexpectedCommandError{Want: GameStart, Got: Command(b[0])}
	}
	hand, err := card.FromBytes(b[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	return hand, nil
}
