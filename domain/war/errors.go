package war

import (
	"errors"
	"fmt"

	"github.com/luca-patrignani/war/domain/card"
	"github.com/luca-patrignani/war/network"
	"github.com/luca-patrignani/war/protocol"
)

// ErrIllegalPlay is matched by every IllegalPlayError.
var ErrIllegalPlay = errors.New("illegal play")

// ErrSessionOver is returned by Run on a session that already finished or
// was killed.
var ErrSessionOver = errors.New("session over")

// Reasons a played card is refused.
const (
	ReasonNotDealt      = "card not dealt to player"
	ReasonAlreadyPlayed = "card already played"
)

// IllegalPlayError reports a card the player does not currently hold.
// Player is 1 or 2, or 0 when the check ran outside a session.
type IllegalPlayError struct {
	Player int
	Card   card.Card
	Reason string
}

func (e *IllegalPlayError) Error() string {
	if e.Player == 0 {
		return fmt.Sprintf("illegal play %d: %s", uint8(e.Card), e.Reason)
	}
	return fmt.Sprintf("player %d: illegal play %d: %s", e.Player, uint8(e.Card), e.Reason)
}

func (e *IllegalPlayError) Is(target error) bool {
	return target == ErrIllegalPlay
}

// FaultReason returns a short label for the error that killed a session.
func FaultReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errCanceled):
		return "canceled"
	case errors.Is(err, ErrIllegalPlay):
		return "illegal_play"
	case errors.Is(err, protocol.ErrProtocol):
		return "protocol"
	case errors.Is(err, network.ErrShortRead):
		return "short_read"
	case errors.Is(err, network.ErrWriteFailure):
		return "write_failure"
	}
	return "io"
}

var errCanceled = errors.New("session canceled")
