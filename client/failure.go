package client

import (
	"errors"
	"syscall"

	"github.com/luca-patrignani/war/network"
	"github.com/luca-patrignani/war/protocol"
)

// FailureKind classifies why a driver run failed.
type FailureKind int

const (
	None FailureKind = iota
	ConnectionReset
	ShortRead
	Protocol
	IO
)

func (k FailureKind) String() string {
	switch k {
	case None:
		return "none"
	case ConnectionReset:
		return "connection_reset"
	case ShortRead:
		return "short_read"
	case Protocol:
		return "protocol"
	default:
		return "io"
	}
}

// Classify maps a Play error to its FailureKind. A short read while waiting
// for the deal is reported as ShortRead even though it also matches
// protocol.ErrProtocol.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return None
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return ConnectionReset
	case errors.Is(err, network.ErrShortRead):
		return ShortRead
	case errors.Is(err, protocol.ErrProtocol):
		return Protocol
	default:
		return IO
	}
}
