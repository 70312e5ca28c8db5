// Package network provides the framed byte-stream channel the War protocol
// runs on.
//
// # Core Components
//
// Channel: wraps a net.Conn and exposes exact-size reads. A read either
// returns exactly the requested number of bytes or fails; a peer that closes
// mid-message produces a ShortReadError, never a truncated buffer.
//
// # Timeout Support
//
// WithTimeout applies a deadline to every read and write of a Channel. The
// zero value disables deadlines, so a silent peer blocks only its own
// channel.
//
// # TLS
//
// GenerateSelfSignedCert and NewTLSListener wrap a listener in TLS without
// changing the protocol bytes.
package network
