// Package card implements the 52-card representation used on the wire.
//
// # Encoding
//
// A Card is a single byte in [0, 52). Its rank is value % 13 (0 = two,
// 12 = ace) and its suit is value / 13. Suits never affect comparison.
//
// # Comparison
//
// Compare orders two cards by rank only, so equal ranks of different suits
// are reported as Equal. There is no tie-break.
package card
