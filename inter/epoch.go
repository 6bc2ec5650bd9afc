// Package inter defines the core data types shared between the pool's
// accounting engine and its outer surfaces (launcher, API, store, metrics).
//
// The central type is Epoch: an externally-advanced, monotonically
// non-decreasing 64-bit counter. Every time-sensitive decision in the pool
// (deposit activation, withdrawal maturity, reward eligibility) is driven by
// this counter, never by local wall-clock time. The pool does not advance
// epochs itself; it reads them from an oracle and re-synchronizes lazily.
package inter

import "strconv"

// Epoch is the externally-defined epoch counter. The oracle contract is a
// 64-bit integer, so Epoch is uint64 end to end; it is never derived from
// local time.
type Epoch uint64

// String returns the decimal representation, for logs and API responses.
func (e Epoch) String() string {
	return strconv.FormatUint(uint64(e), 10)
}
