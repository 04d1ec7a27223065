// Package coin defines the common-coin oracle collaborator consumed by the
// agreement core: a per-epoch capability that yields a bit which is common
// across correct nodes. The package is a dependency-injection point, not an
// implementation of a secure coin — see InsecurePlaceholderCoin.
package coin

import "golang.org/x/crypto/sha3"

// Coin yields a bit for a given epoch. Implementations MUST return the same
// bit for the same epoch on every correct node; they are not required (by
// this interface) to make that bit unpredictable to an adversary — that
// property is what separates a production threshold-signature-backed coin
// from the insecure placeholder below.
type Coin interface {
	Toss(epoch uint32) bool
}

// CoinFunc adapts a plain function to the Coin interface, the way the
// teacher adapts bare funcs for test fixtures (e.g. roundTestConfig-style
// builders in ssf_round_engine_test.go).
type CoinFunc func(epoch uint32) bool

// Toss implements Coin.
func (f CoinFunc) Toss(epoch uint32) bool { return f(epoch) }

// ParityCoin is the exact placeholder used by the original source:
// coin(epoch) = (epoch mod 2 == 0). It satisfies commonality but is neither
// random nor unpredictable, and MUST NOT be used in production: an
// adaptive adversary that knows the coin schedule can stall termination
// indefinitely by always voting against the upcoming coin value.
var ParityCoin Coin = CoinFunc(func(epoch uint32) bool { return epoch%2 == 0 })

// InsecurePlaceholderCoin derives a bit from Keccak256(seed || epoch) taken
// modulo 2, using golang.org/x/crypto/sha3 (a direct dependency the
// teacher's own pkg/consensus pulls in for Keccak-family hashing). Like
// ParityCoin it is still common-but-not-unpredictable: the seed is a fixed,
// public value shared by every node for the lifetime of a run, so an
// adversary who observes one epoch's coin and knows the seed can predict
// every other epoch's coin for that run. It exists only to give runs a
// schedule that varies across independently-seeded clusters instead of the
// fixed 0,1,0,1,... of ParityCoin — it is NOT a step towards a secure coin
// and must be replaced by a threshold-signature-backed implementation (see
// DESIGN.md) before this module is used against a real adversary.
type InsecurePlaceholderCoin struct {
	Seed []byte
}

// Toss implements Coin.
func (c InsecurePlaceholderCoin) Toss(epoch uint32) bool {
	h := sha3.NewLegacyKeccak256()
	h.Write(c.Seed)
	var buf [4]byte
	buf[0] = byte(epoch >> 24)
	buf[1] = byte(epoch >> 16)
	buf[2] = byte(epoch >> 8)
	buf[3] = byte(epoch)
	h.Write(buf[:])
	sum := h.Sum(nil)
	return sum[len(sum)-1]%2 == 0
}
