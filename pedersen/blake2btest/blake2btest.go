// Package blake2btest implements a cheap merkle.Hasher test double backed by
// blake2b, for unit tests that exercise trie structure and do not need actual
// curve arithmetic. Mirrors iotaledger-trie.go's trie_blake2b_20 commitment
// model, which exists in that codebase for the identical reason: a fast
// model sharing the production model's interface.
package blake2btest

import (
	"golang.org/x/crypto/blake2b"

	"github.com/0xethsign/pathfinder/felt"
)

// Hasher is a merkle.Hasher implementation for tests.
type Hasher struct{}

// New returns a blake2b-backed test Hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash implements merkle.Hasher by hashing the concatenation of a and b's
// big-endian byte representations with blake2b-256 and reducing the digest
// modulo the field.
func (Hasher) Hash(a, b felt.Felt) felt.Felt {
	ab := a.Bytes()
	bb := b.Bytes()
	digest := blake2b.Sum256(append(ab[:], bb[:]...))
	out, err := felt.FromBytesBE(digest[:])
	if err != nil {
		panic(err)
	}
	return out
}
