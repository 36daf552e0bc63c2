// Package felt implements the 256-bit field element type shared by trie keys,
// values and hashes: a value reduced modulo the STARK curve's base field.
package felt

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Felt is an element of the STARK curve's base field Fp - the field Starknet
// values, keys and hashes live in (the curve's scalar/order field is a
// separate, larger prime and is not what spec.md's "field element" refers
// to). The zero value is the additive identity.
type Felt struct {
	inner fp.Element
}

// Zero is the additive identity of the field.
var Zero = Felt{}

// FromBytesBE interprets b as a big-endian integer and reduces it modulo the
// field prime. b must be at most 32 bytes.
func FromBytesBE(b []byte) (Felt, error) {
	if len(b) > 32 {
		return Felt{}, fmt.Errorf("felt: %d bytes exceeds the 32-byte field width", len(b))
	}
	var f Felt
	f.inner.SetBytes(b)
	return f, nil
}

// FromUint64 returns the Felt representing n.
func FromUint64(n uint64) Felt {
	var f Felt
	f.inner.SetUint64(n)
	return f
}

// FromBigInt reduces i modulo the field prime.
func FromBigInt(i *big.Int) Felt {
	var f Felt
	f.inner.SetBigInt(i)
	return f
}

// Bytes returns the canonical big-endian 32-byte representation of f.
func (f Felt) Bytes() [32]byte {
	return f.inner.Bytes()
}

// BigInt returns f as a big.Int in [0, p).
func (f Felt) BigInt() *big.Int {
	var i big.Int
	f.inner.BigInt(&i)
	return &i
}

// IsZero reports whether f is the additive identity.
func (f Felt) IsZero() bool {
	return f.inner.IsZero()
}

// Equal reports whether f and o represent the same field element.
func (f Felt) Equal(o Felt) bool {
	return f.inner.Equal(&o.inner)
}

// Add returns f + o mod p.
func (f Felt) Add(o Felt) Felt {
	var r Felt
	r.inner.Add(&f.inner, &o.inner)
	return r
}

// Mul returns f * o mod p.
func (f Felt) Mul(o Felt) Felt {
	var r Felt
	r.inner.Mul(&f.inner, &o.inner)
	return r
}

// String returns the canonical decimal representation of f.
func (f Felt) String() string {
	return f.inner.String()
}

// Uint64 truncates f to its low 64 bits, used for small scalars such as an
// Edge path length (always <= 251, so this never loses information for that
// use).
func (f Felt) Uint64() uint64 {
	b := f.Bytes()
	return binary.BigEndian.Uint64(b[24:])
}
