package merkle

import (
	"fmt"

	"github.com/0xethsign/pathfinder/bitpath"
	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle/internal/node"
)

// ProofNodeKind distinguishes the two node shapes that can appear in a proof.
// Leaf and Unresolved never appear directly: a Leaf is represented by the
// value carried in its parent's proof entry, and Unresolved is always
// resolved down to its cached hash before a proof entry is built.
type ProofNodeKind int

const (
	ProofBinary ProofNodeKind = iota
	ProofEdge
)

// ProofNode is the public, self-contained form of one Binary or Edge node
// encountered while descending to a key (spec.md §4.5). Each entry carries
// everything needed to recompute its own hash, so verification never needs
// to resolve anything from a NodeStore.
type ProofNode struct {
	Kind ProofNodeKind

	// LeftHash and RightHash are populated when Kind == ProofBinary.
	LeftHash, RightHash felt.Felt

	// Path and ChildHash are populated when Kind == ProofEdge. ChildHash is
	// this Edge's real child hash, even when the Edge is the terminal,
	// diverging entry of a non-membership proof.
	Path      bitpath.Path
	ChildHash felt.Felt
}

// hash recomputes this node's own hash from its embedded fields.
func (p ProofNode) hash(hasher Hasher) felt.Felt {
	switch p.Kind {
	case ProofBinary:
		return hasher.Hash(p.LeftHash, p.RightHash)
	case ProofEdge:
		combined := hasher.Hash(p.ChildHash, p.Path.Felt())
		return combined.Add(felt.FromUint64(uint64(p.Path.Len())))
	default:
		return felt.Zero
	}
}

// ensureHash returns the cached hash of the node at *slot without resolving
// it, since both concrete nodes and Unresolved placeholders answer
// CachedHash directly. It fails if the subtree has pending, uncommitted
// mutations: proofs can only be produced over a hashed (committed) trie.
func (t *Trie) ensureHash(slot *node.Node) (felt.Felt, error) {
	if *slot == nil {
		return felt.Zero, nil
	}
	h, ok := (*slot).CachedHash()
	if !ok {
		return felt.Zero, fmt.Errorf("merkle: cannot produce a proof through an uncommitted subtree")
	}
	return h, nil
}

// GetProof returns the ordered list of nodes encountered while descending
// from the root toward key: the full path for a membership proof, or a
// prefix ending at the point of divergence for a non-membership proof
// (spec.md §4.5). An empty result means the trie is empty.
func (t *Trie) GetProof(key bitpath.Path) ([]ProofNode, error) {
	if t.committed {
		return nil, ErrTrieConsumed
	}
	if key.Len() != t.height {
		return nil, ErrInvalidKey
	}

	var proof []ProofNode
	slot := &t.root
	remaining := key

	for {
		if err := t.resolveSlot(slot); err != nil {
			return nil, err
		}

		switch n := (*slot).(type) {
		case nil:
			return proof, nil

		case *node.Leaf:
			return proof, nil

		case *node.Binary:
			leftHash, err := t.ensureHash(&n.Left)
			if err != nil {
				return nil, err
			}
			rightHash, err := t.ensureHash(&n.Right)
			if err != nil {
				return nil, err
			}
			proof = append(proof, ProofNode{Kind: ProofBinary, LeftHash: leftHash, RightHash: rightHash})

			bit := remaining.Bit(0)
			remaining = remaining.Slice(1, remaining.Len())
			if bit == 0 {
				slot = &n.Left
			} else {
				slot = &n.Right
			}

		case *node.Edge:
			childHash, err := t.ensureHash(&n.Child)
			if err != nil {
				return nil, err
			}
			proof = append(proof, ProofNode{Kind: ProofEdge, Path: n.Path.Clone(), ChildHash: childHash})

			if remaining.Len() < n.Path.Len() || !remaining.Slice(0, n.Path.Len()).Equal(n.Path) {
				return proof, nil
			}
			remaining = remaining.Slice(n.Path.Len(), remaining.Len())
			slot = &n.Child

		default:
			return nil, corruption("getProof: unexpected node type %T", n)
		}
	}
}

// Verify checks that proof establishes key -> value against root under
// hasher, for a trie of the given height (spec.md §4.5). A zero value
// together with an empty or diverging proof establishes non-membership; any
// other combination must walk unbroken to a Leaf matching value.
func Verify(hasher Hasher, proof []ProofNode, key bitpath.Path, value felt.Felt, root felt.Felt, height int) error {
	if key.Len() != height {
		return ErrInvalidKey
	}

	if len(proof) == 0 {
		if !root.IsZero() || !value.IsZero() {
			return ErrInvalidProof
		}
		return nil
	}

	consumed := 0
	bitAt := make([]byte, len(proof))
	lastDiverged := false
	for i, p := range proof {
		switch p.Kind {
		case ProofBinary:
			if consumed >= key.Len() {
				return ErrInvalidProof
			}
			bitAt[i] = key.Bit(consumed)
			consumed++

		case ProofEdge:
			n := p.Path.Len()
			if n == 0 || consumed+n > key.Len() {
				return ErrInvalidProof
			}
			matches := key.Slice(consumed, consumed+n).Equal(p.Path)
			consumed += n
			if !matches {
				if i != len(proof)-1 {
					return ErrInvalidProof
				}
				lastDiverged = true
			}

		default:
			return ErrInvalidProof
		}
	}

	for i := 0; i < len(proof)-1; i++ {
		p := proof[i]
		var childHash felt.Felt
		switch p.Kind {
		case ProofBinary:
			if bitAt[i] == 0 {
				childHash = p.LeftHash
			} else {
				childHash = p.RightHash
			}
		case ProofEdge:
			childHash = p.ChildHash
		}
		if !childHash.Equal(proof[i+1].hash(hasher)) {
			return ErrInvalidProof
		}
	}

	// A non-zero value claims membership, which only a proof consuming the
	// whole key down to the Leaf's depth can establish.
	if !lastDiverged && !value.IsZero() && consumed != key.Len() {
		return ErrInvalidProof
	}

	// The terminal child's hash equals the stored value directly: a Leaf's
	// cached hash is its value, not a function of it (see Trie.commitNode).
	// This covers membership (child is the matching Leaf), Binary-absence
	// (child is nil, hashing to zero), and Edge non-membership (diverged:
	// only value == zero is accepted, since the edge's real child has no
	// relation to the queried key).
	last := proof[len(proof)-1]
	switch {
	case last.Kind == ProofEdge && lastDiverged:
		if !value.IsZero() {
			return ErrInvalidProof
		}
	case last.Kind == ProofBinary:
		var childHash felt.Felt
		if bitAt[len(proof)-1] == 0 {
			childHash = last.LeftHash
		} else {
			childHash = last.RightHash
		}
		if !childHash.Equal(value) {
			return ErrInvalidProof
		}
	case last.Kind == ProofEdge:
		if !last.ChildHash.Equal(value) {
			return ErrInvalidProof
		}
	}

	if !proof[0].hash(hasher).Equal(root) {
		return ErrInvalidProof
	}
	return nil
}
