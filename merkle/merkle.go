// Package merkle implements the Binary Merkle-Patricia Trie (BMPT) core:
// node representation with path compression, lazy loading of persisted
// nodes, batched commitment that rehashes only dirty subtrees, and
// generation of Merkle inclusion proofs (spec.md §§2-4).
//
// The engine is deliberately agnostic to how nodes are persisted and how
// hashes are computed: both are injected via the NodeStore and Hasher
// interfaces (spec.md §6), so callers can back a Trie with any transactional
// row store and any collision-resistant hash function.
package merkle

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/0xethsign/pathfinder/bitpath"
	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle/internal/node"
	"github.com/0xethsign/pathfinder/merkle/internal/store"
)

// NodeStore is the external, transaction-scoped, content-addressed node
// persistence layer (spec.md §6.1). Insert must be idempotent on identical
// (hash, serialized) pairs. Get must return (nil, nil) only for a hash that
// was never inserted; returning that for a hash referenced by a reachable
// parent is a NodeStore bug that the trie turns into ErrStorageCorruption.
type NodeStore interface {
	Get(hash felt.Felt) ([]byte, error)
	Insert(hash felt.Felt, serialized []byte) error
}

// Hasher is the external, injected hash function (spec.md §6.2): a
// deterministic, collision-resistant combination of two field elements.
type Hasher interface {
	Hash(a, b felt.Felt) felt.Felt
}

// Trie is a single Binary Merkle-Patricia Trie instance, scoped to one
// ambient transaction for its entire lifetime. A Trie is not safe for
// concurrent use (spec.md §5).
type Trie struct {
	nodeStore NodeStore
	hasher    Hasher
	height    int

	root      node.Node
	committed bool
}

// NewEmpty returns a Trie with no keys set, backed by nodeStore and hasher,
// with a fixed key height.
func NewEmpty(nodeStore NodeStore, hasher Hasher, height int) *Trie {
	return &Trie{nodeStore: nodeStore, hasher: hasher, height: height}
}

// Load returns a Trie rooted at root. A zero root denotes the empty trie
// (spec.md §4.7). The root is not eagerly fetched: it remains an
// node.Unresolved placeholder until the first operation that needs it,
// consistent with the trie's lazy-loading contract.
func Load(nodeStore NodeStore, hasher Hasher, height int, root felt.Felt) (*Trie, error) {
	t := NewEmpty(nodeStore, hasher, height)
	if !root.IsZero() {
		t.root = node.NewUnresolved(root)
	}
	return t, nil
}

// Height returns the trie's fixed key length in bits.
func (t *Trie) Height() int {
	return t.height
}

// resolveSlot replaces *slot with its decoded form if it currently holds an
// node.Unresolved placeholder, mutating the tree in place (spec.md §4.2).
func (t *Trie) resolveSlot(slot *node.Node) error {
	if *slot == nil {
		return nil
	}
	u, ok := (*slot).(*node.Unresolved)
	if !ok {
		return nil
	}

	raw, err := t.nodeStore.Get(u.Hash)
	if err != nil {
		return storageIO(err)
	}
	if raw == nil {
		log.Error("merkle: dangling node reference", "hash", u.Hash.String())
		return corruption("no node stored for hash %s", u.Hash.String())
	}

	decoded, err := store.Decode(raw)
	if err != nil {
		return corruption("decoding node %s: %v", u.Hash.String(), err)
	}
	decoded.SetCachedHash(u.Hash)
	*slot = decoded
	return nil
}

// Get returns the value stored at key, or (zero, false) if key is absent
// (spec.md §4.2).
func (t *Trie) Get(key bitpath.Path) (felt.Felt, bool, error) {
	if t.committed {
		return felt.Zero, false, ErrTrieConsumed
	}
	if key.Len() != t.height {
		return felt.Zero, false, ErrInvalidKey
	}
	return t.get(&t.root, key)
}

func (t *Trie) get(slot *node.Node, key bitpath.Path) (felt.Felt, bool, error) {
	if err := t.resolveSlot(slot); err != nil {
		return felt.Zero, false, err
	}

	switch n := (*slot).(type) {
	case nil:
		return felt.Zero, false, nil
	case *node.Leaf:
		if key.Len() != 0 {
			return felt.Zero, false, corruption("leaf reached with %d bits remaining", key.Len())
		}
		return n.Value, true, nil
	case *node.Binary:
		if key.Len() == 0 {
			return felt.Zero, false, corruption("binary node reached with no key bits remaining")
		}
		if key.Bit(0) == 0 {
			return t.get(&n.Left, key.Slice(1, key.Len()))
		}
		return t.get(&n.Right, key.Slice(1, key.Len()))
	case *node.Edge:
		if key.Len() < n.Path.Len() || !key.Slice(0, n.Path.Len()).Equal(n.Path) {
			return felt.Zero, false, nil
		}
		return t.get(&n.Child, key.Slice(n.Path.Len(), key.Len()))
	default:
		return felt.Zero, false, corruption("get: unexpected node type %T", n)
	}
}

// Set maps key to value. Setting value to zero deletes key (spec.md §4.3,
// §9: the zero value is semantically "absent").
func (t *Trie) Set(key bitpath.Path, value felt.Felt) error {
	if t.committed {
		return ErrTrieConsumed
	}
	if key.Len() != t.height {
		return ErrInvalidKey
	}

	if value.IsZero() {
		if _, err := t.remove(&t.root, key); err != nil {
			return err
		}
		return nil
	}

	if _, err := t.insert(&t.root, key, value); err != nil {
		return err
	}
	return nil
}

// insert mutates *slot so that it represents key -> value, returning whether
// anything actually changed (an identical overwrite is a no-op, matching the
// teacher's TurboTrie.put: turbotrie/turbotrie.go).
func (t *Trie) insert(slot *node.Node, key bitpath.Path, value felt.Felt) (bool, error) {
	if err := t.resolveSlot(slot); err != nil {
		return false, err
	}

	switch n := (*slot).(type) {
	case nil:
		*slot = terminal(key, value)
		return true, nil

	case *node.Leaf:
		if key.Len() != 0 {
			return false, corruption("leaf reached with %d bits remaining", key.Len())
		}
		if n.Value.Equal(value) {
			return false, nil
		}
		*slot = node.NewLeaf(value)
		return true, nil

	case *node.Binary:
		if key.Len() == 0 {
			return false, corruption("binary node reached with no key bits remaining")
		}
		bit := key.Bit(0)
		childSlot := &n.Left
		if bit != 0 {
			childSlot = &n.Right
		}
		changed, err := t.insert(childSlot, key.Slice(1, key.Len()), value)
		if err != nil || !changed {
			return false, err
		}
		n.MarkDirty()
		return true, nil

	case *node.Edge:
		commonLen := key.PrefixLen(n.Path)
		if commonLen == n.Path.Len() {
			changed, err := t.insert(&n.Child, key.Slice(n.Path.Len(), key.Len()), value)
			if err != nil || !changed {
				return false, err
			}
			n.MarkDirty()
			return true, nil
		}

		*slot = splitEdge(n, key, value, commonLen)
		return true, nil

	default:
		return false, corruption("set: unexpected node type %T", n)
	}
}

// splitEdge handles spec.md §4.3's split case: the key diverges from an
// Edge's path at bit offset commonLen. It builds the common-prefix Edge (if
// any) above a new Binary whose two children are the remainder of the
// original Edge/child and the new inserted suffix.
func splitEdge(n *node.Edge, key bitpath.Path, value felt.Felt, commonLen int) node.Node {
	oldBit := n.Path.Bit(commonLen)
	newBit := key.Bit(commonLen)

	oldRemainder := n.Path.Slice(commonLen+1, n.Path.Len())
	var oldSubtree node.Node = n.Child
	if oldRemainder.Len() > 0 {
		oldSubtree = node.NewEdge(oldRemainder.Clone(), n.Child)
	}

	newRemainder := key.Slice(commonLen+1, key.Len())
	newSubtree := terminal(newRemainder, value)

	binary := node.NewBinary(nil, nil)
	if oldBit == 0 {
		binary.Left, binary.Right = oldSubtree, newSubtree
	} else {
		binary.Left, binary.Right = newSubtree, oldSubtree
	}

	if commonLen == 0 {
		return binary
	}
	return node.NewEdge(n.Path.Slice(0, commonLen).Clone(), binary)
}

// terminal builds the Edge+Leaf (or bare Leaf, if key is already empty)
// subtree for a brand new key (spec.md §4.3 point 3).
func terminal(key bitpath.Path, value felt.Felt) node.Node {
	leaf := node.NewLeaf(value)
	if key.Len() == 0 {
		return leaf
	}
	return node.NewEdge(key.Clone(), leaf)
}

// remove mutates *slot to no longer contain key, re-canonicalizing on the
// way up per spec.md §4.3 point 4. It returns whether anything changed;
// deleting an absent key is a no-op (testable property 3).
func (t *Trie) remove(slot *node.Node, key bitpath.Path) (bool, error) {
	if err := t.resolveSlot(slot); err != nil {
		return false, err
	}

	switch n := (*slot).(type) {
	case nil:
		return false, nil

	case *node.Leaf:
		if key.Len() != 0 {
			return false, corruption("leaf reached with %d bits remaining", key.Len())
		}
		*slot = nil
		return true, nil

	case *node.Binary:
		if key.Len() == 0 {
			return false, corruption("binary node reached with no key bits remaining")
		}
		bit := key.Bit(0)
		childSlot, siblingSlot := &n.Left, &n.Right
		if bit != 0 {
			childSlot, siblingSlot = &n.Right, &n.Left
		}

		changed, err := t.remove(childSlot, key.Slice(1, key.Len()))
		if err != nil || !changed {
			return false, err
		}

		if *childSlot != nil {
			n.MarkDirty()
			return true, nil
		}

		// This side collapsed to empty; canonicalize by folding the
		// sibling's subtree up one level, prefixed with its bit.
		if err := t.resolveSlot(siblingSlot); err != nil {
			return false, err
		}
		collapsed, err := extendWithBit(*siblingSlot, 1-bit)
		if err != nil {
			return false, err
		}
		*slot = collapsed
		return true, nil

	case *node.Edge:
		if key.Len() < n.Path.Len() || !key.Slice(0, n.Path.Len()).Equal(n.Path) {
			return false, nil
		}

		changed, err := t.remove(&n.Child, key.Slice(n.Path.Len(), key.Len()))
		if err != nil || !changed {
			return false, err
		}

		if n.Child == nil {
			*slot = nil
			return true, nil
		}
		*slot = mergeEdge(n.Path, n.Child)
		return true, nil

	default:
		return false, corruption("remove: unexpected node type %T", n)
	}
}

// extendWithBit folds n up one level, prepending bit to its effective path.
// n must already be resolved (not node.Unresolved).
func extendWithBit(n node.Node, bit byte) (node.Node, error) {
	if n == nil {
		return nil, corruption("binary collapse: sibling subtree is empty")
	}
	if e, ok := n.(*node.Edge); ok {
		return node.NewEdge(bitpath.Path{bit}.Join(e.Path), e.Child), nil
	}
	return node.NewEdge(bitpath.Path{bit}, n), nil
}

// mergeEdge builds an Edge over path and child, merging with child's own
// path if child is itself an Edge (Edges are never nested, spec.md §3).
func mergeEdge(path bitpath.Path, child node.Node) node.Node {
	if e, ok := child.(*node.Edge); ok {
		return node.NewEdge(path.Join(e.Path), e.Child)
	}
	return node.NewEdge(path, child)
}

// Commit walks dirty nodes bottom-up, computing a hash for each and
// accumulating their serialized bytes, then returns the new root hash
// (spec.md §4.4). Committing consumes the Trie: subsequent calls on it
// return ErrTrieConsumed.
func (t *Trie) Commit() (felt.Felt, map[felt.Felt][]byte, error) {
	if t.committed {
		return felt.Zero, nil, ErrTrieConsumed
	}

	added := make(map[felt.Felt][]byte)
	if err := t.commitNode(&t.root, added); err != nil {
		return felt.Zero, nil, err
	}
	t.committed = true

	if t.root == nil {
		log.Info("merkle: commit done", "nodes", len(added), "root", felt.Zero.String())
		return felt.Zero, added, nil
	}
	rootHash, _ := t.root.CachedHash()
	log.Info("merkle: commit done", "nodes", len(added), "root", rootHash.String())
	return rootHash, added, nil
}

func (t *Trie) commitNode(slot *node.Node, added map[felt.Felt][]byte) error {
	n := *slot
	if n == nil || !n.Dirty() {
		return nil
	}

	switch n := n.(type) {
	case *node.Leaf:
		n.SetCachedHash(n.Value)

	case *node.Binary:
		if err := t.commitNode(&n.Left, added); err != nil {
			return err
		}
		if err := t.commitNode(&n.Right, added); err != nil {
			return err
		}
		leftHash, ok := n.Left.CachedHash()
		if !ok {
			return corruption("commit: left child missing a hash")
		}
		rightHash, ok := n.Right.CachedHash()
		if !ok {
			return corruption("commit: right child missing a hash")
		}
		n.SetCachedHash(t.hasher.Hash(leftHash, rightHash))

	case *node.Edge:
		if err := t.commitNode(&n.Child, added); err != nil {
			return err
		}
		childHash, ok := n.Child.CachedHash()
		if !ok {
			return corruption("commit: edge child missing a hash")
		}
		combined := t.hasher.Hash(childHash, n.Path.Felt())
		n.SetCachedHash(combined.Add(felt.FromUint64(uint64(n.Path.Len()))))

	default:
		return corruption("commit: unexpected node type %T", n)
	}

	hash, _ := n.CachedHash()
	raw, err := store.Encode(n)
	if err != nil {
		return err
	}
	added[hash] = raw
	return nil
}
