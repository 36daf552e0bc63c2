// Package node implements the BMPT's node model: the four node variants
// described in spec.md §3/§4.1 (Leaf, Binary, Edge, Unresolved), each
// carrying a dirty bit and a cached-hash slot.
//
// The sum type is closed via an unexported marker method, mirroring the
// teacher's node.VersionedNode pattern (turbotrie/internal/node/node.go):
// callers type-switch on the concrete pointer types rather than on a tag
// field.
package node

import (
	"github.com/0xethsign/pathfinder/bitpath"
	"github.com/0xethsign/pathfinder/felt"
)

// Node is the sum type of the four BMPT node variants. A nil Node denotes an
// absent child - the trie never represents an empty subtree with an
// explicit node.
type Node interface {
	isNode()

	// Dirty reports whether the node (or a descendant) has been mutated
	// since it was last hashed.
	Dirty() bool

	// CachedHash returns the node's memoized hash and true, or the zero
	// value and false if the node is dirty and has no cached hash.
	CachedHash() (felt.Felt, bool)

	// SetCachedHash records h as the node's hash and clears its dirty bit.
	// Exposed on the interface (rather than only on the concrete types) so
	// a loader can finalize a just-decoded node without a type switch.
	SetCachedHash(h felt.Felt)
}

// Leaf carries a value at the current prefix. Its hash is the value itself
// (spec.md §3: H_leaf(value) = value).
type Leaf struct {
	Value felt.Felt

	dirty bool
	hash  *felt.Felt
}

// NewLeaf returns a fresh, dirty Leaf with the given value.
func NewLeaf(value felt.Felt) *Leaf {
	return &Leaf{Value: value, dirty: true}
}

func (*Leaf) isNode() {}

// Dirty implements Node.
func (l *Leaf) Dirty() bool { return l.dirty }

// CachedHash implements Node.
func (l *Leaf) CachedHash() (felt.Felt, bool) {
	if l.hash == nil {
		return felt.Zero, false
	}
	return *l.hash, true
}

// MarkDirty clears the cached hash and marks l for rehashing on commit.
func (l *Leaf) MarkDirty() {
	l.dirty = true
	l.hash = nil
}

// SetCachedHash records h as l's hash and clears the dirty bit.
func (l *Leaf) SetCachedHash(h felt.Felt) {
	l.hash = &h
	l.dirty = false
}

// Binary has two children indexed by the next key bit (0 = Left, 1 = Right).
// Its two children are never both nil (an empty Binary collapses away, see
// merkle's Trie.remove and extendWithBit) and never both Edges with complementary leading bits
// (such chains compress into an Edge above this Binary).
type Binary struct {
	Left, Right Node

	dirty bool
	hash  *felt.Felt
}

// NewBinary returns a fresh, dirty Binary with the given children.
func NewBinary(left, right Node) *Binary {
	return &Binary{Left: left, Right: right, dirty: true}
}

func (*Binary) isNode() {}

// Dirty implements Node.
func (b *Binary) Dirty() bool { return b.dirty }

// CachedHash implements Node.
func (b *Binary) CachedHash() (felt.Felt, bool) {
	if b.hash == nil {
		return felt.Zero, false
	}
	return *b.hash, true
}

// MarkDirty clears the cached hash and marks b for rehashing on commit.
func (b *Binary) MarkDirty() {
	b.dirty = true
	b.hash = nil
}

// SetCachedHash records h as b's hash and clears the dirty bit.
func (b *Binary) SetCachedHash(h felt.Felt) {
	b.hash = &h
	b.dirty = false
}

// Child returns the child indexed by the next key bit (0 == Left).
func (b *Binary) Child(bit byte) Node {
	if bit == 0 {
		return b.Left
	}
	return b.Right
}

// SetChild replaces the child indexed by bit.
func (b *Binary) SetChild(bit byte, n Node) {
	if bit == 0 {
		b.Left = n
	} else {
		b.Right = n
	}
}

// Edge is path-compression: a bit-path of length >= 1 followed by one child.
// The child is always a Binary or a Leaf; a mutation that would produce
// Edge-over-Edge instead merges the paths. Loading does not merge: a stored
// Edge whose stored child is itself an Edge is decoded and resolved as is.
type Edge struct {
	Path  bitpath.Path
	Child Node

	dirty bool
	hash  *felt.Felt
}

// NewEdge returns a fresh, dirty Edge over path with the given child. path
// must have length >= 1.
func NewEdge(path bitpath.Path, child Node) *Edge {
	return &Edge{Path: path, Child: child, dirty: true}
}

func (*Edge) isNode() {}

// Dirty implements Node.
func (e *Edge) Dirty() bool { return e.dirty }

// CachedHash implements Node.
func (e *Edge) CachedHash() (felt.Felt, bool) {
	if e.hash == nil {
		return felt.Zero, false
	}
	return *e.hash, true
}

// MarkDirty clears the cached hash and marks e for rehashing on commit.
func (e *Edge) MarkDirty() {
	e.dirty = true
	e.hash = nil
}

// SetCachedHash records h as e's hash and clears the dirty bit.
func (e *Edge) SetCachedHash(h felt.Felt) {
	e.hash = &h
	e.dirty = false
}

// Unresolved is a placeholder holding only a hash; its subtree has not yet
// been loaded from the NodeStore. Unresolved is never dirty: it is only ever
// produced by a loader and is replaced in place once resolved.
type Unresolved struct {
	Hash felt.Felt
}

// NewUnresolved returns an Unresolved placeholder for the subtree hashing to h.
func NewUnresolved(h felt.Felt) *Unresolved {
	return &Unresolved{Hash: h}
}

func (*Unresolved) isNode() {}

// Dirty implements Node. Unresolved nodes are never dirty.
func (*Unresolved) Dirty() bool { return false }

// CachedHash implements Node.
func (u *Unresolved) CachedHash() (felt.Felt, bool) { return u.Hash, true }

// SetCachedHash implements Node. An Unresolved is only ever constructed with
// its hash already known, so this simply keeps the field consistent with
// any corrected value (it is never a behavioral no-op in practice).
func (u *Unresolved) SetCachedHash(h felt.Felt) { u.Hash = h }
