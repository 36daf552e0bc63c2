// Package storagetrie wraps merkle.Trie with the per-contract storage
// domain: address -> value, persisted to the "tree_contracts" table
// (spec.md §4.7). It is a thin facade analogous to the teacher's
// turboTrieWrapper (turbotrie/turbotrie_statedb.go).
package storagetrie

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/0xethsign/pathfinder/bitpath"
	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle"
)

// Height is the fixed key length, in bits, of every storage trie.
const Height = 251

// Table is the logical NodeStore table per-contract storage nodes are
// persisted to (spec.md §6.3). The caller is responsible for handing Load a
// NodeStore already scoped to this table.
const Table = "tree_contracts"

// Address and Value are the domain types a storage trie maps between. Both
// are field elements; Address is reduced to a Height-bit key.
type Address = felt.Felt
type Value = felt.Felt

// Trie is a per-contract storage trie scoped to one ambient transaction.
type Trie struct {
	inner     *merkle.Trie
	nodeStore merkle.NodeStore
}

// Load constructs a Trie rooted at root (zero denotes the empty trie) over
// nodeStore, using hasher to combine node hashes.
func Load(nodeStore merkle.NodeStore, hasher merkle.Hasher, root felt.Felt) (*Trie, error) {
	inner, err := merkle.Load(nodeStore, hasher, Height, root)
	if err != nil {
		return nil, err
	}
	return &Trie{inner: inner, nodeStore: nodeStore}, nil
}

func key(addr Address) (bitpath.Path, error) {
	return bitpath.FromFelt(addr, Height)
}

// Get returns the value stored at addr, or (zero, false) if addr is absent.
func (t *Trie) Get(addr Address) (Value, bool, error) {
	k, err := key(addr)
	if err != nil {
		return felt.Zero, false, err
	}
	return t.inner.Get(k)
}

// Set maps addr to value. A zero value deletes addr.
func (t *Trie) Set(addr Address, value Value) error {
	k, err := key(addr)
	if err != nil {
		return err
	}
	return t.inner.Set(k, value)
}

// GetProof returns an inclusion (or non-inclusion) proof for addr.
func (t *Trie) GetProof(addr Address) ([]merkle.ProofNode, error) {
	k, err := key(addr)
	if err != nil {
		return nil, err
	}
	return t.inner.GetProof(k)
}

// DFS performs a depth-first traversal of t; see merkle.DFS.
func DFS[T any](t *Trie, visit func(n merkle.VisitedNode, path bitpath.Path) (merkle.Decision, T, bool)) (T, error) {
	return merkle.DFS(t.inner, visit)
}

// CommitAndPersistChanges rehashes every dirty node, writes the newly
// produced (hash, bytes) pairs to the underlying NodeStore, and returns the
// new root. The Trie is consumed afterward; reload it from the new root to
// continue (spec.md §4.4).
func (t *Trie) CommitAndPersistChanges() (felt.Felt, error) {
	log.Info("storagetrie: commit_and_persist_changes start", "table", Table)
	root, added, err := t.inner.Commit()
	if err != nil {
		return felt.Zero, err
	}
	for hash, raw := range added {
		if err := t.nodeStore.Insert(hash, raw); err != nil {
			return felt.Zero, err
		}
	}
	log.Info("storagetrie: commit_and_persist_changes done", "table", Table, "nodes", len(added), "root", root.String())
	return root, nil
}
