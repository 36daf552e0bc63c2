package storagetrie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xethsign/pathfinder/bitpath"
	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle"
	"github.com/0xethsign/pathfinder/pedersen/blake2btest"
	"github.com/0xethsign/pathfinder/storagetrie"
)

type memStore struct {
	m map[felt.Felt][]byte
}

func newMemStore() *memStore { return &memStore{m: make(map[felt.Felt][]byte)} }

func (s *memStore) Get(hash felt.Felt) ([]byte, error) { return s.m[hash], nil }

func (s *memStore) Insert(hash felt.Felt, raw []byte) error {
	s.m[hash] = raw
	return nil
}

func TestTrie_SetGetCommitReload(t *testing.T) {
	store := newMemStore()
	h := blake2btest.New()

	tr, err := storagetrie.Load(store, h, felt.Zero)
	require.NoError(t, err)

	addr := felt.FromUint64(0xabc)
	value := felt.FromUint64(7)
	require.NoError(t, tr.Set(addr, value))

	root, err := tr.CommitAndPersistChanges()
	require.NoError(t, err)
	assert.False(t, root.IsZero())

	reloaded, err := storagetrie.Load(store, h, root)
	require.NoError(t, err)
	got, ok, err := reloaded.Get(addr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(value))
}

func TestTrie_GetProofRoundTrips(t *testing.T) {
	store := newMemStore()
	h := blake2btest.New()

	tr, err := storagetrie.Load(store, h, felt.Zero)
	require.NoError(t, err)

	addr := felt.FromUint64(42)
	value := felt.FromUint64(99)
	require.NoError(t, tr.Set(addr, value))
	root, err := tr.CommitAndPersistChanges()
	require.NoError(t, err)

	view, err := storagetrie.Load(store, h, root)
	require.NoError(t, err)
	proof, err := view.GetProof(addr)
	require.NoError(t, err)

	key, err := bitpath.FromFelt(addr, storagetrie.Height)
	require.NoError(t, err)
	require.NoError(t, merkle.Verify(h, proof, key, value, root, storagetrie.Height))
}

func TestDFS_VisitsUncommittedTrie(t *testing.T) {
	store := newMemStore()
	h := blake2btest.New()

	tr, err := storagetrie.Load(store, h, felt.Zero)
	require.NoError(t, err)
	require.NoError(t, tr.Set(felt.FromUint64(1), felt.FromUint64(11)))

	leaves := 0
	_, err = storagetrie.DFS(tr, func(n merkle.VisitedNode, p bitpath.Path) (merkle.Decision, struct{}, bool) {
		if n.Kind == merkle.KindLeaf {
			leaves++
		}
		return merkle.DecisionContinue, struct{}{}, false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, leaves)
}

func TestGet_AbsentAddress(t *testing.T) {
	store := newMemStore()
	h := blake2btest.New()
	tr, err := storagetrie.Load(store, h, felt.Zero)
	require.NoError(t, err)

	_, ok, err := tr.Get(felt.FromUint64(123))
	require.NoError(t, err)
	assert.False(t, ok)
}
