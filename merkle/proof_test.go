package merkle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle"
	"github.com/0xethsign/pathfinder/pedersen/blake2btest"
)

func TestGetProof_RequiresHashedSubtree(t *testing.T) {
	store := newMemStore()
	h := blake2btest.New()
	tr := merkle.NewEmpty(store, h, testHeight)

	k1 := path(0, 0, 0, 0)
	k2 := path(1, 0, 0, 0)
	require.NoError(t, tr.Set(k1, felt.FromUint64(11)))
	require.NoError(t, tr.Set(k2, felt.FromUint64(22)))

	// Dirty, uncommitted nodes carry no cached hash yet: GetProof must
	// refuse rather than walk through them.
	_, err := tr.GetProof(k1)
	assert.Error(t, err)

	_, _, err = tr.Commit()
	require.NoError(t, err)

	// A committed Trie is consumed; GetProof must be called on a fresh
	// Load of the persisted root instead.
	_, err = tr.GetProof(k1)
	assert.ErrorIs(t, err, merkle.ErrTrieConsumed)
}

func TestProof_CommitThenGetProofThenVerify(t *testing.T) {
	store := newMemStore()
	h := blake2btest.New()
	tr := merkle.NewEmpty(store, h, testHeight)

	k1 := path(0, 0, 0, 0)
	k2 := path(1, 0, 0, 0)
	v1 := felt.FromUint64(11)
	v2 := felt.FromUint64(22)
	require.NoError(t, tr.Set(k1, v1))
	require.NoError(t, tr.Set(k2, v2))
	root, added, err := tr.Commit()
	require.NoError(t, err)
	store.persist(added)

	// Rebuild a fresh, uncommitted view of the same persisted data to call
	// GetProof against (GetProof refuses a consumed Trie).
	view, err := merkle.Load(store, h, testHeight, root)
	require.NoError(t, err)
	proof, err := view.GetProof(k1)
	require.NoError(t, err)
	require.NoError(t, merkle.Verify(h, proof, k1, v1, root, testHeight))

	view2, err := merkle.Load(store, h, testHeight, root)
	require.NoError(t, err)
	proof2, err := view2.GetProof(k2)
	require.NoError(t, err)
	require.NoError(t, merkle.Verify(h, proof2, k2, v2, root, testHeight))
}

func TestVerify_RejectsTamperedValue(t *testing.T) {
	store := newMemStore()
	h := blake2btest.New()
	tr := merkle.NewEmpty(store, h, testHeight)

	k1 := path(0, 0, 0, 0)
	require.NoError(t, tr.Set(k1, felt.FromUint64(11)))
	require.NoError(t, tr.Set(path(1, 0, 0, 0), felt.FromUint64(22)))
	root, added, err := tr.Commit()
	require.NoError(t, err)
	store.persist(added)

	view, err := merkle.Load(store, h, testHeight, root)
	require.NoError(t, err)
	proof, err := view.GetProof(k1)
	require.NoError(t, err)

	err = merkle.Verify(h, proof, k1, felt.FromUint64(999), root, testHeight)
	assert.ErrorIs(t, err, merkle.ErrInvalidProof)
}

func TestVerify_NonMembershipProof(t *testing.T) {
	store := newMemStore()
	h := blake2btest.New()
	tr := merkle.NewEmpty(store, h, testHeight)

	// A single key occupies the whole trie as one Edge+Leaf.
	k1 := path(0, 0, 0, 0)
	require.NoError(t, tr.Set(k1, felt.FromUint64(11)))
	root, added, err := tr.Commit()
	require.NoError(t, err)
	store.persist(added)

	view, err := merkle.Load(store, h, testHeight, root)
	require.NoError(t, err)

	// A key that diverges from the stored Edge must produce a non-membership
	// proof ending at that Edge, with value == zero verifying successfully.
	absent := path(1, 1, 1, 1)
	proof, err := view.GetProof(absent)
	require.NoError(t, err)
	require.NoError(t, merkle.Verify(h, proof, absent, felt.Zero, root, testHeight))

	// Claiming membership for the absent key must fail.
	err = merkle.Verify(h, proof, absent, felt.FromUint64(1), root, testHeight)
	assert.ErrorIs(t, err, merkle.ErrInvalidProof)
}

func TestVerify_EmptyTrie(t *testing.T) {
	h := blake2btest.New()
	err := merkle.Verify(h, nil, path(0, 0, 0, 0), felt.Zero, felt.Zero, testHeight)
	assert.NoError(t, err)
}

func TestVerify_RejectsWrongKeyLength(t *testing.T) {
	h := blake2btest.New()
	err := merkle.Verify(h, nil, path(0, 0), felt.Zero, felt.Zero, testHeight)
	assert.ErrorIs(t, err, merkle.ErrInvalidKey)
}
