package store

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xethsign/pathfinder/bitpath"
	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle/internal/node"
)

func TestEncodeDecode_Leaf(t *testing.T) {
	leaf := node.NewLeaf(felt.FromUint64(42))
	leaf.SetCachedHash(felt.FromUint64(42))

	raw, err := Encode(leaf)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)

	got, ok := decoded.(*node.Leaf)
	require.True(t, ok)
	assert.True(t, got.Value.Equal(felt.FromUint64(42)))
}

func TestEncodeDecode_Binary(t *testing.T) {
	left := node.NewLeaf(felt.FromUint64(1))
	left.SetCachedHash(felt.FromUint64(1))
	right := node.NewLeaf(felt.FromUint64(2))
	right.SetCachedHash(felt.FromUint64(2))

	binary := node.NewBinary(left, right)
	binary.SetCachedHash(felt.FromUint64(99))

	raw, err := Encode(binary)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)

	got, ok := decoded.(*node.Binary)
	require.True(t, ok)

	leftHash, ok := got.Left.CachedHash()
	require.True(t, ok)
	assert.True(t, leftHash.Equal(felt.FromUint64(1)))

	rightHash, ok := got.Right.CachedHash()
	require.True(t, ok)
	assert.True(t, rightHash.Equal(felt.FromUint64(2)))

	// Children come back lazily unresolved, not decoded.
	_, isUnresolved := got.Left.(*node.Unresolved)
	assert.True(t, isUnresolved)
}

func TestEncodeDecode_Edge(t *testing.T) {
	child := node.NewLeaf(felt.FromUint64(7))
	child.SetCachedHash(felt.FromUint64(7))

	path := bitpath.Path{1, 0, 1, 1, 0}
	edge := node.NewEdge(path, child)
	edge.SetCachedHash(felt.FromUint64(123))

	raw, err := Encode(edge)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)

	got, ok := decoded.(*node.Edge)
	require.True(t, ok)
	assert.True(t, got.Path.Equal(path))

	childHash, ok := got.Child.CachedHash()
	require.True(t, ok)
	assert.True(t, childHash.Equal(felt.FromUint64(7)))
}

func TestEncode_RejectsDirtyChildren(t *testing.T) {
	left := node.NewLeaf(felt.FromUint64(1)) // dirty: no cached hash yet
	right := node.NewLeaf(felt.FromUint64(2))
	right.SetCachedHash(felt.FromUint64(2))

	binary := node.NewBinary(left, right)
	_, err := Encode(binary)
	assert.Error(t, err)
}

func TestDecode_RejectsZeroLengthEdgePath(t *testing.T) {
	childHash := felt.FromUint64(1).Bytes()
	body, err := rlp.EncodeToBytes(&edgeRLP{PathBits: nil, PathLen: 0, Child: childHash[:]})
	require.NoError(t, err)
	raw := append([]byte{byte(tagEdge)}, body...)

	_, err = Decode(raw)
	assert.Error(t, err)
}
