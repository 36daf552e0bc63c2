// Package store implements the BMPT's stable serialized node format (spec.md
// §4.1/§6.4): a variant tag byte followed by RLP-encoded, variant-specific
// fields, using the teacher's own node serialization library
// (github.com/ethereum/go-ethereum/rlp, see turbotrie/internal/storage/decode.go).
//
// Encode never recurses into a child's bytes - children are referenced by
// hash only, so a node's encoded form only ever depends on its immediate
// children's already-computed hashes. Decode is the mirror: it produces a
// node whose children (if any) are node.Unresolved placeholders, deferring
// any further loading to the caller. This is what makes persisted nodes
// lazily loadable (spec.md §4.2).
package store

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/0xethsign/pathfinder/bitpath"
	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle/internal/node"
)

type tag byte

const (
	tagLeaf tag = iota
	tagBinary
	tagEdge
)

type leafRLP struct {
	Value []byte
}

type binaryRLP struct {
	Left  []byte
	Right []byte
}

type edgeRLP struct {
	PathBits []byte
	PathLen  uint16
	Child    []byte
}

// Encode serializes n - which must be clean, i.e. n and its immediate
// children already carry a cached hash - into its stable byte form.
func Encode(n node.Node) ([]byte, error) {
	switch n := n.(type) {
	case *node.Leaf:
		return encodeLeaf(n)
	case *node.Binary:
		return encodeBinary(n)
	case *node.Edge:
		return encodeEdge(n)
	default:
		return nil, fmt.Errorf("store: encode: unsupported node type %T", n)
	}
}

func encodeLeaf(n *node.Leaf) ([]byte, error) {
	v := n.Value.Bytes()
	body, err := rlp.EncodeToBytes(&leafRLP{Value: v[:]})
	if err != nil {
		return nil, fmt.Errorf("store: encode leaf: %w", err)
	}
	return append([]byte{byte(tagLeaf)}, body...), nil
}

func encodeBinary(n *node.Binary) ([]byte, error) {
	leftHash, ok := n.Left.CachedHash()
	if !ok {
		return nil, fmt.Errorf("store: encode binary: left child has no cached hash")
	}
	rightHash, ok := n.Right.CachedHash()
	if !ok {
		return nil, fmt.Errorf("store: encode binary: right child has no cached hash")
	}
	lb, rb := leftHash.Bytes(), rightHash.Bytes()
	body, err := rlp.EncodeToBytes(&binaryRLP{Left: lb[:], Right: rb[:]})
	if err != nil {
		return nil, fmt.Errorf("store: encode binary: %w", err)
	}
	return append([]byte{byte(tagBinary)}, body...), nil
}

func encodeEdge(n *node.Edge) ([]byte, error) {
	childHash, ok := n.Child.CachedHash()
	if !ok {
		return nil, fmt.Errorf("store: encode edge: child has no cached hash")
	}
	cb := childHash.Bytes()
	body, err := rlp.EncodeToBytes(&edgeRLP{
		PathBits: n.Path.Pack(),
		PathLen:  uint16(n.Path.Len()),
		Child:    cb[:],
	})
	if err != nil {
		return nil, fmt.Errorf("store: encode edge: %w", err)
	}
	return append([]byte{byte(tagEdge)}, body...), nil
}

// Decode deserializes b into a node.Node. Binary and Edge children come back
// as node.Unresolved placeholders; the caller is responsible for finalizing
// the decoded node's own cached hash (Decode does not know, and does not
// need to know, the hash it was looked up by).
func Decode(b []byte) (node.Node, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("store: decode: empty input")
	}

	switch tag(b[0]) {
	case tagLeaf:
		return decodeLeaf(b[1:])
	case tagBinary:
		return decodeBinary(b[1:])
	case tagEdge:
		return decodeEdge(b[1:])
	default:
		return nil, fmt.Errorf("store: decode: unknown node tag %d", b[0])
	}
}

func decodeLeaf(b []byte) (node.Node, error) {
	var v leafRLP
	if err := rlp.DecodeBytes(b, &v); err != nil {
		return nil, fmt.Errorf("store: decode leaf: %w", err)
	}
	value, err := felt.FromBytesBE(v.Value)
	if err != nil {
		return nil, fmt.Errorf("store: decode leaf: %w", err)
	}
	leaf := node.NewLeaf(value)
	leaf.SetCachedHash(value) // H_leaf(value) = value
	return leaf, nil
}

func decodeBinary(b []byte) (node.Node, error) {
	var v binaryRLP
	if err := rlp.DecodeBytes(b, &v); err != nil {
		return nil, fmt.Errorf("store: decode binary: %w", err)
	}
	leftHash, err := felt.FromBytesBE(v.Left)
	if err != nil {
		return nil, fmt.Errorf("store: decode binary: bad left hash: %w", err)
	}
	rightHash, err := felt.FromBytesBE(v.Right)
	if err != nil {
		return nil, fmt.Errorf("store: decode binary: bad right hash: %w", err)
	}
	return node.NewBinary(node.NewUnresolved(leftHash), node.NewUnresolved(rightHash)), nil
}

func decodeEdge(b []byte) (node.Node, error) {
	var v edgeRLP
	if err := rlp.DecodeBytes(b, &v); err != nil {
		return nil, fmt.Errorf("store: decode edge: %w", err)
	}
	path, err := bitpath.Unpack(v.PathBits, int(v.PathLen))
	if err != nil {
		return nil, fmt.Errorf("store: decode edge: %w", err)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("store: decode edge: path length 0 violates canonical form")
	}
	childHash, err := felt.FromBytesBE(v.Child)
	if err != nil {
		return nil, fmt.Errorf("store: decode edge: bad child hash: %w", err)
	}
	return node.NewEdge(path, node.NewUnresolved(childHash)), nil
}
