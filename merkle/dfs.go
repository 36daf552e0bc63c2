package merkle

import (
	"github.com/0xethsign/pathfinder/bitpath"
	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle/internal/node"
)

// NodeKind identifies which of the three visitable node shapes a VisitedNode
// represents. Unresolved nodes are transparently resolved before visiting,
// so DFS callers never see them.
type NodeKind int

const (
	KindLeaf NodeKind = iota
	KindBinary
	KindEdge
)

// VisitedNode is the public, read-only view of a node handed to a DFS
// visitor. Only the fields relevant to Kind are populated.
type VisitedNode struct {
	Kind NodeKind
	Hash felt.Felt

	Value felt.Felt // KindLeaf

	LeftHash, RightHash felt.Felt // KindBinary

	Path bitpath.Path // KindEdge
}

func toVisitedNode(n node.Node) (VisitedNode, error) {
	hash, _ := n.CachedHash()

	switch n := n.(type) {
	case *node.Leaf:
		return VisitedNode{Kind: KindLeaf, Hash: hash, Value: n.Value}, nil
	case *node.Binary:
		leftHash, _ := n.Left.CachedHash()
		rightHash, _ := n.Right.CachedHash()
		return VisitedNode{Kind: KindBinary, Hash: hash, LeftHash: leftHash, RightHash: rightHash}, nil
	case *node.Edge:
		return VisitedNode{Kind: KindEdge, Hash: hash, Path: n.Path.Clone()}, nil
	default:
		return VisitedNode{}, corruption("dfs: unexpected node type %T", n)
	}
}

// Decision is a DFS visitor's instruction for how to continue the traversal.
type Decision int

const (
	// DecisionContinue descends into the visited node's children.
	DecisionContinue Decision = iota
	// DecisionSkip does not descend into the visited node's children, but
	// the traversal otherwise continues (e.g. to the Binary's sibling).
	DecisionSkip
)

// DFS performs a pre-order (parent before children, left before right)
// depth-first traversal of t, resolving node.Unresolved placeholders as it
// goes (spec.md §4.6). visit is called with each node and its bit-path from
// the root; returning stop == true halts the traversal immediately and DFS
// returns result. If the traversal runs to completion without stopping, DFS
// returns the zero value of T.
func DFS[T any](t *Trie, visit func(n VisitedNode, path bitpath.Path) (decision Decision, result T, stop bool)) (T, error) {
	var zero T
	if t.committed {
		return zero, ErrTrieConsumed
	}

	stopped, result, err := dfsWalk(t, &t.root, bitpath.Path{}, visit)
	if err != nil {
		return zero, err
	}
	if stopped {
		return result, nil
	}
	return zero, nil
}

func dfsWalk[T any](t *Trie, slot *node.Node, path bitpath.Path, visit func(VisitedNode, bitpath.Path) (Decision, T, bool)) (bool, T, error) {
	var zero T

	if err := t.resolveSlot(slot); err != nil {
		return false, zero, err
	}
	n := *slot
	if n == nil {
		return false, zero, nil
	}

	vn, err := toVisitedNode(n)
	if err != nil {
		return false, zero, err
	}

	decision, result, stop := visit(vn, path)
	if stop {
		return true, result, nil
	}
	if decision == DecisionSkip {
		return false, zero, nil
	}

	switch n := n.(type) {
	case *node.Leaf:
		return false, zero, nil

	case *node.Binary:
		stopped, result, err := dfsWalk(t, &n.Left, path.Join(bitpath.Path{0}), visit)
		if err != nil || stopped {
			return stopped, result, err
		}
		return dfsWalk(t, &n.Right, path.Join(bitpath.Path{1}), visit)

	case *node.Edge:
		return dfsWalk(t, &n.Child, path.Join(n.Path), visit)

	default:
		return false, zero, corruption("dfs: unexpected node type %T", n)
	}
}
