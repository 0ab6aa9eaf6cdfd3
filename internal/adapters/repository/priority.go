package repository

import "math/rand/v2"

// Treap-based priority index used by MemoryStore.
//
// Ordering: score DESC, then filing id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal produces the outreach
// queue from best to worst. Nodes carry subtree sizes, which makes the
// ordinal rank of any filing an O(log n) walk.

type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int) *node {
	if n == nil {
		return &node{id: id, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit ids in rank order.
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// position returns the 1-based ordinal rank of (score, id), or 0 when absent.
func position(n *node, id string, score int) int {
	before := 0
	for n != nil {
		switch {
		case score == n.score && id == n.id:
			return before + nsize(n.left) + 1
		case less(score, id, n.score, n.id):
			n = n.left
		default:
			before += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// priorityIndex keeps filing ids ordered for TopN and Rank. Not safe for
// concurrent use; MemoryStore guards it with its own lock.
type priorityIndex struct {
	root *node
}

func (p *priorityIndex) upsert(id string, oldScore, newScore int, existed bool) {
	if existed {
		if oldScore == newScore {
			return
		}
		p.root = deleteNode(p.root, id, oldScore)
	}
	p.root = insert(p.root, id, newScore)
}

func (p *priorityIndex) top(n int) []string {
	out := make([]string, 0, min(n, nsize(p.root)))
	collectTopN(p.root, n, &out)
	return out
}

func (p *priorityIndex) rank(id string, score int) int {
	return position(p.root, id, score)
}

func (p *priorityIndex) size() int {
	return nsize(p.root)
}
