package repository

import (
	"math/rand/v2"

	"github.com/okian/momentum/internal/domain/model"
)

// velocityIndex is a treap ordered by velocity DESC, then domain ASC, so an
// in-order walk yields the leaderboard.
type velocityIndex struct {
	root *node
}

type node struct {
	domain   model.Domain
	velocity float64
	prio     uint64
	left     *node
	right    *node
	size     int
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

// less reports whether (av, ad) ranks ahead of (bv, bd).
func less(av float64, ad model.Domain, bv float64, bd model.Domain) bool {
	if av != bv {
		return av > bv
	}
	return ad < bd
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, d model.Domain, v float64) *node {
	if n == nil {
		return &node{domain: d, velocity: v, prio: rand.Uint64(), size: 1}
	}
	if less(v, d, n.velocity, n.domain) {
		n.left = insert(n.left, d, v)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, d, v)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, d model.Domain, v float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.domain == d && n.velocity == v:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, d, v)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, d, v)
		}
	case less(v, d, n.velocity, n.domain):
		n.left = remove(n.left, d, v)
	default:
		n.right = remove(n.right, d, v)
	}
	fix(n)
	return n
}

func (ix *velocityIndex) upsert(d model.Domain, old float64, hadOld bool, v float64) {
	if hadOld {
		ix.root = remove(ix.root, d, old)
	}
	ix.root = insert(ix.root, d, v)
}

func (ix *velocityIndex) len() int { return nsize(ix.root) }

// top appends up to limit domains in leaderboard order.
func (ix *velocityIndex) top(limit int) []model.Domain {
	out := make([]model.Domain, 0, min(limit, ix.len()))
	collect(ix.root, limit, &out)
	return out
}

func collect(n *node, limit int, out *[]model.Domain) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.domain)
	}
	collect(n.right, limit, out)
}
