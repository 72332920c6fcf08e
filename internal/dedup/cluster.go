package dedup

// unionFind groups candidate indexes into merge clusters. Matches are
// transitive: A~B and B~C put all three in one cluster even if A and C
// were never directly compared.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// clusters returns the connected components, keyed by root, with member
// order following the original candidate order.
func (uf *unionFind) clusters() map[int][]int {
	out := make(map[int][]int)
	for i := range uf.parent {
		root := uf.find(i)
		out[root] = append(out[root], i)
	}
	return out
}
