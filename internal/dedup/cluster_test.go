package dedup

import "testing"

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(5)
	uf.union(0, 1)
	uf.union(1, 2)
	uf.union(3, 4)

	if uf.find(0) != uf.find(2) {
		t.Error("0 and 2 should share a root after transitive unions")
	}
	if uf.find(0) == uf.find(3) {
		t.Error("0 and 3 should stay in separate components")
	}

	clusters := uf.clusters()
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	for _, members := range clusters {
		for i := 1; i < len(members); i++ {
			if members[i] < members[i-1] {
				t.Errorf("cluster members out of candidate order: %v", members)
			}
		}
	}
}
