package imagecull

// SimilarityGroup is a set of near-duplicate images from one folder. Anchor is
// kept; Duplicates are quarantined.
type SimilarityGroup struct {
	Anchor     HashedImage
	Duplicates []HashedImage
}

// Members returns the anchor followed by its duplicates.
func (g SimilarityGroup) Members() []HashedImage {
	return append([]HashedImage{g.Anchor}, g.Duplicates...)
}

// GroupAnchored clusters items in enumeration order. Each unvisited item opens
// a group and claims every later unvisited item within threshold of itself.
// Members are compared only against the anchor, never against each other, so
// a chain A~B, B~C with A far from C yields {A,B} and leaves C on its own.
// Groups without duplicates are omitted.
func GroupAnchored(items []HashedImage, threshold int) []SimilarityGroup {
	visited := make([]bool, len(items))
	var groups []SimilarityGroup

	for i := range items {
		if visited[i] {
			continue
		}
		visited[i] = true
		group := SimilarityGroup{Anchor: items[i]}

		for j := i + 1; j < len(items); j++ {
			if visited[j] {
				continue
			}
			if items[i].Fingerprint.Distance(items[j].Fingerprint) <= threshold {
				group.Duplicates = append(group.Duplicates, items[j])
				visited[j] = true
			}
		}

		if len(group.Duplicates) > 0 {
			groups = append(groups, group)
		}
	}

	return groups
}

// GroupTransitive merges every pair within threshold (single-linkage). The
// anchor of each component is its first-enumerated member and the remaining
// members keep enumeration order.
func GroupTransitive(items []HashedImage, threshold int) []SimilarityGroup {
	uf := newUnionFind(len(items))
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if items[i].Fingerprint.Distance(items[j].Fingerprint) <= threshold {
				uf.union(i, j)
			}
		}
	}

	index := make(map[int]int)
	var groups []SimilarityGroup
	for i, item := range items {
		root := uf.find(i)
		gi, ok := index[root]
		if !ok {
			index[root] = len(groups)
			groups = append(groups, SimilarityGroup{Anchor: item})
			continue
		}
		groups[gi].Duplicates = append(groups[gi].Duplicates, item)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.Duplicates) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// Group dispatches to the configured grouping policy.
func (cfg *Config) Group(items []HashedImage) []SimilarityGroup {
	cfg.defaults()

	if cfg.Grouping == GroupingTransitive {
		return GroupTransitive(items, cfg.distanceThreshold())
	}
	return GroupAnchored(items, cfg.distanceThreshold())
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}
