package lattice

import "sort"

// extractTriangles closes every edge pair sharing a vertex with the
// third edge completing a triangle. Faces are stored once, in
// counter-clockwise orientation (positive 2-D cross product).
// Complexity: O(E·d) with d the max vertex degree.
func (l *Lattice) extractTriangles() {
	adj := l.adjacency()
	isEdge := make(map[[2]int]bool, len(l.Edges))
	for _, e := range l.Edges {
		isEdge[e] = true
	}
	for _, e := range l.Edges {
		i, j := e[0], e[1]
		for _, k := range adj[i] {
			// Canonical i<j<k keeps each triangle reported once.
			if k <= j || !isEdge[edgeKey(j, k)] {
				continue
			}
			face := []int{i, j, k}
			if l.cross(i, j, k) < 0 {
				face = []int{i, k, j}
			}
			l.Faces = append(l.Faces, face)
		}
	}
}

// extractQuads searches 4-cycles x–y–z–w–x in the edge graph. Each
// cycle is canonicalized by its sorted vertex tuple and kept once,
// anchored at its minimum vertex and oriented by the cross sign of the
// two edges leaving the anchor.
func (l *Lattice) extractQuads() {
	adj := l.adjacency()
	isEdge := make(map[[2]int]bool, len(l.Edges))
	for _, e := range l.Edges {
		isEdge[e] = true
	}
	seen := make(map[[4]int]bool)
	for x := range l.Points {
		nb := adj[x]
		for a := 0; a < len(nb); a++ {
			for b := a + 1; b < len(nb); b++ {
				y, w := nb[a], nb[b]
				if y < x || w < x || isEdge[edgeKey(y, w)] {
					continue
				}
				// z closes the cycle opposite x.
				for _, z := range adj[y] {
					if z == x || z <= x || !isEdge[edgeKey(z, w)] || isEdge[edgeKey(x, z)] {
						continue
					}
					key := [4]int{x, y, z, w}
					sort.Ints(key[:])
					if seen[key] {
						continue
					}
					seen[key] = true
					face := []int{x, y, z, w}
					if l.cross(x, y, w) < 0 {
						face = []int{x, w, z, y}
					}
					l.Faces = append(l.Faces, face)
				}
			}
		}
	}
}

// pruneToQuads drops every vertex not touching a discovered quad and
// remaps the surviving indices in stable first-seen order. Edges with
// a dropped endpoint disappear with their rest lengths.
func (l *Lattice) pruneToQuads() {
	used := make([]bool, len(l.Points))
	for _, f := range l.Faces {
		for _, v := range f {
			used[v] = true
		}
	}
	remap := make([]int, len(l.Points))
	n := 0
	for i, u := range used {
		if !u {
			remap[i] = -1
			continue
		}
		remap[i] = n
		l.Transforms[n] = l.Transforms[i]
		l.Points[n] = l.Points[i]
		n++
	}
	l.Transforms = l.Transforms[:n]
	l.Points = l.Points[:n]

	edges := l.Edges[:0]
	rests := l.RestLens[:0]
	for k, e := range l.Edges {
		if remap[e[0]] < 0 || remap[e[1]] < 0 {
			continue
		}
		edges = append(edges, edgeKey(remap[e[0]], remap[e[1]]))
		rests = append(rests, l.RestLens[k])
	}
	l.Edges, l.RestLens = edges, rests

	for _, f := range l.Faces {
		for i, v := range f {
			f[i] = remap[v]
		}
	}
}
