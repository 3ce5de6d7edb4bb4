package grid

import "landcycle/internal/ecosim/geometry"

// vertex returns the 3-D position of a cell: its (x, y) grid coordinate
// and its terrain height.
func (g *Grid) vertex(idx CellIndex) geometry.Vec3 {
	x, y := g.PositionOf(idx)
	return geometry.Vec3{X: x, Y: y, Z: g.At(idx).Height()}
}

// normalOfTriangle is the upward-facing normal of the triangle formed by
// three adjacent cells, used as a face normal in the per-vertex normal
// estimate below.
func (g *Grid) normalOfTriangle(i1, i2, i3 CellIndex) geometry.Vec3 {
	a := g.vertex(i1)
	b := g.vertex(i2)
	c := g.vertex(i3)
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	if n.Z < 0 {
		n.Z = -n.Z
	}
	return n
}

// Normal estimates the surface normal at a cell as the normalized sum of
// the up-to-4 adjacent triangle face normals formed with its orthogonal
// neighbors.
func (g *Grid) Normal(idx CellIndex) geometry.Vec3 {
	x, y := idx.X, idx.Y
	north := CellIndex{X: x, Y: y - 1}
	south := CellIndex{X: x, Y: y + 1}
	west := CellIndex{X: x - 1, Y: y}
	east := CellIndex{X: x + 1, Y: y}

	var sum geometry.Vec3
	if g.InBounds(north) && g.InBounds(west) {
		sum = sum.Add(g.normalOfTriangle(idx, north, west))
	}
	if g.InBounds(west) && g.InBounds(south) {
		sum = sum.Add(g.normalOfTriangle(idx, west, south))
	}
	if g.InBounds(east) && g.InBounds(north) {
		sum = sum.Add(g.normalOfTriangle(idx, east, north))
	}
	if g.InBounds(south) && g.InBounds(east) {
		sum = sum.Add(g.normalOfTriangle(idx, south, east))
	}
	return sum.Normalize()
}

func (g *Grid) curvatureBetween(i1, i2 CellIndex) float64 {
	n1 := g.Normal(i1)
	n2 := g.Normal(i2)
	p1 := g.vertex(i1)
	p2 := g.vertex(i2)
	diff := p2.Sub(p1)
	num := n2.Sub(n1).Dot(diff.Normalize())
	denom := diff.Norm()
	if denom == 0 {
		return 0
	}
	return num / denom
}

// EstimateCurvature returns the mean curvature at a cell along its four
// orthogonal neighbor directions, used by the lightning kernel to find
// sharp, lightning-rod-like terrain features.
func (g *Grid) EstimateCurvature(idx CellIndex) float64 {
	x, y := idx.X, idx.Y
	dirs := []CellIndex{
		{X: x, Y: y - 1},
		{X: x, Y: y + 1},
		{X: x - 1, Y: y},
		{X: x + 1, Y: y},
	}
	var sum float64
	var count int
	for _, n := range dirs {
		if g.InBounds(n) {
			sum += g.curvatureBetween(idx, n)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
