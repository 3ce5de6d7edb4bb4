package geometry

import "math"

// Triangle is a single triangle in 3-space, tested for ray intersection
// via the Moller-Trumbore algorithm.
type Triangle struct {
	A, B, C Vec3
}

const intersectionEpsilon = 1e-5

// Intersects returns the ray parameter t of the intersection between the
// ray (origin, dir) and this triangle, or false if the ray misses, is
// parallel to the triangle's plane, or intersects behind the origin.
func (t Triangle) Intersects(origin, dir Vec3) (float64, bool) {
	edge1 := t.B.Sub(t.A)
	edge2 := t.C.Sub(t.A)
	h := dir.Cross(edge2)
	a := edge1.Dot(h)
	if math.Abs(a) < intersectionEpsilon {
		return 0, false
	}
	f := 1.0 / a
	s := origin.Sub(t.A)
	u := f * s.Dot(h)
	if u < -intersectionEpsilon || u > 1+intersectionEpsilon {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * dir.Dot(q)
	if v < -intersectionEpsilon || u+v > 1+intersectionEpsilon {
		return 0, false
	}
	tParam := f * edge2.Dot(q)
	if tParam <= intersectionEpsilon {
		return 0, false
	}
	return tParam, true
}

// CellTetrahedron is the pair of triangles spanning the quad formed by a
// cell and its three neighbors to the right, below, and diagonally
// below-right — the unit of terrain surface the illumination engine
// ray-traces against. Named for the tetrahedron its four corner
// heights span even though only two of its four faces (the top pair)
// are tested; the solid's other two faces are never hit by a
// downward-ish sun ray and are omitted.
type CellTetrahedron struct {
	TopLeft, TopRight, BottomLeft, BottomRight Vec3
	upper, lower                               Triangle
}

// NewCellTetrahedron builds the tet from the four corner heights of a
// cell quad. heights are indexed top-left, top-right, bottom-left,
// bottom-right.
func NewCellTetrahedron(topLeft, topRight, bottomLeft, bottomRight Vec3) CellTetrahedron {
	t := CellTetrahedron{
		TopLeft: topLeft, TopRight: topRight,
		BottomLeft: bottomLeft, BottomRight: bottomRight,
	}
	t.upper = Triangle{A: topLeft, B: bottomLeft, C: topRight}
	t.lower = Triangle{A: bottomLeft, B: bottomRight, C: topRight}
	return t
}

// Intersects reports whether the ray (origin, dir) hits either triangle
// of the tet.
func (t CellTetrahedron) Intersects(origin, dir Vec3) bool {
	if _, ok := t.upper.Intersects(origin, dir); ok {
		return true
	}
	_, ok := t.lower.Intersects(origin, dir)
	return ok
}
