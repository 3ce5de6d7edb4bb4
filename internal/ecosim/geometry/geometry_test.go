package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_AddSubScale(t *testing.T) {
	a := Vec3{X: 1, Y: 2, Z: 3}
	b := Vec3{X: 4, Y: 5, Z: 6}
	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
}

func TestVec3_DotAndCrossOrthogonal(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}
	assert.Equal(t, 0.0, x.Dot(y))
	assert.Equal(t, Vec3{Z: 1}, x.Cross(y))
}

func TestVec3_NormalizeZeroVectorIsUnchanged(t *testing.T) {
	z := Vec3{}
	assert.Equal(t, z, z.Normalize())
}

func TestVec3_NormalizeProducesUnitLength(t *testing.T) {
	v := Vec3{X: 3, Y: 4, Z: 0}
	n := v.Normalize()
	assert.InDelta(t, 1.0, n.Norm(), 1e-9)
}

func TestVec2_NormalizeZeroVectorIsUnchanged(t *testing.T) {
	z := Vec2{}
	assert.Equal(t, z, z.Normalize())
}

func TestTriangleNormal_PointsUpForCounterclockwiseFlatTriangle(t *testing.T) {
	a := Vec3{X: 0, Y: 0, Z: 0}
	b := Vec3{X: 1, Y: 0, Z: 0}
	c := Vec3{X: 0, Y: 1, Z: 0}
	n := TriangleNormal(a, b, c)
	assert.InDelta(t, 1.0, n.Z, 1e-9)
}

func TestSphericalToCartesian_ZenithPointsStraightUp(t *testing.T) {
	v := SphericalToCartesian(0, math.Pi/2)
	assert.InDelta(t, 0.0, v.X, 1e-9)
	assert.InDelta(t, 0.0, v.Y, 1e-9)
	assert.InDelta(t, 1.0, v.Z, 1e-9)
}

func TestSphericalToCartesian_IsUnitLength(t *testing.T) {
	v := SphericalToCartesian(1.2, 0.4)
	assert.InDelta(t, 1.0, v.Norm(), 1e-9)
}

func TestTriangle_RayHitsDirectlyAboveCenter(t *testing.T) {
	tri := Triangle{
		A: Vec3{X: 0, Y: 0, Z: 0},
		B: Vec3{X: 10, Y: 0, Z: 0},
		C: Vec3{X: 0, Y: 10, Z: 0},
	}
	origin := Vec3{X: 2, Y: 2, Z: 10}
	dir := Vec3{X: 0, Y: 0, Z: -1}
	tParam, ok := tri.Intersects(origin, dir)
	assert.True(t, ok)
	assert.InDelta(t, 10.0, tParam, 1e-6)
}

func TestTriangle_RayMissesOutsideTriangle(t *testing.T) {
	tri := Triangle{
		A: Vec3{X: 0, Y: 0, Z: 0},
		B: Vec3{X: 10, Y: 0, Z: 0},
		C: Vec3{X: 0, Y: 10, Z: 0},
	}
	origin := Vec3{X: 20, Y: 20, Z: 10}
	dir := Vec3{X: 0, Y: 0, Z: -1}
	_, ok := tri.Intersects(origin, dir)
	assert.False(t, ok)
}

func TestTriangle_RayParallelToPlaneMisses(t *testing.T) {
	tri := Triangle{
		A: Vec3{X: 0, Y: 0, Z: 0},
		B: Vec3{X: 10, Y: 0, Z: 0},
		C: Vec3{X: 0, Y: 10, Z: 0},
	}
	origin := Vec3{X: 2, Y: 2, Z: 5}
	dir := Vec3{X: 1, Y: 0, Z: 0}
	_, ok := tri.Intersects(origin, dir)
	assert.False(t, ok)
}

func TestTriangle_RayBehindOriginMisses(t *testing.T) {
	tri := Triangle{
		A: Vec3{X: 0, Y: 0, Z: 0},
		B: Vec3{X: 10, Y: 0, Z: 0},
		C: Vec3{X: 0, Y: 10, Z: 0},
	}
	origin := Vec3{X: 2, Y: 2, Z: -10}
	dir := Vec3{X: 0, Y: 0, Z: -1}
	_, ok := tri.Intersects(origin, dir)
	assert.False(t, ok)
}

func TestCellTetrahedron_FlatQuadBlocksVerticalRay(t *testing.T) {
	tet := NewCellTetrahedron(
		Vec3{X: 0, Y: 0, Z: 5},
		Vec3{X: 1, Y: 0, Z: 5},
		Vec3{X: 0, Y: 1, Z: 5},
		Vec3{X: 1, Y: 1, Z: 5},
	)
	origin := Vec3{X: 0.5, Y: 0.5, Z: 100}
	dir := Vec3{X: 0, Y: 0, Z: -1}
	assert.True(t, tet.Intersects(origin, dir))
}

func TestCellTetrahedron_RayPastEdgeMisses(t *testing.T) {
	tet := NewCellTetrahedron(
		Vec3{X: 0, Y: 0, Z: 5},
		Vec3{X: 1, Y: 0, Z: 5},
		Vec3{X: 0, Y: 1, Z: 5},
		Vec3{X: 1, Y: 1, Z: 5},
	)
	origin := Vec3{X: 50, Y: 50, Z: 100}
	dir := Vec3{X: 0, Y: 0, Z: -1}
	assert.False(t, tet.Intersects(origin, dir))
}
