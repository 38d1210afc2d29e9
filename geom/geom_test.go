package geom_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/tinyhtml/geom"
)

func TestOverlap(t *testing.T) {
	a := geom.FromXYWH(0, 0, 100, 100)

	tests := []struct {
		name string
		b    geom.Rect
		want bool
	}{
		{"fully inside", geom.FromXYWH(10, 10, 20, 20), true},
		{"partial overlap", geom.FromXYWH(90, 90, 50, 50), true},
		{"shared edge only", geom.FromXYWH(100, 0, 50, 50), false},
		{"disjoint", geom.FromXYWH(200, 200, 10, 10), false},
		{"surrounding", geom.FromXYWH(-10, -10, 200, 200), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, geom.Overlap(a, tc.b))
			// Overlap is symmetric.
			assert.Equal(t, tc.want, geom.Overlap(tc.b, a))
		})
	}
}

func TestContains(t *testing.T) {
	a := geom.FromXYWH(0, 0, 100, 100)

	assert.True(t, geom.Contains(a, geom.FromXYWH(10, 10, 20, 20)))
	assert.True(t, geom.Contains(a, a), "a rectangle contains itself")
	assert.False(t, geom.Contains(a, geom.FromXYWH(90, 90, 20, 20)), "crosses the bottom-right corner")
	assert.False(t, geom.Contains(a, geom.FromXYWH(-1, 0, 10, 10)))
}

func TestEdgeTouch(t *testing.T) {
	a := geom.FromXYWH(100, 100, 100, 100)

	// A rectangle resting on top of a, touching its top edge.
	above := geom.FromXYWH(120, 50, 20, 50)
	assert.True(t, geom.EdgeTouch(a, above, geom.SideTop))
	assert.False(t, geom.EdgeTouch(a, above, geom.SideBottom))

	// Crossing the left edge from outside.
	left := geom.FromXYWH(60, 120, 50, 20)
	assert.True(t, geom.EdgeTouch(a, left, geom.SideLeft))

	// Entirely inside touches no side from the outside.
	inside := geom.FromXYWH(120, 120, 10, 10)
	for _, side := range []geom.Side{geom.SideTop, geom.SideBottom, geom.SideLeft, geom.SideRight} {
		assert.False(t, geom.EdgeTouch(a, inside, side), side.String())
	}

	// No cross-axis overlap means no touch even when the edge lines up.
	farAbove := geom.FromXYWH(500, 50, 20, 50)
	assert.False(t, geom.EdgeTouch(a, farAbove, geom.SideTop))
}

func TestExpand(t *testing.T) {
	r := geom.FromXYWH(10, 10, 100, 50)

	out, err := geom.Expand(r, geom.Adjust{Top: -5, Left: -5, Width: 10})
	require.NoError(t, err)
	assert.Equal(t, 5.0, out.Top)
	assert.Equal(t, 5.0, out.Left)
	assert.Equal(t, 115.0, out.Width) // 100 + 5 (left edge moved out) + 10 (explicit)
	assert.Equal(t, out.Left+out.Width, out.Right)
	assert.Equal(t, out.Top, out.Y)

	// Source rectangle is untouched.
	assert.Equal(t, 10.0, r.Top)

	_, err = geom.Expand(r, geom.Adjust{Width: math.NaN()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "width")

	_, err = geom.Expand(r, geom.Adjust{Top: math.Inf(1)})
	require.Error(t, err)
}

func TestEdgesSums(t *testing.T) {
	e := geom.Edges{Top: 1, Right: 2, Bottom: 3, Left: 4}
	assert.Equal(t, 6.0, e.X())
	assert.Equal(t, 4.0, e.Y())

	r := geom.FromXYWH(10, 10, 100, 100).ExpandedBy(e)
	assert.Equal(t, 6.0, r.X)
	assert.Equal(t, 9.0, r.Y)
	assert.Equal(t, 106.0, r.Width)
	assert.Equal(t, 104.0, r.Height)
}
