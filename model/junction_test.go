package model_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"roadsim/model"
)

func TestJunctionName(t *testing.T) {
	cases := map[int]string{
		0:  "A",
		1:  "B",
		25: "Z",
		26: "AA",
		27: "AB",
		51: "AZ",
		52: "BA",
	}
	for index, want := range cases {
		assert.Equal(t, want, model.JunctionName(index), "index %d", index)
	}
}

func TestZoneRadius(t *testing.T) {
	grid := 32.0
	j := &model.Junction{Type: model.Crossroads}
	assert.InDelta(t, 48, j.ZoneRadius(grid), 1e-9)

	r := &model.Junction{Type: model.Roundabout}
	assert.InDelta(t, 160, r.ZoneRadius(grid), 1e-9)
}

func TestRingVertices(t *testing.T) {
	grid := 32.0
	j := &model.Junction{Type: model.Roundabout, Center: orb.Point{320, 320}, ExitCount: 8}
	ring := j.RingVertices(grid)

	t.Run("Eight vertices at twice the grid radius", func(t *testing.T) {
		assert.Len(t, ring, 8)
		for _, v := range ring {
			assert.InDelta(t, 2*grid, model.Dist(v, j.Center), 1e-9)
		}
	})

	t.Run("Starts at north, runs clockwise on screen", func(t *testing.T) {
		assert.InDelta(t, 320, ring[0][0], 1e-9)
		assert.InDelta(t, 320-2*grid, ring[0][1], 1e-9)
		// index 2 is east
		assert.InDelta(t, 320+2*grid, ring[2][0], 1e-9)
		assert.InDelta(t, 320, ring[2][1], 1e-9)
		// index 4 is south
		assert.InDelta(t, 320+2*grid, ring[4][1], 1e-9)
	})

	t.Run("Neighboring vertices are 45 degrees apart", func(t *testing.T) {
		side := model.Dist(ring[0], ring[1])
		for i := 0; i < 8; i++ {
			assert.InDelta(t, side, model.Dist(ring[i], ring[(i+1)%8]), 1e-9)
		}
	})
}

func TestSpurEndpoints(t *testing.T) {
	grid := 32.0
	j := &model.Junction{Type: model.Roundabout, Center: orb.Point{0, 0}, ExitCount: 4}
	spurs := j.SpurEndpoints(grid)

	assert.Len(t, spurs, 8)
	for i, sp := range spurs {
		assert.InDelta(t, 3*grid, model.Dist(sp, j.Center), 1e-9, "spur %d", i)
	}
	// spur lies on the same bearing as its ring vertex
	ring := j.RingVertices(grid)
	for i := 0; i < 8; i++ {
		assert.Equal(t, model.CompassOf(j.Center, ring[i]), model.CompassOf(j.Center, spurs[i]))
	}
}

func TestHasExitAt(t *testing.T) {
	four := &model.Junction{Type: model.Roundabout, ExitCount: 4}
	eight := &model.Junction{Type: model.Roundabout, ExitCount: 8}
	for i := 0; i < 8; i++ {
		assert.True(t, eight.HasExitAt(i))
		assert.Equal(t, i%2 == 0, four.HasExitAt(i), "index %d", i)
	}
}
