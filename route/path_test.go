package route_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadsim/model"
	"roadsim/route"
)

func TestBuildFollowsConnectedRoads(t *testing.T) {
	w := model.NewWorld(32)
	s1 := w.AddLine(orb.Point{0, 0}, orb.Point{96, 0}, model.TwoWay)
	w.AddLine(orb.Point{96, 0}, orb.Point{96, 96}, model.TwoWay)

	b := route.NewBuilder(w)
	path := b.Build(s1, 0, nil)

	require.Len(t, path, 3)
	assert.Equal(t, orb.Point{0, 0}, path[0])
	assert.Equal(t, orb.Point{96, 0}, path[1])
	assert.Equal(t, orb.Point{96, 96}, path[2])
}

func TestBuildNeverRevisitsSegments(t *testing.T) {
	w := model.NewWorld(32)
	s1 := w.AddLine(orb.Point{0, 0}, orb.Point{96, 0}, model.TwoWay)
	w.AddLine(orb.Point{96, 0}, orb.Point{96, 96}, model.TwoWay)
	w.AddLine(orb.Point{96, 96}, orb.Point{0, 0}, model.TwoWay)

	b := route.NewBuilder(w)
	path := b.Build(s1, 0, nil)

	// the loop closes once and stops; every segment is used exactly once
	require.Len(t, path, 4)
	assert.Equal(t, orb.Point{0, 0}, path[len(path)-1])
}

func TestBuildCapsExtensions(t *testing.T) {
	w := model.NewWorld(32)
	var first *model.RoadSegment
	for i := 0; i < 40; i++ {
		s := w.AddLine(orb.Point{float64(i) * 32, 0}, orb.Point{float64(i+1) * 32, 0}, model.TwoWay)
		if i == 0 {
			first = s
		}
	}

	b := route.NewBuilder(w)
	path := b.Build(first, 0, nil)

	// 2 starting points plus one appended point per allowed extension
	assert.Len(t, path, 32)
}

func TestBuildNilStart(t *testing.T) {
	b := route.NewBuilder(model.NewWorld(32))
	assert.Nil(t, b.Build(nil, 0, nil))
}

// crossWorld lays out a crossroads at (320,320) with an approach road
// from the west. The approach ends at the west arm's outer endpoint.
func crossWorld(t *testing.T) (*model.World, *model.RoadSegment) {
	t.Helper()
	w := model.NewWorld(32)
	w.PlaceJunction(model.Crossroads, orb.Point{320, 320}, 0, false, 0, model.Clockwise) // A
	approach := w.AddLine(orb.Point{128, 320}, orb.Point{256, 320}, model.TwoWay)
	return w, approach
}

func TestBuildResolvesAbsoluteExits(t *testing.T) {
	cases := []struct {
		dir  string
		want orb.Point
	}{
		{"N", orb.Point{320, 256}},
		{"S", orb.Point{320, 384}},
		{"E", orb.Point{384, 320}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("Exit %s", tc.dir), func(t *testing.T) {
			w, approach := crossWorld(t)
			b := route.NewBuilder(w)
			cmds := route.Parse(tc.dir+"_A", w)
			path := b.Build(approach, 0, cmds)
			assert.Equal(t, tc.want, path[len(path)-1])
		})
	}
}

func TestBuildResolvesRelativeTurns(t *testing.T) {
	// approaching from the west, heading east: left is north on screen
	cases := []struct {
		dir  string
		want orb.Point
	}{
		{"L", orb.Point{320, 256}},
		{"R", orb.Point{320, 384}},
		{"ST", orb.Point{384, 320}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("Turn %s", tc.dir), func(t *testing.T) {
			w, approach := crossWorld(t)
			b := route.NewBuilder(w)
			cmds := route.Parse(tc.dir+"_A", w)
			path := b.Build(approach, 0, cmds)
			assert.Equal(t, tc.want, path[len(path)-1])
		})
	}
}

func TestBuildFallsBackToFirstExit(t *testing.T) {
	w, approach := crossWorld(t)
	b := route.NewBuilder(w)
	// NW has no arm and no partial compass match among the N/S/E
	// candidates; the builder takes the first exit rather than stalling
	path := b.Build(approach, 0, route.Parse("NW_A", w))
	assert.Greater(t, len(path), 3)
	assert.Equal(t, orb.Point{320, 256}, path[len(path)-1], "first remaining arm is north")
}

// ringWorld lays out a 4-exit roundabout at (640,256) with an approach
// road ending at the south spur endpoint.
func ringWorld(t *testing.T, dir model.RingDirection) (*model.World, *model.RoadSegment) {
	t.Helper()
	w := model.NewWorld(32)
	w.PlaceJunction(model.Roundabout, orb.Point{640, 256}, 0, false, 4, dir) // A
	approach := w.AddLine(orb.Point{640, 480}, orb.Point{640, 352}, model.TwoWay)
	return w, approach
}

func TestRoundaboutTraversal(t *testing.T) {
	center := orb.Point{640, 256}

	t.Run("Absolute exit walks the ring clockwise", func(t *testing.T) {
		w, approach := ringWorld(t, model.Clockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("E_A", w))
		require.NotEmpty(t, path)
		assert.Equal(t, orb.Point{736, 256}, path[len(path)-1])
		// ring vertices ride at radius 64 between entry and exit
		onRing := 0
		for _, p := range path {
			if d := model.Dist(p, center); d > 63 && d < 65 {
				onRing++
			}
		}
		assert.Equal(t, 4, onRing, "south, west, north and east vertices")
	})

	t.Run("Right exits at the first reachable spur", func(t *testing.T) {
		w, approach := ringWorld(t, model.Clockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("R_A", w))
		assert.Equal(t, orb.Point{544, 256}, path[len(path)-1])
	})

	t.Run("Left and straight exit one spur further", func(t *testing.T) {
		for _, dir := range []string{"L", "ST"} {
			w, approach := ringWorld(t, model.Clockwise)
			b := route.NewBuilder(w)
			path := b.Build(approach, 0, route.Parse(dir+"_A", w))
			assert.Equal(t, orb.Point{640, 160}, path[len(path)-1], dir)
		}
	})

	t.Run("Counterclockwise ring reverses the walk", func(t *testing.T) {
		w, approach := ringWorld(t, model.CounterClockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("R_A", w))
		assert.Equal(t, orb.Point{736, 256}, path[len(path)-1])
	})

	t.Run("Exit at the entry spur is pushed one exit onward", func(t *testing.T) {
		w, approach := ringWorld(t, model.Clockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("S_A", w))
		assert.Equal(t, orb.Point{544, 256}, path[len(path)-1])
	})

	t.Run("Diagonal exits snap to a cardinal on a 4-exit ring", func(t *testing.T) {
		w, approach := ringWorld(t, model.Clockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("NE_A", w))
		assert.Equal(t, orb.Point{736, 256}, path[len(path)-1])
	})
}

// ring8World lays out an 8-exit roundabout at (640,256) with an approach
// road ending at the south spur endpoint.
func ring8World(t *testing.T, dir model.RingDirection) (*model.World, *model.RoadSegment) {
	t.Helper()
	w := model.NewWorld(32)
	w.PlaceJunction(model.Roundabout, orb.Point{640, 256}, 0, false, 8, dir) // A
	approach := w.AddLine(orb.Point{640, 480}, orb.Point{640, 352}, model.TwoWay)
	return w, approach
}

func TestRoundaboutTraversalEightExits(t *testing.T) {
	center := orb.Point{640, 256}
	diag := 96 * math.Sqrt2 / 2

	endsAt := func(t *testing.T, path orb.LineString, want orb.Point) {
		t.Helper()
		require.NotEmpty(t, path)
		end := path[len(path)-1]
		assert.InDelta(t, want[0], end[0], 1e-9)
		assert.InDelta(t, want[1], end[1], 1e-9)
	}

	t.Run("Absolute diagonal exits are reachable", func(t *testing.T) {
		w, approach := ring8World(t, model.Clockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("NE_A", w))
		endsAt(t, path, orb.Point{640 + diag, 256 - diag})
		// entering at the south vertex, the walk rides west and north
		// around to the north-east vertex
		onRing := 0
		for _, p := range path {
			if d := model.Dist(p, center); d > 63 && d < 65 {
				onRing++
			}
		}
		assert.Equal(t, 6, onRing)
	})

	t.Run("Right exits one vertex onward", func(t *testing.T) {
		w, approach := ring8World(t, model.Clockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("R_A", w))
		endsAt(t, path, orb.Point{640 - diag, 256 + diag})
	})

	t.Run("Left and straight exit two vertices onward", func(t *testing.T) {
		for _, dir := range []string{"L", "ST"} {
			w, approach := ring8World(t, model.Clockwise)
			b := route.NewBuilder(w)
			path := b.Build(approach, 0, route.Parse(dir+"_A", w))
			endsAt(t, path, orb.Point{544, 256})
		}
	})

	t.Run("Counterclockwise right reverses a single step", func(t *testing.T) {
		w, approach := ring8World(t, model.CounterClockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("R_A", w))
		endsAt(t, path, orb.Point{640 + diag, 256 + diag})
	})

	t.Run("Exit at the entry spur is pushed one vertex onward", func(t *testing.T) {
		w, approach := ring8World(t, model.Clockwise)
		b := route.NewBuilder(w)
		path := b.Build(approach, 0, route.Parse("S_A", w))
		endsAt(t, path, orb.Point{640 - diag, 256 + diag})
	})
}
