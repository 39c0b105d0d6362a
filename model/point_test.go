package model_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"roadsim/model"
)

func TestSnap(t *testing.T) {
	t.Run("Rounds to nearest grid intersection", func(t *testing.T) {
		assert.Equal(t, orb.Point{32, 64}, model.Snap(orb.Point{40, 50}, 32))
		assert.Equal(t, orb.Point{0, 0}, model.Snap(orb.Point{15, -15}, 32))
		assert.Equal(t, orb.Point{96, 96}, model.Snap(orb.Point{95, 97}, 32))
	})

	t.Run("Zero grid is a no-op", func(t *testing.T) {
		assert.Equal(t, orb.Point{13, 7}, model.Snap(orb.Point{13, 7}, 0))
	})
}

func TestConstrain45(t *testing.T) {
	anchor := orb.Point{100, 100}

	t.Run("Snaps to the horizontal ray", func(t *testing.T) {
		p := model.Constrain45(anchor, orb.Point{200, 110})
		assert.InDelta(t, 100, p[1], 1e-9)
		assert.Greater(t, p[0], anchor[0])
	})

	t.Run("Snaps to the diagonal ray", func(t *testing.T) {
		p := model.Constrain45(anchor, orb.Point{150, 160})
		dx := p[0] - anchor[0]
		dy := p[1] - anchor[1]
		assert.InDelta(t, dx, dy, 1e-9)
	})

	t.Run("Preserves distance from the anchor", func(t *testing.T) {
		target := orb.Point{170, 115}
		p := model.Constrain45(anchor, target)
		assert.InDelta(t, model.Dist(anchor, target), model.Dist(anchor, p), 1e-9)
	})

	t.Run("Coincident point returns the anchor", func(t *testing.T) {
		assert.Equal(t, anchor, model.Constrain45(anchor, anchor))
	})
}

func TestCompass(t *testing.T) {
	t.Run("Ring is clockwise from north", func(t *testing.T) {
		assert.Equal(t, model.North, model.CompassRing[0])
		assert.Equal(t, model.East, model.CompassRing[2])
		assert.Equal(t, model.South, model.CompassRing[4])
		assert.Equal(t, model.West, model.CompassRing[6])
	})

	t.Run("RingIndex inverts the ring", func(t *testing.T) {
		for i, c := range model.CompassRing {
			assert.Equal(t, i, c.RingIndex())
		}
		assert.Equal(t, -1, model.Compass("X").RingIndex())
	})

	t.Run("North points toward negative y", func(t *testing.T) {
		dx, dy := model.North.Vector()
		assert.InDelta(t, 0, dx, 1e-9)
		assert.InDelta(t, -1, dy, 1e-9)
	})

	t.Run("CompassOf classifies bearings in screen coordinates", func(t *testing.T) {
		from := orb.Point{0, 0}
		assert.Equal(t, model.North, model.CompassOf(from, orb.Point{0, -10}))
		assert.Equal(t, model.South, model.CompassOf(from, orb.Point{0, 10}))
		assert.Equal(t, model.East, model.CompassOf(from, orb.Point{10, 0}))
		assert.Equal(t, model.West, model.CompassOf(from, orb.Point{-10, 0}))
		assert.Equal(t, model.NorthEast, model.CompassOf(from, orb.Point{10, -10}))
		assert.Equal(t, model.SouthWest, model.CompassOf(from, orb.Point{-10, 10}))
	})

	t.Run("Sector edges round to the nearest compass point", func(t *testing.T) {
		from := orb.Point{0, 0}
		// 20 degrees above east still reads east
		assert.Equal(t, model.East, model.CompassOf(from, orb.Point{100, -36}))
	})
}

func TestTransform(t *testing.T) {
	t.Run("Identity round-trips", func(t *testing.T) {
		tr := model.Identity()
		p := orb.Point{37, -12}
		assert.Equal(t, p, tr.ToWorld(tr.ToScreen(p)))
	})

	t.Run("Scale and offset round-trip", func(t *testing.T) {
		tr := model.Transform{Scale: 2.5, OffsetX: 40, OffsetY: -7}
		p := orb.Point{128, 256}
		got := tr.ToWorld(tr.ToScreen(p))
		assert.InDelta(t, p[0], got[0], 1e-9)
		assert.InDelta(t, p[1], got[1], 1e-9)
	})

	t.Run("ToScreen applies zoom then pan", func(t *testing.T) {
		tr := model.Transform{Scale: 2, OffsetX: 10, OffsetY: 20}
		assert.Equal(t, orb.Point{210, 220}, tr.ToScreen(orb.Point{100, 100}))
	})
}
