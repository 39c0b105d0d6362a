package route_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadsim/model"
	"roadsim/route"
)

type fakeLights struct{ pts []orb.Point }

func (f fakeLights) AttachPoints() []orb.Point { return f.pts }

func TestEstimate(t *testing.T) {
	w := model.NewWorld(32)
	b := route.NewBuilder(w)
	path := orb.LineString{{0, 0}, {200, 0}}

	t.Run("Pure distance over speed", func(t *testing.T) {
		e := route.NewEstimator(w, b, nil)
		assert.InDelta(t, 2.0, e.Estimate(path), 1e-9)
	})

	t.Run("Each encountered light adds a flat penalty", func(t *testing.T) {
		e := route.NewEstimator(w, b, fakeLights{pts: []orb.Point{{200, 0}}})
		assert.InDelta(t, 7.0, e.Estimate(path), 1e-9)
	})

	t.Run("Lights away from path vertices do not count", func(t *testing.T) {
		e := route.NewEstimator(w, b, fakeLights{pts: []orb.Point{{100, 0}}})
		assert.InDelta(t, 2.0, e.Estimate(path), 1e-9)
	})

	t.Run("A point near two lights is penalized once", func(t *testing.T) {
		e := route.NewEstimator(w, b, fakeLights{pts: []orb.Point{{200, 0}, {201, 0}}})
		assert.InDelta(t, 7.0, e.Estimate(path), 1e-9)
	})
}

func TestSelect(t *testing.T) {
	w := model.NewWorld(32)
	e := route.NewEstimator(w, route.NewBuilder(w), nil)

	t.Run("Empty input reports no candidate", func(t *testing.T) {
		_, ok := e.Select(nil)
		assert.False(t, ok)
	})

	t.Run("Picks the strict minimum, first on ties", func(t *testing.T) {
		cands := []route.Candidate{
			{Seconds: 3, Commands: []route.Command{{Junction: "A"}}},
			{Seconds: 1, Commands: []route.Command{{Junction: "B"}}},
			{Seconds: 1, Commands: []route.Command{{Junction: "C"}}},
		}
		best, ok := e.Select(cands)
		require.True(t, ok)
		assert.Equal(t, "B", best.Commands[0].Junction)
	})
}

func TestEnumerate(t *testing.T) {
	w := model.NewWorld(32)
	w.PlaceJunction(model.Crossroads, orb.Point{256, 256}, 0, false, 0, model.Clockwise) // A
	w.PlaceJunction(model.Crossroads, orb.Point{768, 256}, 0, false, 0, model.Clockwise) // B
	w.AddLine(orb.Point{320, 256}, orb.Point{704, 256}, model.TwoWay)
	e := route.NewEstimator(w, route.NewBuilder(w), nil)

	t.Run("Direct plus one route per destination exit", func(t *testing.T) {
		cands := e.Enumerate("A", "B")
		require.Len(t, cands, 5)
		assert.Nil(t, cands[0].Commands, "first candidate is the auto route")
		for _, c := range cands {
			assert.GreaterOrEqual(t, len(c.Path), 2)
		}
	})

	t.Run("Intermediates multiply candidates, landmarks excluded", func(t *testing.T) {
		w.PlaceJunction(model.Landmark, orb.Point{512, 512}, 0, false, 0, model.Clockwise) // C
		assert.Len(t, e.Enumerate("A", "B"), 5)

		w.PlaceJunction(model.Crossroads, orb.Point{256, 768}, 0, false, 0, model.Clockwise) // D
		assert.Len(t, e.Enumerate("A", "B"), 5+16)
	})

	t.Run("Unknown endpoints yield nothing", func(t *testing.T) {
		assert.Empty(t, e.Enumerate("A", "ZZ"))
		assert.Empty(t, e.Enumerate("ZZ", "B"))
	})
}

func TestBestRoute(t *testing.T) {
	w := model.NewWorld(32)
	w.PlaceJunction(model.Crossroads, orb.Point{256, 256}, 0, false, 0, model.Clockwise) // A
	w.PlaceJunction(model.Crossroads, orb.Point{768, 256}, 0, false, 0, model.Clockwise) // B
	w.AddLine(orb.Point{320, 256}, orb.Point{704, 256}, model.TwoWay)
	e := route.NewEstimator(w, route.NewBuilder(w), nil)

	best, err := e.BestRoute("A", "B")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(best.Path), 2)

	_, err = e.BestRoute("A", "ZZ")
	assert.ErrorIs(t, err, route.ErrNoCandidates)
}
