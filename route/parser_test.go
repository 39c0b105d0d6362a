package route_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadsim/model"
	"roadsim/route"
)

func testWorld(t *testing.T) *model.World {
	t.Helper()
	w := model.NewWorld(32)
	w.PlaceJunction(model.Crossroads, orb.Point{256, 256}, 0, false, 0, model.Clockwise) // A
	w.PlaceJunction(model.Roundabout, orb.Point{640, 256}, 0, false, 4, model.Clockwise) // B
	return w
}

func TestParseDirection(t *testing.T) {
	t.Run("Recognizes relative and compass codes", func(t *testing.T) {
		for _, code := range []string{"L", "R", "ST", "N", "NE", "E", "SE", "S", "SW", "W", "NW"} {
			d, ok := route.ParseDirection(code)
			assert.True(t, ok, code)
			assert.Equal(t, route.Direction(code), d)
		}
	})

	t.Run("Is case-insensitive", func(t *testing.T) {
		d, ok := route.ParseDirection("st")
		assert.True(t, ok)
		assert.Equal(t, route.Straight, d)
	})

	t.Run("Rejects unknown codes", func(t *testing.T) {
		_, ok := route.ParseDirection("Q")
		assert.False(t, ok)
	})
}

func TestParse(t *testing.T) {
	w := testWorld(t)

	t.Run("Splits tokens on whitespace and commas", func(t *testing.T) {
		cmds := route.Parse("N_A, ST_B\nL_A", w)
		require.Len(t, cmds, 3)
		assert.Equal(t, route.Command{Junction: "A", Direction: "N"}, cmds[0])
		assert.Equal(t, route.Command{Junction: "B", Direction: route.Straight}, cmds[1])
		assert.Equal(t, route.Command{Junction: "A", Direction: route.Left}, cmds[2])
	})

	t.Run("Empty and auto yield nil", func(t *testing.T) {
		assert.Nil(t, route.Parse("", w))
		assert.Nil(t, route.Parse("  auto ", w))
		assert.Nil(t, route.Parse("AUTO", w))
	})

	t.Run("Lowercase tokens normalize", func(t *testing.T) {
		cmds := route.Parse("n_a", w)
		require.Len(t, cmds, 1)
		assert.Equal(t, "A", cmds[0].Junction)
		assert.Equal(t, route.Direction("N"), cmds[0].Direction)
	})

	t.Run("Malformed tokens are dropped, parsing continues", func(t *testing.T) {
		cmds := route.Parse("garbage N_A _B X_ Q_A ST_B", w)
		require.Len(t, cmds, 2)
		assert.Equal(t, "A", cmds[0].Junction)
		assert.Equal(t, "B", cmds[1].Junction)
	})

	t.Run("Unknown junction references are dropped", func(t *testing.T) {
		cmds := route.Parse("N_ZZ ST_B", w)
		require.Len(t, cmds, 1)
		assert.Equal(t, "B", cmds[0].Junction)
	})

	t.Run("Nil lookup skips junction validation", func(t *testing.T) {
		cmds := route.Parse("N_ZZ", nil)
		require.Len(t, cmds, 1)
		assert.Equal(t, "ZZ", cmds[0].Junction)
	})
}

func TestFormatCommands(t *testing.T) {
	cmds := []route.Command{
		{Junction: "A", Direction: "N"},
		{Junction: "B", Direction: route.Straight},
	}
	text := route.FormatCommands(cmds)
	assert.Equal(t, "N_A ST_B", text)

	t.Run("Round-trips through Parse", func(t *testing.T) {
		w := testWorld(t)
		assert.Equal(t, cmds, route.Parse(text, w))
	})
}
