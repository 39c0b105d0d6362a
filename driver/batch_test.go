package driver_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadsim/driver"
)

func TestRun(t *testing.T) {
	t.Run("Missing network file fails", func(t *testing.T) {
		_, err := driver.Run(driver.Options{NetworkPath: "no/such/file.json"})
		assert.Error(t, err)
	})

	t.Run("Demo network spawns and runs vehicles", func(t *testing.T) {
		sum, err := driver.Run(driver.Options{
			Vehicles: 2,
			Duration: 2 * time.Second,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, sum.Spawned, 1)
		assert.Len(t, sum.Stats, sum.Spawned)
		for _, s := range sum.Stats {
			assert.Greater(t, s.Distance, 0.0)
			assert.GreaterOrEqual(t, s.Points, 2)
		}
	})
}
