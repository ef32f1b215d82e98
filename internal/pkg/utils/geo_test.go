package utils_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/route-draft-service/internal/pkg/utils"
)

func TestEquirectangularDistance(t *testing.T) {
	t.Run("same point", func(t *testing.T) {
		assert.Equal(t, 0.0, utils.EquirectangularDistance(2.17, 41.38, 2.17, 41.38))
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		assert.InDelta(t, 111320.0, utils.EquirectangularDistance(0, 10, 0, 11), 0.001)
	})

	t.Run("longitude shrinks with latitude", func(t *testing.T) {
		atEquator := utils.EquirectangularDistance(0, 0, 1, 0)
		at60 := utils.EquirectangularDistance(0, 60, 1, 60)
		assert.InDelta(t, atEquator/2, at60, 1.0)
	})
}

func TestValidateCoordinates(t *testing.T) {
	assert.True(t, utils.ValidateCoordinates(41.38, 2.17))
	assert.False(t, utils.ValidateCoordinates(91, 0))
	assert.False(t, utils.ValidateCoordinates(0, -181))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, utils.IsFinite(1, 2, 3))
	assert.False(t, utils.IsFinite(1, math.NaN()))
	assert.False(t, utils.IsFinite(math.Inf(1)))
}
