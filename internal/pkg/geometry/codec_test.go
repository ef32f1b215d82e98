package geometry_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/route-draft-service/internal/domain"
	"github.com/route-draft-service/internal/pkg/geometry"
)

func floatPtr(v float64) *float64 { return &v }

func TestCoordinates_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		coords []domain.Position
	}{
		{
			name:   "empty",
			coords: []domain.Position{},
		},
		{
			name:   "two element tuples",
			coords: []domain.Position{{2.17, 41.38}, {2.18, 41.39}},
		},
		{
			name:   "three element tuples",
			coords: []domain.Position{{2.17, 41.38, 12.5}, {2.18, 41.39, 0}},
		},
		{
			name:   "mixed tuples",
			coords: []domain.Position{{146.1, -41.2}, {146.2, -41.3, 870}, {146.3, -41.4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := geometry.EncodeCoordinates(tt.coords, nil)
			require.NoError(t, err)

			decoded := geometry.DecodeCoordinates(encoded)
			assert.Equal(t, tt.coords, decoded)
		})
	}
}

func TestEncodeCoordinates(t *testing.T) {
	t.Run("drops invalid tuples", func(t *testing.T) {
		coords := []domain.Position{{1}, {2.17, 41.38}, {1, 2, 3, 4}, nil}

		encoded, err := geometry.EncodeCoordinates(coords, nil)
		require.NoError(t, err)
		assert.Equal(t, []domain.Point{{Lng: 2.17, Lat: 41.38}}, encoded)
	})

	t.Run("folds parallel elevation", func(t *testing.T) {
		coords := []domain.Position{{2.17, 41.38}, {2.18, 41.39, 99}, {2.19, 41.40}}
		elevation := []float64{10, 20}

		encoded, err := geometry.EncodeCoordinates(coords, elevation)
		require.NoError(t, err)
		require.Len(t, encoded, 3)
		assert.Equal(t, floatPtr(10), encoded[0].Elevation)
		assert.Equal(t, floatPtr(99), encoded[1].Elevation, "tuple elevation wins")
		assert.Nil(t, encoded[2].Elevation, "no sample at index 2")
	})

	t.Run("rejects non-finite values", func(t *testing.T) {
		_, err := geometry.EncodeCoordinates([]domain.Position{{math.NaN(), 1}}, nil)
		assert.ErrorIs(t, err, geometry.ErrMalformedGeometry)

		_, err = geometry.EncodeCoordinates([]domain.Position{{1, 1}}, []float64{math.Inf(1)})
		assert.ErrorIs(t, err, geometry.ErrMalformedGeometry)
	})
}

func TestUnpavedSection(t *testing.T) {
	parent := []domain.Position{{0, 0}, {1, 1}, {2, 2}, {3, 3}}

	t.Run("explicit coordinates round trip", func(t *testing.T) {
		section := domain.UnpavedSection{
			StartIndex:  1,
			EndIndex:    2,
			SurfaceType: "gravel",
			Coordinates: []domain.Position{{1, 1, 5}, {2, 2, 6}},
		}

		stored, err := geometry.EncodeUnpavedSection(section, parent)
		require.NoError(t, err)
		assert.Equal(t, section, geometry.DecodeUnpavedSection(stored))
	})

	t.Run("derives coordinates from parent inclusive", func(t *testing.T) {
		stored, err := geometry.EncodeUnpavedSection(domain.UnpavedSection{StartIndex: 1, EndIndex: 2}, parent)
		require.NoError(t, err)

		assert.Equal(t, "unpaved", stored.SurfaceType)
		assert.Equal(t, []domain.Point{{Lng: 1, Lat: 1}, {Lng: 2, Lat: 2}}, stored.Coordinates)
	})

	t.Run("clamps out of range indices", func(t *testing.T) {
		stored, err := geometry.EncodeUnpavedSection(domain.UnpavedSection{StartIndex: -3, EndIndex: 40}, parent)
		require.NoError(t, err)
		assert.Len(t, stored.Coordinates, 4)
		assert.Equal(t, -3, stored.StartIndex)
		assert.Equal(t, 40, stored.EndIndex)
	})

	t.Run("range beyond parent yields no coordinates", func(t *testing.T) {
		stored, err := geometry.EncodeUnpavedSection(domain.UnpavedSection{StartIndex: 10, EndIndex: 12}, parent)
		require.NoError(t, err)
		assert.Empty(t, stored.Coordinates)
	})

	t.Run("inverted range is malformed", func(t *testing.T) {
		_, err := geometry.EncodeUnpavedSection(domain.UnpavedSection{StartIndex: 3, EndIndex: 1}, parent)
		assert.ErrorIs(t, err, geometry.ErrMalformedGeometry)
	})

	t.Run("sections keep order", func(t *testing.T) {
		sections := []domain.UnpavedSection{
			{StartIndex: 0, EndIndex: 1, SurfaceType: "dirt", Coordinates: []domain.Position{{0, 0}, {1, 1}}},
			{StartIndex: 2, EndIndex: 3, SurfaceType: "gravel", Coordinates: []domain.Position{{2, 2}, {3, 3}}},
		}

		stored, err := geometry.EncodeUnpavedSections(sections, parent)
		require.NoError(t, err)
		assert.Equal(t, sections, geometry.DecodeUnpavedSections(stored))
	})
}
