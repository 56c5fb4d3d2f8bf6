package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWKT(t *testing.T) {
	tests := []struct {
		wkt  string
		want Polygon
	}{
		{"POINT (3 4)", Polygon{{3, 4}}},
		{"POLYGON ((0 0, 10 0, 10 5, 0 0))", Polygon{{0, 0}, {10, 0}, {10, 5}, {0, 0}}},
		{"polygon((1.5 2.5,3 4))", Polygon{{1.5, 2.5}, {3, 4}}},
		{"POLYGON Z ((1 2 9, 3 4 9))", Polygon{{1, 2}, {3, 4}}},
		{"MULTIPOLYGON (((0 0, 1 1)), ((5 5, 6 7)))", Polygon{{0, 0}, {1, 1}, {5, 5}, {6, 7}}},
	}
	for _, tt := range tests {
		got, err := ParseWKT(tt.wkt)
		require.NoError(t, err, tt.wkt)
		assert.Equal(t, tt.want, got, tt.wkt)
	}
}

func TestParseWKT_Errors(t *testing.T) {
	for _, wkt := range []string{
		"",
		"POLYGON",
		"CIRCLE ((0 0))",
		"POLYGON ((0))",
		"POLYGON ((a b))",
		"POLYGON (())",
		"POLYGON ((0 0, 1 1)",
	} {
		_, err := ParseWKT(wkt)
		assert.Error(t, err, wkt)
	}
}

func TestPolygon_Bounds(t *testing.T) {
	minX, minY, maxX, maxY, ok := Polygon{{4, 9}, {1, 2}, {7, 3}}.Bounds()
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 7, 9}, []float64{minX, minY, maxX, maxY})

	_, _, _, _, ok = Polygon{}.Bounds()
	assert.False(t, ok)
}
