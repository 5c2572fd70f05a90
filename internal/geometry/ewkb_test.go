package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiPolygonRoundTrip(t *testing.T) {
	mp := orb.MultiPolygon{
		{
			// outer ring with a hole
			{{-97.74, 30.26}, {-97.72, 30.26}, {-97.72, 30.28}, {-97.74, 30.28}, {-97.74, 30.26}},
			{{-97.735, 30.265}, {-97.725, 30.265}, {-97.725, 30.275}, {-97.735, 30.275}, {-97.735, 30.265}},
		},
		{
			{{-97.70, 30.30}, {-97.69, 30.30}, {-97.69, 30.31}, {-97.70, 30.31}, {-97.70, 30.30}},
		},
	}

	data, err := EncodeMultiPolygon(mp)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := DecodeMultiPolygon(data)
	require.NoError(t, err)
	assert.Equal(t, mp, got)
}

func TestPointRoundTrip(t *testing.T) {
	pt := orb.Point{-97.73, 30.27}

	data, err := EncodePoint(pt)
	require.NoError(t, err)

	got, err := DecodePoint(data)
	require.NoError(t, err)
	assert.Equal(t, pt, got)
}

func TestDecodeMultiPolygon_Garbage(t *testing.T) {
	_, err := DecodeMultiPolygon([]byte{0x01, 0x02, 0x03})
	assert.Error(t, err)
}

func TestDecodePoint_WrongType(t *testing.T) {
	mp := orb.MultiPolygon{{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}}
	data, err := EncodeMultiPolygon(mp)
	require.NoError(t, err)

	_, err = DecodePoint(data)
	assert.Error(t, err)
}
