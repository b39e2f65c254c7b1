package openroute

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePolyline(t *testing.T) {
	// Reference sample from the polyline algorithm documentation.
	points := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.Len(t, points, 3)
	require.InDelta(t, 38.5, points[0].Lat, 1e-9)
	require.InDelta(t, -120.2, points[0].Lon, 1e-9)
	require.InDelta(t, 40.7, points[1].Lat, 1e-9)
	require.InDelta(t, -120.95, points[1].Lon, 1e-9)
	require.InDelta(t, 43.252, points[2].Lat, 1e-9)
	require.InDelta(t, -126.453, points[2].Lon, 1e-9)
}

func TestDecodePolyline_empty(t *testing.T) {
	require.Empty(t, DecodePolyline(""))
}

func TestDecodePolyline_truncated(t *testing.T) {
	// A dangling chunk at the tail is dropped, earlier points survive.
	full := DecodePolyline("_p~iF~ps|U_ulLnnqC")
	require.Len(t, full, 2)
	cut := DecodePolyline("_p~iF~ps|U_ulL")
	require.Len(t, cut, 1)
	require.Equal(t, full[0], cut[0])
}
