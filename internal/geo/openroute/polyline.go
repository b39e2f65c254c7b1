package openroute

// DecodePolyline decodes a Google encoded polyline (precision 5) into route
// points. Malformed tails are dropped rather than reported; a partial route
// is still usable for checkpoint sampling.
func DecodePolyline(encoded string) []Point {
	var points []Point
	var lat, lon int64
	i := 0

	for i < len(encoded) {
		dlat, n, ok := decodeChunk(encoded[i:])
		if !ok {
			break
		}
		i += n
		dlon, n, ok := decodeChunk(encoded[i:])
		if !ok {
			break
		}
		i += n

		lat += dlat
		lon += dlon
		points = append(points, Point{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}
	return points
}

// decodeChunk reads one zigzag varint from the head of s and reports how many
// bytes it consumed.
func decodeChunk(s string) (value int64, n int, ok bool) {
	var result int64
	var shift uint
	for n < len(s) {
		b := int64(s[n]) - 63
		n++
		result |= (b & 0x1f) << shift
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), n, true
			}
			return result >> 1, n, true
		}
		shift += 5
	}
	return 0, n, false
}
