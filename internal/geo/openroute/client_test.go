package openroute

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key"})
}

func TestGeocode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geocode/search", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		require.Equal(t, "Calle Mayor 1, 28001, Madrid", r.URL.Query().Get("text"))
		require.Equal(t, "ES", r.URL.Query().Get("boundary.country"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{
			"geometry":{"coordinates":[-3.7038,40.4168]},
			"properties":{"label":"Calle Mayor 1, Madrid, Spain","confidence":0.9,
				"country":"Spain","region":"Community of Madrid","locality":"Madrid"}
		}]}`))
	})

	q := Query{Address: "Calle Mayor 1", PostalCode: "28001", Province: "Madrid", CountryCode: "ES"}
	place, err := c.Geocode(context.Background(), q.FullAddress(), q.CountryCode)
	require.NoError(t, err)
	require.NotNil(t, place)
	require.InDelta(t, -3.7038, place.Lon, 1e-9)
	require.InDelta(t, 40.4168, place.Lat, 1e-9)
	require.Equal(t, "Madrid", place.BestLocality())
	require.Equal(t, "Spain", place.Country)
}

func TestGeocode_noMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	place, err := c.Geocode(context.Background(), "nowhere", "")
	require.NoError(t, err)
	require.Nil(t, place)
}

func TestGeocode_serverError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	})

	_, err := c.Geocode(context.Background(), "Calle Mayor 1", "ES")
	require.Error(t, err)
	require.Contains(t, err.Error(), "http 403")
}

func TestReverseGeocode_localadminFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geocode/reverse", r.URL.Path)
		require.Equal(t, "40.4168", r.URL.Query().Get("point.lat"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[{
			"geometry":{"coordinates":[-3.7,40.4]},
			"properties":{"label":"Somewhere","country":"Spain","localadmin":"Getafe"}
		}]}`))
	})

	place, err := c.ReverseGeocode(context.Background(), 40.4168, -3.7038)
	require.NoError(t, err)
	require.NotNil(t, place)
	require.Equal(t, "Getafe", place.BestLocality())
}

func TestDirections(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"routes":[{
			"summary":{"distance":621.4,"duration":21600},
			"geometry":"_p~iF~ps|U_ulLnnqC"
		}]}`))
	})

	route, err := c.Directions(context.Background(),
		Point{Lon: -3.7, Lat: 40.4}, Point{Lon: 2.17, Lat: 41.38})
	require.NoError(t, err)
	require.NotNil(t, route)
	require.InDelta(t, 621.4, route.DistanceKM, 1e-9)
	require.InDelta(t, 6.0, route.DurationHours, 1e-9)
	require.Len(t, DecodePolyline(route.Geometry), 2)
}

func TestDirections_noRoute(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"routes":[]}`))
	})

	route, err := c.Directions(context.Background(), Point{}, Point{})
	require.NoError(t, err)
	require.Nil(t, route)
}

func TestRouteBetween(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/geocode/search":
			if calls == 1 {
				_, _ = w.Write([]byte(`{"features":[{
					"geometry":{"coordinates":[-3.7,40.4]},
					"properties":{"label":"Madrid","country":"Spain","locality":"Madrid"}
				}]}`))
			} else {
				_, _ = w.Write([]byte(`{"features":[{
					"geometry":{"coordinates":[2.17,41.38]},
					"properties":{"label":"Barcelona","country":"Spain","locality":"Barcelona"}
				}]}`))
			}
		case "/v2/directions/driving-car":
			_, _ = w.Write([]byte(`{"routes":[{"summary":{"distance":621.4,"duration":21600},"geometry":"abc"}]}`))
		default:
			http.NotFound(w, r)
		}
	})

	sum, err := c.RouteBetween(context.Background(),
		Query{Address: "Calle Mayor 1", CountryCode: "ES"},
		Query{Address: "La Rambla 10", CountryCode: "ES"})
	require.NoError(t, err)
	require.NotNil(t, sum)
	require.Equal(t, 3, calls)
	require.InDelta(t, 621.4, sum.Route.DistanceKM, 1e-9)
	require.False(t, sum.CrossBorder())
}

func TestRouteBetween_geocodeMiss(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"features":[]}`))
	})

	sum, err := c.RouteBetween(context.Background(),
		Query{Address: "nowhere"}, Query{Address: "elsewhere"})
	require.NoError(t, err)
	require.Nil(t, sum)
}
