package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/PrincipeGhost/CorreosPremium/internal/geo/openroute"
	"github.com/PrincipeGhost/CorreosPremium/internal/models"
)

type fakeRouter struct {
	sum *openroute.RouteSummary
	err error
}

func (f *fakeRouter) RouteBetween(ctx context.Context, origin, dest openroute.Query) (*openroute.RouteSummary, error) {
	return f.sum, f.err
}

func summary(km float64, fromCountry, toCountry string) *openroute.RouteSummary {
	return &openroute.RouteSummary{
		Sender:    openroute.Place{Country: fromCountry},
		Recipient: openroute.Place{Country: toCountry},
		Route:     openroute.Route{DistanceKM: km},
	}
}

// fixedNow is a Monday.
var fixedNow = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func madrid() models.Location {
	return models.Location{Address: "Calle Mayor 1", Province: "Madrid", Country: "España"}
}

func lisbon() models.Location {
	return models.Location{Address: "Rua Augusta 5", Province: "Lisboa", Country: "Portugal"}
}

func TestEstimate_domesticByDistance(t *testing.T) {
	cases := []struct {
		km   float64
		days int
	}{
		{50, 3},    // floor
		{500, 3},   // 1+2 clamped up
		{900, 4},   // 2+2
		{1700, 6},  // 4+2
		{3000, 7},  // ceiling
		{10000, 7}, // still the ceiling
	}
	for _, tc := range cases {
		e := NewEstimator(&fakeRouter{sum: summary(tc.km, "Spain", "Spain")}, clock)
		est := e.Estimate(context.Background(), madrid(), madrid(), 0)
		require.Equal(t, tc.days, est.Days, "km=%v", tc.km)
		require.False(t, est.CrossBorder)
		require.NotNil(t, est.Route)
	}
}

func TestEstimate_crossBorderSurcharge(t *testing.T) {
	e := NewEstimator(&fakeRouter{sum: summary(620, "Spain", "Portugal")}, clock)
	est := e.Estimate(context.Background(), madrid(), lisbon(), 0)
	require.True(t, est.CrossBorder)
	require.Equal(t, 6, est.Days) // 3 base + 3 border
}

func TestEstimate_crossBorderCap(t *testing.T) {
	e := NewEstimator(&fakeRouter{sum: summary(5000, "Spain", "France")}, clock)
	dest := models.Location{Address: "Rue de Rivoli 1", Country: "Francia"}
	est := e.Estimate(context.Background(), madrid(), dest, 0)
	require.Equal(t, 10, est.Days) // 7+3 hits the cap
}

func TestEstimate_fallbackOnRouterError(t *testing.T) {
	e := NewEstimator(&fakeRouter{err: errors.New("timeout")}, clock)

	est := e.Estimate(context.Background(), madrid(), madrid(), 0)
	require.Equal(t, 2, est.Days)
	require.Nil(t, est.Route)

	est = e.Estimate(context.Background(), madrid(), lisbon(), 0)
	require.Equal(t, 10, est.Days)
	require.True(t, est.CrossBorder)
}

func TestEstimate_fallbackOnNoRoute(t *testing.T) {
	e := NewEstimator(&fakeRouter{}, clock)
	est := e.Estimate(context.Background(), madrid(), madrid(), 0)
	require.Equal(t, 2, est.Days)
}

func TestEstimate_unknownCountryFallsBackToNames(t *testing.T) {
	a := models.Location{Address: "x", Country: "Atlántida"}
	b := models.Location{Address: "y", Country: "atlántida"}
	e := NewEstimator(&fakeRouter{}, clock)
	est := e.Estimate(context.Background(), a, b, 0)
	require.False(t, est.CrossBorder)
	require.Equal(t, 2, est.Days)
}

func TestAddBusinessDays(t *testing.T) {
	friday := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	got := AddBusinessDays(friday, 1)
	require.Equal(t, time.Monday, got.Weekday())
	require.Equal(t, 10, got.Day())

	got = AddBusinessDays(fixedNow, 5)
	require.Equal(t, time.Monday, got.Weekday())
	require.Equal(t, 10, got.Day())
}

func TestEstimate_deliveryLandsOnWeekday(t *testing.T) {
	e := NewEstimator(&fakeRouter{sum: summary(1200, "Spain", "Spain")}, clock)
	est := e.Estimate(context.Background(), madrid(), madrid(), 0)
	require.NotEqual(t, time.Saturday, est.Delivery.Weekday())
	require.NotEqual(t, time.Sunday, est.Delivery.Weekday())
	require.True(t, est.Delivery.After(fixedNow))
}

func TestSameCountry(t *testing.T) {
	require.True(t, SameCountry("España", "Spain"))
	require.True(t, SameCountry("ES", "españa"))
	require.False(t, SameCountry("España", "Portugal"))
	require.True(t, SameCountry("Atlántida", "ATLÁNTIDA"))
	require.False(t, SameCountry("Atlántida", "Mordor"))
}

func TestEstimate_delayExtendsDelivery(t *testing.T) {
	e := NewEstimator(&fakeRouter{sum: summary(500, "Spain", "Spain")}, clock)
	base := e.Estimate(context.Background(), madrid(), madrid(), 0)
	delayed := e.Estimate(context.Background(), madrid(), madrid(), 3)
	require.Equal(t, base.Days, delayed.Days)
	require.True(t, delayed.Delivery.After(base.Delivery))
}

func TestFormatDate(t *testing.T) {
	require.Equal(t, "03/03/2025", FormatDate(fixedNow))
}
