package openroute

// Point is a geographic coordinate in (lon, lat) order, matching the order
// used on the OpenRouteService wire.
type Point struct {
	Lon float64
	Lat float64
}

// Place is the result of a forward or reverse geocode lookup.
type Place struct {
	Lon        float64
	Lat        float64
	Label      string
	Confidence float64
	Country    string
	Region     string
	County     string
	Locality   string
}

// BestLocality returns the most specific non-empty locality-like name.
func (p *Place) BestLocality() string {
	if p == nil {
		return ""
	}
	switch {
	case p.Locality != "":
		return p.Locality
	case p.County != "":
		return p.County
	default:
		return p.Region
	}
}

// BestRegion returns the most specific non-empty region-like name.
func (p *Place) BestRegion() string {
	if p == nil {
		return ""
	}
	if p.Region != "" {
		return p.Region
	}
	return p.County
}

// Route is a routed path between two coordinates.
type Route struct {
	DistanceKM    float64
	DurationHours float64
	// Geometry is the encoded polyline returned by the directions endpoint.
	Geometry string
}

// Query is one endpoint of a route request: a postal address plus an
// optional ISO-3166 alpha-2 country code used to bias geocoding.
type Query struct {
	Address     string
	PostalCode  string
	Province    string
	CountryCode string
}

// RouteSummary bundles both geocoded endpoints with the routed path between
// them. Either the whole summary exists or the lookup failed; there are no
// partial summaries.
type RouteSummary struct {
	Sender    Place
	Recipient Place
	Route     Route
}

// CrossBorder reports whether the geocoder resolved the endpoints to
// different countries.
func (s *RouteSummary) CrossBorder() bool {
	return s != nil && s.Sender.Country != s.Recipient.Country
}
