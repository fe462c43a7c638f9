package domain

import "context"

// GeocodingResult is the best place match for a query or coordinate pair.
// A zero FormattedAddress means nothing matched.
type GeocodingResult struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	PlaceName        string  `json:"placeName"`
	FormattedAddress string  `json:"formattedAddress"`
	Relevance        float64 `json:"relevance"`
}

// Found reports whether the geocoder matched anything.
func (r GeocodingResult) Found() bool {
	return r.FormattedAddress != ""
}

// Location converts the match into an impact location named after it.
func (r GeocodingResult) Location() (ImpactLocation, error) {
	return NewImpactLocation(r.Latitude, r.Longitude, r.FormattedAddress)
}

// Geocoder resolves place names to coordinates and back. Implementations
// return a zero result, not an error, when nothing matches.
type Geocoder interface {
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
