package domain

import (
	"context"
	"log/slog"
)

// PlaceLabel looks up a display label for a clicked coordinate. A nil
// geocoder, a failed lookup, or an empty result all yield "".
func PlaceLabel(ctx context.Context, geocoder Geocoder, lat, lon float64, logger *slog.Logger) string {
	if geocoder == nil {
		return ""
	}
	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return ""
	}
	if result.FormattedAddress != "" {
		return result.FormattedAddress
	}
	return result.PlaceName
}
