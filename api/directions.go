package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fieldly/models"
)

// RouteProvider derives a drivable path between two points. The tracking
// session only requests routes; caching and display are not its concern.
type RouteProvider interface {
	Route(ctx context.Context, origin, dest models.LatLng) ([]models.LatLng, error)
}

// DirectionsResponse represents the structure of the response from Google Directions API.
type DirectionsResponse struct {
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

// GoogleRouteProvider fetches routes from the Google Directions API and
// decodes the overview polyline into coordinates.
type GoogleRouteProvider struct {
	APIKey string
	Client *http.Client
}

func NewGoogleRouteProvider(apiKey string) *GoogleRouteProvider {
	return &GoogleRouteProvider{APIKey: apiKey, Client: http.DefaultClient}
}

func (p *GoogleRouteProvider) Route(ctx context.Context, origin, dest models.LatLng) ([]models.LatLng, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("missing directions API key")
	}

	url := fmt.Sprintf(
		"https://maps.googleapis.com/maps/api/directions/json?origin=%f,%f&destination=%f,%f&key=%s",
		origin.Lat, origin.Lng, dest.Lat, dest.Lng, p.APIKey,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var directions DirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&directions); err != nil {
		return nil, fmt.Errorf("failed to decode directions response: %w", err)
	}
	if len(directions.Routes) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	return DecodePolyline(directions.Routes[0].OverviewPolyline.Points), nil
}

// DecodePolyline decodes a Google encoded polyline into coordinates.
func DecodePolyline(encoded string) []models.LatLng {
	var path []models.LatLng
	var lat, lng int64
	index := 0

	readDelta := func() int64 {
		var result int64
		var shift uint
		for index < len(encoded) {
			b := int64(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		if result&1 != 0 {
			return ^(result >> 1)
		}
		return result >> 1
	}

	for index < len(encoded) {
		lat += readDelta()
		lng += readDelta()
		path = append(path, models.LatLng{
			Lat: float64(lat) / 1e5,
			Lng: float64(lng) / 1e5,
		})
	}
	return path
}
