package api

import (
	"math"
	"testing"

	"fieldly/models"
)

func TestDecodePolylineReferenceVector(t *testing.T) {
	// Worked example from the Google polyline encoding documentation.
	got := DecodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	want := []models.LatLng{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i].Lat-want[i].Lat) > 1e-6 || math.Abs(got[i].Lng-want[i].Lng) > 1e-6 {
			t.Fatalf("point %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDecodePolylineEmpty(t *testing.T) {
	if got := DecodePolyline(""); len(got) != 0 {
		t.Fatalf("expected no points, got %v", got)
	}
}
