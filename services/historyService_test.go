package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/ddc002021/MapServerMCP/models"
)

type fakeTripRepo struct {
	trips []models.Trip
	err   error
}

func (r fakeTripRepo) ListTrips() ([]models.Trip, error) { return r.trips, r.err }
func (r fakeTripRepo) Close() error                      { return nil }

func place(label string, lat, lon float64) models.TripPlace {
	return models.TripPlace{Lat: lat, Lon: lon, Label: label}
}

func sampleTrips() []models.Trip {
	home := place("Home", 33.8886, 35.4955)
	office := place("Office", 33.8938, 35.5018)
	gym := place("Gym", 33.8912, 35.4989)

	return []models.Trip{
		{Date: "2025-08-20", Hour: 8, Mode: "driving", DistanceKM: 3.2, DurationMinutes: 15, Origin: home, Destination: office},
		{Date: "2025-08-20", Hour: 18, Mode: "driving", DistanceKM: 3.4, DurationMinutes: 22, Origin: office, Destination: home},
		{Date: "2025-08-21", Hour: 8, Mode: "driving", DistanceKM: 3.1, DurationMinutes: 14, Origin: home, Destination: office},
		{Date: "2025-08-21", Hour: 19, Mode: "walking", DistanceKM: 1.1, DurationMinutes: 16, Origin: office, Destination: gym},
		{Date: "2025-08-22", Hour: 9, Mode: "cycling", DistanceKM: 3.0, DurationMinutes: 12, Origin: home, Destination: office},
		{Date: "2025-08-23", Hour: 10, Mode: "walking", DistanceKM: 0.9, DurationMinutes: 13, Origin: home, Destination: gym},
	}
}

func TestGetFrequentPlaces(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{trips: sampleTrips()})

	result, err := service.GetFrequentPlaces("", "", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Home and Office each appear 5 times across origins and destinations;
	// Gym only twice and falls under minVisits. Ties sort by label.
	if result.TotalPlaces != 2 {
		t.Fatalf("expected 2 places, got %d", result.TotalPlaces)
	}
	if result.Places[0].Label != "Home" || result.Places[0].VisitCount != 5 {
		t.Errorf("expected Home first with 5 visits, got %+v", result.Places[0])
	}
	if result.Places[1].Label != "Office" || result.Places[1].VisitCount != 5 {
		t.Errorf("expected Office second with 5 visits, got %+v", result.Places[1])
	}

	if result.TimeWindow.StartDate != "2025-08-20" || result.TimeWindow.EndDate != "2025-08-23" {
		t.Errorf("window must fall back to the trip span, got %+v", result.TimeWindow)
	}
}

func TestGetFrequentPlacesDateWindow(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{trips: sampleTrips()})

	result, err := service.GetFrequentPlaces("2025-08-21", "2025-08-22", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Three trips fall in the window: Home twice, Office three times, Gym once.
	if result.TimeWindow.StartDate != "2025-08-21" || result.TimeWindow.EndDate != "2025-08-22" {
		t.Errorf("window must echo explicit bounds, got %+v", result.TimeWindow)
	}
	counts := map[string]int{}
	for _, p := range result.Places {
		counts[p.Label] = p.VisitCount
	}
	if counts["Home"] != 2 || counts["Office"] != 3 || counts["Gym"] != 1 {
		t.Errorf("unexpected visit counts: %v", counts)
	}
}

func TestGetFrequentPlacesRepoError(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{err: errors.New("disk gone")})

	_, err := service.GetFrequentPlaces("", "", 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Error getting frequent places") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSummarizeTravelStats(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{trips: sampleTrips()})

	result, err := service.SummarizeTravelStats("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Summary.TotalTrips != 6 {
		t.Errorf("expected 6 trips, got %d", result.Summary.TotalTrips)
	}
	if result.Summary.TotalDistanceKM != 14.7 {
		t.Errorf("unexpected total distance: %f", result.Summary.TotalDistanceKM)
	}
	if result.Summary.TotalTimeHours != 1.53 {
		t.Errorf("unexpected total time: %f", result.Summary.TotalTimeHours)
	}
	if result.Summary.AvgTripDistanceKM != 2.45 {
		t.Errorf("unexpected average distance: %f", result.Summary.AvgTripDistanceKM)
	}

	driving := result.ByMode["driving"]
	if driving.Trips != 3 || driving.DistanceKM != 9.7 {
		t.Errorf("unexpected driving stats: %+v", driving)
	}
	if result.ByMode["walking"].Trips != 2 || result.ByMode["cycling"].Trips != 1 {
		t.Errorf("unexpected mode breakdown: %v", result.ByMode)
	}

	if len(result.TopRoutes) == 0 {
		t.Fatal("expected top routes")
	}
	if result.TopRoutes[0].Route != "Home → Office" || result.TopRoutes[0].TripCount != 3 {
		t.Errorf("expected Home → Office on top with 3 trips, got %+v", result.TopRoutes[0])
	}
}

func TestSummarizeTravelStatsEmptyWindow(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{trips: sampleTrips()})

	_, err := service.SummarizeTravelStats("2030-01-01", "2030-12-31")
	if err == nil {
		t.Fatal("expected error for empty window")
	}
	if err.Error() != "No trips found in specified time window" {
		t.Errorf("unexpected error: %q", err.Error())
	}
}

func TestGetTypicalRoute(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{trips: sampleTrips()})

	result, err := service.GetTypicalRoute("Home", "Office", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TripCount != 3 {
		t.Errorf("expected 3 matching trips, got %d", result.TripCount)
	}
	if result.Route != "Home → Office" {
		t.Errorf("unexpected route label: %q", result.Route)
	}
	if result.AverageDistanceKM != 3.1 {
		t.Errorf("unexpected average distance: %f", result.AverageDistanceKM)
	}
	if result.MostCommonMode != "driving" {
		t.Errorf("expected driving as most common mode, got %q", result.MostCommonMode)
	}
	if result.ModeDistribution["driving"] != 2 || result.ModeDistribution["cycling"] != 1 {
		t.Errorf("unexpected mode distribution: %v", result.ModeDistribution)
	}
}

func TestGetTypicalRouteFuzzyLabels(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{trips: sampleTrips()})

	result, err := service.GetTypicalRoute("home", "offce", nil)
	if err != nil {
		t.Fatalf("fuzzy labels should still match: %v", err)
	}
	if result.Route != "Home → Office" {
		t.Errorf("unexpected route: %q", result.Route)
	}
}

func TestGetTypicalRouteTimeOfDayFilter(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{trips: sampleTrips()})

	hour := 8
	result, err := service.GetTypicalRoute("Home", "Office", &hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TripCount != 2 {
		t.Errorf("expected 2 trips at 08:00, got %d", result.TripCount)
	}
	if result.TimeOfDayFilter == nil || *result.TimeOfDayFilter != 8 {
		t.Error("result must echo the time filter")
	}
}

func TestGetTypicalRouteNotFound(t *testing.T) {
	service := NewHistoryService(fakeTripRepo{trips: sampleTrips()})

	_, err := service.GetTypicalRoute("Airport", "Home", nil)
	if err == nil {
		t.Fatal("expected error for unknown route")
	}
	if !strings.Contains(err.Error(), "No trips found for route") {
		t.Errorf("unexpected error: %v", err)
	}
}
