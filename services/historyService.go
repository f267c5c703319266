package services

import (
	"fmt"
	"sort"

	"github.com/ddc002021/MapServerMCP/db"
	"github.com/ddc002021/MapServerMCP/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// HistoryService answers questions about the recorded trip log: frequent
// places, aggregate travel statistics, and typical routes between labeled
// places.
type HistoryService struct {
	repo db.TripRepository
}

func NewHistoryService(repo db.TripRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

type TimeWindow struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type FrequentPlace struct {
	Label      string  `json:"label"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	VisitCount int     `json:"visit_count"`
}

type FrequentPlacesResult struct {
	Success     bool            `json:"success"`
	TimeWindow  TimeWindow      `json:"time_window"`
	TotalPlaces int             `json:"total_places"`
	Places      []FrequentPlace `json:"places"`
}

// GetFrequentPlaces counts visits to trip origins and destinations inside a
// date window. Dates are YYYY-MM-DD and optional; minVisits filters out
// rarely visited places.
func (s *HistoryService) GetFrequentPlaces(startDate, endDate string, minVisits int) (*FrequentPlacesResult, error) {
	trips, err := s.filteredTrips(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("Error getting frequent places: %v", err)
	}

	type visitEntry struct {
		place models.TripPlace
		count int
	}

	visits := map[string]*visitEntry{}
	countVisit := func(place models.TripPlace) {
		key := fmt.Sprintf("%v,%v", place.Lat, place.Lon)
		entry, ok := visits[key]
		if !ok {
			entry = &visitEntry{place: place}
			visits[key] = entry
		}
		entry.count++
	}
	for _, trip := range trips {
		countVisit(trip.Origin)
		countVisit(trip.Destination)
	}

	places := lo.FilterMap(lo.Values(visits), func(entry *visitEntry, _ int) (FrequentPlace, bool) {
		if entry.count < minVisits {
			return FrequentPlace{}, false
		}
		return FrequentPlace{
			Label:      entry.place.Label,
			Latitude:   entry.place.Lat,
			Longitude:  entry.place.Lon,
			VisitCount: entry.count,
		}, true
	})

	// Stable order: visit count desc, then label for deterministic ties.
	places = sortPlaces(places)

	return &FrequentPlacesResult{
		Success:     true,
		TimeWindow:  s.timeWindow(startDate, endDate, trips),
		TotalPlaces: len(places),
		Places:      places,
	}, nil
}

type ModeStats struct {
	Trips       int     `json:"trips"`
	DistanceKM  float64 `json:"distance_km"`
	TimeMinutes float64 `json:"time_minutes"`
}

type RouteCount struct {
	Route     string `json:"route"`
	TripCount int    `json:"trip_count"`
}

type TravelStatsSummary struct {
	TotalTrips             int     `json:"total_trips"`
	TotalDistanceKM        float64 `json:"total_distance_km"`
	TotalTimeHours         float64 `json:"total_time_hours"`
	AvgTripDistanceKM      float64 `json:"avg_trip_distance_km"`
	AvgTripDurationMinutes float64 `json:"avg_trip_duration_minutes"`
}

type TravelStatsResult struct {
	Success    bool                 `json:"success"`
	TimeWindow TimeWindow           `json:"time_window"`
	Summary    TravelStatsSummary   `json:"summary"`
	ByMode     map[string]ModeStats `json:"by_mode"`
	TopRoutes  []RouteCount         `json:"top_routes"`
}

const topRouteLimit = 5

// SummarizeTravelStats aggregates the trip log over a date window.
func (s *HistoryService) SummarizeTravelStats(startDate, endDate string) (*TravelStatsResult, error) {
	trips, err := s.filteredTrips(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("Error summarizing travel stats: %v", err)
	}

	if len(trips) == 0 {
		return nil, fmt.Errorf("No trips found in specified time window")
	}

	totalTrips := len(trips)
	totalDistance := lo.SumBy(trips, func(t models.Trip) float64 { return t.DistanceKM })
	totalTime := lo.SumBy(trips, func(t models.Trip) float64 { return t.DurationMinutes })

	byMode := lo.MapValues(lo.GroupBy(trips, func(t models.Trip) string { return t.Mode }),
		func(modeTrips []models.Trip, _ string) ModeStats {
			return ModeStats{
				Trips:       len(modeTrips),
				DistanceKM:  lo.SumBy(modeTrips, func(t models.Trip) float64 { return t.DistanceKM }),
				TimeMinutes: lo.SumBy(modeTrips, func(t models.Trip) float64 { return t.DurationMinutes }),
			}
		})

	routeCounts := lo.CountValuesBy(trips, func(t models.Trip) string {
		return fmt.Sprintf("%s → %s", t.Origin.Label, t.Destination.Label)
	})
	topRoutes := lo.MapToSlice(routeCounts, func(route string, count int) RouteCount {
		return RouteCount{Route: route, TripCount: count}
	})
	topRoutes = sortRoutes(topRoutes)
	if len(topRoutes) > topRouteLimit {
		topRoutes = topRoutes[:topRouteLimit]
	}

	return &TravelStatsResult{
		Success:    true,
		TimeWindow: s.timeWindow(startDate, endDate, trips),
		Summary: TravelStatsSummary{
			TotalTrips:             totalTrips,
			TotalDistanceKM:        round2(totalDistance),
			TotalTimeHours:         round2(totalTime / 60),
			AvgTripDistanceKM:      round2(totalDistance / float64(totalTrips)),
			AvgTripDurationMinutes: round2(totalTime / float64(totalTrips)),
		},
		ByMode:    byMode,
		TopRoutes: topRoutes,
	}, nil
}

type TypicalRouteResult struct {
	Success                bool           `json:"success"`
	Route                  string         `json:"route"`
	TimeOfDayFilter        *int           `json:"time_of_day_filter"`
	TripCount              int            `json:"trip_count"`
	AverageDistanceKM      float64        `json:"average_distance_km"`
	AverageDurationMinutes float64        `json:"average_duration_minutes"`
	MostCommonMode         string         `json:"most_common_mode"`
	ModeDistribution       map[string]int `json:"mode_distribution"`
}

// GetTypicalRoute summarizes recorded trips between two labeled places.
// Labels match case-insensitively with a fuzzy fallback so "home" or "offce"
// still resolve. timeOfDay, when non-nil, keeps only trips departing at that
// hour.
func (s *HistoryService) GetTypicalRoute(originLabel, destinationLabel string, timeOfDay *int) (*TypicalRouteResult, error) {
	trips, err := s.repo.ListTrips()
	if err != nil {
		return nil, fmt.Errorf("Error getting typical route: %v", err)
	}

	matching := lo.Filter(trips, func(t models.Trip, _ int) bool {
		return labelMatches(originLabel, t.Origin.Label) && labelMatches(destinationLabel, t.Destination.Label)
	})

	if timeOfDay != nil {
		matching = lo.Filter(matching, func(t models.Trip, _ int) bool {
			return t.Hour == *timeOfDay
		})
	}

	if len(matching) == 0 {
		return nil, fmt.Errorf("No trips found for route %s → %s", originLabel, destinationLabel)
	}

	avgDistance := lo.SumBy(matching, func(t models.Trip) float64 { return t.DistanceKM }) / float64(len(matching))
	avgDuration := lo.SumBy(matching, func(t models.Trip) float64 { return t.DurationMinutes }) / float64(len(matching))

	modeCounts := lo.CountValuesBy(matching, func(t models.Trip) string { return t.Mode })
	mostCommon := lo.MaxBy(lo.Keys(modeCounts), func(a, b string) bool {
		return modeCounts[a] > modeCounts[b]
	})

	return &TypicalRouteResult{
		Success:                true,
		Route:                  fmt.Sprintf("%s → %s", matching[0].Origin.Label, matching[0].Destination.Label),
		TimeOfDayFilter:        timeOfDay,
		TripCount:              len(matching),
		AverageDistanceKM:      round2(avgDistance),
		AverageDurationMinutes: round2(avgDuration),
		MostCommonMode:         mostCommon,
		ModeDistribution:       modeCounts,
	}, nil
}

func labelMatches(query, label string) bool {
	if query == label {
		return true
	}
	return fuzzy.MatchFold(query, label)
}

func (s *HistoryService) filteredTrips(startDate, endDate string) ([]models.Trip, error) {
	trips, err := s.repo.ListTrips()
	if err != nil {
		return nil, err
	}

	if startDate != "" {
		trips = lo.Filter(trips, func(t models.Trip, _ int) bool { return t.Date >= startDate })
	}
	if endDate != "" {
		trips = lo.Filter(trips, func(t models.Trip, _ int) bool { return t.Date <= endDate })
	}

	return trips, nil
}

// timeWindow echoes the requested window, falling back to the span of the
// filtered trips when a bound was omitted.
func (s *HistoryService) timeWindow(startDate, endDate string, trips []models.Trip) TimeWindow {
	window := TimeWindow{StartDate: startDate, EndDate: endDate}
	if len(trips) == 0 {
		return window
	}

	dates := lo.Map(trips, func(t models.Trip, _ int) string { return t.Date })
	if window.StartDate == "" {
		window.StartDate = lo.Min(dates)
	}
	if window.EndDate == "" {
		window.EndDate = lo.Max(dates)
	}
	return window
}

func sortPlaces(places []FrequentPlace) []FrequentPlace {
	sort.Slice(places, func(i, j int) bool {
		if places[i].VisitCount != places[j].VisitCount {
			return places[i].VisitCount > places[j].VisitCount
		}
		return places[i].Label < places[j].Label
	})
	return places
}

func sortRoutes(routes []RouteCount) []RouteCount {
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].TripCount != routes[j].TripCount {
			return routes[i].TripCount > routes[j].TripCount
		}
		return routes[i].Route < routes[j].Route
	})
	return routes
}
