package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CoreMapParams configures the upstream endpoints used for geocoding,
// routing, and POI search.
type CoreMapParams struct {
	NominatimURL   string
	OSRMURL        string
	OverpassURL    string
	UserAgent      string
	RateLimitDelay time.Duration
}

func DefaultCoreMapParams() CoreMapParams {
	return CoreMapParams{
		NominatimURL:   "https://nominatim.openstreetmap.org",
		OSRMURL:        "https://router.project-osrm.org",
		OverpassURL:    "https://overpass-api.de/api/interpreter",
		UserAgent:      "MCP-Map-Agent/1.0",
		RateLimitDelay: 500 * time.Millisecond,
	}
}

// CoreMapService wraps the public OpenStreetMap APIs (Nominatim, OSRM,
// Overpass). The HTTP client is shared and long-lived; Close releases it.
type CoreMapService struct {
	client *http.Client
	params CoreMapParams
}

func NewCoreMapService(client *http.Client, params CoreMapParams) *CoreMapService {
	return &CoreMapService{client: client, params: params}
}

func (s *CoreMapService) Close() {
	s.client.CloseIdleConnections()
}

// pause enforces the courtesy delay the public OSM endpoints expect.
func (s *CoreMapService) pause(ctx context.Context) error {
	if s.params.RateLimitDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.params.RateLimitDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type GeocodeResult struct {
	Success           bool           `json:"success"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	DisplayName       string         `json:"display_name"`
	Address           map[string]any `json:"address"`
	NormalizedAddress string         `json:"normalized_address"`
}

type nominatimPlace struct {
	Lat         string         `json:"lat"`
	Lon         string         `json:"lon"`
	DisplayName string         `json:"display_name"`
	Address     map[string]any `json:"address"`
	Class       string         `json:"class"`
	Type        string         `json:"type"`
	ExtraTags   map[string]any `json:"extratags"`
}

// Geocode converts an address or place name to coordinates.
func (s *CoreMapService) Geocode(ctx context.Context, query string) (*GeocodeResult, error) {
	if err := s.pause(ctx); err != nil {
		return nil, fmt.Errorf("Geocoding error: %v", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	var places []nominatimPlace
	if err := s.getJSON(ctx, s.params.NominatimURL+"/search?"+params.Encode(), &places); err != nil {
		return nil, fmt.Errorf("Geocoding error: %v", err)
	}

	if len(places) == 0 {
		return nil, fmt.Errorf("No results found for '%s'", query)
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("Geocoding error: %v", err)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("Geocoding error: %v", err)
	}

	address := place.Address
	if address == nil {
		address = map[string]any{}
	}

	return &GeocodeResult{
		Success:           true,
		Latitude:          lat,
		Longitude:         lon,
		DisplayName:       place.DisplayName,
		Address:           address,
		NormalizedAddress: place.DisplayName,
	}, nil
}

type ReverseGeocodeAddress struct {
	Road          string `json:"road"`
	Neighbourhood string `json:"neighbourhood"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Postcode      string `json:"postcode"`
}

type ReverseGeocodeResult struct {
	Success     bool                  `json:"success"`
	DisplayName string                `json:"display_name"`
	Address     ReverseGeocodeAddress `json:"address"`
	Latitude    float64               `json:"latitude"`
	Longitude   float64               `json:"longitude"`
}

// ReverseGeocode converts coordinates to a human-readable address.
func (s *CoreMapService) ReverseGeocode(ctx context.Context, latitude, longitude float64) (*ReverseGeocodeResult, error) {
	if err := s.pause(ctx); err != nil {
		return nil, fmt.Errorf("Reverse geocoding error: %v", err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")

	var data struct {
		DisplayName string         `json:"display_name"`
		Address     map[string]any `json:"address"`
	}
	if err := s.getJSON(ctx, s.params.NominatimURL+"/reverse?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("Reverse geocoding error: %v", err)
	}

	addr := data.Address
	return &ReverseGeocodeResult{
		Success:     true,
		DisplayName: data.DisplayName,
		Address: ReverseGeocodeAddress{
			Road:          stringField(addr, "road"),
			Neighbourhood: firstStringField(addr, "neighbourhood", "suburb"),
			City:          firstStringField(addr, "city", "town", "village"),
			State:         stringField(addr, "state"),
			Country:       stringField(addr, "country"),
			Postcode:      stringField(addr, "postcode"),
		},
		Latitude:  latitude,
		Longitude: longitude,
	}, nil
}

type POI struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Key            string  `json:"key,omitempty"`
	Type           string  `json:"type"`
	DistanceMeters float64 `json:"distance_meters"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

type POISearchResult struct {
	Success bool  `json:"success"`
	Count   int   `json:"count"`
	POIs    []POI `json:"pois"`
}

const maxPOIResults = 20

// SearchPOI finds points of interest around a coordinate via Overpass.
// category is an OSM tag key (amenity, shop, tourism); key narrows it to a
// specific tag value (cafe, supermarket) and may be empty.
func (s *CoreMapService) SearchPOI(ctx context.Context, latitude, longitude float64, radius int, category, key string) (*POISearchResult, error) {
	if err := s.pause(ctx); err != nil {
		return nil, fmt.Errorf("POI search error: %v", err)
	}

	selector := fmt.Sprintf("%q", category)
	if key != "" {
		selector = fmt.Sprintf("%q=%q", category, key)
	}
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, latitude, longitude)
	query := fmt.Sprintf("[out:json];(node[%s]%s;way[%s]%s;);out body;", selector, around, selector, around)

	form := url.Values{}
	form.Set("data", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.params.OverpassURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("POI search error: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", s.params.UserAgent)

	var data struct {
		Elements []struct {
			ID     int64             `json:"id"`
			Type   string            `json:"type"`
			Lat    float64           `json:"lat"`
			Lon    float64           `json:"lon"`
			Center *struct {
				Lat float64 `json:"lat"`
				Lon float64 `json:"lon"`
			} `json:"center"`
			Tags map[string]string `json:"tags"`
		} `json:"elements"`
	}
	if err := s.doJSON(req, &data); err != nil {
		return nil, fmt.Errorf("POI search error: %v", err)
	}

	elements := data.Elements
	if len(elements) > maxPOIResults {
		elements = elements[:maxPOIResults]
	}

	pois := make([]POI, 0, len(elements))
	for _, element := range elements {
		poiLat, poiLon := element.Lat, element.Lon
		if element.Center != nil {
			poiLat, poiLon = element.Center.Lat, element.Center.Lon
		}

		name := element.Tags["name"]
		if name == "" {
			name = "Unnamed"
		}

		pois = append(pois, POI{
			ID:             element.ID,
			Name:           name,
			Category:       category,
			Key:            element.Tags[category],
			Type:           element.Type,
			DistanceMeters: round2(haversineDistance(latitude, longitude, poiLat, poiLon)),
			Latitude:       poiLat,
			Longitude:      poiLon,
		})
	}

	sort.Slice(pois, func(i, j int) bool {
		return pois[i].DistanceMeters < pois[j].DistanceMeters
	})

	return &POISearchResult{Success: true, Count: len(pois), POIs: pois}, nil
}

type PlaceDetailsResult struct {
	Success      bool           `json:"success"`
	PlaceID      string         `json:"place_id"`
	Name         string         `json:"name"`
	FullAddress  string         `json:"full_address"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	Address      map[string]any `json:"address"`
	Category     string         `json:"category"`
	Type         string         `json:"type"`
	Phone        string         `json:"phone"`
	Website      string         `json:"website"`
	OpeningHours string         `json:"opening_hours"`
	ExtraTags    map[string]any `json:"extratags"`
}

// GetPlaceDetails looks up an OSM element by prefixed id (N123, W123, R123).
func (s *CoreMapService) GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetailsResult, error) {
	if err := s.pause(ctx); err != nil {
		return nil, fmt.Errorf("Place details error: %v", err)
	}

	osmType, osmID := "N", placeID
	switch {
	case strings.HasPrefix(placeID, "N"), strings.HasPrefix(placeID, "W"), strings.HasPrefix(placeID, "R"):
		osmType, osmID = placeID[:1], placeID[1:]
	}

	params := url.Values{}
	params.Set("osm_ids", osmType+osmID)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("extratags", "1")

	var places []nominatimPlace
	if err := s.getJSON(ctx, s.params.NominatimURL+"/lookup?"+params.Encode(), &places); err != nil {
		return nil, fmt.Errorf("Place details error: %v", err)
	}

	if len(places) == 0 {
		return nil, fmt.Errorf("Place not found: %s", placeID)
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("Place details error: %v", err)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("Place details error: %v", err)
	}

	extratags := place.ExtraTags
	if extratags == nil {
		extratags = map[string]any{}
	}
	address := place.Address
	if address == nil {
		address = map[string]any{}
	}

	name := place.DisplayName
	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx]
	}

	return &PlaceDetailsResult{
		Success:      true,
		PlaceID:      placeID,
		Name:         name,
		FullAddress:  place.DisplayName,
		Latitude:     lat,
		Longitude:    lon,
		Address:      address,
		Category:     place.Class,
		Type:         place.Type,
		Phone:        firstStringField(extratags, "phone", "contact:phone"),
		Website:      firstStringField(extratags, "website", "contact:website"),
		OpeningHours: stringField(extratags, "opening_hours"),
		ExtraTags:    extratags,
	}, nil
}

type RouteStep struct {
	Instruction     string  `json:"instruction"`
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type RouteResult struct {
	Success         bool        `json:"success"`
	Mode            string      `json:"mode"`
	DistanceMeters  float64     `json:"distance_meters"`
	DistanceKM      float64     `json:"distance_km"`
	DurationSeconds float64     `json:"duration_seconds"`
	DurationMinutes float64     `json:"duration_minutes"`
	Steps           []RouteStep `json:"steps"`
	Summary         string      `json:"summary"`
}

var osrmProfiles = map[string]string{
	"driving": "car",
	"walking": "foot",
	"cycling": "bike",
	"car":     "car",
	"foot":    "foot",
	"bike":    "bike",
}

const maxRouteSteps = 10

// GetRoute calculates a route between two coordinates via OSRM.
func (s *CoreMapService) GetRoute(ctx context.Context, originLat, originLon, destLat, destLon float64, mode string) (*RouteResult, error) {
	if err := s.pause(ctx); err != nil {
		return nil, fmt.Errorf("Routing error: %v", err)
	}

	profile, ok := osrmProfiles[strings.ToLower(mode)]
	if !ok {
		profile = "car"
	}

	endpoint := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&steps=true&geometries=geojson",
		s.params.OSRMURL, profile, originLon, originLat, destLon, destLat)

	var data struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Routes  []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
			Legs     []struct {
				Steps []struct {
					Distance float64 `json:"distance"`
					Duration float64 `json:"duration"`
					Maneuver struct {
						Instruction string `json:"instruction"`
					} `json:"maneuver"`
				} `json:"steps"`
			} `json:"legs"`
		} `json:"routes"`
	}
	if err := s.getJSON(ctx, endpoint, &data); err != nil {
		return nil, fmt.Errorf("Routing error: %v", err)
	}

	if data.Code != "Ok" {
		message := data.Message
		if message == "" {
			message = "Unknown error"
		}
		return nil, fmt.Errorf("Routing error: %s", message)
	}
	if len(data.Routes) == 0 || len(data.Routes[0].Legs) == 0 {
		return nil, fmt.Errorf("Routing error: no route returned")
	}

	route := data.Routes[0]
	steps := route.Legs[0].Steps
	if len(steps) > maxRouteSteps {
		steps = steps[:maxRouteSteps]
	}

	instructions := make([]RouteStep, 0, len(steps))
	for _, step := range steps {
		instruction := step.Maneuver.Instruction
		if instruction == "" {
			instruction = "Continue"
		}
		instructions = append(instructions, RouteStep{
			Instruction:     instruction,
			DistanceMeters:  round2(step.Distance),
			DurationSeconds: round2(step.Duration),
		})
	}

	return &RouteResult{
		Success:         true,
		Mode:            mode,
		DistanceMeters:  round2(route.Distance),
		DistanceKM:      round2(route.Distance / 1000),
		DurationSeconds: round2(route.Duration),
		DurationMinutes: round2(route.Duration / 60),
		Steps:           instructions,
		Summary: fmt.Sprintf("%.1f km, approximately %.0f minutes by %s",
			route.Distance/1000, math.Round(route.Duration/60), mode),
	}, nil
}

func (s *CoreMapService) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.params.UserAgent)
	return s.doJSON(req, out)
}

func (s *CoreMapService) doJSON(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func stringField(m map[string]any, key string) string {
	if value, ok := m[key].(string); ok {
		return value
	}
	return ""
}

func firstStringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if value := stringField(m, key); value != "" {
			return value
		}
	}
	return ""
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// haversineDistance returns the great-circle distance in meters.
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMeters = 6371000

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}
