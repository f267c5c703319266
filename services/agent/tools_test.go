package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ddc002021/MapServerMCP/services"
)

func TestToolCallRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		tool  AgentTool
		input string
	}{
		{"geocode", GeocodeTool{}, `{"query":`},
		{"reverse_geocode", ReverseGeocodeTool{}, `not json`},
		{"search_poi", SearchPOITool{}, `{"latitude":"far away"}`},
		{"get_route", GetRouteTool{}, `[1,2,3]`},
		{"get_typical_route", GetTypicalRouteTool{}, `{"origin_label":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tool.Call(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected a parse error")
			}
			if !strings.Contains(err.Error(), "failed to parse") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestToolCallRejectsMissingRequiredArguments(t *testing.T) {
	tests := []struct {
		name    string
		tool    AgentTool
		input   string
		missing string
	}{
		{"geocode empty query", GeocodeTool{}, `{}`, "query"},
		{"reverse_geocode no coordinates", ReverseGeocodeTool{}, `{"latitude":33.89}`, "latitude"},
		{"search_poi no coordinates", SearchPOITool{}, `{"radius":500}`, "latitude"},
		{"get_place_details empty id", GetPlaceDetailsTool{}, `{"place_id":""}`, "place_id"},
		{"get_route partial coordinates", GetRouteTool{}, `{"origin_lat":33.89,"origin_lon":35.48}`, "coordinates"},
		{"get_typical_route no labels", GetTypicalRouteTool{}, `{"origin_label":"Home"}`, "destination_label"},
		{"get_current_weather no coordinates", GetCurrentWeatherTool{}, `{}`, "latitude"},
		{"get_air_quality no coordinates", GetAirQualityTool{}, `{"longitude":35.48}`, "latitude"},
		{"get_astronomy_data no coordinates", GetAstronomyDataTool{}, `{"date":"2025-08-20"}`, "latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tool.Call(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected a missing-argument error")
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("expected error to name %q, got %v", tt.missing, err)
			}
		})
	}
}

func TestReverseGeocodeAcceptsZeroCoordinates(t *testing.T) {
	// Null Island is a valid input; zero must not be confused with absent.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name":"Atlantic Ocean","address":{}}`))
	}))
	defer server.Close()

	core := services.NewCoreMapService(server.Client(), services.CoreMapParams{
		NominatimURL: server.URL,
		UserAgent:    "test",
	})
	tool := ReverseGeocodeTool{core: core}

	result, err := tool.Call(context.Background(), `{"latitude":0,"longitude":0}`)
	if err != nil {
		t.Fatalf("zero coordinates treated as missing: %v", err)
	}
	if !strings.Contains(result, `"success":true`) {
		t.Errorf("expected success envelope, got %s", result)
	}
}

func TestToolSchemasDeclareRequiredFields(t *testing.T) {
	tests := []struct {
		tool     AgentTool
		required []string
	}{
		{GeocodeTool{}, []string{"query"}},
		{ReverseGeocodeTool{}, []string{"latitude", "longitude"}},
		{SearchPOITool{}, []string{"latitude", "longitude"}},
		{GetPlaceDetailsTool{}, []string{"place_id"}},
		{GetRouteTool{}, []string{"origin_lat", "origin_lon", "dest_lat", "dest_lon"}},
		{GetTypicalRouteTool{}, []string{"origin_label", "destination_label"}},
	}

	for _, tt := range tests {
		t.Run(tt.tool.Name(), func(t *testing.T) {
			schema := tt.tool.InputSchema()
			declared := make(map[string]bool, len(schema.Required))
			for _, field := range schema.Required {
				declared[field] = true
			}
			for _, field := range tt.required {
				if !declared[field] {
					t.Errorf("schema for %s missing required field %q", tt.tool.Name(), field)
				}
			}
		})
	}
}

func TestRegisterMapToolsCatalog(t *testing.T) {
	registry := NewRegistry()
	if err := RegisterMapTools(registry, nil, nil, nil); err != nil {
		t.Fatalf("registration failed: %v", err)
	}

	expected := []string{
		"geocode",
		"reverse_geocode",
		"search_poi",
		"get_place_details",
		"get_route",
		"get_frequent_places",
		"summarize_travel_stats",
		"get_typical_route",
		"get_current_weather",
		"get_air_quality",
		"get_astronomy_data",
	}

	catalog := registry.Catalog()
	if len(catalog) != len(expected) {
		t.Fatalf("expected %d tools, got %d", len(expected), len(catalog))
	}
	for i, name := range expected {
		if catalog[i].Name != name {
			t.Errorf("catalog[%d] = %s, want %s", i, catalog[i].Name, name)
		}
		if catalog[i].Description == "" {
			t.Errorf("tool %s has no description", name)
		}
		if catalog[i].Schema == nil {
			t.Errorf("tool %s has no input schema", name)
		}
	}
}

func TestFailureEnvelopeShape(t *testing.T) {
	envelope := failureEnvelope("Geocoding error: timeout")
	want := `{"success":false,"error":"Geocoding error: timeout"}`
	if envelope != want {
		t.Errorf("envelope mismatch:\ngot  %s\nwant %s", envelope, want)
	}
}
