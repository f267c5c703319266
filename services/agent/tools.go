package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ddc002021/MapServerMCP/models"
	"github.com/ddc002021/MapServerMCP/services"

	"github.com/invopop/jsonschema"
)

// Defaults applied when the model omits an optional argument.
const (
	defaultPOIRadius   = 1000
	defaultPOICategory = "amenity"
	defaultRouteMode   = "driving"
	defaultMinVisits   = 3
)

func generateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func failureEnvelope(message string) string {
	raw, _ := json.Marshal(models.Envelope{Success: false, Error: message})
	return string(raw)
}

func successEnvelope(result any) (string, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %v", err)
	}
	return string(raw), nil
}

// RegisterMapTools builds the full catalog over the three backend services.
func RegisterMapTools(registry *Registry, core *services.CoreMapService, history *services.HistoryService, weather *services.WeatherService) error {
	tools := []AgentTool{
		GeocodeTool{core: core},
		ReverseGeocodeTool{core: core},
		SearchPOITool{core: core},
		GetPlaceDetailsTool{core: core},
		GetRouteTool{core: core},
		GetFrequentPlacesTool{history: history},
		SummarizeTravelStatsTool{history: history},
		GetTypicalRouteTool{history: history},
		GetCurrentWeatherTool{weather: weather},
		GetAirQualityTool{weather: weather},
		GetAstronomyDataTool{weather: weather},
	}
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

type GeocodeInput struct {
	Query string `json:"query" jsonschema:"required,description=The address or place name to geocode (e.g. 'Hamra Street Beirut' or '1600 Amphitheatre Parkway Mountain View CA')"`
}

type GeocodeTool struct {
	core *services.CoreMapService
}

func (t GeocodeTool) Name() string {
	return "geocode"
}

func (t GeocodeTool) Description() string {
	return "Convert an address or place name to geographic coordinates (latitude and longitude) with a normalized address."
}

func (t GeocodeTool) Call(ctx context.Context, input string) (string, error) {
	var params GeocodeInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse geocode tool input: %v", err)
	}
	if params.Query == "" {
		return "", fmt.Errorf("missing required argument \"query\"")
	}

	result, err := t.core.Geocode(ctx, params.Query)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t GeocodeTool) InputSchema() *jsonschema.Schema {
	return generateSchema[GeocodeInput]()
}

type ReverseGeocodeInput struct {
	Latitude  *float64 `json:"latitude" jsonschema:"required,description=Latitude coordinate"`
	Longitude *float64 `json:"longitude" jsonschema:"required,description=Longitude coordinate"`
}

type ReverseGeocodeTool struct {
	core *services.CoreMapService
}

func (t ReverseGeocodeTool) Name() string {
	return "reverse_geocode"
}

func (t ReverseGeocodeTool) Description() string {
	return "Convert geographic coordinates (latitude and longitude) to a human-readable address with neighborhood information."
}

func (t ReverseGeocodeTool) Call(ctx context.Context, input string) (string, error) {
	var params ReverseGeocodeInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse reverse geocode tool input: %v", err)
	}
	if params.Latitude == nil || params.Longitude == nil {
		return "", fmt.Errorf("missing required arguments \"latitude\" and \"longitude\"")
	}

	result, err := t.core.ReverseGeocode(ctx, *params.Latitude, *params.Longitude)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t ReverseGeocodeTool) InputSchema() *jsonschema.Schema {
	return generateSchema[ReverseGeocodeInput]()
}

type SearchPOIInput struct {
	Latitude  *float64 `json:"latitude" jsonschema:"required,description=Center point latitude"`
	Longitude *float64 `json:"longitude" jsonschema:"required,description=Center point longitude"`
	Radius    int      `json:"radius,omitempty" jsonschema:"description=Search radius in meters (default: 1000)"`
	Category  string   `json:"category,omitempty" jsonschema:"description=POI category to search for. This should be an OpenStreetMap TAG KEY (e.g. 'amenity' or 'shop' or 'tourism')"`
	Key       string   `json:"key,omitempty" jsonschema:"description=Key to search for. This should be an OpenStreetMap TAG VALUE for the chosen category. This is the specific place type (cafe or supermarket etc.)"`
}

type SearchPOITool struct {
	core *services.CoreMapService
}

func (t SearchPOITool) Name() string {
	return "search_poi"
}

func (t SearchPOITool) Description() string {
	return "Find points of interest (POIs) near a location within a specified radius. Returns POI details including name, category, and distance."
}

func (t SearchPOITool) Call(ctx context.Context, input string) (string, error) {
	var params SearchPOIInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse search poi tool input: %v", err)
	}
	if params.Latitude == nil || params.Longitude == nil {
		return "", fmt.Errorf("missing required arguments \"latitude\" and \"longitude\"")
	}
	if params.Radius <= 0 {
		params.Radius = defaultPOIRadius
	}
	if params.Category == "" {
		params.Category = defaultPOICategory
	}

	result, err := t.core.SearchPOI(ctx, *params.Latitude, *params.Longitude, params.Radius, params.Category, params.Key)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t SearchPOITool) InputSchema() *jsonschema.Schema {
	return generateSchema[SearchPOIInput]()
}

type GetPlaceDetailsInput struct {
	PlaceID string `json:"place_id" jsonschema:"required,description=OpenStreetMap place ID (e.g. 'N123456' for node or 'W123456' for way) (Not the coordinates or the name of the place)"`
}

type GetPlaceDetailsTool struct {
	core *services.CoreMapService
}

func (t GetPlaceDetailsTool) Name() string {
	return "get_place_details"
}

func (t GetPlaceDetailsTool) Description() string {
	return "Get detailed information about a specific place using its place ID. Returns name, full address, coordinates, contact info, and opening hours if available."
}

func (t GetPlaceDetailsTool) Call(ctx context.Context, input string) (string, error) {
	var params GetPlaceDetailsInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get place details tool input: %v", err)
	}
	if params.PlaceID == "" {
		return "", fmt.Errorf("missing required argument \"place_id\"")
	}

	result, err := t.core.GetPlaceDetails(ctx, params.PlaceID)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t GetPlaceDetailsTool) InputSchema() *jsonschema.Schema {
	return generateSchema[GetPlaceDetailsInput]()
}

type GetRouteInput struct {
	OriginLat *float64 `json:"origin_lat" jsonschema:"required,description=Origin latitude"`
	OriginLon *float64 `json:"origin_lon" jsonschema:"required,description=Origin longitude"`
	DestLat   *float64 `json:"dest_lat" jsonschema:"required,description=Destination latitude"`
	DestLon   *float64 `json:"dest_lon" jsonschema:"required,description=Destination longitude"`
	Mode      string   `json:"mode,omitempty" jsonschema:"description=Transportation mode: 'driving' or 'walking' or 'cycling',enum=driving,enum=walking,enum=cycling"`
}

type GetRouteTool struct {
	core *services.CoreMapService
}

func (t GetRouteTool) Name() string {
	return "get_route"
}

func (t GetRouteTool) Description() string {
	return "Calculate a route between two geographic coordinates. Returns distance, duration, turn-by-turn steps, and a summary."
}

func (t GetRouteTool) Call(ctx context.Context, input string) (string, error) {
	var params GetRouteInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get route tool input: %v", err)
	}
	if params.OriginLat == nil || params.OriginLon == nil || params.DestLat == nil || params.DestLon == nil {
		return "", fmt.Errorf("missing required origin/destination coordinates")
	}
	if params.Mode == "" {
		params.Mode = defaultRouteMode
	}

	result, err := t.core.GetRoute(ctx, *params.OriginLat, *params.OriginLon, *params.DestLat, *params.DestLon, params.Mode)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t GetRouteTool) InputSchema() *jsonschema.Schema {
	return generateSchema[GetRouteInput]()
}

type GetFrequentPlacesInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"description=Start date in YYYY-MM-DD format (optional). If the user prompts for a certain period of time explicitly keep asking for the start and end date until the user provides the date. Don't assume the start date no matter what."`
	EndDate   string `json:"end_date,omitempty" jsonschema:"description=End date in YYYY-MM-DD format (optional). If the user prompts for a certain period of time explicitly keep asking for the start and end date until the user provides the date. Don't assume the end date no matter what."`
	MinVisits int    `json:"min_visits,omitempty" jsonschema:"description=Minimum number of visits to include a place (default: 3)"`
}

type GetFrequentPlacesTool struct {
	history *services.HistoryService
}

func (t GetFrequentPlacesTool) Name() string {
	return "get_frequent_places"
}

func (t GetFrequentPlacesTool) Description() string {
	return "Retrieve frequently visited places from historical trip data within a specified time window. Returns places with visit counts. Note that the label is not the name of the place, it is a user set label."
}

func (t GetFrequentPlacesTool) Call(ctx context.Context, input string) (string, error) {
	var params GetFrequentPlacesInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get frequent places tool input: %v", err)
	}
	if params.MinVisits <= 0 {
		params.MinVisits = defaultMinVisits
	}

	result, err := t.history.GetFrequentPlaces(params.StartDate, params.EndDate, params.MinVisits)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t GetFrequentPlacesTool) InputSchema() *jsonschema.Schema {
	return generateSchema[GetFrequentPlacesInput]()
}

type SummarizeTravelStatsInput struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"description=Start date in YYYY-MM-DD format (optional)"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"description=End date in YYYY-MM-DD format (optional)"`
}

type SummarizeTravelStatsTool struct {
	history *services.HistoryService
}

func (t SummarizeTravelStatsTool) Name() string {
	return "summarize_travel_stats"
}

func (t SummarizeTravelStatsTool) Description() string {
	return "Get aggregate travel statistics over a time period. Returns total trips, distance, time spent traveling, breakdown by transportation mode, and top routes."
}

func (t SummarizeTravelStatsTool) Call(ctx context.Context, input string) (string, error) {
	var params SummarizeTravelStatsInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse summarize travel stats tool input: %v", err)
	}

	result, err := t.history.SummarizeTravelStats(params.StartDate, params.EndDate)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t SummarizeTravelStatsTool) InputSchema() *jsonschema.Schema {
	return generateSchema[SummarizeTravelStatsInput]()
}

type GetTypicalRouteInput struct {
	OriginLabel      string `json:"origin_label" jsonschema:"required,description=Origin place label (e.g. 'Home' or 'Office')"`
	DestinationLabel string `json:"destination_label" jsonschema:"required,description=Destination place label"`
	TimeOfDay        *int   `json:"time_of_day,omitempty" jsonschema:"description=Hour of day (0-23) to filter trips (optional)"`
}

type GetTypicalRouteTool struct {
	history *services.HistoryService
}

func (t GetTypicalRouteTool) Name() string {
	return "get_typical_route"
}

func (t GetTypicalRouteTool) Description() string {
	return "Get typical route characteristics between two frequently visited places. Returns average duration, distance, most common transportation mode, and trip count."
}

func (t GetTypicalRouteTool) Call(ctx context.Context, input string) (string, error) {
	var params GetTypicalRouteInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get typical route tool input: %v", err)
	}
	if params.OriginLabel == "" || params.DestinationLabel == "" {
		return "", fmt.Errorf("missing required arguments \"origin_label\" and \"destination_label\"")
	}

	result, err := t.history.GetTypicalRoute(params.OriginLabel, params.DestinationLabel, params.TimeOfDay)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t GetTypicalRouteTool) InputSchema() *jsonschema.Schema {
	return generateSchema[GetTypicalRouteInput]()
}

type GetCurrentWeatherInput struct {
	Latitude        *float64 `json:"latitude" jsonschema:"required,description=Latitude coordinate"`
	Longitude       *float64 `json:"longitude" jsonschema:"required,description=Longitude coordinate"`
	IncludeForecast bool     `json:"include_forecast,omitempty" jsonschema:"description=Include 24-hour forecast (default: false)"`
}

type GetCurrentWeatherTool struct {
	weather *services.WeatherService
}

func (t GetCurrentWeatherTool) Name() string {
	return "get_current_weather"
}

func (t GetCurrentWeatherTool) Description() string {
	return "Get current weather conditions at a location including temperature, humidity, wind, and precipitation. Optionally includes 24-hour forecast."
}

func (t GetCurrentWeatherTool) Call(ctx context.Context, input string) (string, error) {
	var params GetCurrentWeatherInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get current weather tool input: %v", err)
	}
	if params.Latitude == nil || params.Longitude == nil {
		return "", fmt.Errorf("missing required arguments \"latitude\" and \"longitude\"")
	}

	result, err := t.weather.GetCurrentWeather(ctx, *params.Latitude, *params.Longitude, params.IncludeForecast)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t GetCurrentWeatherTool) InputSchema() *jsonschema.Schema {
	return generateSchema[GetCurrentWeatherInput]()
}

type GetAirQualityInput struct {
	Latitude  *float64 `json:"latitude" jsonschema:"required,description=Latitude coordinate"`
	Longitude *float64 `json:"longitude" jsonschema:"required,description=Longitude coordinate"`
}

type GetAirQualityTool struct {
	weather *services.WeatherService
}

func (t GetAirQualityTool) Name() string {
	return "get_air_quality"
}

func (t GetAirQualityTool) Description() string {
	return "Get air quality index (AQI) and pollutant levels at a location. Returns health recommendations based on current air quality."
}

func (t GetAirQualityTool) Call(ctx context.Context, input string) (string, error) {
	var params GetAirQualityInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get air quality tool input: %v", err)
	}
	if params.Latitude == nil || params.Longitude == nil {
		return "", fmt.Errorf("missing required arguments \"latitude\" and \"longitude\"")
	}

	result, err := t.weather.GetAirQuality(ctx, *params.Latitude, *params.Longitude)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t GetAirQualityTool) InputSchema() *jsonschema.Schema {
	return generateSchema[GetAirQualityInput]()
}

type GetAstronomyDataInput struct {
	Latitude  *float64 `json:"latitude" jsonschema:"required,description=Latitude coordinate"`
	Longitude *float64 `json:"longitude" jsonschema:"required,description=Longitude coordinate"`
	Date      string   `json:"date,omitempty" jsonschema:"description=Date in YYYY-MM-DD format (optional, defaults to today)"`
}

type GetAstronomyDataTool struct {
	weather *services.WeatherService
}

func (t GetAstronomyDataTool) Name() string {
	return "get_astronomy_data"
}

func (t GetAstronomyDataTool) Description() string {
	return "Get astronomy data including sunrise, sunset, daylight hours, and moon phase for a location and date."
}

func (t GetAstronomyDataTool) Call(ctx context.Context, input string) (string, error) {
	var params GetAstronomyDataInput
	if err := json.Unmarshal([]byte(input), &params); err != nil {
		return "", fmt.Errorf("failed to parse get astronomy data tool input: %v", err)
	}
	if params.Latitude == nil || params.Longitude == nil {
		return "", fmt.Errorf("missing required arguments \"latitude\" and \"longitude\"")
	}

	result, err := t.weather.GetAstronomyData(ctx, *params.Latitude, *params.Longitude, params.Date)
	if err != nil {
		return failureEnvelope(err.Error()), nil
	}
	return successEnvelope(result)
}

func (t GetAstronomyDataTool) InputSchema() *jsonschema.Schema {
	return generateSchema[GetAstronomyDataInput]()
}
