package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestWeatherService(server *httptest.Server) *WeatherService {
	return NewWeatherService(server.Client(), WeatherParams{
		WeatherURL:    server.URL + "/forecast",
		AirQualityURL: server.URL + "/air-quality",
	})
}

func TestGetCurrentWeather(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("temperature_unit") != "fahrenheit" || query.Get("wind_speed_unit") != "mph" {
			t.Errorf("missing unit parameters in %s", r.URL.RawQuery)
		}
		if query.Get("hourly") != "" {
			t.Error("forecast fields requested without include_forecast")
		}
		w.Write([]byte(`{"current":{"time":"2025-08-30T14:00","temperature_2m":84.2,"relative_humidity_2m":65,"apparent_temperature":89.1,"precipitation":0,"weather_code":1,"wind_speed_10m":7.4,"wind_direction_10m":250}}`))
	}))
	defer server.Close()

	service := newTestWeatherService(server)
	result, err := service.GetCurrentWeather(context.Background(), 33.89, 35.50, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Current.TemperatureF != 84.2 {
		t.Errorf("unexpected temperature: %f", result.Current.TemperatureF)
	}
	if result.Current.Conditions != "Mainly clear" {
		t.Errorf("unexpected conditions: %q", result.Current.Conditions)
	}
	if result.Summary != "Mainly clear, 84.2°F (feels like 89.1°F)" {
		t.Errorf("unexpected summary: %q", result.Summary)
	}
	if result.Timestamp != "2025-08-30T14:00" {
		t.Errorf("unexpected timestamp: %q", result.Timestamp)
	}
	if len(result.Forecast) != 0 {
		t.Errorf("forecast must be omitted, got %d hours", len(result.Forecast))
	}
}

func TestGetCurrentWeatherForecastCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("forecast_days") != "1" {
			t.Errorf("expected forecast_days=1, got query %s", r.URL.RawQuery)
		}
		var times, temps, probs, codes []string
		for i := 0; i < 30; i++ {
			times = append(times, fmt.Sprintf(`"2025-08-30T%02d:00"`, i%24))
			temps = append(temps, "80")
			probs = append(probs, "10")
			codes = append(codes, "2")
		}
		fmt.Fprintf(w, `{"current":{"time":"2025-08-30T00:00","temperature_2m":80,"weather_code":0},"hourly":{"time":[%s],"temperature_2m":[%s],"precipitation_probability":[%s],"weather_code":[%s]}}`,
			strings.Join(times, ","), strings.Join(temps, ","), strings.Join(probs, ","), strings.Join(codes, ","))
	}))
	defer server.Close()

	service := newTestWeatherService(server)
	result, err := service.GetCurrentWeather(context.Background(), 33.89, 35.50, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Forecast) != 24 {
		t.Fatalf("expected 24 forecast hours, got %d", len(result.Forecast))
	}
	if result.Forecast[0].Conditions != "Partly cloudy" {
		t.Errorf("unexpected forecast conditions: %q", result.Forecast[0].Conditions)
	}
}

func TestGetAirQuality(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/air-quality") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"current":{"time":"2025-08-30T14:00","pm10":42.1,"pm2_5":18.3,"carbon_monoxide":210,"nitrogen_dioxide":15.2,"ozone":88,"us_aqi":72,"european_aqi":44}}`))
	}))
	defer server.Close()

	service := newTestWeatherService(server)
	result, err := service.GetAirQuality(context.Background(), 33.89, 35.50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AirQuality.USAQI != 72 {
		t.Errorf("unexpected AQI: %f", result.AirQuality.USAQI)
	}
	if result.AirQuality.Category != "Moderate" {
		t.Errorf("unexpected category: %q", result.AirQuality.Category)
	}
	if result.Pollutants.PM25 != 18.3 {
		t.Errorf("unexpected PM2.5: %f", result.Pollutants.PM25)
	}
	if !strings.Contains(result.Summary, "Moderate") {
		t.Errorf("summary must name the category, got %q", result.Summary)
	}
}

func TestGetAstronomyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("start_date") != "2025-08-30" || query.Get("end_date") != "2025-08-30" {
			t.Errorf("unexpected date bounds in %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"daily":{"sunrise":["2025-08-30T06:14"],"sunset":["2025-08-30T19:07"],"daylight_duration":[46380],"sunshine_duration":[39600]}}`))
	}))
	defer server.Close()

	service := newTestWeatherService(server)
	result, err := service.GetAstronomyData(context.Background(), 33.89, 35.50, "2025-08-30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Sun.Sunrise != "2025-08-30T06:14" || result.Sun.Sunset != "2025-08-30T19:07" {
		t.Errorf("unexpected sun times: %+v", result.Sun)
	}
	if result.Sun.DaylightHours != 12.88 {
		t.Errorf("unexpected daylight hours: %f", result.Sun.DaylightHours)
	}
	if result.Sun.SunshineHours != 11 {
		t.Errorf("unexpected sunshine hours: %f", result.Sun.SunshineHours)
	}
	if result.Moon.Phase == "" || result.Moon.Emoji == "" {
		t.Errorf("moon phase missing: %+v", result.Moon)
	}
	if !strings.Contains(result.Summary, "Sunrise: 2025-08-30T06:14") {
		t.Errorf("unexpected summary: %q", result.Summary)
	}
}

func TestGetAstronomyDataMissingDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	service := newTestWeatherService(server)
	result, err := service.GetAstronomyData(context.Background(), 33.89, 35.50, "2025-08-30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sun.Sunrise != "N/A" || result.Sun.Sunset != "N/A" {
		t.Errorf("missing daily data must fall back to N/A, got %+v", result.Sun)
	}
}

func TestWeatherDescription(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "Clear sky"},
		{3, "Overcast"},
		{65, "Heavy rain"},
		{95, "Thunderstorm"},
		{42, "Unknown"},
	}
	for _, tt := range tests {
		if got := weatherDescription(tt.code); got != tt.want {
			t.Errorf("weatherDescription(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestAQICategory(t *testing.T) {
	tests := []struct {
		aqi  int
		want string
	}{
		{0, "Good"},
		{50, "Good"},
		{51, "Moderate"},
		{100, "Moderate"},
		{150, "Unhealthy for Sensitive Groups"},
		{200, "Unhealthy"},
		{300, "Very Unhealthy"},
		{301, "Hazardous"},
	}
	for _, tt := range tests {
		if got := aqiCategory(tt.aqi).name; got != tt.want {
			t.Errorf("aqiCategory(%d) = %q, want %q", tt.aqi, got, tt.want)
		}
	}
}

func TestMoonPhase(t *testing.T) {
	tests := []struct {
		date  string
		phase string
	}{
		{"2000-01-06", "New Moon"},
		{"2000-01-21", "Full Moon"},
	}
	for _, tt := range tests {
		moon, err := moonPhase(tt.date)
		if err != nil {
			t.Fatalf("moonPhase(%s): %v", tt.date, err)
		}
		if moon.Phase != tt.phase {
			t.Errorf("moonPhase(%s) = %q, want %q", tt.date, moon.Phase, tt.phase)
		}
		if moon.Emoji == "" {
			t.Errorf("moonPhase(%s) missing emoji", tt.date)
		}
	}

	full, _ := moonPhase("2000-01-21")
	if full.IlluminationPercent < 90 {
		t.Errorf("full moon illumination too low: %d", full.IlluminationPercent)
	}

	if _, err := moonPhase("not-a-date"); err == nil {
		t.Error("expected parse error")
	}
}
