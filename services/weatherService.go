package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type WeatherParams struct {
	WeatherURL     string
	AirQualityURL  string
	RateLimitDelay time.Duration
}

func DefaultWeatherParams() WeatherParams {
	return WeatherParams{
		WeatherURL:     "https://api.open-meteo.com/v1/forecast",
		AirQualityURL:  "https://air-quality-api.open-meteo.com/v1/air-quality",
		RateLimitDelay: 500 * time.Millisecond,
	}
}

// WeatherService wraps the Open-Meteo forecast and air-quality APIs and
// derives astronomy data (sun times from the API, moon phase locally).
type WeatherService struct {
	client *http.Client
	params WeatherParams
}

func NewWeatherService(client *http.Client, params WeatherParams) *WeatherService {
	return &WeatherService{client: client, params: params}
}

func (s *WeatherService) Close() {
	s.client.CloseIdleConnections()
}

func (s *WeatherService) pause(ctx context.Context) error {
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

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CurrentConditions struct {
	TemperatureF         float64 `json:"temperature_f"`
	FeelsLikeF           float64 `json:"feels_like_f"`
	HumidityPercent      float64 `json:"humidity_percent"`
	PrecipitationMM      float64 `json:"precipitation_mm"`
	WindSpeedMPH         float64 `json:"wind_speed_mph"`
	WindDirectionDegrees float64 `json:"wind_direction_degrees"`
	Conditions           string  `json:"conditions"`
}

type ForecastHour struct {
	Time                     string  `json:"time"`
	TemperatureF             float64 `json:"temperature_f"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
	Conditions               string  `json:"conditions"`
}

type WeatherResult struct {
	Success   bool              `json:"success"`
	Location  Location          `json:"location"`
	Timestamp string            `json:"timestamp"`
	Current   CurrentConditions `json:"current"`
	Summary   string            `json:"summary"`
	Forecast  []ForecastHour    `json:"forecast_24h,omitempty"`
}

// GetCurrentWeather fetches current conditions, optionally with a 24-hour
// forecast.
func (s *WeatherService) GetCurrentWeather(ctx context.Context, latitude, longitude float64, includeForecast bool) (*WeatherResult, error) {
	if err := s.pause(ctx); err != nil {
		return nil, fmt.Errorf("Weather data error: %v", err)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code,wind_speed_10m,wind_direction_10m")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("wind_speed_unit", "mph")
	if includeForecast {
		params.Set("hourly", "temperature_2m,precipitation_probability,weather_code")
		params.Set("forecast_days", "1")
	}

	var data struct {
		Current struct {
			Time                string  `json:"time"`
			Temperature2M       float64 `json:"temperature_2m"`
			RelativeHumidity2M  float64 `json:"relative_humidity_2m"`
			ApparentTemperature float64 `json:"apparent_temperature"`
			Precipitation       float64 `json:"precipitation"`
			WeatherCode         int     `json:"weather_code"`
			WindSpeed10M        float64 `json:"wind_speed_10m"`
			WindDirection10M    float64 `json:"wind_direction_10m"`
		} `json:"current"`
		Hourly struct {
			Time                     []string  `json:"time"`
			Temperature2M            []float64 `json:"temperature_2m"`
			PrecipitationProbability []float64 `json:"precipitation_probability"`
			WeatherCode              []int     `json:"weather_code"`
		} `json:"hourly"`
	}
	if err := s.getJSON(ctx, s.params.WeatherURL+"?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("Weather data error: %v", err)
	}

	current := data.Current
	conditions := weatherDescription(current.WeatherCode)

	timestamp := current.Time
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	result := &WeatherResult{
		Success:   true,
		Location:  Location{Latitude: latitude, Longitude: longitude},
		Timestamp: timestamp,
		Current: CurrentConditions{
			TemperatureF:         current.Temperature2M,
			FeelsLikeF:           current.ApparentTemperature,
			HumidityPercent:      current.RelativeHumidity2M,
			PrecipitationMM:      current.Precipitation,
			WindSpeedMPH:         current.WindSpeed10M,
			WindDirectionDegrees: current.WindDirection10M,
			Conditions:           conditions,
		},
		Summary: fmt.Sprintf("%s, %v°F (feels like %v°F)", conditions, current.Temperature2M, current.ApparentTemperature),
	}

	if includeForecast {
		hours := len(data.Hourly.Time)
		if hours > 24 {
			hours = 24
		}
		for i := 0; i < hours; i++ {
			hour := ForecastHour{Time: data.Hourly.Time[i]}
			if i < len(data.Hourly.Temperature2M) {
				hour.TemperatureF = data.Hourly.Temperature2M[i]
			}
			if i < len(data.Hourly.PrecipitationProbability) {
				hour.PrecipitationProbability = data.Hourly.PrecipitationProbability[i]
			}
			if i < len(data.Hourly.WeatherCode) {
				hour.Conditions = weatherDescription(data.Hourly.WeatherCode[i])
			}
			result.Forecast = append(result.Forecast, hour)
		}
	}

	return result, nil
}

type AirQuality struct {
	USAQI          float64 `json:"us_aqi"`
	EuropeanAQI    float64 `json:"european_aqi"`
	Category       string  `json:"category"`
	HealthImpact   string  `json:"health_impact"`
	Recommendation string  `json:"recommendation"`
}

type Pollutants struct {
	PM25            float64 `json:"pm2_5_ugm3"`
	PM10            float64 `json:"pm10_ugm3"`
	CarbonMonoxide  float64 `json:"carbon_monoxide_ugm3"`
	NitrogenDioxide float64 `json:"nitrogen_dioxide_ugm3"`
	Ozone           float64 `json:"ozone_ugm3"`
}

type AirQualityResult struct {
	Success    bool       `json:"success"`
	Location   Location   `json:"location"`
	Timestamp  string     `json:"timestamp"`
	AirQuality AirQuality `json:"air_quality"`
	Pollutants Pollutants `json:"pollutants"`
	Summary    string     `json:"summary"`
}

// GetAirQuality fetches AQI and pollutant levels with health guidance.
func (s *WeatherService) GetAirQuality(ctx context.Context, latitude, longitude float64) (*AirQualityResult, error) {
	if err := s.pause(ctx); err != nil {
		return nil, fmt.Errorf("Air quality data error: %v", err)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("current", "pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,ozone,us_aqi,european_aqi")

	var data struct {
		Current struct {
			Time            string  `json:"time"`
			PM10            float64 `json:"pm10"`
			PM25            float64 `json:"pm2_5"`
			CarbonMonoxide  float64 `json:"carbon_monoxide"`
			NitrogenDioxide float64 `json:"nitrogen_dioxide"`
			Ozone           float64 `json:"ozone"`
			USAQI           float64 `json:"us_aqi"`
			EuropeanAQI     float64 `json:"european_aqi"`
		} `json:"current"`
	}
	if err := s.getJSON(ctx, s.params.AirQualityURL+"?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("Air quality data error: %v", err)
	}

	current := data.Current
	category := aqiCategory(int(current.USAQI))

	timestamp := current.Time
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	return &AirQualityResult{
		Success:   true,
		Location:  Location{Latitude: latitude, Longitude: longitude},
		Timestamp: timestamp,
		AirQuality: AirQuality{
			USAQI:          current.USAQI,
			EuropeanAQI:    current.EuropeanAQI,
			Category:       category.name,
			HealthImpact:   category.healthImpact,
			Recommendation: category.recommendation,
		},
		Pollutants: Pollutants{
			PM25:            current.PM25,
			PM10:            current.PM10,
			CarbonMonoxide:  current.CarbonMonoxide,
			NitrogenDioxide: current.NitrogenDioxide,
			Ozone:           current.Ozone,
		},
		Summary: fmt.Sprintf("Air Quality: %s (AQI %v) - %s", category.name, current.USAQI, category.healthImpact),
	}, nil
}

type SunData struct {
	Sunrise       string  `json:"sunrise"`
	Sunset        string  `json:"sunset"`
	DaylightHours float64 `json:"daylight_hours"`
	SunshineHours float64 `json:"sunshine_hours"`
}

type MoonData struct {
	Phase               string `json:"phase"`
	IlluminationPercent int    `json:"illumination_percent"`
	Emoji               string `json:"emoji"`
}

type AstronomyResult struct {
	Success  bool     `json:"success"`
	Location Location `json:"location"`
	Date     string   `json:"date"`
	Sun      SunData  `json:"sun"`
	Moon     MoonData `json:"moon"`
	Summary  string   `json:"summary"`
}

// GetAstronomyData returns sunrise/sunset data for a date (default today)
// plus a locally computed moon phase.
func (s *WeatherService) GetAstronomyData(ctx context.Context, latitude, longitude float64, date string) (*AstronomyResult, error) {
	if err := s.pause(ctx); err != nil {
		return nil, fmt.Errorf("Astronomy data error: %v", err)
	}

	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("daily", "sunrise,sunset,daylight_duration,sunshine_duration")
	params.Set("timezone", "auto")
	params.Set("start_date", date)
	params.Set("end_date", date)

	var data struct {
		Daily struct {
			Sunrise          []string  `json:"sunrise"`
			Sunset           []string  `json:"sunset"`
			DaylightDuration []float64 `json:"daylight_duration"`
			SunshineDuration []float64 `json:"sunshine_duration"`
		} `json:"daily"`
	}
	if err := s.getJSON(ctx, s.params.WeatherURL+"?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("Astronomy data error: %v", err)
	}

	moon, err := moonPhase(date)
	if err != nil {
		return nil, fmt.Errorf("Astronomy data error: %v", err)
	}

	sun := SunData{Sunrise: "N/A", Sunset: "N/A"}
	if len(data.Daily.Sunrise) > 0 {
		sun.Sunrise = data.Daily.Sunrise[0]
	}
	if len(data.Daily.Sunset) > 0 {
		sun.Sunset = data.Daily.Sunset[0]
	}
	if len(data.Daily.DaylightDuration) > 0 {
		sun.DaylightHours = round2(data.Daily.DaylightDuration[0] / 3600)
	}
	if len(data.Daily.SunshineDuration) > 0 {
		sun.SunshineHours = round2(data.Daily.SunshineDuration[0] / 3600)
	}

	return &AstronomyResult{
		Success:  true,
		Location: Location{Latitude: latitude, Longitude: longitude},
		Date:     date,
		Sun:      sun,
		Moon:     moon,
		Summary: fmt.Sprintf("Sunrise: %s, Sunset: %s (%vh daylight). Moon: %s %s",
			sun.Sunrise, sun.Sunset, sun.DaylightHours, moon.Emoji, moon.Phase),
	}, nil
}

func (s *WeatherService) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

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

// WMO weather interpretation codes.
var weatherCodes = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

func weatherDescription(code int) string {
	if description, ok := weatherCodes[code]; ok {
		return description
	}
	return "Unknown"
}

type aqiBand struct {
	name           string
	healthImpact   string
	recommendation string
}

func aqiCategory(aqi int) aqiBand {
	switch {
	case aqi <= 50:
		return aqiBand{"Good", "Air quality is satisfactory", "Enjoy outdoor activities"}
	case aqi <= 100:
		return aqiBand{"Moderate", "Acceptable for most people", "Sensitive individuals should limit prolonged outdoor exertion"}
	case aqi <= 150:
		return aqiBand{"Unhealthy for Sensitive Groups", "May cause breathing issues for sensitive groups", "Children, elderly, and people with respiratory conditions should reduce outdoor activities"}
	case aqi <= 200:
		return aqiBand{"Unhealthy", "Everyone may experience health effects", "Avoid prolonged outdoor activities"}
	case aqi <= 300:
		return aqiBand{"Very Unhealthy", "Health alert: everyone may experience serious effects", "Stay indoors and keep windows closed"}
	default:
		return aqiBand{"Hazardous", "Emergency conditions", "Everyone should avoid all outdoor activities"}
	}
}

// moonPhase approximates the moon phase from a reference new moon
// (2000-01-06 18:14 UTC) and a 29.53-day synodic cycle.
func moonPhase(date string) (MoonData, error) {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return MoonData{}, err
	}

	knownNewMoon := time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)
	const lunarCycle = 29.53

	daysSince := parsed.Sub(knownNewMoon).Seconds() / 86400
	position := math.Mod(daysSince, lunarCycle) / lunarCycle
	if position < 0 {
		position += 1
	}
	illumination := int(math.Round(100 * (1 - math.Abs(2*position-1))))

	var name, emoji string
	switch {
	case position < 0.03 || position > 0.97:
		name, emoji = "New Moon", "🌑"
	case position < 0.22:
		name, emoji = "Waxing Crescent", "🌒"
	case position < 0.28:
		name, emoji = "First Quarter", "🌓"
	case position < 0.47:
		name, emoji = "Waxing Gibbous", "🌔"
	case position < 0.53:
		name, emoji = "Full Moon", "🌕"
	case position < 0.72:
		name, emoji = "Waning Gibbous", "🌖"
	case position < 0.78:
		name, emoji = "Last Quarter", "🌗"
	default:
		name, emoji = "Waning Crescent", "🌘"
	}

	return MoonData{Phase: name, IlluminationPercent: illumination, Emoji: emoji}, nil
}
