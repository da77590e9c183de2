package domain

import "time"

// Significant weather change: a dry forecast turning into heavy rain.
const (
	PopDryThreshold = 0.3
	PopWetThreshold = 0.7
)

// ForecastHorizonDays is how far ahead forecasts are fetched and stored.
const ForecastHorizonDays = 8

// DailyForecast is one normalized day returned by a weather provider.
type DailyForecast struct {
	Date        time.Time `json:"date"`
	MinTemp     float64   `json:"min_temp"`
	MaxTemp     float64   `json:"max_temp"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Pop         float64   `json:"pop"`
	WindSpeed   float64   `json:"wind_speed"`
}

// WeatherSnapshot is the latest known forecast for one tour on one date.
type WeatherSnapshot struct {
	ID           int64     `json:"id"`
	TourID       int64     `json:"tour_id"`
	ForecastDate time.Time `json:"forecast_date"`
	MinTemp      float64   `json:"min_temp"`
	MaxTemp      float64   `json:"max_temp"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
	Pop          float64   `json:"pop"`
	WindSpeed    float64   `json:"wind_speed"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// SignificantChange reports whether moving from the stored snapshot to the
// incoming forecast is worth telling the guide about. A missing snapshot
// never triggers.
func SignificantChange(existing *WeatherSnapshot, incoming DailyForecast) bool {
	if existing == nil {
		return false
	}
	return existing.Pop < PopDryThreshold && incoming.Pop > PopWetThreshold
}

// Apply overwrites the mutable forecast fields.
func (s *WeatherSnapshot) Apply(f DailyForecast, fetchedAt time.Time) {
	s.MinTemp = f.MinTemp
	s.MaxTemp = f.MaxTemp
	s.Description = f.Description
	s.Icon = f.Icon
	s.Pop = f.Pop
	s.WindSpeed = f.WindSpeed
	s.FetchedAt = fetchedAt
}
