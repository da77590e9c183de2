// Package weather fetches daily forecasts from OpenWeather.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
)

// Provider returns up to domain.ForecastHorizonDays daily forecasts for a
// coordinate pair.
type Provider interface {
	DailyForecast(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type OpenWeatherClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewOpenWeatherClient(cfg Config) *OpenWeatherClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &OpenWeatherClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type oneCallResponse struct {
	TimezoneOffset int64      `json:"timezone_offset"`
	Daily          []dailyDTO `json:"daily"`
}

type dailyDTO struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Pop       float64 `json:"pop"`
	WindSpeed float64 `json:"wind_speed"`
}

// DailyForecast returns an empty result without calling out when no API key
// is configured.
func (c *OpenWeatherClient) DailyForecast(ctx context.Context, lat, lon float64) ([]domain.DailyForecast, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("exclude", "current,minutely,hourly,alerts")
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/3.0/onecall?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build forecast request: %v", domain.ErrExternalService, err)
	}

	logger.ExternalServiceCall("openweather", "onecall", "lat", lat, "lon", lon)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.ExternalServiceResult("openweather", "onecall", err)
		return nil, fmt.Errorf("%w: forecast request failed: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%w: forecast status %d: %s", domain.ErrExternalService, resp.StatusCode, body)
		logger.ExternalServiceResult("openweather", "onecall", err)
		return nil, err
	}

	var payload oneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		err = fmt.Errorf("%w: decode forecast: %v", domain.ErrExternalService, err)
		logger.ExternalServiceResult("openweather", "onecall", err)
		return nil, err
	}
	logger.ExternalServiceResult("openweather", "onecall", nil, "days", len(payload.Daily))

	return normalize(payload), nil
}

// normalize keeps at most the forecast horizon and dates each day in the
// location's own time zone.
func normalize(payload oneCallResponse) []domain.DailyForecast {
	days := payload.Daily
	if len(days) > domain.ForecastHorizonDays {
		days = days[:domain.ForecastHorizonDays]
	}

	forecasts := make([]domain.DailyForecast, 0, len(days))
	for _, d := range days {
		local := time.Unix(d.Dt+payload.TimezoneOffset, 0).UTC()
		f := domain.DailyForecast{
			Date:      time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			MinTemp:   d.Temp.Min,
			MaxTemp:   d.Temp.Max,
			Pop:       d.Pop,
			WindSpeed: d.WindSpeed,
		}
		if len(d.Weather) > 0 {
			f.Description = d.Weather[0].Description
			f.Icon = d.Weather[0].Icon
		}
		forecasts = append(forecasts, f)
	}
	return forecasts
}
