package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/logger"
	"tourbooking-backend/internal/metrics"
	"tourbooking-backend/internal/queue"
)

var errEmptyForecast = errors.New("empty forecast")

// WeatherResult summarizes one weather sweep.
type WeatherResult struct {
	Tours     int
	Skipped   int
	Snapshots int
	Alerts    int
}

// RefreshWeatherSnapshots pulls the forecast for every upcoming or running
// tour and stores it per day. A day whose stored forecast was dry and is now
// very wet triggers one alert to the guide before the snapshot is
// overwritten. Provider problems only skip the affected tour.
func (jr *JobRunner) RefreshWeatherSnapshots(ctx context.Context) (WeatherResult, error) {
	var res WeatherResult
	now := jr.clock.Now()

	tours, err := jr.repos.Tours.ListForWeather(ctx, now.Add(domain.ForecastHorizonDays*24*time.Hour))
	if err != nil {
		return res, err
	}
	res.Tours = len(tours)

	for i := range tours {
		tour := &tours[i]
		if !tour.HasCoordinates() {
			jr.skipTour(&res, tour.ID, "no_coordinates", nil)
			continue
		}

		stored, alerts, err := jr.refreshTour(ctx, tour, now)
		res.Snapshots += stored
		res.Alerts += alerts
		switch {
		case errors.Is(err, errEmptyForecast):
			jr.skipTour(&res, tour.ID, "empty", nil)
		case err != nil:
			jr.skipTour(&res, tour.ID, domain.ErrorKind(err), err)
		}
	}

	logger.Info("Refreshed weather snapshots",
		"tours", res.Tours,
		"skipped", res.Skipped,
		"snapshots", res.Snapshots,
		"alerts", res.Alerts)
	return res, nil
}

func (jr *JobRunner) skipTour(res *WeatherResult, tourID int64, reason string, err error) {
	res.Skipped++
	metrics.WeatherSkips.WithLabelValues(reason).Inc()
	if err != nil {
		logger.Warn("Skipping weather refresh for tour", "tour_id", tourID, "reason", reason, "error", err)
		return
	}
	logger.Debug("Skipping weather refresh for tour", "tour_id", tourID, "reason", reason)
}

func (jr *JobRunner) refreshTour(ctx context.Context, tour *domain.Tour, now time.Time) (stored, alerts int, err error) {
	callCtx, cancel := context.WithTimeout(ctx, jr.config.Weather.Timeout)
	forecasts, err := jr.weather.DailyForecast(callCtx, *tour.Latitude, *tour.Longitude)
	cancel()
	if err != nil {
		return 0, 0, err
	}
	if len(forecasts) == 0 {
		return 0, 0, errEmptyForecast
	}
	if len(forecasts) > domain.ForecastHorizonDays {
		forecasts = forecasts[:domain.ForecastHorizonDays]
	}

	for _, f := range forecasts {
		existing, err := jr.repos.Snapshots.Get(ctx, tour.ID, f.Date)
		if err != nil {
			return stored, alerts, err
		}

		if domain.SignificantChange(existing, f) {
			created, err := jr.raiseWeatherAlert(ctx, tour, existing, f)
			if err != nil {
				logger.Error("Failed to enqueue weather alert",
					"tour_id", tour.ID, "date", f.Date.Format("2006-01-02"), "error", err)
			}
			if created {
				alerts++
			}
		}

		snapshot := existing
		if snapshot == nil {
			snapshot = &domain.WeatherSnapshot{TourID: tour.ID, ForecastDate: f.Date}
		}
		snapshot.Apply(f, now)
		if err := jr.repos.Snapshots.Upsert(ctx, snapshot); err != nil {
			return stored, alerts, err
		}
		stored++
	}
	return stored, alerts, nil
}

func (jr *JobRunner) raiseWeatherAlert(ctx context.Context, tour *domain.Tour, previous *domain.WeatherSnapshot, f domain.DailyForecast) (bool, error) {
	guide, err := jr.repos.Users.GetByID(ctx, tour.GuideID)
	if err != nil {
		return false, fmt.Errorf("load guide %d: %w", tour.GuideID, err)
	}

	date := f.Date.Format("2006-01-02")
	payload := map[string]any{
		"tour_id":      tour.ID,
		"tour_title":   tour.Title,
		"name":         guide.Name,
		"date":         date,
		"description":  f.Description,
		"pop":          f.Pop,
		"previous_pop": previous.Pop,
		"min_temp":     f.MinTemp,
		"max_temp":     f.MaxTemp,
		"wind_speed":   f.WindSpeed,
	}
	created, err := jr.services.Notifications.EnqueueEmail(ctx,
		domain.WeatherAlertKey(tour.ID, f.Date, previous.FetchedAt),
		guide.Email,
		domain.TemplateWeatherAlert,
		payload,
	)
	if err != nil || !created {
		return false, err
	}

	metrics.WeatherAlerts.Inc()
	event := queue.NewEvent(queue.EventWeatherAlertRaised, jr.clock.Now(), map[string]any{
		"tour_id":      tour.ID,
		"date":         date,
		"pop":          f.Pop,
		"previous_pop": previous.Pop,
	})
	if err := jr.events.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish weather alert", "tour_id", tour.ID, "error", err)
	}
	return true, nil
}
