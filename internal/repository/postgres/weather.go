package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/repository"
)

const snapshotColumns = `id, tour_id, forecast_date, min_temp, max_temp, description, icon, pop, wind_speed, fetched_at`

type weatherSnapshotRepository struct {
	db *sql.DB
}

func NewWeatherSnapshotRepository(db *sql.DB) repository.WeatherSnapshotRepository {
	return &weatherSnapshotRepository{db: db}
}

// dateOnly formats the calendar day so the DATE column never sees a time zone shift.
func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}

func scanSnapshot(row rowScanner) (*domain.WeatherSnapshot, error) {
	var s domain.WeatherSnapshot
	if err := row.Scan(&s.ID, &s.TourID, &s.ForecastDate, &s.MinTemp, &s.MaxTemp, &s.Description, &s.Icon,
		&s.Pop, &s.WindSpeed, &s.FetchedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *weatherSnapshotRepository) Get(ctx context.Context, tourID int64, date time.Time) (*domain.WeatherSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM weather_snapshots WHERE tour_id = $1 AND forecast_date = $2`
	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, tourID, dateOnly(date)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *weatherSnapshotRepository) Upsert(ctx context.Context, s *domain.WeatherSnapshot) error {
	query := `INSERT INTO weather_snapshots (tour_id, forecast_date, min_temp, max_temp, description, icon, pop, wind_speed, fetched_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (tour_id, forecast_date) DO UPDATE SET
	              min_temp = EXCLUDED.min_temp,
	              max_temp = EXCLUDED.max_temp,
	              description = EXCLUDED.description,
	              icon = EXCLUDED.icon,
	              pop = EXCLUDED.pop,
	              wind_speed = EXCLUDED.wind_speed,
	              fetched_at = EXCLUDED.fetched_at
	          RETURNING id`
	return r.db.QueryRowContext(ctx, query, s.TourID, dateOnly(s.ForecastDate), s.MinTemp, s.MaxTemp, s.Description, s.Icon,
		s.Pop, s.WindSpeed, s.FetchedAt).Scan(&s.ID)
}

func (r *weatherSnapshotRepository) ListByTour(ctx context.Context, tourID int64) ([]domain.WeatherSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM weather_snapshots WHERE tour_id = $1 ORDER BY forecast_date`
	rows, err := r.db.QueryContext(ctx, query, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []domain.WeatherSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}
