package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tourbooking-backend/internal/domain"
	"tourbooking-backend/internal/repository"
)

type addOnRepository struct {
	db *sql.DB
}

func NewAddOnRepository(db *sql.DB) repository.AddOnRepository {
	return &addOnRepository{db: db}
}

func (r *addOnRepository) Create(ctx context.Context, a *domain.TourAddOn) error {
	query := `INSERT INTO tour_add_ons (tour_id, name, price_cents, pricing_type, maximum_quantity, active, position)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query, a.TourID, a.Name, a.PriceCents, a.PricingType, a.MaximumQuantity, a.Active, a.Position).Scan(&a.ID)
}

func (r *addOnRepository) GetByID(ctx context.Context, id int64) (*domain.TourAddOn, error) {
	a := &domain.TourAddOn{}
	query := `SELECT id, tour_id, name, price_cents, pricing_type, maximum_quantity, active, position FROM tour_add_ons WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.TourID, &a.Name, &a.PriceCents, &a.PricingType, &a.MaximumQuantity, &a.Active, &a.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("add-on %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Update changes the catalogue entry only; booking_add_ons keep their price snapshot.
func (r *addOnRepository) Update(ctx context.Context, a *domain.TourAddOn) error {
	query := `UPDATE tour_add_ons SET name = $1, price_cents = $2, pricing_type = $3, maximum_quantity = $4, active = $5, position = $6
	          WHERE id = $7`
	result, err := r.db.ExecContext(ctx, query, a.Name, a.PriceCents, a.PricingType, a.MaximumQuantity, a.Active, a.Position, a.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("add-on %d: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *addOnRepository) ListByTour(ctx context.Context, tourID int64) ([]domain.TourAddOn, error) {
	query := `SELECT id, tour_id, name, price_cents, pricing_type, maximum_quantity, active, position
	          FROM tour_add_ons WHERE tour_id = $1 ORDER BY position, id`
	rows, err := r.db.QueryContext(ctx, query, tourID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addOns []domain.TourAddOn
	for rows.Next() {
		var a domain.TourAddOn
		if err := rows.Scan(&a.ID, &a.TourID, &a.Name, &a.PriceCents, &a.PricingType, &a.MaximumQuantity, &a.Active, &a.Position); err != nil {
			return nil, err
		}
		addOns = append(addOns, a)
	}
	return addOns, rows.Err()
}
