package repository

import (
	"context"
	"database/sql"
	"errors"

	"gamedesk/backend/services/desk-service/internal/models"
)

// ErrStationNotFound indicates a missing station row.
var ErrStationNotFound = errors.New("station not found")

// ErrStationInUse indicates a claim against a station already occupied by a
// session.
var ErrStationInUse = errors.New("station already in use")

// StationRepository stores bookable stations and their availability marker.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// GetByID returns one station.
func (r *StationRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	const query = `
		SELECT id, name, type, default_hourly_rate, availability, created_at, updated_at
		FROM stations
		WHERE id = $1
	`
	var s models.Station
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Type, &s.DefaultRate, &s.Availability, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all stations ordered by name. When availableOnly is set, only
// stations not currently hosting a session are returned.
func (r *StationRepository) List(ctx context.Context, availableOnly bool) ([]models.Station, error) {
	query := `
		SELECT id, name, type, default_hourly_rate, availability, created_at, updated_at
		FROM stations
		ORDER BY name
	`
	if availableOnly {
		query = `
		SELECT id, name, type, default_hourly_rate, availability, created_at, updated_at
		FROM stations
		WHERE availability = 'available'
		ORDER BY name
	`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(&s.ID, &s.Name, &s.Type, &s.DefaultRate, &s.Availability, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

// Upsert persists a station, keyed by its unique name.
func (r *StationRepository) Upsert(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (name, type, default_hourly_rate, availability, created_at, updated_at)
		VALUES ($1, $2, $3, 'available', NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			type = EXCLUDED.type,
			default_hourly_rate = EXCLUDED.default_hourly_rate,
			updated_at = NOW()
		RETURNING id, availability, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, station.Name, station.Type, station.DefaultRate).
		Scan(&station.ID, &station.Availability, &station.CreatedAt, &station.UpdatedAt)
}

// Claim atomically flips a station from available to in_use. The conditional
// update is the mutual-exclusion primitive: two concurrent claims cannot both
// match the availability predicate.
func (r *StationRepository) Claim(ctx context.Context, id int64) error {
	const query = `
		UPDATE stations
		SET availability = $2, updated_at = NOW()
		WHERE id = $1 AND availability = $3
	`
	result, err := r.db.ExecContext(ctx, query, id, models.StationInUse, models.StationAvailable)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: distinguish a busy station from a missing one.
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrStationInUse
}

// Release marks a station available again.
func (r *StationRepository) Release(ctx context.Context, id int64) error {
	const query = `
		UPDATE stations
		SET availability = $2, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, models.StationAvailable)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStationNotFound
	}
	return nil
}
