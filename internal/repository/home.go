package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/homecare-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateHome inserts a new address owned by a client.
func (r *Repository) CreateHome(ctx context.Context, home *models.Home) error {
	defer r.observe("create_home", time.Now())

	if home.ID == "" {
		home.ID = uuid.NewString()
	}

	query := `
		INSERT INTO homes (id, owner_id, address, city, state, zip_code, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at;
	`

	err := r.db.QueryRow(ctx, query,
		home.ID, home.OwnerID, home.Address, home.City, home.State, home.ZipCode, home.IsDefault,
	).Scan(&home.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create home: %w", err)
	}

	return nil
}

// GetHomeByID retrieves one address.
func (r *Repository) GetHomeByID(ctx context.Context, id string) (models.Home, error) {
	defer r.observe("get_home_by_id", time.Now())

	query := `
		SELECT id, owner_id, address, city, state, zip_code, is_default, created_at
		FROM homes
		WHERE id = $1;
	`

	var home models.Home
	err := r.db.QueryRow(ctx, query, id).Scan(
		&home.ID, &home.OwnerID, &home.Address, &home.City, &home.State,
		&home.ZipCode, &home.IsDefault, &home.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Home{}, models.ErrNotFound
		}
		return models.Home{}, fmt.Errorf("failed to get home by id: %w", err)
	}

	return home, nil
}
