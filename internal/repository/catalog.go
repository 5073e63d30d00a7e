package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/homecare-api/internal/models"
	"github.com/jackc/pgx/v5"
)

const serviceColumns = `s.id, s.name, COALESCE(s.description, ''), s.estimated_duration, s.base_price,
		s.created_at, c.id, c.name`

func scanService(row pgx.Row) (models.Service, error) {
	var service models.Service
	var category models.ServiceCategory
	err := row.Scan(
		&service.ID, &service.Name, &service.Description, &service.EstimatedDuration,
		&service.BasePrice, &service.CreatedAt, &category.ID, &category.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Service{}, models.ErrNotFound
		}
		return models.Service{}, fmt.Errorf("failed to scan service row: %w", err)
	}
	service.Category = &category
	return service, nil
}

// ListServices returns the bookable catalog with categories attached.
func (r *Repository) ListServices(ctx context.Context) ([]models.Service, error) {
	defer r.observe("list_services", time.Now())

	query := `
		SELECT ` + serviceColumns + `
		FROM services s
		JOIN service_categories c ON c.id = s.category_id
		ORDER BY s.name;
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		service, scanErr := scanService(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		services = append(services, service)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service rows: %w", err)
	}

	return services, nil
}

// ListCategories returns all catalog categories.
func (r *Repository) ListCategories(ctx context.Context) ([]models.ServiceCategory, error) {
	defer r.observe("list_categories", time.Now())

	query := `SELECT id, name FROM service_categories ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.ServiceCategory
	for rows.Next() {
		var category models.ServiceCategory
		if err = rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}

	return categories, nil
}

// GetServiceByID retrieves one catalog entry.
func (r *Repository) GetServiceByID(ctx context.Context, id string) (models.Service, error) {
	defer r.observe("get_service_by_id", time.Now())

	query := `
		SELECT ` + serviceColumns + `
		FROM services s
		JOIN service_categories c ON c.id = s.category_id
		WHERE s.id = $1;
	`

	return scanService(r.db.QueryRow(ctx, query, id))
}

// CountServices returns the catalog size.
func (r *Repository) CountServices(ctx context.Context) (int, error) {
	defer r.observe("count_services", time.Now())

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM services`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count services: %w", err)
	}

	return count, nil
}
