package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/homecare-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, email, first_name, last_name, role, phone, is_active, is_approved,
		COALESCE(identification_path, ''), COALESCE(avatar_url, ''), password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.Role, &user.Phone,
		&user.IsActive, &user.IsApproved, &user.IdentificationPath, &user.AvatarURL,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, models.ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new account. The id and creation timestamps are
// assigned here; a duplicate email maps to models.ErrEmailTaken.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	defer r.observe("create_user", time.Now())

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, role, phone, is_active, is_approved,
			identification_path, avatar_url, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)
		RETURNING created_at, updated_at;
	`

	err := r.db.QueryRow(ctx, query,
		user.ID, user.Email, user.FirstName, user.LastName, user.Role, user.Phone,
		user.IsActive, user.IsApproved, user.IdentificationPath, user.AvatarURL, user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves an account by its id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	defer r.observe("get_user_by_id", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetUserByEmail retrieves an account by its unique email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	defer r.observe("get_user_by_email", time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *Repository) listUsers(ctx context.Context, queryType, where string, args ...any) ([]models.User, error) {
	defer r.observe(queryType, time.Now())

	query := `SELECT ` + userColumns + ` FROM users ` + where + ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}

	return users, nil
}

// ListUsers returns the full account directory, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	return r.listUsers(ctx, "list_users", "")
}

// ListAssignableContractors returns contractors that may be bound to tasks:
// verified and active ones only.
func (r *Repository) ListAssignableContractors(ctx context.Context) ([]models.User, error) {
	return r.listUsers(ctx, "list_assignable_contractors",
		"WHERE role = $1 AND is_approved = TRUE AND is_active = TRUE", models.RoleContractor)
}

// ListPendingContractors returns contractors still waiting for verification.
func (r *Repository) ListPendingContractors(ctx context.Context) ([]models.User, error) {
	return r.listUsers(ctx, "list_pending_contractors",
		"WHERE role = $1 AND is_approved = FALSE", models.RoleContractor)
}

// UpdateProfile updates the self-service fields of an account and returns
// the new authoritative record.
func (r *Repository) UpdateProfile(ctx context.Context, id, firstName, lastName, phone string) (models.User, error) {
	defer r.observe("update_profile", time.Now())

	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUser(r.db.QueryRow(ctx, query, id, firstName, lastName, phone))
}

// UpdateUserAdmin applies an admin edit; nil fields keep their current value.
func (r *Repository) UpdateUserAdmin(
	ctx context.Context,
	id string,
	req models.AdminUpdateUserRequest,
) (models.User, error) {
	defer r.observe("update_user_admin", time.Now())

	query := `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
		    last_name = COALESCE($3, last_name),
		    is_active = COALESCE($4, is_active),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUser(r.db.QueryRow(ctx, query, id, req.FirstName, req.LastName, req.IsActive))
}

// SetContractorApproval flips the verification gate of a contractor account.
func (r *Repository) SetContractorApproval(ctx context.Context, id string, approved bool) error {
	defer r.observe("set_contractor_approval", time.Now())

	query := `
		UPDATE users
		SET is_approved = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND role = $3;
	`

	tag, err := r.db.Exec(ctx, query, id, approved, models.RoleContractor)
	if err != nil {
		return fmt.Errorf("failed to set contractor approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// SetAvatarURL stores the served path of a freshly uploaded avatar.
func (r *Repository) SetAvatarURL(ctx context.Context, id, avatarURL string) (models.User, error) {
	defer r.observe("set_avatar_url", time.Now())

	query := `
		UPDATE users
		SET avatar_url = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + userColumns

	return scanUser(r.db.QueryRow(ctx, query, id, avatarURL))
}

// CountUsers returns the total number of accounts.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	defer r.observe("count_users", time.Now())

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
