package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/homecare-api/internal/lifecycle"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const taskColumns = `t.id, t.status, t.client_id, t.service_id, t.home_id,
		t.preferred_start_date, t.preferred_end_date, t.proposed_date, COALESCE(t.proposed_time, ''),
		COALESCE(t.client_notes, ''), t.created_at, t.updated_at`

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID, &task.Status, &task.ClientID, &task.ServiceID, &task.HomeID,
		&task.PreferredStartDate, &task.PreferredEndDate, &task.ProposedDate, &task.ProposedTime,
		&task.ClientNotes, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, models.ErrNotFound
		}
		return models.Task{}, fmt.Errorf("failed to scan task row: %w", err)
	}
	return task, nil
}

// CreateTask inserts a new service request in the REQUESTED status and
// appends the opening timeline entry.
func (r *Repository) CreateTask(ctx context.Context, task *models.Task) error {
	defer r.observe("create_task", time.Now())

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Status = lifecycle.StatusRequested

	query := `
		INSERT INTO tasks (id, status, client_id, service_id, home_id,
			preferred_start_date, preferred_end_date, client_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING created_at, updated_at;
	`

	err := r.db.QueryRow(ctx, query,
		task.ID, task.Status, task.ClientID, task.ServiceID, task.HomeID,
		task.PreferredStartDate, task.PreferredEndDate, task.ClientNotes,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTaskByID returns the fully hydrated authoritative task record: client,
// service, home, assignments and the timeline.
func (r *Repository) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	defer r.observe("get_task_by_id", time.Now())

	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	client, err := r.GetUserByID(ctx, task.ClientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task client: %w", err)
	}
	task.Client = &client

	service, err := r.GetServiceByID(ctx, task.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task service: %w", err)
	}
	task.Service = &service

	home, err := r.GetHomeByID(ctx, task.HomeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task home: %w", err)
	}
	task.Home = &home

	if task.Assignments, err = r.listAssignments(ctx, task.ID); err != nil {
		return nil, err
	}
	if task.Timeline, err = r.listTimeline(ctx, task.ID); err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *Repository) listTasks(ctx context.Context, queryType, where string, args ...any) ([]models.Task, error) {
	defer r.observe(queryType, time.Now())

	query := `SELECT ` + taskColumns + ` FROM tasks t ` + where + ` ORDER BY t.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, task)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	for i := range tasks {
		client, loadErr := r.GetUserByID(ctx, tasks[i].ClientID)
		if loadErr != nil {
			return nil, fmt.Errorf("failed to load task client: %w", loadErr)
		}
		tasks[i].Client = &client

		service, loadErr := r.GetServiceByID(ctx, tasks[i].ServiceID)
		if loadErr != nil {
			return nil, fmt.Errorf("failed to load task service: %w", loadErr)
		}
		tasks[i].Service = &service

		if tasks[i].Assignments, loadErr = r.listAssignments(ctx, tasks[i].ID); loadErr != nil {
			return nil, loadErr
		}
	}

	return tasks, nil
}

// ListTasksForClient returns the tasks owned by the given client.
func (r *Repository) ListTasksForClient(ctx context.Context, clientID string) ([]models.Task, error) {
	return r.listTasks(ctx, "list_tasks_for_client", "WHERE t.client_id = $1", clientID)
}

// ListTasksForContractor returns the tasks currently assigned to the contractor.
func (r *Repository) ListTasksForContractor(ctx context.Context, contractorID string) ([]models.Task, error) {
	return r.listTasks(ctx, "list_tasks_for_contractor",
		"WHERE t.id IN (SELECT task_id FROM assignments WHERE contractor_id = $1)", contractorID)
}

// ListAllTasks returns every task, newest first.
func (r *Repository) ListAllTasks(ctx context.Context) ([]models.Task, error) {
	return r.listTasks(ctx, "list_all_tasks", "")
}

// TransitionStatus moves a task between two statuses with a guarded update:
// when the task no longer sits in the expected status, a concurrent write
// won and models.ErrConflict is returned so the caller refetches.
func (r *Repository) TransitionStatus(ctx context.Context, taskID string, from, to lifecycle.Status) error {
	defer r.observe("transition_status", time.Now())

	query := `
		UPDATE tasks
		SET status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $2;
	`

	tag, err := r.db.Exec(ctx, query, taskID, from, to)
	if err != nil {
		return fmt.Errorf("failed to transition task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}

	return nil
}

// SaveProposal stores a contractor counter-proposal, overwriting any prior
// one, and moves the task into PROPOSED.
func (r *Repository) SaveProposal(
	ctx context.Context,
	taskID string,
	from lifecycle.Status,
	date time.Time,
	timeOfDay string,
) error {
	defer r.observe("save_proposal", time.Now())

	query := `
		UPDATE tasks
		SET status = $3, proposed_date = $4, proposed_time = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $2;
	`

	tag, err := r.db.Exec(ctx, query, taskID, from, lifecycle.StatusProposed, date, timeOfDay)
	if err != nil {
		return fmt.Errorf("failed to save schedule proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}

	return nil
}

// ClearProposal discards the pending proposal and moves the task to the
// given status. Used by reject-schedule, accept and unassign.
func (r *Repository) ClearProposal(ctx context.Context, taskID string, from, to lifecycle.Status) error {
	defer r.observe("clear_proposal", time.Now())

	query := `
		UPDATE tasks
		SET status = $3, proposed_date = NULL, proposed_time = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $2;
	`

	tag, err := r.db.Exec(ctx, query, taskID, from, to)
	if err != nil {
		return fmt.Errorf("failed to clear schedule proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConflict
	}

	return nil
}

// AddAssignment binds a contractor to a task and returns the created record.
func (r *Repository) AddAssignment(ctx context.Context, taskID, contractorID string) (models.Assignment, error) {
	defer r.observe("add_assignment", time.Now())

	assignment := models.Assignment{
		ID:           uuid.NewString(),
		TaskID:       taskID,
		ContractorID: contractorID,
	}

	query := `
		INSERT INTO assignments (id, task_id, contractor_id)
		VALUES ($1, $2, $3)
		RETURNING created_at;
	`

	err := r.db.QueryRow(ctx, query, assignment.ID, taskID, contractorID).Scan(&assignment.CreatedAt)
	if err != nil {
		return models.Assignment{}, fmt.Errorf("failed to add assignment: %w", err)
	}

	return assignment, nil
}

// RemoveAssignment unbinds a contractor from a task.
func (r *Repository) RemoveAssignment(ctx context.Context, taskID, contractorID string) error {
	defer r.observe("remove_assignment", time.Now())

	query := `DELETE FROM assignments WHERE task_id = $1 AND contractor_id = $2`

	tag, err := r.db.Exec(ctx, query, taskID, contractorID)
	if err != nil {
		return fmt.Errorf("failed to remove assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *Repository) listAssignments(ctx context.Context, taskID string) ([]models.Assignment, error) {
	defer r.observe("list_assignments", time.Now())

	query := `
		SELECT a.id, a.task_id, a.contractor_id, a.created_at,
			u.id, u.email, u.first_name, u.last_name, u.role, u.phone,
			u.is_active, u.is_approved, COALESCE(u.avatar_url, ''), u.created_at
		FROM assignments a
		JOIN users u ON u.id = a.contractor_id
		WHERE a.task_id = $1
		ORDER BY a.created_at;
	`

	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		var assignment models.Assignment
		var contractor models.User
		err = rows.Scan(
			&assignment.ID, &assignment.TaskID, &assignment.ContractorID, &assignment.CreatedAt,
			&contractor.ID, &contractor.Email, &contractor.FirstName, &contractor.LastName,
			&contractor.Role, &contractor.Phone, &contractor.IsActive, &contractor.IsApproved,
			&contractor.AvatarURL, &contractor.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		assignment.Contractor = &contractor
		assignments = append(assignments, assignment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignment rows: %w", err)
	}

	return assignments, nil
}

// AppendTimeline writes one event to the task's append-only log. Entries are
// never updated or deleted.
func (r *Repository) AppendTimeline(ctx context.Context, taskID, action, details string) error {
	defer r.observe("append_timeline", time.Now())

	query := `
		INSERT INTO task_timeline (id, task_id, action, details)
		VALUES ($1, $2, $3, NULLIF($4, ''));
	`

	_, err := r.db.Exec(ctx, query, uuid.NewString(), taskID, action, details)
	if err != nil {
		return fmt.Errorf("failed to append timeline entry: %w", err)
	}

	return nil
}

func (r *Repository) listTimeline(ctx context.Context, taskID string) ([]models.TimelineEntry, error) {
	defer r.observe("list_timeline", time.Now())

	query := `
		SELECT id, task_id, action, COALESCE(details, ''), created_at
		FROM task_timeline
		WHERE task_id = $1
		ORDER BY created_at;
	`

	rows, err := r.db.Query(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer rows.Close()

	var entries []models.TimelineEntry
	for rows.Next() {
		var entry models.TimelineEntry
		if err = rows.Scan(&entry.ID, &entry.TaskID, &entry.Action, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate timeline rows: %w", err)
	}

	return entries, nil
}

// CountTasks returns the total number of tasks.
func (r *Repository) CountTasks(ctx context.Context) (int, error) {
	defer r.observe("count_tasks", time.Now())

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	return count, nil
}
