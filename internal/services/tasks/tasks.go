// Package tasks implements the task flow: creation, role-scoped reads and
// every lifecycle mutation. Each mutation loads the authoritative record,
// consults the lifecycle engine, performs a guarded write, appends a timeline
// entry and publishes a lifecycle event.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/homecare-api/internal/events"
	"github.com/Houeta/homecare-api/internal/lib/logger/sl"
	"github.com/Houeta/homecare-api/internal/lifecycle"
	"github.com/Houeta/homecare-api/internal/metrics"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/Houeta/homecare-api/internal/repository"
)

// Actor is the authenticated identity invoking an operation.
type Actor struct {
	ID   string
	Role models.Role
}

// Service coordinates the task repositories, the lifecycle engine and the
// event bus.
type Service struct {
	log       *slog.Logger
	tasks     repository.TaskRepoIface
	users     repository.UserRepoIface
	homes     repository.HomeRepoIface
	catalog   repository.CatalogRepoIface
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewService creates a task flow service.
func NewService(
	log *slog.Logger,
	taskRepo repository.TaskRepoIface,
	userRepo repository.UserRepoIface,
	homeRepo repository.HomeRepoIface,
	catalogRepo repository.CatalogRepoIface,
	publisher events.Publisher,
	mtx *metrics.Metrics,
) *Service {
	return &Service{
		log:       log,
		tasks:     taskRepo,
		users:     userRepo,
		homes:     homeRepo,
		catalog:   catalogRepo,
		publisher: publisher,
		metrics:   mtx,
	}
}

// Create registers a new service request for the acting client.
func (s *Service) Create(ctx context.Context, actor Actor, req models.CreateTaskRequest) (*models.Task, error) {
	if actor.Role != models.RoleClient {
		return nil, lifecycle.ErrNotPermitted
	}
	if req.ServiceID == "" || req.HomeID == "" {
		return nil, fmt.Errorf("%w: serviceId and homeId are required", models.ErrInvalidInput)
	}
	if req.PreferredStartDate.IsZero() || req.PreferredEndDate.Before(req.PreferredStartDate) {
		return nil, fmt.Errorf("%w: preferred window is empty or inverted", models.ErrInvalidInput)
	}

	if _, err := s.catalog.GetServiceByID(ctx, req.ServiceID); err != nil {
		return nil, fmt.Errorf("failed to resolve service: %w", err)
	}

	home, err := s.homes.GetHomeByID(ctx, req.HomeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home: %w", err)
	}
	if home.OwnerID != actor.ID {
		return nil, models.ErrForbidden
	}

	task := &models.Task{
		ClientID:           actor.ID,
		ServiceID:          req.ServiceID,
		HomeID:             req.HomeID,
		PreferredStartDate: req.PreferredStartDate,
		PreferredEndDate:   req.PreferredEndDate,
		ClientNotes:        req.ClientNotes,
	}
	if err = s.tasks.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.recordTransition(ctx, task, actor, "TASK_CREATED", "Service request created", lifecycle.StatusRequested)

	return s.reload(ctx, task.ID)
}

// Get returns one task if the actor is allowed to see it.
func (s *Service) Get(ctx context.Context, actor Actor, taskID string) (*models.Task, error) {
	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !s.visible(task, actor) {
		return nil, models.ErrForbidden
	}
	return task, nil
}

// List returns the tasks visible to the actor: clients see their own,
// contractors see their assignments, admins see everything.
func (s *Service) List(ctx context.Context, actor Actor) ([]models.Task, error) {
	var (
		list []models.Task
		err  error
	)
	switch actor.Role {
	case models.RoleClient:
		list, err = s.tasks.ListTasksForClient(ctx, actor.ID)
	case models.RoleContractor:
		list, err = s.tasks.ListTasksForContractor(ctx, actor.ID)
	case models.RoleAdmin:
		list, err = s.tasks.ListAllTasks(ctx)
	default:
		return nil, models.ErrForbidden
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return list, nil
}

// Assign binds a contractor to an unassigned request. Admin only; the
// contractor must be approved and active.
func (s *Service) Assign(ctx context.Context, actor Actor, taskID, contractorID string) (*models.Task, error) {
	if !lifecycle.Can(string(actor.Role), lifecycle.OpAssign) {
		return nil, lifecycle.ErrNotPermitted
	}

	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if err = lifecycle.CanAssign(task.Status, len(task.Assignments) > 0); err != nil {
		return nil, err
	}

	contractor, err := s.users.GetUserByID(ctx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contractor: %w", err)
	}
	if !contractor.Assignable() {
		return nil, models.ErrContractorNotUsable
	}

	if _, err = s.tasks.AddAssignment(ctx, taskID, contractorID); err != nil {
		return nil, fmt.Errorf("failed to add assignment: %w", err)
	}

	details := fmt.Sprintf("Assigned to %s %s", contractor.FirstName, contractor.LastName)
	s.recordTransition(ctx, task, actor, "TASK_ASSIGNED", details, task.Status)

	return s.reload(ctx, taskID)
}

// Unassign removes the contractor binding and invalidates any in-flight
// proposal: the task returns to REQUESTED with the proposal cleared.
func (s *Service) Unassign(ctx context.Context, actor Actor, taskID, contractorID string) (*models.Task, error) {
	if !lifecycle.Can(string(actor.Role), lifecycle.OpUnassign) {
		return nil, lifecycle.ErrNotPermitted
	}

	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if err = lifecycle.CanUnassign(task.Status, task.AssignedTo(contractorID)); err != nil {
		return nil, err
	}

	if err = s.tasks.RemoveAssignment(ctx, taskID, contractorID); err != nil {
		return nil, fmt.Errorf("failed to remove assignment: %w", err)
	}
	if task.Status != lifecycle.StatusRequested {
		if err = s.tasks.ClearProposal(ctx, taskID, task.Status, lifecycle.StatusRequested); err != nil {
			return nil, fmt.Errorf("failed to reset task after unassign: %w", err)
		}
	}

	s.recordTransition(ctx, task, actor, "TASK_UNASSIGNED", "Contractor unassigned", lifecycle.StatusRequested)

	return s.reload(ctx, taskID)
}

// Accept adopts the client's preferred window as the schedule, skipping
// negotiation entirely.
func (s *Service) Accept(ctx context.Context, actor Actor, taskID string) (*models.Task, error) {
	task, err := s.loadForContractor(ctx, actor, taskID, lifecycle.OpAccept)
	if err != nil {
		return nil, err
	}
	if len(task.Assignments) > 0 && !task.AssignedTo(actor.ID) {
		return nil, models.ErrForbidden
	}
	if err = lifecycle.CanNegotiate(task.Status, task.AssignedTo(actor.ID)); err != nil {
		return nil, err
	}

	if err = s.tasks.ClearProposal(ctx, taskID, task.Status, lifecycle.StatusApproved); err != nil {
		return nil, fmt.Errorf("failed to accept preferred window: %w", err)
	}

	s.recordTransition(ctx, task, actor, "SCHEDULE_ACCEPTED", "Preferred window accepted", lifecycle.StatusApproved)

	return s.reload(ctx, taskID)
}

// ProposeSchedule records a contractor counter-proposal, overwriting any
// prior one, and puts the decision in the client's hands.
func (s *Service) ProposeSchedule(ctx context.Context, actor Actor, taskID string, req models.ProposeScheduleRequest) (*models.Task, error) {
	task, err := s.loadForContractor(ctx, actor, taskID, lifecycle.OpProposeSchedule)
	if err != nil {
		return nil, err
	}
	if len(task.Assignments) > 0 && !task.AssignedTo(actor.ID) {
		return nil, models.ErrForbidden
	}
	if err = lifecycle.CanNegotiate(task.Status, task.AssignedTo(actor.ID)); err != nil {
		return nil, err
	}

	proposedDate, err := time.Parse("2006-01-02", req.ProposedDate)
	if err != nil {
		return nil, fmt.Errorf("%w: proposedDate must be YYYY-MM-DD", models.ErrInvalidInput)
	}
	if req.ProposedTime == "" {
		return nil, fmt.Errorf("%w: proposedTime is required", models.ErrInvalidInput)
	}

	if err = s.tasks.SaveProposal(ctx, taskID, task.Status, proposedDate, req.ProposedTime); err != nil {
		return nil, fmt.Errorf("failed to save proposal: %w", err)
	}

	details := fmt.Sprintf("Proposed %s at %s", req.ProposedDate, req.ProposedTime)
	s.recordTransition(ctx, task, actor, "SCHEDULE_PROPOSED", details, lifecycle.StatusProposed)

	return s.reload(ctx, taskID)
}

// ApproveSchedule finalizes the pending proposal as the agreed schedule.
func (s *Service) ApproveSchedule(ctx context.Context, actor Actor, taskID string) (*models.Task, error) {
	task, err := s.loadForClient(ctx, actor, taskID, lifecycle.OpApproveSchedule)
	if err != nil {
		return nil, err
	}
	if err = lifecycle.CanDecideProposal(task.Status); err != nil {
		return nil, err
	}

	if err = s.tasks.TransitionStatus(ctx, taskID, task.Status, lifecycle.StatusApproved); err != nil {
		return nil, fmt.Errorf("failed to approve schedule: %w", err)
	}

	s.recordTransition(ctx, task, actor, "SCHEDULE_APPROVED", "Proposed schedule approved", lifecycle.StatusApproved)

	return s.reload(ctx, taskID)
}

// RejectSchedule discards the pending proposal and reopens negotiation.
func (s *Service) RejectSchedule(ctx context.Context, actor Actor, taskID, reason string) (*models.Task, error) {
	task, err := s.loadForClient(ctx, actor, taskID, lifecycle.OpRejectSchedule)
	if err != nil {
		return nil, err
	}
	if err = lifecycle.CanDecideProposal(task.Status); err != nil {
		return nil, err
	}

	if err = s.tasks.ClearProposal(ctx, taskID, task.Status, lifecycle.StatusAwaitingProposal); err != nil {
		return nil, fmt.Errorf("failed to reject schedule: %w", err)
	}

	details := "Proposed schedule rejected"
	if reason != "" {
		details = fmt.Sprintf("Proposed schedule rejected: %s", reason)
	}
	s.recordTransition(ctx, task, actor, "SCHEDULE_REJECTED", details, lifecycle.StatusAwaitingProposal)

	return s.reload(ctx, taskID)
}

// UpdateStatus advances the agreed work one step along
// APPROVED -> SCHEDULED -> IN_PROGRESS -> COMPLETED.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, taskID, rawStatus string) (*models.Task, error) {
	task, err := s.loadForContractor(ctx, actor, taskID, lifecycle.OpUpdateStatus)
	if err != nil {
		return nil, err
	}
	if !task.AssignedTo(actor.ID) {
		return nil, models.ErrForbidden
	}

	target, err := lifecycle.ParseStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidInput, err)
	}
	if err = lifecycle.NextWorkStatus(task.Status, target); err != nil {
		return nil, err
	}

	if err = s.tasks.TransitionStatus(ctx, taskID, task.Status, target); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	details := fmt.Sprintf("Status changed from %s to %s", task.Status, target)
	s.recordTransition(ctx, task, actor, "STATUS_UPDATED", details, target)

	return s.reload(ctx, taskID)
}

// Cancel abandons a request that has not started yet. Terminal.
func (s *Service) Cancel(ctx context.Context, actor Actor, taskID string) (*models.Task, error) {
	task, err := s.loadForClient(ctx, actor, taskID, lifecycle.OpCancel)
	if err != nil {
		return nil, err
	}
	if err = lifecycle.CanCancel(task.Status); err != nil {
		return nil, err
	}

	if err = s.tasks.ClearProposal(ctx, taskID, task.Status, lifecycle.StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel task: %w", err)
	}

	s.recordTransition(ctx, task, actor, "TASK_CANCELLED", "Request cancelled by client", lifecycle.StatusCancelled)

	return s.reload(ctx, taskID)
}

// loadForContractor checks the capability table and loads the task for a
// contractor-driven operation.
func (s *Service) loadForContractor(ctx context.Context, actor Actor, taskID string, op lifecycle.Operation) (*models.Task, error) {
	if !lifecycle.Can(string(actor.Role), op) {
		return nil, lifecycle.ErrNotPermitted
	}
	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// loadForClient checks the capability table, loads the task and verifies the
// acting client owns it.
func (s *Service) loadForClient(ctx context.Context, actor Actor, taskID string, op lifecycle.Operation) (*models.Task, error) {
	if !lifecycle.Can(string(actor.Role), op) {
		return nil, lifecycle.ErrNotPermitted
	}
	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task.ClientID != actor.ID {
		return nil, models.ErrForbidden
	}
	return task, nil
}

func (s *Service) visible(task *models.Task, actor Actor) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleClient:
		return task.ClientID == actor.ID
	case models.RoleContractor:
		return task.AssignedTo(actor.ID)
	}
	return false
}

// recordTransition appends the timeline entry, bumps the transition counter
// and publishes the lifecycle event. Timeline and event failures are logged
// but do not roll back the already committed mutation.
func (s *Service) recordTransition(ctx context.Context, task *models.Task, actor Actor, action, details string, to lifecycle.Status) {
	if err := s.tasks.AppendTimeline(ctx, task.ID, action, details); err != nil {
		s.log.Error("failed to append timeline entry", sl.Err(err), sl.Task(task.ID))
	}

	s.metrics.TaskTransitions.WithLabelValues(action, string(to)).Inc()

	event := events.LifecycleEvent{
		TaskID:     task.ID,
		Action:     action,
		Status:     string(to),
		ActorID:    actor.ID,
		ActorRole:  string(actor.Role),
		ClientID:   task.ClientID,
		Recipients: recipients(task),
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("failed to publish lifecycle event", sl.Err(err), sl.Task(task.ID))
	}
}

// recipients lists the client and every assigned contractor, deduplicated.
func recipients(task *models.Task) []string {
	seen := map[string]struct{}{task.ClientID: {}}
	list := []string{task.ClientID}
	for _, assignment := range task.Assignments {
		if _, ok := seen[assignment.ContractorID]; ok {
			continue
		}
		seen[assignment.ContractorID] = struct{}{}
		list = append(list, assignment.ContractorID)
	}
	return list
}

// reload returns the authoritative record after a mutation.
func (s *Service) reload(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.tasks.GetTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}
	return task, nil
}
