package tasks_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Houeta/homecare-api/internal/events"
	"github.com/Houeta/homecare-api/internal/lifecycle"
	"github.com/Houeta/homecare-api/internal/metrics"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/Houeta/homecare-api/internal/services/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTaskRepo keeps a single task in memory and mimics the guarded writes
// of the real repository.
type fakeTaskRepo struct {
	task     *models.Task
	timeline []models.TimelineEntry
}

func (f *fakeTaskRepo) CreateTask(_ context.Context, task *models.Task) error {
	task.ID = "task-1"
	task.Status = lifecycle.StatusRequested
	task.CreatedAt = time.Now()
	f.task = task
	return nil
}

func (f *fakeTaskRepo) GetTaskByID(_ context.Context, id string) (*models.Task, error) {
	if f.task == nil || f.task.ID != id {
		return nil, models.ErrNotFound
	}
	copied := *f.task
	return &copied, nil
}

func (f *fakeTaskRepo) ListTasksForClient(_ context.Context, clientID string) ([]models.Task, error) {
	if f.task != nil && f.task.ClientID == clientID {
		return []models.Task{*f.task}, nil
	}
	return nil, nil
}

func (f *fakeTaskRepo) ListTasksForContractor(_ context.Context, contractorID string) ([]models.Task, error) {
	if f.task != nil && f.task.AssignedTo(contractorID) {
		return []models.Task{*f.task}, nil
	}
	return nil, nil
}

func (f *fakeTaskRepo) ListAllTasks(_ context.Context) ([]models.Task, error) {
	if f.task != nil {
		return []models.Task{*f.task}, nil
	}
	return nil, nil
}

func (f *fakeTaskRepo) TransitionStatus(_ context.Context, taskID string, from, to lifecycle.Status) error {
	if f.task == nil || f.task.ID != taskID || f.task.Status != from {
		return models.ErrConflict
	}
	f.task.Status = to
	return nil
}

func (f *fakeTaskRepo) SaveProposal(_ context.Context, taskID string, from lifecycle.Status, date time.Time, timeOfDay string) error {
	if f.task == nil || f.task.ID != taskID || f.task.Status != from {
		return models.ErrConflict
	}
	f.task.Status = lifecycle.StatusProposed
	f.task.ProposedDate = &date
	f.task.ProposedTime = timeOfDay
	return nil
}

func (f *fakeTaskRepo) ClearProposal(_ context.Context, taskID string, from, to lifecycle.Status) error {
	if f.task == nil || f.task.ID != taskID || f.task.Status != from {
		return models.ErrConflict
	}
	f.task.Status = to
	f.task.ProposedDate = nil
	f.task.ProposedTime = ""
	return nil
}

func (f *fakeTaskRepo) AddAssignment(_ context.Context, taskID, contractorID string) (models.Assignment, error) {
	assignment := models.Assignment{ID: "assignment-1", TaskID: taskID, ContractorID: contractorID}
	f.task.Assignments = append(f.task.Assignments, assignment)
	return assignment, nil
}

func (f *fakeTaskRepo) RemoveAssignment(_ context.Context, taskID, contractorID string) error {
	for i, a := range f.task.Assignments {
		if a.ContractorID == contractorID {
			f.task.Assignments = append(f.task.Assignments[:i], f.task.Assignments[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeTaskRepo) AppendTimeline(_ context.Context, taskID, action, details string) error {
	f.timeline = append(f.timeline, models.TimelineEntry{TaskID: taskID, Action: action, Details: details})
	return nil
}

func (f *fakeTaskRepo) CountTasks(_ context.Context) (int, error) { return 1, nil }

type fakeUserRepo struct {
	users map[string]models.User
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) CreateUser(_ context.Context, _ *models.User) error { return nil }
func (f *fakeUserRepo) GetUserByEmail(_ context.Context, _ string) (models.User, error) {
	return models.User{}, models.ErrNotFound
}
func (f *fakeUserRepo) ListUsers(_ context.Context) ([]models.User, error)                 { return nil, nil }
func (f *fakeUserRepo) ListAssignableContractors(_ context.Context) ([]models.User, error) { return nil, nil }
func (f *fakeUserRepo) ListPendingContractors(_ context.Context) ([]models.User, error)    { return nil, nil }
func (f *fakeUserRepo) UpdateProfile(_ context.Context, _, _, _, _ string) (models.User, error) {
	return models.User{}, nil
}
func (f *fakeUserRepo) UpdateUserAdmin(_ context.Context, _ string, _ models.AdminUpdateUserRequest) (models.User, error) {
	return models.User{}, nil
}
func (f *fakeUserRepo) SetContractorApproval(_ context.Context, _ string, _ bool) error { return nil }
func (f *fakeUserRepo) SetAvatarURL(_ context.Context, _, _ string) (models.User, error) {
	return models.User{}, nil
}
func (f *fakeUserRepo) CountUsers(_ context.Context) (int, error) { return 0, nil }

type fakeHomeRepo struct {
	home models.Home
}

func (f *fakeHomeRepo) CreateHome(_ context.Context, _ *models.Home) error { return nil }
func (f *fakeHomeRepo) GetHomeByID(_ context.Context, id string) (models.Home, error) {
	if f.home.ID != id {
		return models.Home{}, models.ErrNotFound
	}
	return f.home, nil
}

type fakeCatalogRepo struct{}

func (fakeCatalogRepo) ListServices(_ context.Context) ([]models.Service, error)            { return nil, nil }
func (fakeCatalogRepo) ListCategories(_ context.Context) ([]models.ServiceCategory, error)  { return nil, nil }
func (fakeCatalogRepo) GetServiceByID(_ context.Context, id string) (models.Service, error) {
	if id != "service-1" {
		return models.Service{}, models.ErrNotFound
	}
	return models.Service{ID: id, Name: "Deep cleaning"}, nil
}
func (fakeCatalogRepo) CountServices(_ context.Context) (int, error) { return 0, nil }

type capturingPublisher struct {
	published []events.LifecycleEvent
}

func (c *capturingPublisher) Publish(_ context.Context, event events.LifecycleEvent) error {
	c.published = append(c.published, event)
	return nil
}

func (c *capturingPublisher) Close() error { return nil }

type fixture struct {
	service   *tasks.Service
	taskRepo  *fakeTaskRepo
	publisher *capturingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	taskRepo := &fakeTaskRepo{}
	userRepo := &fakeUserRepo{users: map[string]models.User{
		"contractor-1": {ID: "contractor-1", Role: models.RoleContractor, IsApproved: true, IsActive: true, FirstName: "Pat", LastName: "Doe"},
		"contractor-2": {ID: "contractor-2", Role: models.RoleContractor, IsApproved: false, IsActive: true},
	}}
	homeRepo := &fakeHomeRepo{home: models.Home{ID: "home-1", OwnerID: "client-1"}}
	publisher := &capturingPublisher{}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := tasks.NewService(
		log, taskRepo, userRepo, homeRepo, fakeCatalogRepo{}, publisher,
		metrics.NewMetrics(prometheus.NewRegistry()),
	)
	return &fixture{service: service, taskRepo: taskRepo, publisher: publisher}
}

var (
	client     = tasks.Actor{ID: "client-1", Role: models.RoleClient}
	contractor = tasks.Actor{ID: "contractor-1", Role: models.RoleContractor}
	admin      = tasks.Actor{ID: "admin-1", Role: models.RoleAdmin}
)

func (f *fixture) createTask(t *testing.T) *models.Task {
	t.Helper()

	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	task, err := f.service.Create(context.Background(), client, models.CreateTaskRequest{
		ServiceID:          "service-1",
		HomeID:             "home-1",
		PreferredStartDate: start,
		PreferredEndDate:   start.AddDate(0, 0, 5),
		ClientNotes:        "Keys under the mat",
	})
	require.NoError(t, err)
	return task
}

func (f *fixture) assign(t *testing.T, taskID string) {
	t.Helper()
	_, err := f.service.Assign(context.Background(), admin, taskID, "contractor-1")
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	task := f.createTask(t)

	assert.Equal(t, lifecycle.StatusRequested, task.Status)
	assert.Equal(t, "client-1", task.ClientID)
	require.Len(t, f.taskRepo.timeline, 1)
	assert.Equal(t, "TASK_CREATED", f.taskRepo.timeline[0].Action)
	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "task-1", f.publisher.published[0].TaskID)
}

func TestCreate_RejectsForeignHome(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	otherClient := tasks.Actor{ID: "client-2", Role: models.RoleClient}
	start := time.Now()
	_, err := f.service.Create(context.Background(), otherClient, models.CreateTaskRequest{
		ServiceID:          "service-1",
		HomeID:             "home-1",
		PreferredStartDate: start,
		PreferredEndDate:   start.AddDate(0, 0, 1),
	})
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestAssign(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)

	updated, err := f.service.Assign(context.Background(), admin, task.ID, "contractor-1")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusRequested, updated.Status)
	assert.True(t, updated.AssignedTo("contractor-1"))
}

func TestAssign_NonAdminForbidden(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)

	_, err := f.service.Assign(context.Background(), contractor, task.ID, "contractor-1")
	require.ErrorIs(t, err, lifecycle.ErrNotPermitted)
}

func TestAssign_UnapprovedContractorRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)

	_, err := f.service.Assign(context.Background(), admin, task.ID, "contractor-2")
	require.ErrorIs(t, err, models.ErrContractorNotUsable)
	assert.Empty(t, f.taskRepo.task.Assignments)
}

func TestAssign_SecondContractorRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	_, err := f.service.Assign(context.Background(), admin, task.ID, "contractor-1")
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestUnassign_InvalidatesProposal(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	_, err := f.service.ProposeSchedule(context.Background(), contractor, task.ID, models.ProposeScheduleRequest{
		ProposedDate: "2026-09-12",
		ProposedTime: "morning",
	})
	require.NoError(t, err)

	updated, err := f.service.Unassign(context.Background(), admin, task.ID, "contractor-1")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusRequested, updated.Status)
	assert.Nil(t, updated.ProposedDate)
	assert.Empty(t, updated.Assignments)
}

func TestAccept_FastPath(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	updated, err := f.service.Accept(context.Background(), contractor, task.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, updated.Status)
}

func TestAccept_UnassignedContractorRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)

	_, err := f.service.Accept(context.Background(), contractor, task.ID)
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestNegotiationRoundTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	proposed, err := f.service.ProposeSchedule(context.Background(), contractor, task.ID, models.ProposeScheduleRequest{
		ProposedDate: "2026-09-12",
		ProposedTime: "afternoon",
	})
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusProposed, proposed.Status)
	require.NotNil(t, proposed.ProposedDate)
	assert.Equal(t, "afternoon", proposed.ProposedTime)

	rejected, err := f.service.RejectSchedule(context.Background(), client, task.ID, "out of town")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusAwaitingProposal, rejected.Status)
	assert.Nil(t, rejected.ProposedDate)

	_, err = f.service.ProposeSchedule(context.Background(), contractor, task.ID, models.ProposeScheduleRequest{
		ProposedDate: "2026-09-20",
		ProposedTime: "morning",
	})
	require.NoError(t, err)

	approved, err := f.service.ApproveSchedule(context.Background(), client, task.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusApproved, approved.Status)
	require.NotNil(t, approved.ProposedDate)
}

func TestApproveSchedule_OnlyOwningClient(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	_, err := f.service.ProposeSchedule(context.Background(), contractor, task.ID, models.ProposeScheduleRequest{
		ProposedDate: "2026-09-12",
		ProposedTime: "morning",
	})
	require.NoError(t, err)

	stranger := tasks.Actor{ID: "client-2", Role: models.RoleClient}
	_, err = f.service.ApproveSchedule(context.Background(), stranger, task.ID)
	require.ErrorIs(t, err, models.ErrForbidden)
}

func TestApproveSchedule_WithoutProposalRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)

	_, err := f.service.ApproveSchedule(context.Background(), client, task.ID)
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestUpdateStatus_Progression(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	_, err := f.service.Accept(context.Background(), contractor, task.ID)
	require.NoError(t, err)

	for _, target := range []string{"SCHEDULED", "IN_PROGRESS", "COMPLETED"} {
		updated, stepErr := f.service.UpdateStatus(context.Background(), contractor, task.ID, target)
		require.NoError(t, stepErr)
		assert.Equal(t, lifecycle.Status(target), updated.Status)
	}
}

func TestUpdateStatus_SkipRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	_, err := f.service.Accept(context.Background(), contractor, task.ID)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), contractor, task.ID, "COMPLETED")
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
	assert.Equal(t, lifecycle.StatusApproved, f.taskRepo.task.Status)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	_, err := f.service.UpdateStatus(context.Background(), contractor, task.ID, "DONE")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCancel(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)

	updated, err := f.service.Cancel(context.Background(), client, task.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCancelled, updated.Status)
}

func TestCancel_AfterWorkStartedRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	_, err := f.service.Accept(context.Background(), contractor, task.ID)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(context.Background(), contractor, task.ID, "SCHEDULED")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(context.Background(), contractor, task.ID, "IN_PROGRESS")
	require.NoError(t, err)

	_, err = f.service.Cancel(context.Background(), client, task.ID)
	require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
}

func TestGet_Visibility(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)

	_, err := f.service.Get(context.Background(), admin, task.ID)
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), client, task.ID)
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), contractor, task.ID)
	require.ErrorIs(t, err, models.ErrForbidden)

	f.assign(t, task.ID)
	_, err = f.service.Get(context.Background(), contractor, task.ID)
	require.NoError(t, err)
}

func TestGet_UnknownID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.service.Get(context.Background(), admin, "missing")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestEventsCarryRecipients(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	task := f.createTask(t)
	f.assign(t, task.ID)

	_, err := f.service.Accept(context.Background(), contractor, task.ID)
	require.NoError(t, err)

	last := f.publisher.published[len(f.publisher.published)-1]
	assert.Equal(t, "SCHEDULE_ACCEPTED", last.Action)
	assert.ElementsMatch(t, []string{"client-1", "contractor-1"}, last.Recipients)
}
