package repository

import (
	"context"
	"time"

	"github.com/Houeta/homecare-api/internal/lifecycle"
	"github.com/Houeta/homecare-api/internal/metrics"
	"github.com/Houeta/homecare-api/internal/models"
)

type Repository struct {
	db      Database
	metrics *metrics.Metrics
}

// observe records the duration of one query into the DB latency histogram.
func (r *Repository) observe(queryType string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
}

// UserRepoIface represents the interface for interacting with account data in the repository.
type UserRepoIface interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListAssignableContractors(ctx context.Context) ([]models.User, error)
	ListPendingContractors(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, id, firstName, lastName, phone string) (models.User, error)
	UpdateUserAdmin(ctx context.Context, id string, req models.AdminUpdateUserRequest) (models.User, error)
	SetContractorApproval(ctx context.Context, id string, approved bool) error
	SetAvatarURL(ctx context.Context, id, avatarURL string) (models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

func NewUserRepository(db Database, mtr *metrics.Metrics) UserRepoIface {
	return &Repository{db: db, metrics: mtr}
}

// TaskRepoIface represents the interface for interacting with tasks, their
// assignments and their timeline in the repository.
type TaskRepoIface interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	ListTasksForClient(ctx context.Context, clientID string) ([]models.Task, error)
	ListTasksForContractor(ctx context.Context, contractorID string) ([]models.Task, error)
	ListAllTasks(ctx context.Context) ([]models.Task, error)
	TransitionStatus(ctx context.Context, taskID string, from, to lifecycle.Status) error
	SaveProposal(ctx context.Context, taskID string, from lifecycle.Status, date time.Time, timeOfDay string) error
	ClearProposal(ctx context.Context, taskID string, from, to lifecycle.Status) error
	AddAssignment(ctx context.Context, taskID, contractorID string) (models.Assignment, error)
	RemoveAssignment(ctx context.Context, taskID, contractorID string) error
	AppendTimeline(ctx context.Context, taskID, action, details string) error
	CountTasks(ctx context.Context) (int, error)
}

func NewTaskRepository(db Database, mtr *metrics.Metrics) TaskRepoIface {
	return &Repository{db: db, metrics: mtr}
}

// CatalogRepoIface represents the read-only interface over the service catalog.
type CatalogRepoIface interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	ListCategories(ctx context.Context) ([]models.ServiceCategory, error)
	GetServiceByID(ctx context.Context, id string) (models.Service, error)
	CountServices(ctx context.Context) (int, error)
}

func NewCatalogRepository(db Database, mtr *metrics.Metrics) CatalogRepoIface {
	return &Repository{db: db, metrics: mtr}
}

// HomeRepoIface represents the interface for interacting with client addresses.
type HomeRepoIface interface {
	CreateHome(ctx context.Context, home *models.Home) error
	GetHomeByID(ctx context.Context, id string) (models.Home, error)
}

func NewHomeRepository(db Database, mtr *metrics.Metrics) HomeRepoIface {
	return &Repository{db: db, metrics: mtr}
}

// NotificationRepoIface represents the interface for persisted lifecycle alerts.
type NotificationRepoIface interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListNotificationsForUser(ctx context.Context, userID string) ([]models.Notification, error)
}

func NewNotificationRepository(db Database, mtr *metrics.Metrics) NotificationRepoIface {
	return &Repository{db: db, metrics: mtr}
}
