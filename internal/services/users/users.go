// Package users implements account management: signup, login with the
// contractor verification gate, profile self-service, uploads and the admin
// directory operations.
package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Houeta/homecare-api/internal/auth"
	"github.com/Houeta/homecare-api/internal/lib/logger/sl"
	"github.com/Houeta/homecare-api/internal/metrics"
	"github.com/Houeta/homecare-api/internal/models"
	"github.com/Houeta/homecare-api/internal/repository"
)

const minPasswordLength = 8

// FileStore persists uploaded documents and returns the stored file name.
type FileStore interface {
	Save(reader io.Reader, originalName string) (string, error)
}

// TaskCounter is the slice of the task repository the admin stats need.
type TaskCounter interface {
	CountTasks(ctx context.Context) (int, error)
}

// ServiceCounter is the slice of the catalog repository the admin stats need.
type ServiceCounter interface {
	CountServices(ctx context.Context) (int, error)
}

// Service owns account lifecycle and authentication.
type Service struct {
	log           *slog.Logger
	users         repository.UserRepoIface
	tasks         TaskCounter
	catalog       ServiceCounter
	notifications repository.NotificationRepoIface
	store         FileStore
	tokens        *auth.TokenManager
	metrics       *metrics.Metrics
}

// NewService creates a user service.
func NewService(
	log *slog.Logger,
	userRepo repository.UserRepoIface,
	taskRepo TaskCounter,
	catalogRepo ServiceCounter,
	notificationRepo repository.NotificationRepoIface,
	store FileStore,
	tokens *auth.TokenManager,
	mtx *metrics.Metrics,
) *Service {
	return &Service{
		log:           log,
		users:         userRepo,
		tasks:         taskRepo,
		catalog:       catalogRepo,
		notifications: notificationRepo,
		store:         store,
		tokens:        tokens,
		metrics:       mtx,
	}
}

// Signup registers a client account and logs it in.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (models.LoginResponse, error) {
	user, err := s.register(ctx, req, models.RoleClient, "")
	if err != nil {
		return models.LoginResponse{}, err
	}
	return s.issueSession(user)
}

// ContractorSignup registers a contractor account with its identification
// document. The account stays unapproved until an admin verifies it, so no
// session is issued.
func (s *Service) ContractorSignup(
	ctx context.Context,
	req models.SignupRequest,
	document io.Reader,
	documentName string,
) (*models.User, error) {
	if document == nil {
		return nil, fmt.Errorf("%w: identification document is required", models.ErrInvalidInput)
	}

	storedName, err := s.store.Save(document, documentName)
	if err != nil {
		return nil, fmt.Errorf("failed to store identification document: %w", err)
	}

	user, err := s.register(ctx, req, models.RoleContractor, storedName)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) register(
	ctx context.Context,
	req models.SignupRequest,
	role models.Role,
	identificationPath string,
) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, fmt.Errorf("%w: malformed email address", models.ErrInvalidInput)
	}
	if len(req.Password) < minPasswordLength {
		return models.User{}, fmt.Errorf("%w: password must be at least %d characters",
			models.ErrInvalidInput, minPasswordLength)
	}
	if req.FirstName == "" || req.LastName == "" {
		return models.User{}, fmt.Errorf("%w: first and last name are required", models.ErrInvalidInput)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:              email,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Role:               role,
		Phone:              req.Phone,
		IsActive:           true,
		IsApproved:         role != models.RoleContractor,
		IdentificationPath: identificationPath,
		PasswordHash:       hash,
	}
	if err = s.users.CreateUser(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("failed to register account: %w", err)
	}

	s.log.Info("account registered", sl.User(user.ID), slog.String("role", string(role)))

	return user, nil
}

// Login verifies credentials and issues a session token. Contractor logins
// are gated on verification and activity.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return models.LoginResponse{}, models.ErrInvalidCredentials
		}
		return models.LoginResponse{}, fmt.Errorf("failed to look up account: %w", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return models.LoginResponse{}, models.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return models.LoginResponse{}, models.ErrAccountInactive
	}
	if user.Role == models.RoleContractor && !user.IsApproved {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return models.LoginResponse{}, models.ErrContractorUnapproved
	}

	response, err := s.issueSession(user)
	if err != nil {
		return models.LoginResponse{}, err
	}

	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.log.Info("user logged in", sl.User(user.ID))

	return response, nil
}

func (s *Service) issueSession(user models.User) (models.LoginResponse, error) {
	token, err := s.tokens.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		return models.LoginResponse{}, fmt.Errorf("failed to issue session token: %w", err)
	}
	return models.LoginResponse{Token: token, User: &user}, nil
}

// Profile returns the account snapshot of the authenticated user.
func (s *Service) Profile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the self-service fields of the account.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (models.User, error) {
	if req.FirstName == "" || req.LastName == "" {
		return models.User{}, fmt.Errorf("%w: first and last name are required", models.ErrInvalidInput)
	}

	user, err := s.users.UpdateProfile(ctx, userID, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// UploadAvatar stores a new avatar image and records its served path.
func (s *Service) UploadAvatar(ctx context.Context, userID string, image io.Reader, imageName string) (models.User, error) {
	storedName, err := s.store.Save(image, imageName)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to store avatar: %w", err)
	}

	user, err := s.users.SetAvatarURL(ctx, userID, "/uploads/"+storedName)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to set avatar url: %w", err)
	}
	return user, nil
}

// Notifications returns the authenticated user's lifecycle alerts.
func (s *Service) Notifications(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications, err := s.notifications.ListNotificationsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Stats aggregates the admin dashboard counters.
func (s *Service) Stats(ctx context.Context) (models.AdminStats, error) {
	totalUsers, err := s.users.CountUsers(ctx)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("failed to count users: %w", err)
	}
	totalTasks, err := s.tasks.CountTasks(ctx)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("failed to count tasks: %w", err)
	}
	totalServices, err := s.catalog.CountServices(ctx)
	if err != nil {
		return models.AdminStats{}, fmt.Errorf("failed to count services: %w", err)
	}

	return models.AdminStats{
		TotalUsers:    totalUsers,
		TotalTasks:    totalTasks,
		TotalServices: totalServices,
	}, nil
}

// ListUsers returns the full account directory.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListAssignableContractors returns contractors eligible for assignment:
// verified and active only.
func (s *Service) ListAssignableContractors(ctx context.Context) ([]models.User, error) {
	contractors, err := s.users.ListAssignableContractors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignable contractors: %w", err)
	}
	return contractors, nil
}

// ListPendingContractors returns the contractor verification queue.
func (s *Service) ListPendingContractors(ctx context.Context) ([]models.User, error) {
	contractors, err := s.users.ListPendingContractors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending contractors: %w", err)
	}
	return contractors, nil
}

// PatchUser applies an admin edit to an account.
func (s *Service) PatchUser(ctx context.Context, userID string, req models.AdminUpdateUserRequest) (models.User, error) {
	user, err := s.users.UpdateUserAdmin(ctx, userID, req)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// VerifyContractor resolves one entry of the verification queue.
func (s *Service) VerifyContractor(ctx context.Context, contractorID string, approve bool) error {
	if err := s.users.SetContractorApproval(ctx, contractorID, approve); err != nil {
		return fmt.Errorf("failed to verify contractor: %w", err)
	}

	s.log.Info("contractor verification resolved",
		sl.User(contractorID), slog.Bool("approved", approve))

	return nil
}
