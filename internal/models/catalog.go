package models

import "time"

// ServiceCategory groups catalog services, e.g. "Cleaning" or "Gardening".
type ServiceCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service is one bookable catalog entry. Read-only from the task system's
// perspective; the catalog is seeded by migrations.
type Service struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	Category          *ServiceCategory `json:"category,omitempty"`
	EstimatedDuration int              `json:"estimatedDuration"`
	BasePrice         float64          `json:"basePrice"`
	CreatedAt         time.Time        `json:"-"`
}

// Home is a physical address a service request points at.
type Home struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zipCode"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"-"`
}

// CreateHomeRequest is the JSON payload of POST /homes.
type CreateHomeRequest struct {
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	IsDefault bool   `json:"isDefault"`
}

// Notification is a persisted lifecycle alert for one user, written by the
// notifier worker from queued lifecycle events.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TaskID    string    `json:"taskId"`
	Action    string    `json:"action"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
