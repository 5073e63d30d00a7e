package models

import (
	"time"

	"github.com/Houeta/homecare-api/internal/lifecycle"
)

// Task is a single client service request tracked from creation to
// completion. The status field is mutated only through lifecycle operations;
// the preferred window and client notes are immutable after creation.
type Task struct {
	ID                 string           `json:"id"`
	Status             lifecycle.Status `json:"status"`
	ClientID           string           `json:"clientId"`
	Client             *User            `json:"client,omitempty"`
	ServiceID          string           `json:"serviceId"`
	Service            *Service         `json:"service,omitempty"`
	HomeID             string           `json:"homeId"`
	Home               *Home            `json:"home,omitempty"`
	PreferredStartDate time.Time        `json:"preferredStartDate"`
	PreferredEndDate   time.Time        `json:"preferredEndDate"`
	ProposedDate       *time.Time       `json:"proposedDate,omitempty"`
	ProposedTime       string           `json:"proposedTime,omitempty"`
	ClientNotes        string           `json:"clientNotes,omitempty"`
	Assignments        []Assignment     `json:"assignments"`
	Timeline           []TimelineEntry  `json:"timeline,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"-"`
}

// AssignedTo reports whether the task is currently bound to the contractor.
func (t *Task) AssignedTo(contractorID string) bool {
	for _, a := range t.Assignments {
		if a.ContractorID == contractorID {
			return true
		}
	}
	return false
}

// Assignment binds one contractor to one task. Created and removed
// exclusively by admins.
type Assignment struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"taskId"`
	ContractorID string    `json:"contractorId"`
	Contractor   *User     `json:"contractor,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TimelineEntry is one write-once record in a task's append-only event log.
type TimelineEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"-"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateTaskRequest is the JSON payload of POST /tasks.
type CreateTaskRequest struct {
	ServiceID          string    `json:"serviceId"`
	HomeID             string    `json:"homeId"`
	PreferredStartDate time.Time `json:"preferredStartDate"`
	PreferredEndDate   time.Time `json:"preferredEndDate"`
	ClientNotes        string    `json:"clientNotes"`
}

// ProposeScheduleRequest is the JSON payload of POST /tasks/{id}/propose-schedule.
type ProposeScheduleRequest struct {
	ProposedDate string `json:"proposedDate"`
	ProposedTime string `json:"proposedTime"`
}

// RejectScheduleRequest is the JSON payload of POST /tasks/{id}/reject-schedule.
type RejectScheduleRequest struct {
	Reason string `json:"reason"`
}

// AssignRequest is the JSON payload of the assign/unassign endpoints.
type AssignRequest struct {
	ContractorID string `json:"contractorId"`
}

// UpdateStatusRequest is the JSON payload of PUT /tasks/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
