// Package lifecycle owns the task status state machine: which statuses
// exist, which operation each role may invoke, and which transitions are
// legal from a given status. It is pure logic with no I/O so that every
// caller (HTTP handlers, services, tests) consults the same single source
// of truth for legality.
package lifecycle

import (
	"errors"
	"fmt"
)

// Status is the current phase of a task, gating which operations are legal.
type Status string

const (
	StatusRequested        Status = "REQUESTED"
	StatusAwaitingProposal Status = "AWAITING_CONTRACTOR_PROPOSAL"
	StatusProposed         Status = "PROPOSED"
	StatusApproved         Status = "APPROVED"
	StatusScheduled        Status = "SCHEDULED"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
)

// Operation is one of the named actions that may mutate a task's status or
// its assignments.
type Operation string

const (
	OpAssign          Operation = "assign"
	OpUnassign        Operation = "unassign"
	OpAccept          Operation = "accept"
	OpProposeSchedule Operation = "propose-schedule"
	OpApproveSchedule Operation = "approve-schedule"
	OpRejectSchedule  Operation = "reject-schedule"
	OpUpdateStatus    Operation = "update-status"
	OpCancel          Operation = "cancel"
)

var (
	// ErrIllegalTransition is returned when an operation is not allowed from
	// the task's current status. The store rejects the call and leaves the
	// task untouched.
	ErrIllegalTransition = errors.New("illegal lifecycle transition")
	// ErrNotPermitted is returned when the acting role may never invoke the
	// requested operation, regardless of task state.
	ErrNotPermitted = errors.New("operation not permitted for role")
	// ErrUnknownStatus is returned for a status string outside the enum.
	ErrUnknownStatus = errors.New("unknown task status")
)

// capabilities lists the operations each role may invoke. Handlers ask
// Can(role, op) instead of branching on role names at every call site.
var capabilities = map[string]map[Operation]bool{
	"ADMIN": {
		OpAssign:   true,
		OpUnassign: true,
	},
	"CONTRACTOR": {
		OpAccept:          true,
		OpProposeSchedule: true,
		OpUpdateStatus:    true,
	},
	"CLIENT": {
		OpApproveSchedule: true,
		OpRejectSchedule:  true,
		OpCancel:          true,
	},
}

// Can reports whether the role is ever allowed to invoke the operation.
func Can(role string, op Operation) bool {
	return capabilities[role][op]
}

// ParseStatus validates a status string against the enum.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	switch status {
	case StatusRequested, StatusAwaitingProposal, StatusProposed, StatusApproved,
		StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}

// Terminal reports whether no further transition can leave the status.
func Terminal(status Status) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// workProgression is the strictly monotonic booked -> started -> finished
// chain driven by the assigned contractor.
var workProgression = map[Status]Status{
	StatusApproved:   StatusScheduled,
	StatusScheduled:  StatusInProgress,
	StatusInProgress: StatusCompleted,
}

// CanAssign reports whether an admin may bind a contractor to a task in the
// given status. Binding is only legal while the request has not entered
// schedule negotiation; rebinding goes through unassign first.
func CanAssign(status Status, alreadyAssigned bool) error {
	if status != StatusRequested {
		return fmt.Errorf("%w: cannot assign a contractor while task is %s", ErrIllegalTransition, status)
	}
	if alreadyAssigned {
		return fmt.Errorf("%w: task already has an assigned contractor", ErrIllegalTransition)
	}
	return nil
}

// CanUnassign reports whether an admin may remove the binding. Removal is
// legal from any non-terminal status; the caller must also discard any
// in-flight proposal tied to the removed contractor.
func CanUnassign(status Status, assigned bool) error {
	if Terminal(status) {
		return fmt.Errorf("%w: task is already %s", ErrIllegalTransition, status)
	}
	if !assigned {
		return fmt.Errorf("%w: task has no assigned contractor", ErrIllegalTransition)
	}
	return nil
}

// CanNegotiate reports whether the contractor currently holds the turn to
// accept the preferred window or counter-propose a schedule. A freshly
// created request only becomes negotiable for the contractor it was bound
// to.
func CanNegotiate(status Status, assignedToActor bool) error {
	switch status {
	case StatusAwaitingProposal, StatusProposed:
		return nil
	case StatusRequested:
		if assignedToActor {
			return nil
		}
		return fmt.Errorf("%w: task is not assigned to this contractor", ErrIllegalTransition)
	default:
		return fmt.Errorf("%w: cannot negotiate schedule while task is %s", ErrIllegalTransition, status)
	}
}

// CanDecideProposal reports whether the client may approve or reject the
// pending counter-proposal. Both decisions require one to exist.
func CanDecideProposal(status Status) error {
	if status != StatusProposed {
		return fmt.Errorf("%w: no pending schedule proposal while task is %s", ErrIllegalTransition, status)
	}
	return nil
}

// NextWorkStatus validates one step of the contractor-driven work
// progression and returns an error when a step would be skipped or walked
// backwards.
func NextWorkStatus(current, target Status) error {
	next, ok := workProgression[current]
	if !ok {
		return fmt.Errorf("%w: no work progression from %s", ErrIllegalTransition, current)
	}
	if next != target {
		return fmt.Errorf("%w: %s must be followed by %s, not %s", ErrIllegalTransition, current, next, target)
	}
	return nil
}

// CanCancel reports whether the client may still abandon the request. Once
// work has started the task must run to completion.
func CanCancel(status Status) error {
	switch status {
	case StatusRequested, StatusAwaitingProposal, StatusProposed, StatusApproved, StatusScheduled:
		return nil
	default:
		return fmt.Errorf("%w: cannot cancel a task that is %s", ErrIllegalTransition, status)
	}
}
