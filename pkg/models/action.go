package models

import (
	"time"
)

// ActionStatus is the completion state of an action
type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusCancelled ActionStatus = "cancelled"
)

// DefaultActionStatus is applied when a create request omits status
const DefaultActionStatus = ActionStatusPending

// ActionStatuses returns all declared statuses in declaration order
func ActionStatuses() []ActionStatus {
	return []ActionStatus{ActionStatusPending, ActionStatusCompleted, ActionStatusCancelled}
}

// Valid reports whether s is a declared status token
func (s ActionStatus) Valid() bool {
	switch s {
	case ActionStatusPending, ActionStatusCompleted, ActionStatusCancelled:
		return true
	}
	return false
}

// ActionPriority orders actions by urgency. Declaration order is the sort
// order: low < medium < high < urgent.
type ActionPriority string

const (
	ActionPriorityLow    ActionPriority = "low"
	ActionPriorityMedium ActionPriority = "medium"
	ActionPriorityHigh   ActionPriority = "high"
	ActionPriorityUrgent ActionPriority = "urgent"
)

// DefaultActionPriority is applied when a create request omits priority
const DefaultActionPriority = ActionPriorityMedium

// ActionPriorities returns all declared priorities in ascending urgency order
func ActionPriorities() []ActionPriority {
	return []ActionPriority{ActionPriorityLow, ActionPriorityMedium, ActionPriorityHigh, ActionPriorityUrgent}
}

// Valid reports whether p is a declared priority token
func (p ActionPriority) Valid() bool {
	switch p {
	case ActionPriorityLow, ActionPriorityMedium, ActionPriorityHigh, ActionPriorityUrgent:
		return true
	}
	return false
}

// ActionType classifies what kind of work an action represents
type ActionType string

const (
	ActionTypeCall     ActionType = "call"
	ActionTypeMeeting  ActionType = "meeting"
	ActionTypeFollowUp ActionType = "follow_up"
	ActionTypeEmail    ActionType = "email"
	ActionTypeOther    ActionType = "other"
)

// DefaultActionType is applied when a create request omits action_type
const DefaultActionType = ActionTypeOther

// ActionTypes returns all declared types in declaration order
func ActionTypes() []ActionType {
	return []ActionType{ActionTypeCall, ActionTypeMeeting, ActionTypeFollowUp, ActionTypeEmail, ActionTypeOther}
}

// Valid reports whether t is a declared type token
func (t ActionType) Valid() bool {
	switch t {
	case ActionTypeCall, ActionTypeMeeting, ActionTypeFollowUp, ActionTypeEmail, ActionTypeOther:
		return true
	}
	return false
}

// Action is a scheduled follow-up task for a contact. It may reference a
// proposal or interaction; those references are not existence-checked at
// creation but are cascade-deleted with their target.
type Action struct {
	ID            int64          `json:"id" db:"id"`
	ContactID     int64          `json:"contact_id" db:"contact_id"`
	ProposalID    *int64         `json:"proposal_id,omitempty" db:"proposal_id"`
	InteractionID *int64         `json:"interaction_id,omitempty" db:"interaction_id"`
	Title         string         `json:"title" db:"title"`
	Description   *string        `json:"description,omitempty" db:"description"`
	Status        ActionStatus   `json:"status" db:"status"`
	Priority      ActionPriority `json:"priority" db:"priority"`
	ActionType    ActionType     `json:"action_type" db:"action_type"`
	DueAt         *time.Time     `json:"due_at,omitempty" db:"due_at"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	AssignedTo    *int64         `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateActionRequest is the request body for creating an action
type CreateActionRequest struct {
	ContactID     int64          `json:"contact_id" validate:"required"`
	ProposalID    *int64         `json:"proposal_id,omitempty"`
	InteractionID *int64         `json:"interaction_id,omitempty"`
	Title         string         `json:"title" validate:"required,max=255"`
	Description   *string        `json:"description,omitempty"`
	Status        ActionStatus   `json:"status,omitempty"`
	Priority      ActionPriority `json:"priority,omitempty"`
	ActionType    ActionType     `json:"action_type,omitempty"`
	DueAt         *time.Time     `json:"due_at,omitempty"`
	AssignedTo    *int64         `json:"assigned_to,omitempty"`
}

// UpdateActionRequest is the request body for partially updating an action.
// Setting status to completed stamps completed_at when it is not already set;
// an explicit completed_at in the same request wins over the stamp.
type UpdateActionRequest struct {
	Title         *string             `json:"title,omitempty"`
	Description   Optional[string]    `json:"description,omitzero"`
	Status        *ActionStatus       `json:"status,omitempty"`
	Priority      *ActionPriority     `json:"priority,omitempty"`
	ActionType    *ActionType         `json:"action_type,omitempty"`
	DueAt         Optional[time.Time] `json:"due_at,omitzero"`
	CompletedAt   Optional[time.Time] `json:"completed_at,omitzero"`
	AssignedTo    Optional[int64]     `json:"assigned_to,omitzero"`
	ProposalID    Optional[int64]     `json:"proposal_id,omitzero"`
	InteractionID Optional[int64]     `json:"interaction_id,omitzero"`
}

// ActionFilter holds the optional list criteria for actions
type ActionFilter struct {
	ContactID   *int64
	Status      *ActionStatus
	Priority    *ActionPriority
	ActionType  *ActionType
	AssignedTo  *int64
	OverdueOnly bool // pending with due_at strictly before now
}

// ActionListResponse is the API response for listing actions
type ActionListResponse struct {
	Items    []Action `json:"items"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}
