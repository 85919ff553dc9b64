package models

import (
	"time"
)

// InteractionType classifies how an interaction happened
type InteractionType string

const (
	InteractionTypeCall    InteractionType = "call"
	InteractionTypeEmail   InteractionType = "email"
	InteractionTypeMeeting InteractionType = "meeting"
	InteractionTypeNote    InteractionType = "note"
	InteractionTypeOther   InteractionType = "other"
)

// DefaultInteractionType is applied when a create request omits type
const DefaultInteractionType = InteractionTypeNote

// InteractionTypes returns all declared types in declaration order
func InteractionTypes() []InteractionType {
	return []InteractionType{
		InteractionTypeCall,
		InteractionTypeEmail,
		InteractionTypeMeeting,
		InteractionTypeNote,
		InteractionTypeOther,
	}
}

// Valid reports whether t is a declared type token
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionTypeCall, InteractionTypeEmail, InteractionTypeMeeting, InteractionTypeNote, InteractionTypeOther:
		return true
	}
	return false
}

// Interaction is a dated record of communication with a contact
type Interaction struct {
	ID         int64           `json:"id" db:"id"`
	ContactID  int64           `json:"contact_id" db:"contact_id"`
	Type       InteractionType `json:"type" db:"type"`
	OccurredAt time.Time       `json:"occurred_at" db:"occurred_at"`
	Summary    string          `json:"summary" db:"summary"`
	Outcome    *string         `json:"outcome,omitempty" db:"outcome"`
	CreatedBy  *string         `json:"created_by,omitempty" db:"created_by"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateInteractionRequest is the request body for recording an interaction
type CreateInteractionRequest struct {
	ContactID  int64           `json:"contact_id" validate:"required"`
	Type       InteractionType `json:"type,omitempty"`
	OccurredAt time.Time       `json:"occurred_at" validate:"required"`
	Summary    string          `json:"summary" validate:"required"`
	Outcome    *string         `json:"outcome,omitempty" validate:"omitempty,max=255"`
	CreatedBy  *string         `json:"created_by,omitempty" validate:"omitempty,max=120"`
}

// UpdateInteractionRequest is the request body for partially updating an
// interaction. contact_id is immutable after creation.
type UpdateInteractionRequest struct {
	Type       *InteractionType `json:"type,omitempty"`
	OccurredAt *time.Time       `json:"occurred_at,omitempty"`
	Summary    *string          `json:"summary,omitempty"`
	Outcome    Optional[string] `json:"outcome,omitzero"`
	CreatedBy  Optional[string] `json:"created_by,omitzero"`
}

// InteractionFilter holds the optional list criteria for interactions
type InteractionFilter struct {
	ContactID *int64
	Type      *InteractionType
	StartDate *time.Time // occurred_at >= StartDate
	EndDate   *time.Time // occurred_at <= EndDate
}

// InteractionListResponse is the API response for listing interactions
type InteractionListResponse struct {
	Items    []Interaction `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}
