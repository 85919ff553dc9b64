package models

import (
	"time"
)

// ProposalStatus is the lifecycle stage of a proposal
type ProposalStatus string

const (
	ProposalStatusDraft     ProposalStatus = "draft"
	ProposalStatusSubmitted ProposalStatus = "submitted"
	ProposalStatusWon       ProposalStatus = "won"
	ProposalStatusLost      ProposalStatus = "lost"
	ProposalStatusIgnored   ProposalStatus = "ignored"
	ProposalStatusExpired   ProposalStatus = "expired"
)

// DefaultProposalStatus is applied when a create request omits status
const DefaultProposalStatus = ProposalStatusDraft

// ProposalStatuses returns all declared statuses in declaration order
func ProposalStatuses() []ProposalStatus {
	return []ProposalStatus{
		ProposalStatusDraft,
		ProposalStatusSubmitted,
		ProposalStatusWon,
		ProposalStatusLost,
		ProposalStatusIgnored,
		ProposalStatusExpired,
	}
}

// Valid reports whether s is a declared status token
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusSubmitted, ProposalStatusWon, ProposalStatusLost, ProposalStatusIgnored, ProposalStatusExpired:
		return true
	}
	return false
}

// Proposal is an offer extended to a contact, optionally carrying a monetary
// value and an expiry deadline. Expiry is a query-time notion: records past
// expires_at keep their stored status until a caller changes it.
type Proposal struct {
	ID          int64          `json:"id" db:"id"`
	ContactID   int64          `json:"contact_id" db:"contact_id"`
	Title       string         `json:"title" db:"title"`
	Description *string        `json:"description,omitempty" db:"description"`
	Value       *float64       `json:"value,omitempty" db:"value"`
	Status      ProposalStatus `json:"status" db:"status"`
	AppliedAt   *time.Time     `json:"applied_at,omitempty" db:"applied_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateProposalRequest is the request body for creating a proposal
type CreateProposalRequest struct {
	ContactID   int64          `json:"contact_id" validate:"required"`
	Title       string         `json:"title" validate:"required,max=255"`
	Description *string        `json:"description,omitempty"`
	Value       *float64       `json:"value,omitempty" validate:"omitempty,gte=0"`
	Status      ProposalStatus `json:"status,omitempty"`
	AppliedAt   *time.Time     `json:"applied_at,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
}

// UpdateProposalRequest is the request body for partially updating a proposal
type UpdateProposalRequest struct {
	Title       *string             `json:"title,omitempty"`
	Description Optional[string]    `json:"description,omitzero"`
	Value       Optional[float64]   `json:"value,omitzero"`
	Status      *ProposalStatus     `json:"status,omitempty"`
	AppliedAt   Optional[time.Time] `json:"applied_at,omitzero"`
	ExpiresAt   Optional[time.Time] `json:"expires_at,omitzero"`
}

// ProposalFilter holds the optional list criteria for proposals
type ProposalFilter struct {
	ContactID *int64
	Status    *ProposalStatus
	MinValue  *float64 // value >= MinValue
	MaxValue  *float64 // value <= MaxValue
}

// ProposalListResponse is the API response for listing proposals
type ProposalListResponse struct {
	Items    []Proposal `json:"items"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
