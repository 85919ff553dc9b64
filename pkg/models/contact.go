package models

import (
	"time"

	"github.com/lib/pq"
)

// ContactStatus is the lifecycle stage of a contact
type ContactStatus string

const (
	ContactStatusLead     ContactStatus = "lead"
	ContactStatusProspect ContactStatus = "prospect"
	ContactStatusClient   ContactStatus = "client"
	ContactStatusLost     ContactStatus = "lost"
	ContactStatusArchived ContactStatus = "archived"
)

// DefaultContactStatus is applied when a create request omits status
const DefaultContactStatus = ContactStatusLead

// ContactStatuses returns all declared statuses in declaration order
func ContactStatuses() []ContactStatus {
	return []ContactStatus{
		ContactStatusLead,
		ContactStatusProspect,
		ContactStatusClient,
		ContactStatusLost,
		ContactStatusArchived,
	}
}

// Valid reports whether s is a declared status token
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactStatusLead, ContactStatusProspect, ContactStatusClient, ContactStatusLost, ContactStatusArchived:
		return true
	}
	return false
}

// Contact is a tracked person or organization, the root of the ownership graph.
// Interactions, proposals, and actions are exclusively owned by their contact
// and are removed by the store when the contact is deleted.
type Contact struct {
	ID         int64          `json:"id" db:"id"`
	FirstName  string         `json:"first_name" db:"first_name"`
	LastName   string         `json:"last_name" db:"last_name"`
	Email      *string        `json:"email,omitempty" db:"email"`
	Phone      *string        `json:"phone,omitempty" db:"phone"`
	Company    *string        `json:"company,omitempty" db:"company"`
	JobTitle   *string        `json:"job_title,omitempty" db:"job_title"`
	Status     ContactStatus  `json:"status" db:"status"`
	Source     *string        `json:"source,omitempty" db:"source"`
	OwnerID    *int64         `json:"owner_id,omitempty" db:"owner_id"`
	Tags       pq.StringArray `json:"tags" db:"tags"`
	Notes      *string        `json:"notes,omitempty" db:"notes"`
	NextAction *time.Time     `json:"next_action,omitempty" db:"next_action"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// CreateContactRequest is the request body for creating a contact
type CreateContactRequest struct {
	FirstName  string        `json:"first_name" validate:"required"`
	LastName   string        `json:"last_name" validate:"required"`
	Email      *string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string       `json:"phone,omitempty"`
	Company    *string       `json:"company,omitempty"`
	JobTitle   *string       `json:"job_title,omitempty"`
	Status     ContactStatus `json:"status,omitempty"`
	Source     *string       `json:"source,omitempty"`
	OwnerID    *int64        `json:"owner_id,omitempty"`
	Tags       []string      `json:"tags,omitempty"`
	Notes      *string       `json:"notes,omitempty"`
	NextAction *time.Time    `json:"next_action,omitempty"`
}

// UpdateContactRequest is the request body for partially updating a contact.
// Optional fields distinguish "omitted" from "set to null"; plain pointers are
// used for columns that cannot be null.
type UpdateContactRequest struct {
	FirstName  *string             `json:"first_name,omitempty"`
	LastName   *string             `json:"last_name,omitempty"`
	Email      Optional[string]    `json:"email,omitzero"`
	Phone      Optional[string]    `json:"phone,omitzero"`
	Company    Optional[string]    `json:"company,omitzero"`
	JobTitle   Optional[string]    `json:"job_title,omitzero"`
	Status     *ContactStatus      `json:"status,omitempty"`
	Source     Optional[string]    `json:"source,omitzero"`
	OwnerID    Optional[int64]     `json:"owner_id,omitzero"`
	Tags       *[]string           `json:"tags,omitempty"`
	Notes      Optional[string]    `json:"notes,omitzero"`
	NextAction Optional[time.Time] `json:"next_action,omitzero"`
}

// ContactFilter holds the optional list criteria for contacts.
// Absent criteria are not applied; supplied criteria are combined with AND.
type ContactFilter struct {
	Status *ContactStatus
	Search *string  // case-insensitive substring across first/last name, email, company
	Tags   []string // record must carry every listed tag
}

// ContactResponse is the API response for single-contact operations
type ContactResponse struct {
	Contact
}

// ContactListResponse is the API response for listing contacts
type ContactListResponse struct {
	Items    []Contact `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}
