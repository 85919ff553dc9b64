package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumValidation(t *testing.T) {
	assert.True(t, ContactStatusLead.Valid())
	assert.False(t, ContactStatus("vip").Valid())

	assert.True(t, InteractionTypeCall.Valid())
	assert.False(t, InteractionType("fax").Valid())

	assert.True(t, ProposalStatusSubmitted.Valid())
	assert.False(t, ProposalStatus("pending").Valid())

	assert.True(t, ActionStatusPending.Valid())
	assert.False(t, ActionStatus("open").Valid())

	assert.True(t, ActionPriorityUrgent.Valid())
	assert.False(t, ActionPriority("critical").Valid())

	assert.True(t, ActionTypeFollowUp.Valid())
	assert.False(t, ActionType("ping").Valid())
}

func TestEnumDefaults(t *testing.T) {
	assert.Equal(t, ContactStatusLead, DefaultContactStatus)
	assert.Equal(t, InteractionTypeNote, DefaultInteractionType)
	assert.Equal(t, ProposalStatusDraft, DefaultProposalStatus)
	assert.Equal(t, ActionStatusPending, DefaultActionStatus)
	assert.Equal(t, ActionPriorityMedium, DefaultActionPriority)
	assert.Equal(t, ActionTypeOther, DefaultActionType)
}
