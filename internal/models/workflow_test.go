package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to WorkflowStatus
		want     bool
	}{
		{WorkflowStatusReceived, WorkflowStatusProcessing, true},
		{WorkflowStatusProcessing, WorkflowStatusSubmitted, true},
		{WorkflowStatusSubmitted, WorkflowStatusProcessing, false},
		{WorkflowStatusConfirmed, WorkflowStatusCompleted, true},
		{WorkflowStatusReceived, WorkflowStatusError, true},
		{WorkflowStatusCompleted, WorkflowStatusError, false},
		{WorkflowStatusError, WorkflowStatusProcessing, false},
		{WorkflowStatusCompleted, WorkflowStatusCompleted, false},
		{WorkflowStatusProcessing, WorkflowStatusProcessing, true},
		{WorkflowStatus("archived"), WorkflowStatusProcessing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestSetStepPairsFlagWithTimestamp(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var state WorkflowState

	assert.True(t, state.SetStep(StepFormsGenerated, true, now))
	assert.True(t, state.FormsGenerated)
	if assert.NotNil(t, state.FormsGeneratedAt) {
		assert.Equal(t, now, *state.FormsGeneratedAt)
	}

	assert.True(t, state.SetStep(StepFormsGenerated, false, now))
	assert.False(t, state.FormsGenerated)
	assert.Nil(t, state.FormsGeneratedAt)

	assert.False(t, state.SetStep(WorkflowStep("printed"), true, now))
}

func TestWorkflowActionVocabulary(t *testing.T) {
	assert.True(t, ActionDeadlineWarning.Valid())
	assert.True(t, ActionComplianceCheck.Valid())
	assert.False(t, WorkflowAction("something_else").Valid())
}

func TestAddressFormat(t *testing.T) {
	addr := &Address{Line1: "1 Vine St", City: "Bristol", PostalCode: "BS1 4DJ", Country: "GB"}
	assert.Equal(t, "1 Vine St, Bristol BS1 4DJ, GB", addr.Format())
	assert.False(t, addr.Empty())
	assert.True(t, (&Address{FirstName: "Ann"}).Empty())
	var missing *Address
	assert.True(t, missing.Empty())
}
