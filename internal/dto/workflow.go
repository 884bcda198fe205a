package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/wset-admin-api/internal/models"
)

// WorkflowUpdate is a partial update applied to a workflow state. Nil fields are left untouched.
type WorkflowUpdate struct {
	Status *models.WorkflowStatus
	Step   *StepUpdate
	Review *ReviewUpdate
	// Error, when set, increments the error counter and records the message.
	Error *string
}

// StepUpdate flips one pipeline milestone.
type StepUpdate struct {
	Step models.WorkflowStep
	Done bool
}

// ReviewUpdate sets or clears the manual review flag.
type ReviewUpdate struct {
	Required bool
	Reason   *string
}

// UpdateWorkflowRequest is the HTTP payload for PATCH /workflows/:id.
type UpdateWorkflowRequest struct {
	Status         *string          `json:"status,omitempty"`
	Step           *string          `json:"step,omitempty"`
	StepDone       *bool            `json:"stepDone,omitempty"`
	RequiresReview *bool            `json:"requiresReview,omitempty"`
	ReviewReason   *string          `json:"reviewReason,omitempty"`
	Error          *string          `json:"error,omitempty"`
	Log            *LogEntryRequest `json:"log,omitempty"`
}

// LogEntryRequest carries an optional audit entry correlated with an update.
type LogEntryRequest struct {
	Action      string          `json:"action" validate:"required"`
	ExamOrderID *string         `json:"examOrderId,omitempty"`
	Details     json.RawMessage `json:"details,omitempty"`
}

// DeadlineCheckQuery is the query string for ad-hoc deadline checks.
type DeadlineCheckQuery struct {
	ExamDate string `form:"examDate" validate:"required"`
	ExamType string `form:"examType" validate:"required,oneof=PDF RI pdf ri"`
	Level    int    `form:"level" validate:"required,min=1,max=4"`
	AsOf     string `form:"asOf"`
}

// DeadlineCheckResponse is the result of an ad-hoc deadline check.
type DeadlineCheckResponse struct {
	models.DeadlineValidation
	CanSubmitToday     bool       `json:"canSubmitToday"`
	NextSubmissionDate *time.Time `json:"nextSubmissionDate,omitempty"`
}
