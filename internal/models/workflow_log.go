package models

import (
	"encoding/json"
	"time"
)

// WorkflowAction is the fixed vocabulary of audit actions.
type WorkflowAction string

const (
	ActionOrderReceived           WorkflowAction = "order_received"
	ActionCandidateCreated        WorkflowAction = "candidate_created"
	ActionFormsGenerated          WorkflowAction = "forms_generated"
	ActionWSETSubmitted           WorkflowAction = "wset_submitted"
	ActionWSETConfirmed           WorkflowAction = "wset_confirmed"
	ActionResultsReceived         WorkflowAction = "results_received"
	ActionCertificatesDistributed WorkflowAction = "certificates_distributed"
	ActionManualReviewStarted     WorkflowAction = "manual_review_started"
	ActionManualReviewCompleted   WorkflowAction = "manual_review_completed"
	ActionProcessingError         WorkflowAction = "processing_error"
	ActionErrorResolved           WorkflowAction = "error_resolved"
	ActionWorkflowRestarted       WorkflowAction = "workflow_restarted"
	ActionDeadlineWarning         WorkflowAction = "deadline_warning"
	ActionComplianceCheck         WorkflowAction = "compliance_check"
)

var workflowActions = map[WorkflowAction]struct{}{
	ActionOrderReceived:           {},
	ActionCandidateCreated:        {},
	ActionFormsGenerated:          {},
	ActionWSETSubmitted:           {},
	ActionWSETConfirmed:           {},
	ActionResultsReceived:         {},
	ActionCertificatesDistributed: {},
	ActionManualReviewStarted:     {},
	ActionManualReviewCompleted:   {},
	ActionProcessingError:         {},
	ActionErrorResolved:           {},
	ActionWorkflowRestarted:       {},
	ActionDeadlineWarning:         {},
	ActionComplianceCheck:         {},
}

// Valid reports whether a belongs to the action vocabulary.
func (a WorkflowAction) Valid() bool {
	_, ok := workflowActions[a]
	return ok
}

// WorkflowLogEntry is an append-only audit record.
type WorkflowLogEntry struct {
	ID              string          `db:"id" json:"id"`
	WorkflowStateID string          `db:"workflow_state_id" json:"workflowStateId"`
	ExamOrderID     *string         `db:"exam_order_id" json:"examOrderId,omitempty"`
	Action          WorkflowAction  `db:"action" json:"action"`
	Details         json.RawMessage `db:"details" json:"details,omitempty"`
	PerformedBy     *string         `db:"performed_by" json:"performedBy,omitempty"`
	Automated       bool            `db:"automated" json:"automated"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// WorkflowActivity is a log entry joined with summary fields of its workflow.
type WorkflowActivity struct {
	WorkflowLogEntry
	OrderNumber    string         `db:"order_number" json:"orderNumber"`
	WorkflowStatus WorkflowStatus `db:"workflow_status" json:"workflowStatus"`
	CandidateName  *string        `db:"candidate_name" json:"candidateName,omitempty"`
}
