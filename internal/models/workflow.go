package models

import "time"

// WorkflowStatus tracks an order's progress through the exam-submission pipeline.
type WorkflowStatus string

const (
	WorkflowStatusReceived       WorkflowStatus = "received"
	WorkflowStatusProcessing     WorkflowStatus = "processing"
	WorkflowStatusFormsGenerated WorkflowStatus = "forms_generated"
	WorkflowStatusSubmitted      WorkflowStatus = "submitted"
	WorkflowStatusConfirmed      WorkflowStatus = "confirmed"
	WorkflowStatusCompleted      WorkflowStatus = "completed"
	WorkflowStatusError          WorkflowStatus = "error"
)

var workflowProgression = []WorkflowStatus{
	WorkflowStatusReceived,
	WorkflowStatusProcessing,
	WorkflowStatusFormsGenerated,
	WorkflowStatusSubmitted,
	WorkflowStatusConfirmed,
	WorkflowStatusCompleted,
}

func (s WorkflowStatus) rank() int {
	for i, status := range workflowProgression {
		if status == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the known statuses.
func (s WorkflowStatus) Valid() bool {
	return s == WorkflowStatusError || s.rank() >= 0
}

// IsTerminal reports whether no further automatic progress is expected.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusError
}

// CanTransition reports whether a workflow may move from one status to another. Progress is
// forward-only, error is reachable from any non-terminal status and completed is final.
// Leaving error is reserved for manual reprocessing.
func CanTransition(from, to WorkflowStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return !from.IsTerminal()
	}
	if from.IsTerminal() {
		return false
	}
	if to == WorkflowStatusError {
		return true
	}
	return to.rank() > from.rank()
}

// WorkflowStep names one of the boolean pipeline milestones on a workflow state.
type WorkflowStep string

const (
	StepOrderReceived           WorkflowStep = "order_received"
	StepCandidateCreated        WorkflowStep = "candidate_created"
	StepFormsGenerated          WorkflowStep = "forms_generated"
	StepWSETSubmitted           WorkflowStep = "wset_submitted"
	StepWSETConfirmed           WorkflowStep = "wset_confirmed"
	StepResultsReceived         WorkflowStep = "results_received"
	StepCertificatesDistributed WorkflowStep = "certificates_distributed"
)

// WorkflowSteps lists the pipeline milestones in order.
var WorkflowSteps = []WorkflowStep{
	StepOrderReceived,
	StepCandidateCreated,
	StepFormsGenerated,
	StepWSETSubmitted,
	StepWSETConfirmed,
	StepResultsReceived,
	StepCertificatesDistributed,
}

// Valid reports whether s is a known step.
func (s WorkflowStep) Valid() bool {
	for _, step := range WorkflowSteps {
		if step == s {
			return true
		}
	}
	return false
}

// WorkflowState is the persisted record tracking one source order through the pipeline.
type WorkflowState struct {
	ID          string         `db:"id" json:"id"`
	OrderID     string         `db:"order_id" json:"orderId"`
	OrderNumber string         `db:"order_number" json:"orderNumber"`
	CandidateID string         `db:"candidate_id" json:"candidateId"`
	Status      WorkflowStatus `db:"status" json:"status"`

	OrderReceived             bool       `db:"order_received" json:"orderReceived"`
	OrderReceivedAt           *time.Time `db:"order_received_at" json:"orderReceivedAt,omitempty"`
	CandidateCreated          bool       `db:"candidate_created" json:"candidateCreated"`
	CandidateCreatedAt        *time.Time `db:"candidate_created_at" json:"candidateCreatedAt,omitempty"`
	FormsGenerated            bool       `db:"forms_generated" json:"formsGenerated"`
	FormsGeneratedAt          *time.Time `db:"forms_generated_at" json:"formsGeneratedAt,omitempty"`
	WSETSubmitted             bool       `db:"wset_submitted" json:"wsetSubmitted"`
	WSETSubmittedAt           *time.Time `db:"wset_submitted_at" json:"wsetSubmittedAt,omitempty"`
	WSETConfirmed             bool       `db:"wset_confirmed" json:"wsetConfirmed"`
	WSETConfirmedAt           *time.Time `db:"wset_confirmed_at" json:"wsetConfirmedAt,omitempty"`
	ResultsReceived           bool       `db:"results_received" json:"resultsReceived"`
	ResultsReceivedAt         *time.Time `db:"results_received_at" json:"resultsReceivedAt,omitempty"`
	CertificatesDistributed   bool       `db:"certificates_distributed" json:"certificatesDistributed"`
	CertificatesDistributedAt *time.Time `db:"certificates_distributed_at" json:"certificatesDistributedAt,omitempty"`

	RequiresReview bool    `db:"requires_review" json:"requiresReview"`
	ReviewReason   *string `db:"review_reason" json:"reviewReason,omitempty"`

	ErrorCount  int        `db:"error_count" json:"errorCount"`
	LastError   *string    `db:"last_error" json:"lastError,omitempty"`
	LastErrorAt *time.Time `db:"last_error_at" json:"lastErrorAt,omitempty"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// SetStep flips a step flag, stamping the paired timestamp on true and clearing it on false.
func (w *WorkflowState) SetStep(step WorkflowStep, done bool, at time.Time) bool {
	var flag *bool
	var stamp **time.Time
	switch step {
	case StepOrderReceived:
		flag, stamp = &w.OrderReceived, &w.OrderReceivedAt
	case StepCandidateCreated:
		flag, stamp = &w.CandidateCreated, &w.CandidateCreatedAt
	case StepFormsGenerated:
		flag, stamp = &w.FormsGenerated, &w.FormsGeneratedAt
	case StepWSETSubmitted:
		flag, stamp = &w.WSETSubmitted, &w.WSETSubmittedAt
	case StepWSETConfirmed:
		flag, stamp = &w.WSETConfirmed, &w.WSETConfirmedAt
	case StepResultsReceived:
		flag, stamp = &w.ResultsReceived, &w.ResultsReceivedAt
	case StepCertificatesDistributed:
		flag, stamp = &w.CertificatesDistributed, &w.CertificatesDistributedAt
	default:
		return false
	}
	*flag = done
	if done {
		ts := at
		*stamp = &ts
	} else {
		*stamp = nil
	}
	return true
}

// WorkflowDetail is a workflow state joined with its candidate enrollment and person.
type WorkflowDetail struct {
	WorkflowState
	Candidate *WSETCandidate `json:"candidate,omitempty"`
	Person    *Person        `json:"person,omitempty"`
}

// WorkflowFilter constrains workflow listing queries.
type WorkflowFilter struct {
	Status         []WorkflowStatus
	RequiresReview *bool
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}
