package models

import "time"

// DeadlineValidation is the computed submission status for one exam sitting. It is never
// persisted.
type DeadlineValidation struct {
	ExamDate             time.Time  `json:"examDate"`
	ExamType             ExamType   `json:"examType"`
	Level                int        `json:"level"`
	SubmissionDeadline   time.Time  `json:"submissionDeadline"`
	LateDeadline         *time.Time `json:"lateDeadline,omitempty"`
	WorkingDaysRemaining int        `json:"workingDaysRemaining"`
	IsCompliant          bool       `json:"isCompliant"`
	CanSubmitLate        bool       `json:"canSubmitLate"`
	Warnings             []string   `json:"warnings"`
	Errors               []string   `json:"errors"`
}

// HasErrors reports whether the validation carries a fatal deadline violation.
func (v DeadlineValidation) HasErrors() bool {
	return len(v.Errors) > 0
}

// CanSubmitToday reports whether a submission made on the as-of date would be accepted.
func (v DeadlineValidation) CanSubmitToday() bool {
	return v.IsCompliant || v.CanSubmitLate
}
