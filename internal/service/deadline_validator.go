package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/wset-admin-api/internal/models"
	"github.com/noah-isme/wset-admin-api/pkg/workdays"
)

const deadlineDateLayout = "Mon 2 Jan 2006"

// DeadlineRules holds the exam-board lead times and urgency thresholds in working days.
type DeadlineRules struct {
	PDFLeadDays     int
	RILeadDays      int
	LateLeadDays    int
	UrgentDays      int
	ApproachingDays int

	// Location decides which calendar day asOf falls on. Nil keeps asOf's own location.
	Location *time.Location
}

// DefaultDeadlineRules returns the exam-board defaults.
func DefaultDeadlineRules() DeadlineRules {
	return DeadlineRules{
		PDFLeadDays:     10,
		RILeadDays:      7,
		LateLeadDays:    2,
		UrgentDays:      2,
		ApproachingDays: 5,
	}
}

func (r DeadlineRules) withDefaults() DeadlineRules {
	def := DefaultDeadlineRules()
	if r.PDFLeadDays <= 0 {
		r.PDFLeadDays = def.PDFLeadDays
	}
	if r.RILeadDays <= 0 {
		r.RILeadDays = def.RILeadDays
	}
	if r.LateLeadDays <= 0 {
		r.LateLeadDays = def.LateLeadDays
	}
	if r.UrgentDays <= 0 {
		r.UrgentDays = def.UrgentDays
	}
	if r.ApproachingDays <= 0 {
		r.ApproachingDays = def.ApproachingDays
	}
	return r
}

// DeadlineValidator computes submission deadlines for exam sittings.
type DeadlineValidator struct {
	rules   DeadlineRules
	metrics *MetricsService
}

// NewDeadlineValidator constructs a validator. Zero rule values fall back to the defaults.
func NewDeadlineValidator(rules DeadlineRules, metrics *MetricsService) *DeadlineValidator {
	return &DeadlineValidator{rules: rules.withDefaults(), metrics: metrics}
}

// Rules exposes the effective rules.
func (v *DeadlineValidator) Rules() DeadlineRules {
	return v.rules
}

// LeadDays returns the working days of notice the exam board needs for a modality.
func (v *DeadlineValidator) LeadDays(examType models.ExamType) int {
	if examType == models.ExamTypeRI {
		return v.rules.RILeadDays
	}
	return v.rules.PDFLeadDays
}

// Validate checks whether an exam sitting can still be submitted as of asOf.
func (v *DeadlineValidator) Validate(examDate time.Time, examType models.ExamType, level int, asOf time.Time) models.DeadlineValidation {
	exam := workdays.Date(examDate)
	today := v.calendarDay(asOf, exam.Location())

	result := models.DeadlineValidation{
		ExamDate: exam,
		ExamType: examType,
		Level:    level,
		Warnings: []string{},
		Errors:   []string{},
	}

	if !examType.Valid() {
		result.Errors = append(result.Errors, fmt.Sprintf("Unsupported exam type %q: expected PDF or RI", examType))
		v.record(result)
		return result
	}
	if level < 1 || level > 4 {
		result.Errors = append(result.Errors, fmt.Sprintf("Unsupported qualification level %d: expected 1 to 4", level))
		v.record(result)
		return result
	}

	lead := v.LeadDays(examType)
	result.SubmissionDeadline = workdays.Add(exam, -lead)

	remaining := workdays.Between(today, result.SubmissionDeadline)
	if remaining < 0 {
		remaining = 0
	}
	result.WorkingDaysRemaining = remaining
	result.IsCompliant = !today.After(result.SubmissionDeadline)

	switch {
	case !result.IsCompliant && level == 1 && examType == models.ExamTypePDF:
		late := workdays.Add(exam, -v.rules.LateLeadDays)
		result.LateDeadline = &late
		if !today.After(late) {
			result.CanSubmitLate = true
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Standard deadline (%s) has passed. Late submission is possible for Level 1 PDF exams until %s; late fees may apply",
				result.SubmissionDeadline.Format(deadlineDateLayout), late.Format(deadlineDateLayout)))
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"Submission deadline has passed. Even the late submission deadline (%d working days before the exam) was %s",
				v.rules.LateLeadDays, late.Format(deadlineDateLayout)))
		}
	case !result.IsCompliant:
		result.Errors = append(result.Errors, fmt.Sprintf(
			"Submission deadline passed on %s: %s exams require at least %d working days' notice before the exam date",
			result.SubmissionDeadline.Format(deadlineDateLayout), examType, lead))
	case remaining <= v.rules.UrgentDays:
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"URGENT: only %d working day(s) left before the submission deadline on %s",
			remaining, result.SubmissionDeadline.Format(deadlineDateLayout)))
	case remaining <= v.rules.ApproachingDays:
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"Submission deadline approaching: %d working days left (deadline %s)",
			remaining, result.SubmissionDeadline.Format(deadlineDateLayout)))
	}

	if examType == models.ExamTypeRI {
		result.Warnings = append(result.Warnings, "Remote invigilation exam: confirm the candidate meets the technical requirements before submission")
	}
	if level >= 3 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Level %d qualification: verify the candidate holds the required prerequisites", level))
	}

	v.record(result)
	return result
}

// CanSubmitToday reports whether a submission made on asOf would be accepted.
func (v *DeadlineValidator) CanSubmitToday(examDate time.Time, examType models.ExamType, level int, asOf time.Time) bool {
	return v.Validate(examDate, examType, level, asOf).CanSubmitToday()
}

// NextSubmissionDate returns the latest date a submission is still accepted, or nil when neither
// the standard nor the late window is open any more.
func (v *DeadlineValidator) NextSubmissionDate(examDate time.Time, examType models.ExamType, level int, asOf time.Time) *time.Time {
	result := v.Validate(examDate, examType, level, asOf)
	switch {
	case result.IsCompliant:
		deadline := result.SubmissionDeadline
		return &deadline
	case result.CanSubmitLate && result.LateDeadline != nil:
		late := *result.LateDeadline
		return &late
	default:
		return nil
	}
}

// NeedsReview reports whether a validation should put its workflow in the manual review queue.
func (v *DeadlineValidator) NeedsReview(result models.DeadlineValidation) bool {
	return result.HasErrors() || result.WorkingDaysRemaining <= v.rules.ApproachingDays
}

// calendarDay returns the business calendar date of asOf, expressed at midnight in loc so it
// compares directly with exam dates.
func (v *DeadlineValidator) calendarDay(asOf time.Time, loc *time.Location) time.Time {
	if v.rules.Location != nil {
		asOf = asOf.In(v.rules.Location)
	}
	y, m, d := asOf.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func (v *DeadlineValidator) record(result models.DeadlineValidation) {
	if v.metrics == nil {
		return
	}
	switch {
	case result.HasErrors():
		v.metrics.RecordDeadlineValidation("overdue")
	case result.CanSubmitLate:
		v.metrics.RecordDeadlineValidation("late")
	default:
		v.metrics.RecordDeadlineValidation("compliant")
	}
}
