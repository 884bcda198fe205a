package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wset-admin-api/internal/models"
	"github.com/noah-isme/wset-admin-api/internal/repository"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
	"github.com/noah-isme/wset-admin-api/pkg/workdays"
)

var formDateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006", "2 January 2006"}

type orderWorkflowStore interface {
	FindByOrderID(ctx context.Context, orderID string) (*models.WorkflowState, error)
	Update(ctx context.Context, state *models.WorkflowState) error
}

type personLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.Person, error)
}

type intakeWriter interface {
	CreateIntake(ctx context.Context, intake *repository.OrderIntake) error
}

type workflowAuditor interface {
	LogWorkflowAction(ctx context.Context, entry models.WorkflowLogEntry) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// OrderProcessorParams groups constructor dependencies.
type OrderProcessorParams struct {
	Workflows             orderWorkflowStore
	People                personLookup
	Intake                intakeWriter
	Audit                 workflowAuditor
	Validator             *DeadlineValidator
	Extractor             CourseExtractor
	Cache                 cacheInvalidator
	Metrics               *MetricsService
	Logger                *zap.Logger
	DefaultExamOffsetDays int
}

// OrderProcessor turns storefront orders into candidate enrollments with a tracked workflow.
type OrderProcessor struct {
	workflows  orderWorkflowStore
	people     personLookup
	intake     intakeWriter
	audit      workflowAuditor
	deadlines  *DeadlineValidator
	extractor  CourseExtractor
	cache      cacheInvalidator
	metrics    *MetricsService
	logger     *zap.Logger
	validate   *validator.Validate
	examOffset int
	now        func() time.Time
}

// NewOrderProcessor constructs the processor.
func NewOrderProcessor(params OrderProcessorParams) *OrderProcessor {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deadlines := params.Validator
	if deadlines == nil {
		deadlines = NewDeadlineValidator(DefaultDeadlineRules(), params.Metrics)
	}
	extractor := params.Extractor
	if extractor == nil {
		extractor = NewHeuristicCourseExtractor()
	}
	offset := params.DefaultExamOffsetDays
	if offset <= 0 {
		offset = 56
	}
	return &OrderProcessor{
		workflows:  params.Workflows,
		people:     params.People,
		intake:     params.Intake,
		audit:      params.Audit,
		deadlines:  deadlines,
		extractor:  extractor,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		validate:   validator.New(),
		examOffset: offset,
		now:        time.Now,
	}
}

// ProcessOrder validates and records an order. Replaying an already processed order returns the
// original identifiers with Duplicate set. Any rejection leaves no records behind.
func (p *OrderProcessor) ProcessOrder(ctx context.Context, order models.Order) (*models.ProcessOrderResult, error) {
	result, err := p.processOrder(ctx, order)
	switch {
	case err != nil:
		p.metrics.RecordOrderOutcome(strings.ToLower(appErrors.FromError(err).Code))
		p.logger.Warn("order rejected", zap.String("order_id", order.ID), zap.Error(err))
	case result.Duplicate:
		p.metrics.RecordOrderOutcome("duplicate")
		p.logger.Info("duplicate order ignored", zap.String("order_id", order.ID), zap.String("workflow_state_id", result.WorkflowStateID))
	default:
		p.metrics.RecordOrderOutcome("accepted")
		p.logger.Info("order accepted",
			zap.String("order_id", order.ID),
			zap.String("workflow_state_id", result.WorkflowStateID),
			zap.Int("warnings", len(result.Warnings)),
		)
	}
	return result, err
}

func (p *OrderProcessor) processOrder(ctx context.Context, order models.Order) (*models.ProcessOrderResult, error) {
	if err := p.validate.Struct(order); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err, "invalid order payload")
	}

	existing, err := p.findExisting(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return duplicateResult(existing), nil
	}

	course, ok := p.extractor.Extract(order)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrExtractionFailed, fmt.Sprintf("No WSET course information found in order %s", orderLabel(order)))
	}

	examDate, defaulted, err := p.resolveExamDate(order)
	if err != nil {
		return nil, err
	}

	now := p.now()
	validation := p.deadlines.Validate(examDate, course.ExamType, course.Level, now)
	if validation.HasErrors() {
		return nil, appErrors.Clone(appErrors.ErrDeadlineViolation, strings.Join(validation.Errors, "; "))
	}

	address := order.Billing
	if address.Empty() {
		address = order.Shipping
	}
	if address.Empty() {
		return nil, appErrors.Clone(appErrors.ErrMissingAddress, fmt.Sprintf("Order %s has neither a billing nor a shipping address", orderLabel(order)))
	}

	warnings := append([]string{}, validation.Warnings...)
	if defaulted {
		warnings = append(warnings, fmt.Sprintf("No exam date supplied: defaulted to %s, %d days after the order", examDate.Format(deadlineDateLayout), p.examOffset))
	}

	email := strings.ToLower(strings.TrimSpace(order.Email))
	person, err := p.people.FindByEmail(ctx, email)
	newPerson := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		person, newPerson = newPersonFromOrder(order, address, email), true
	case err != nil:
		return nil, appErrors.WrapAs(appErrors.ErrPersistenceFailure, err, "Failed to look up customer record")
	}

	candidate := &models.WSETCandidate{
		OrderID:           order.ID,
		OrderNumber:       order.Number,
		CourseType:        course.CourseType,
		CourseLevel:       course.Level,
		ExamDate:          examDate,
		ExamType:          course.ExamType,
		ExamDateDefaulted: defaulted,
		Address:           address.Format(),
	}
	if order.Form != nil {
		candidate.Gender = trimmedOrNil(order.Form.Gender)
		if birthdate, ok := parseFormDate(order.Form.Birthdate); ok {
			candidate.Birthdate = &birthdate
		} else if order.Form.Birthdate != nil && strings.TrimSpace(*order.Form.Birthdate) != "" {
			warnings = append(warnings, fmt.Sprintf("Birthdate %q could not be read and was left blank", *order.Form.Birthdate))
		}
	}

	stamp := now.UTC()
	state := &models.WorkflowState{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      models.WorkflowStatusReceived,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}
	state.SetStep(models.StepOrderReceived, true, stamp)
	state.SetStep(models.StepCandidateCreated, true, stamp)
	if reasons := p.reviewReasons(validation, defaulted); len(reasons) > 0 {
		reason := strings.Join(reasons, "; ")
		state.RequiresReview = true
		state.ReviewReason = &reason
	}

	intake := &repository.OrderIntake{Person: person, NewPerson: newPerson, Candidate: candidate, Workflow: state}
	err = p.intake.CreateIntake(ctx, intake)
	if errors.Is(err, appErrors.ErrConflict) {
		// Lost a race: either the same order was delivered twice or another order created the
		// same customer first.
		existing, findErr := p.findExisting(ctx, order.ID)
		if findErr == nil && existing != nil {
			return duplicateResult(existing), nil
		}
		if newPerson {
			if stored, lookupErr := p.people.FindByEmail(ctx, email); lookupErr == nil {
				intake.Person, intake.NewPerson = stored, false
				err = p.intake.CreateIntake(ctx, intake)
			}
		}
	}
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistenceFailure, err, err.Error())
	}

	p.invalidateStatistics(ctx)
	p.recordIntake(ctx, order, intake, validation, warnings)

	return &models.ProcessOrderResult{
		Success:         true,
		CandidateID:     candidate.ID,
		WorkflowStateID: state.ID,
		Warnings:        warnings,
	}, nil
}

// ReprocessOrder moves a failed workflow back to processing and clears its error state.
func (p *OrderProcessor) ReprocessOrder(ctx context.Context, orderID, performedBy string) (*models.WorkflowState, error) {
	state, err := p.findExisting(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no workflow found for order %s", orderID))
	}
	if state.Status != models.WorkflowStatusError {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("workflow is %s; only workflows in error can be reprocessed", state.Status))
	}

	previousCount := state.ErrorCount
	previousError := state.LastError
	now := p.now().UTC()
	state.Status = models.WorkflowStatusProcessing
	state.ErrorCount = 0
	state.LastError = nil
	state.LastErrorAt = nil
	state.UpdatedAt = now
	if err := p.workflows.Update(ctx, state); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrPersistenceFailure, err, "failed to restart workflow")
	}
	p.invalidateStatistics(ctx)

	details := map[string]interface{}{"previousErrorCount": previousCount}
	if previousError != nil {
		details["previousError"] = *previousError
	}
	entry := models.WorkflowLogEntry{
		WorkflowStateID: state.ID,
		Action:          models.ActionWorkflowRestarted,
		Details:         mustDetails(details),
		Automated:       performedBy == "",
	}
	if performedBy != "" {
		entry.PerformedBy = &performedBy
	}
	p.log(ctx, entry)
	return state, nil
}

func (p *OrderProcessor) findExisting(ctx context.Context, orderID string) (*models.WorkflowState, error) {
	state, err := p.workflows.FindByOrderID(ctx, orderID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, appErrors.WrapAs(appErrors.ErrPersistenceFailure, err, "failed to look up existing workflow")
	}
	return state, nil
}

func (p *OrderProcessor) resolveExamDate(order models.Order) (time.Time, bool, error) {
	if order.Form != nil && order.Form.ExamDate != nil && strings.TrimSpace(*order.Form.ExamDate) != "" {
		date, ok := parseFormDate(order.Form.ExamDate)
		if !ok {
			return time.Time{}, false, appErrors.Clone(appErrors.ErrExtractionFailed, fmt.Sprintf("Exam date %q in order %s is not a valid date", *order.Form.ExamDate, orderLabel(order)))
		}
		return date, false, nil
	}
	if order.CreatedAt.IsZero() {
		return time.Time{}, false, appErrors.Clone(appErrors.ErrExtractionFailed, fmt.Sprintf("Order %s has no exam date and no order date to derive one from", orderLabel(order)))
	}
	return workdays.Date(order.CreatedAt.UTC()).AddDate(0, 0, p.examOffset), true, nil
}

func (p *OrderProcessor) reviewReasons(validation models.DeadlineValidation, defaulted bool) []string {
	reasons := make([]string, 0, 2)
	switch {
	case validation.CanSubmitLate:
		reasons = append(reasons, "Late submission window: standard deadline has passed")
	case p.deadlines.NeedsReview(validation):
		reasons = append(reasons, fmt.Sprintf("Only %d working days remain before the submission deadline", validation.WorkingDaysRemaining))
	}
	if defaulted {
		reasons = append(reasons, "Exam date was not supplied and has been estimated; confirm the sitting with the candidate")
	}
	return reasons
}

func (p *OrderProcessor) recordIntake(ctx context.Context, order models.Order, intake *repository.OrderIntake, validation models.DeadlineValidation, warnings []string) {
	state := intake.Workflow
	candidate := intake.Candidate
	p.log(ctx, models.WorkflowLogEntry{
		WorkflowStateID: state.ID,
		Action:          models.ActionOrderReceived,
		Details: mustDetails(map[string]interface{}{
			"orderNumber": order.Number,
			"email":       intake.Person.Email,
			"lineItems":   len(order.LineItems),
		}),
		Automated: true,
	})
	p.log(ctx, models.WorkflowLogEntry{
		WorkflowStateID: state.ID,
		Action:          models.ActionCandidateCreated,
		Details: mustDetails(map[string]interface{}{
			"candidateId":       candidate.ID,
			"personId":          intake.Person.ID,
			"newPerson":         intake.NewPerson,
			"courseType":        candidate.CourseType,
			"level":             candidate.CourseLevel,
			"examType":          candidate.ExamType,
			"examDate":          candidate.ExamDate.Format("2006-01-02"),
			"examDateDefaulted": candidate.ExamDateDefaulted,
		}),
		Automated: true,
	})
	if state.RequiresReview {
		p.log(ctx, models.WorkflowLogEntry{
			WorkflowStateID: state.ID,
			Action:          models.ActionDeadlineWarning,
			Details: mustDetails(map[string]interface{}{
				"submissionDeadline":   validation.SubmissionDeadline.Format("2006-01-02"),
				"workingDaysRemaining": validation.WorkingDaysRemaining,
				"canSubmitLate":        validation.CanSubmitLate,
				"reason":               state.ReviewReason,
				"warnings":             warnings,
			}),
			Automated: true,
		})
	}
}

func (p *OrderProcessor) log(ctx context.Context, entry models.WorkflowLogEntry) {
	if p.audit == nil {
		return
	}
	// Audit failures are recorded by the logger and never fail the operation.
	_ = p.audit.LogWorkflowAction(ctx, entry)
}

func (p *OrderProcessor) invalidateStatistics(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx, statisticsCachePattern); err != nil {
		p.logger.Warn("statistics cache invalidation failed", zap.Error(err))
	}
}

func duplicateResult(state *models.WorkflowState) *models.ProcessOrderResult {
	return &models.ProcessOrderResult{
		Success:         true,
		Duplicate:       true,
		CandidateID:     state.CandidateID,
		WorkflowStateID: state.ID,
	}
}

func newPersonFromOrder(order models.Order, address *models.Address, email string) *models.Person {
	person := &models.Person{Email: email, FirstName: strings.TrimSpace(address.FirstName), LastName: strings.TrimSpace(address.LastName)}
	for _, alt := range []*models.Address{order.Billing, order.Shipping} {
		if alt == nil {
			continue
		}
		if person.FirstName == "" && person.LastName == "" {
			person.FirstName = strings.TrimSpace(alt.FirstName)
			person.LastName = strings.TrimSpace(alt.LastName)
		}
		if person.Phone == nil {
			person.Phone = trimmedOrNil(&alt.Phone)
		}
	}
	return person
}

func parseFormDate(raw *string) (time.Time, bool) {
	if raw == nil {
		return time.Time{}, false
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range formDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return workdays.Date(parsed), true
		}
	}
	return time.Time{}, false
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func orderLabel(order models.Order) string {
	if order.Number != "" {
		return "#" + order.Number
	}
	return order.ID
}

func mustDetails(details map[string]interface{}) json.RawMessage {
	raw, err := json.Marshal(details)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
