package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wset-admin-api/internal/dto"
	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
)

type workflowLogStore interface {
	Create(ctx context.Context, entry *models.WorkflowLogEntry) error
	ListByWorkflow(ctx context.Context, workflowStateID string, limit, offset int) ([]models.WorkflowLogEntry, error)
	CountByWorkflow(ctx context.Context, workflowStateID string) (int, error)
	ListRecent(ctx context.Context, limit, offset int) ([]models.WorkflowActivity, error)
	CountAll(ctx context.Context) (int, error)
}

type workflowStateStore interface {
	GetByID(ctx context.Context, id string) (*models.WorkflowState, error)
	Update(ctx context.Context, state *models.WorkflowState) error
}

type candidateFinder interface {
	FindByID(ctx context.Context, id string) (*models.WSETCandidate, error)
}

const unexplainedErrorMessage = "Workflow marked as error without a recorded cause"

// WorkflowLoggerParams groups constructor dependencies.
type WorkflowLoggerParams struct {
	Logs      workflowLogStore
	Workflows workflowStateStore
	// Candidates and Deadlines guard review clearing; without them only the error guard applies.
	Candidates candidateFinder
	Deadlines  *DeadlineValidator
	Cache      cacheInvalidator
	Metrics    *MetricsService
	Logger     *zap.Logger
}

// WorkflowLogger owns the audit trail and every mutation of an existing workflow state.
type WorkflowLogger struct {
	logs       workflowLogStore
	workflows  workflowStateStore
	candidates candidateFinder
	deadlines  *DeadlineValidator
	cache      cacheInvalidator
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewWorkflowLogger constructs the logger service.
func NewWorkflowLogger(params WorkflowLoggerParams) *WorkflowLogger {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowLogger{
		logs:       params.Logs,
		workflows:  params.Workflows,
		candidates: params.Candidates,
		deadlines:  params.Deadlines,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// LogWorkflowAction appends an audit entry. Failures are logged and counted; callers treat the
// returned error as informational.
func (s *WorkflowLogger) LogWorkflowAction(ctx context.Context, entry models.WorkflowLogEntry) error {
	if err := s.appendEntry(ctx, &entry); err != nil {
		s.metrics.RecordAuditFailure()
		s.logger.Error("workflow log write failed",
			zap.String("workflow_state_id", entry.WorkflowStateID),
			zap.String("action", string(entry.Action)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *WorkflowLogger) appendEntry(ctx context.Context, entry *models.WorkflowLogEntry) error {
	if strings.TrimSpace(entry.WorkflowStateID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "workflow log entry requires a workflow state")
	}
	if !entry.Action.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown workflow action %q", entry.Action))
	}
	if len(entry.Details) == 0 {
		entry.Details = json.RawMessage(`{}`)
	} else if !json.Valid(entry.Details) {
		return appErrors.Clone(appErrors.ErrValidation, "workflow log details must be valid JSON")
	}
	entry.CreatedAt = s.now().UTC()
	if err := s.logs.Create(ctx, entry); err != nil {
		return appErrors.WrapAs(appErrors.ErrInternal, err, "failed to write workflow log")
	}
	return nil
}

// UpdateWorkflowState applies a partial update and optionally appends a correlated log entry.
// The update is validated in full before anything is written.
func (s *WorkflowLogger) UpdateWorkflowState(ctx context.Context, id string, update dto.WorkflowUpdate, entry *models.WorkflowLogEntry) (*models.WorkflowState, error) {
	state, err := s.workflows.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "workflow not found")
		}
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load workflow")
	}

	now := s.now().UTC()

	if update.Status != nil {
		next := *update.Status
		if !next.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown workflow status %q", next))
		}
		if !models.CanTransition(state.Status, next) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move workflow from %s to %s", state.Status, next))
		}
		state.Status = next
		if next == models.WorkflowStatusCompleted {
			state.CompletedAt = &now
		}
	}

	if update.Step != nil {
		if !state.SetStep(update.Step.Step, update.Step.Done, now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown workflow step %q", update.Step.Step))
		}
	}

	var message string
	switch {
	case update.Error != nil:
		message = strings.TrimSpace(*update.Error)
		if message == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "error message must not be empty")
		}
	case update.Status != nil && *update.Status == models.WorkflowStatusError:
		message = unexplainedErrorMessage
	}
	if message != "" {
		state.ErrorCount++
		state.LastError = &message
		state.LastErrorAt = &now
	}

	if update.Review != nil {
		if !update.Review.Required {
			if state.ErrorCount > 0 {
				return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "review cannot be cleared while the workflow has recorded errors")
			}
			if err := s.ensureDeadlineAllowsClear(ctx, state, now); err != nil {
				return nil, err
			}
		}
		state.RequiresReview = update.Review.Required
		state.ReviewReason = nil
		if update.Review.Required {
			state.ReviewReason = update.Review.Reason
		}
	}

	if state.ErrorCount > 0 && !state.RequiresReview {
		state.RequiresReview = true
	}
	if state.RequiresReview && state.ReviewReason == nil && state.LastError != nil {
		reason := "Processing error: " + *state.LastError
		state.ReviewReason = &reason
	}

	state.UpdatedAt = now
	if err := s.workflows.Update(ctx, state); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to update workflow")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, statisticsCachePattern); err != nil {
			s.logger.Warn("statistics cache invalidation failed", zap.Error(err))
		}
	}

	if entry != nil {
		entry.WorkflowStateID = state.ID
		_ = s.LogWorkflowAction(ctx, *entry)
	}
	return state, nil
}

// ensureDeadlineAllowsClear refuses to clear review on an active workflow whose candidacy is
// still overdue or inside the approaching-deadline window.
func (s *WorkflowLogger) ensureDeadlineAllowsClear(ctx context.Context, state *models.WorkflowState, now time.Time) error {
	if s.candidates == nil || s.deadlines == nil || state.Status.IsTerminal() || state.CandidateID == "" {
		return nil
	}
	candidate, err := s.candidates.FindByID(ctx, state.CandidateID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load candidate")
	}
	validation := s.deadlines.Validate(candidate.ExamDate, candidate.ExamType, candidate.CourseLevel, now)
	if !s.deadlines.NeedsReview(validation) {
		return nil
	}
	if validation.HasErrors() {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "review cannot be cleared: "+validation.Errors[0])
	}
	return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf(
		"review cannot be cleared while only %d working days remain before the submission deadline", validation.WorkingDaysRemaining))
}

// WorkflowLogs returns a workflow's audit trail, newest first.
func (s *WorkflowLogger) WorkflowLogs(ctx context.Context, workflowStateID string, page, pageSize int) ([]models.WorkflowLogEntry, *models.Pagination, error) {
	page, size, offset := models.NormalisePage(page, pageSize, 50)
	entries, err := s.logs.ListByWorkflow(ctx, workflowStateID, size, offset)
	if err != nil {
		return nil, nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to list workflow logs")
	}
	total, err := s.logs.CountByWorkflow(ctx, workflowStateID)
	if err != nil {
		return nil, nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to count workflow logs")
	}
	if entries == nil {
		entries = []models.WorkflowLogEntry{}
	}
	return entries, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// RecentActivity returns the latest audit entries across all workflows.
func (s *WorkflowLogger) RecentActivity(ctx context.Context, page, pageSize int) ([]models.WorkflowActivity, *models.Pagination, error) {
	page, size, offset := models.NormalisePage(page, pageSize, 20)
	activity, err := s.logs.ListRecent(ctx, size, offset)
	if err != nil {
		return nil, nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to list recent activity")
	}
	total, err := s.logs.CountAll(ctx)
	if err != nil {
		return nil, nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to count recent activity")
	}
	if activity == nil {
		activity = []models.WorkflowActivity{}
	}
	return activity, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
