package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wset-admin-api/internal/dto"
	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
	"github.com/noah-isme/wset-admin-api/pkg/export"
)

const statisticsCachePattern = "stats:*"

var activeStatuses = []models.WorkflowStatus{
	models.WorkflowStatusReceived,
	models.WorkflowStatusProcessing,
	models.WorkflowStatusFormsGenerated,
	models.WorkflowStatusSubmitted,
	models.WorkflowStatusConfirmed,
}

type dashboardWorkflowStore interface {
	List(ctx context.Context, filter models.WorkflowFilter) ([]models.WorkflowState, error)
	Count(ctx context.Context, filter models.WorkflowFilter) (int, error)
	ListDetailed(ctx context.Context, filter models.WorkflowFilter) ([]models.WorkflowDetail, error)
}

type activityFeed interface {
	RecentActivity(ctx context.Context, page, pageSize int) ([]models.WorkflowActivity, *models.Pagination, error)
}

type workflowUpdater interface {
	UpdateWorkflowState(ctx context.Context, id string, update dto.WorkflowUpdate, entry *models.WorkflowLogEntry) (*models.WorkflowState, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL            time.Duration
	RecentActivityLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Workflows dashboardWorkflowStore
	Activity  activityFeed
	Updater   workflowUpdater
	Validator *DeadlineValidator
	Cache     *CacheService
	Logger    *zap.Logger
	Config    DashboardServiceConfig
}

// DashboardService aggregates workflow states with live deadline validations.
type DashboardService struct {
	workflows dashboardWorkflowStore
	activity  activityFeed
	updater   workflowUpdater
	deadlines *DeadlineValidator
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
	cfg       DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentActivityLimit <= 0 {
		cfg.RecentActivityLimit = 20
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deadlines := params.Validator
	if deadlines == nil {
		deadlines = NewDeadlineValidator(DefaultDeadlineRules(), nil)
	}
	return &DashboardService{
		workflows: params.Workflows,
		activity:  params.Activity,
		updater:   params.Updater,
		deadlines: deadlines,
		cache:     params.Cache,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

func emptyDashboard(now time.Time) *dto.DashboardData {
	return &dto.DashboardData{
		Workflows:           []models.WorkflowDetail{},
		DeadlineValidations: []dto.WorkflowDeadline{},
		RecentActivity:      []models.WorkflowActivity{},
		GeneratedAt:         now,
	}
}

// GetDashboardData always returns a renderable payload. When a source fails the payload is empty
// and the error reports why, so callers can surface a degraded state.
func (s *DashboardService) GetDashboardData(ctx context.Context) (*dto.DashboardData, error) {
	now := s.now()
	workflows, err := s.workflows.ListDetailed(ctx, models.WorkflowFilter{})
	if err != nil {
		s.logger.Error("dashboard workflows unavailable", zap.Error(err))
		return emptyDashboard(now), appErrors.WrapAs(appErrors.ErrInternal, err, "dashboard workflows unavailable")
	}
	activity, _, err := s.activity.RecentActivity(ctx, 1, s.cfg.RecentActivityLimit)
	if err != nil {
		s.logger.Error("dashboard activity unavailable", zap.Error(err))
		return emptyDashboard(now), appErrors.WrapAs(appErrors.ErrInternal, err, "dashboard activity unavailable")
	}

	data := emptyDashboard(now)
	data.Workflows = workflows
	data.RecentActivity = activity
	data.Stats.TotalWorkflows = len(workflows)

	for i := range workflows {
		wf := &workflows[i]
		switch wf.Status {
		case models.WorkflowStatusCompleted:
			data.Stats.CompletedWorkflows++
			continue
		case models.WorkflowStatusError:
			data.Stats.ErrorWorkflows++
			continue
		}
		data.Stats.ActiveWorkflows++
		if wf.Candidate == nil {
			continue
		}

		validation := s.deadlines.Validate(wf.Candidate.ExamDate, wf.Candidate.ExamType, wf.Candidate.CourseLevel, now)
		data.DeadlineValidations = append(data.DeadlineValidations, dto.WorkflowDeadline{
			WorkflowStateID: wf.ID,
			OrderNumber:     wf.OrderNumber,
			CandidateName:   candidateName(*wf),
			Validation:      validation,
		})
		switch {
		case validation.HasErrors():
			data.Stats.OverdueDeadlines++
		case validation.WorkingDaysRemaining <= s.deadlines.Rules().UrgentDays:
			data.Stats.UrgentDeadlines++
		}

		if !wf.RequiresReview && s.deadlines.NeedsReview(validation) {
			if s.flagForReview(ctx, wf.ID, validation) {
				wf.RequiresReview = true
			}
		}
	}
	return data, nil
}

// SweepCompliance re-validates active workflows that are not yet flagged and raises review on
// those whose deadline is close or already missed. It returns how many were flagged.
func (s *DashboardService) SweepCompliance(ctx context.Context) (int, error) {
	notFlagged := false
	workflows, err := s.workflows.ListDetailed(ctx, models.WorkflowFilter{Status: activeStatuses, RequiresReview: &notFlagged})
	if err != nil {
		return 0, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load active workflows")
	}
	now := s.now()
	flagged := 0
	for _, wf := range workflows {
		if wf.Candidate == nil || wf.RequiresReview {
			continue
		}
		validation := s.deadlines.Validate(wf.Candidate.ExamDate, wf.Candidate.ExamType, wf.Candidate.CourseLevel, now)
		if s.deadlines.NeedsReview(validation) && s.flagForReview(ctx, wf.ID, validation) {
			flagged++
		}
	}
	if flagged > 0 {
		s.logger.Info("compliance sweep flagged workflows", zap.Int("flagged", flagged), zap.Int("checked", len(workflows)))
	}
	return flagged, nil
}

func (s *DashboardService) flagForReview(ctx context.Context, workflowID string, validation models.DeadlineValidation) bool {
	if s.updater == nil {
		return false
	}
	reason := fmt.Sprintf("Compliance check: %d working days remain before the submission deadline", validation.WorkingDaysRemaining)
	if validation.HasErrors() {
		reason = "Compliance check: " + validation.Errors[0]
	}
	details := mustDetails(map[string]interface{}{
		"submissionDeadline":   validation.SubmissionDeadline.Format("2006-01-02"),
		"workingDaysRemaining": validation.WorkingDaysRemaining,
		"errors":               validation.Errors,
		"warnings":             validation.Warnings,
	})
	_, err := s.updater.UpdateWorkflowState(ctx, workflowID,
		dto.WorkflowUpdate{Review: &dto.ReviewUpdate{Required: true, Reason: &reason}},
		&models.WorkflowLogEntry{Action: models.ActionComplianceCheck, Details: details, Automated: true},
	)
	if err != nil {
		s.logger.Warn("compliance re-flag failed", zap.String("workflow_state_id", workflowID), zap.Error(err))
		return false
	}
	return true
}

// RequiringReview lists workflows flagged for manual review.
func (s *DashboardService) RequiringReview(ctx context.Context, page, pageSize int) ([]models.WorkflowDetail, *models.Pagination, error) {
	review := true
	return s.listDetailed(ctx, models.WorkflowFilter{RequiresReview: &review}, page, pageSize)
}

// ByStatus lists workflows in the given statuses; no statuses lists everything.
func (s *DashboardService) ByStatus(ctx context.Context, statuses []models.WorkflowStatus, page, pageSize int) ([]models.WorkflowDetail, *models.Pagination, error) {
	for _, status := range statuses {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown workflow status %q", status))
		}
	}
	return s.listDetailed(ctx, models.WorkflowFilter{Status: statuses}, page, pageSize)
}

func (s *DashboardService) listDetailed(ctx context.Context, filter models.WorkflowFilter, page, pageSize int) ([]models.WorkflowDetail, *models.Pagination, error) {
	page, size, offset := models.NormalisePage(page, pageSize, 50)
	filter.Limit = size
	filter.Offset = offset
	items, err := s.workflows.ListDetailed(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to list workflows")
	}
	total, err := s.workflows.Count(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to count workflows")
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Statistics reports throughput for workflows created in [from, to). The bool reports a cache hit.
func (s *DashboardService) Statistics(ctx context.Context, from, to time.Time) (*dto.WorkflowStatistics, bool, error) {
	if from.IsZero() || to.IsZero() || !from.Before(to) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	from, to = from.UTC(), to.UTC()
	key := fmt.Sprintf("stats:%s:%s", from.Format(time.RFC3339), to.Format(time.RFC3339))

	var cached dto.WorkflowStatistics
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	states, err := s.workflows.List(ctx, models.WorkflowFilter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return nil, false, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load workflow statistics")
	}
	stats := computeStatistics(from, to, states)
	if err := s.cache.Set(ctx, key, stats, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("statistics cache write failed", zap.String("key", key), zap.Error(err))
	}
	return stats, false, nil
}

func computeStatistics(from, to time.Time, states []models.WorkflowState) *dto.WorkflowStatistics {
	stats := &dto.WorkflowStatistics{From: from, To: to, OrdersReceived: len(states)}
	var totalHours float64
	completed, failed := 0, 0
	for _, st := range states {
		if st.FormsGenerated {
			stats.FormsGenerated++
		}
		if st.WSETSubmitted {
			stats.SubmissionsCompleted++
		}
		if st.Status == models.WorkflowStatusError {
			failed++
		}
		if st.Status == models.WorkflowStatusCompleted && st.CompletedAt != nil {
			completed++
			totalHours += st.CompletedAt.Sub(st.CreatedAt).Hours()
		}
	}
	if completed > 0 {
		stats.AverageProcessingHours = round2(totalHours / float64(completed))
	}
	if len(states) > 0 {
		stats.ErrorRate = round2(float64(failed) / float64(len(states)) * 100)
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var deadlineBoardHeaders = []string{"Order", "Candidate", "Level", "Exam type", "Exam date", "Submission deadline", "Working days left", "Status", "Review"}

// ExportDeadlineBoard renders every active workflow with its live deadline position.
func (s *DashboardService) ExportDeadlineBoard(ctx context.Context, format export.Format) (*export.Document, error) {
	workflows, err := s.workflows.ListDetailed(ctx, models.WorkflowFilter{Status: activeStatuses})
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrInternal, err, "failed to load workflows for export")
	}
	now := s.now()
	data := export.Dataset{
		Title:   "WSET submission deadlines as of " + now.Format(deadlineDateLayout),
		Headers: deadlineBoardHeaders,
		Rows:    make([]map[string]string, 0, len(workflows)),
		Flagged: map[int]bool{},
	}
	for _, wf := range workflows {
		row := map[string]string{
			"Order":  wf.OrderNumber,
			"Status": string(wf.Status),
			"Review": strconv.FormatBool(wf.RequiresReview),
		}
		if wf.Candidate != nil {
			validation := s.deadlines.Validate(wf.Candidate.ExamDate, wf.Candidate.ExamType, wf.Candidate.CourseLevel, now)
			row["Candidate"] = candidateName(wf)
			row["Level"] = strconv.Itoa(wf.Candidate.CourseLevel)
			row["Exam type"] = string(wf.Candidate.ExamType)
			row["Exam date"] = wf.Candidate.ExamDate.Format("2006-01-02")
			row["Submission deadline"] = validation.SubmissionDeadline.Format("2006-01-02")
			row["Working days left"] = strconv.Itoa(validation.WorkingDaysRemaining)
			if validation.HasErrors() || validation.WorkingDaysRemaining <= s.deadlines.Rules().UrgentDays {
				data.Flagged[len(data.Rows)] = true
			}
		}
		data.Rows = append(data.Rows, row)
	}
	doc, err := export.Render(format, data, "deadline-board-"+now.Format("20060102"))
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err, err.Error())
	}
	return doc, nil
}

func candidateName(detail models.WorkflowDetail) string {
	if detail.Person == nil {
		return ""
	}
	return detail.Person.FullName()
}
