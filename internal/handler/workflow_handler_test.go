package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wset-admin-api/internal/dto"
	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
)

type fakeWorkflowQueries struct {
	reviewCalled bool
	statuses     []models.WorkflowStatus
	page, size   int
	err          error
}

func (f *fakeWorkflowQueries) RequiringReview(_ context.Context, page, pageSize int) ([]models.WorkflowDetail, *models.Pagination, error) {
	f.reviewCalled = true
	f.page, f.size = page, pageSize
	return []models.WorkflowDetail{{WorkflowState: models.WorkflowState{ID: "wf-1", RequiresReview: true}}}, &models.Pagination{Page: page, PageSize: 50, TotalCount: 1}, f.err
}

func (f *fakeWorkflowQueries) ByStatus(_ context.Context, statuses []models.WorkflowStatus, page, pageSize int) ([]models.WorkflowDetail, *models.Pagination, error) {
	f.statuses = statuses
	f.page, f.size = page, pageSize
	if f.err != nil {
		return nil, nil, f.err
	}
	return []models.WorkflowDetail{}, &models.Pagination{Page: page, PageSize: pageSize}, nil
}

type fakeWorkflowLogs struct {
	id     string
	update dto.WorkflowUpdate
	entry  *models.WorkflowLogEntry
	err    error
}

func (f *fakeWorkflowLogs) UpdateWorkflowState(_ context.Context, id string, update dto.WorkflowUpdate, entry *models.WorkflowLogEntry) (*models.WorkflowState, error) {
	f.id, f.update, f.entry = id, update, entry
	if f.err != nil {
		return nil, f.err
	}
	return &models.WorkflowState{ID: id, Status: models.WorkflowStatusFormsGenerated}, nil
}

func (f *fakeWorkflowLogs) WorkflowLogs(_ context.Context, id string, page, pageSize int) ([]models.WorkflowLogEntry, *models.Pagination, error) {
	f.id = id
	return []models.WorkflowLogEntry{{ID: "log-1", WorkflowStateID: id, Action: models.ActionOrderReceived}}, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: 1}, nil
}

func (f *fakeWorkflowLogs) RecentActivity(_ context.Context, page, pageSize int) ([]models.WorkflowActivity, *models.Pagination, error) {
	return []models.WorkflowActivity{}, &models.Pagination{Page: page, PageSize: pageSize}, nil
}

func TestWorkflowHandlerListReview(t *testing.T) {
	queries := &fakeWorkflowQueries{}
	c, rec := newTestContext(http.MethodGet, "/workflows?review=true&page=2", nil)

	NewWorkflowHandler(queries, &fakeWorkflowLogs{}).List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, queries.reviewCalled)
	assert.Equal(t, 2, queries.page)
	assert.EqualValues(t, 1, decodeEnvelope(rec).Pagination["total_count"])
}

func TestWorkflowHandlerListByStatus(t *testing.T) {
	queries := &fakeWorkflowQueries{}
	c, rec := newTestContext(http.MethodGet, "/workflows?status=Received,%20error&pageSize=10", nil)

	NewWorkflowHandler(queries, &fakeWorkflowLogs{}).List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, queries.reviewCalled)
	assert.Equal(t, []models.WorkflowStatus{models.WorkflowStatusReceived, models.WorkflowStatusError}, queries.statuses)
	assert.Equal(t, 1, queries.page)
	assert.Equal(t, 10, queries.size)
}

func TestWorkflowHandlerListPropagatesValidation(t *testing.T) {
	queries := &fakeWorkflowQueries{err: appErrors.Clone(appErrors.ErrValidation, `unknown workflow status "bogus"`)}
	c, rec := newTestContext(http.MethodGet, "/workflows?status=bogus", nil)

	NewWorkflowHandler(queries, &fakeWorkflowLogs{}).List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkflowHandlerUpdate(t *testing.T) {
	logs := &fakeWorkflowLogs{}
	body := []byte(`{"status":"FORMS_GENERATED","step":"forms_generated","log":{"action":"forms_generated","details":{"form":"L2"}}}`)
	c, rec := newTestContext(http.MethodPatch, "/workflows/wf-1", body)
	c.Params = gin.Params{{Key: "id", Value: "wf-1"}}
	withStaff(c)

	NewWorkflowHandler(&fakeWorkflowQueries{}, logs).Update(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wf-1", logs.id)
	require.NotNil(t, logs.update.Status)
	assert.Equal(t, models.WorkflowStatusFormsGenerated, *logs.update.Status)
	require.NotNil(t, logs.update.Step)
	assert.Equal(t, models.StepFormsGenerated, logs.update.Step.Step)
	assert.True(t, logs.update.Step.Done)
	require.NotNil(t, logs.entry)
	assert.Equal(t, models.ActionFormsGenerated, logs.entry.Action)
	require.NotNil(t, logs.entry.PerformedBy)
	assert.Equal(t, "staff-1", *logs.entry.PerformedBy)
	assert.False(t, logs.entry.Automated)
	assert.JSONEq(t, `{"form":"L2"}`, string(logs.entry.Details))
}

func TestWorkflowHandlerUpdateRejectsEmptyPayload(t *testing.T) {
	logs := &fakeWorkflowLogs{}
	c, rec := newTestContext(http.MethodPatch, "/workflows/wf-1", []byte(`{}`))
	c.Params = gin.Params{{Key: "id", Value: "wf-1"}}
	withStaff(c)

	NewWorkflowHandler(&fakeWorkflowQueries{}, logs).Update(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, logs.id)
}

func TestWorkflowHandlerUpdateInvalidTransition(t *testing.T) {
	logs := &fakeWorkflowLogs{err: appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move workflow from completed to processing")}
	c, rec := newTestContext(http.MethodPatch, "/workflows/wf-1", []byte(`{"status":"processing"}`))
	c.Params = gin.Params{{Key: "id", Value: "wf-1"}}
	withStaff(c)

	NewWorkflowHandler(&fakeWorkflowQueries{}, logs).Update(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeEnvelope(rec).Error["code"])
}

func TestToWorkflowUpdate(t *testing.T) {
	reason := "candidate asked to move sitting"
	review := true
	update, err := toWorkflowUpdate(dto.UpdateWorkflowRequest{RequiresReview: &review, ReviewReason: &reason})
	require.NoError(t, err)
	require.NotNil(t, update.Review)
	assert.True(t, update.Review.Required)
	assert.Equal(t, &reason, update.Review.Reason)

	done := false
	_, err = toWorkflowUpdate(dto.UpdateWorkflowRequest{StepDone: &done})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = toWorkflowUpdate(dto.UpdateWorkflowRequest{ReviewReason: &reason})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestWorkflowHandlerLogsAndActivity(t *testing.T) {
	logs := &fakeWorkflowLogs{}
	handler := NewWorkflowHandler(&fakeWorkflowQueries{}, logs)

	c, rec := newTestContext(http.MethodGet, "/workflows/wf-1/logs?page=1&pageSize=5", nil)
	c.Params = gin.Params{{Key: "id", Value: "wf-1"}}
	handler.Logs(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wf-1", logs.id)
	assert.EqualValues(t, 5, decodeEnvelope(rec).Pagination["page_size"])

	c, rec = newTestContext(http.MethodGet, "/activity", nil)
	handler.Activity(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(rec).Data))
}
