package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wset-admin-api/internal/models"
)

var logColumnNames = []string{"id", "workflow_state_id", "exam_order_id", "action", "details", "performed_by", "automated", "created_at"}

func TestWorkflowLogRepositoryCreateDefaultsDetails(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.WorkflowLogEntry{WorkflowStateID: "wf-1", Action: models.ActionOrderReceived, Automated: true}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.JSONEq(t, `{}`, string(entry.Details))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowLogRepositoryListByWorkflow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowLogRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_logs l WHERE l.workflow_state_id = $1")).
		WithArgs("wf-1").
		WillReturnRows(sqlmock.NewRows(logColumnNames).
			AddRow("log-2", "wf-1", nil, "candidate_created", []byte(`{"level":2}`), nil, true, now).
			AddRow("log-1", "wf-1", nil, "order_received", []byte(`{}`), nil, true, now.Add(-time.Second)))

	entries, err := repo.ListByWorkflow(context.Background(), "wf-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionCandidateCreated, entries[0].Action)
	assert.JSONEq(t, `{"level":2}`, string(entries[0].Details))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowLogRepositoryListRecentJoinsSummary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowLogRepository(db)

	now := time.Now().UTC()
	columns := append(append([]string{}, logColumnNames...), "order_number", "workflow_status", "candidate_name")
	mock.ExpectQuery(regexp.QuoteMeta("JOIN workflow_states w ON w.id = l.workflow_state_id")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("log-1", "wf-1", nil, "deadline_warning", []byte(`{}`), nil, true, now, "1001", "received", "Ada Lovelace"))

	activity, err := repo.ListRecent(context.Background(), 0, -5)
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, "1001", activity[0].OrderNumber)
	assert.Equal(t, models.WorkflowStatusReceived, activity[0].WorkflowStatus)
	require.NotNil(t, activity[0].CandidateName)
	assert.Equal(t, "Ada Lovelace", *activity[0].CandidateName)
	require.NoError(t, mock.ExpectationsWereMet())
}
