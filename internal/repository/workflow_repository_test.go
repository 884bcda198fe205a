package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var workflowColumnNames = []string{
	"id", "order_id", "order_number", "candidate_id", "status",
	"order_received", "order_received_at", "candidate_created", "candidate_created_at",
	"forms_generated", "forms_generated_at", "wset_submitted", "wset_submitted_at",
	"wset_confirmed", "wset_confirmed_at", "results_received", "results_received_at",
	"certificates_distributed", "certificates_distributed_at",
	"requires_review", "review_reason", "error_count", "last_error", "last_error_at",
	"created_at", "updated_at", "completed_at",
}

func workflowRows(states ...models.WorkflowState) *sqlmock.Rows {
	rows := sqlmock.NewRows(workflowColumnNames)
	for _, s := range states {
		rows.AddRow(s.ID, s.OrderID, s.OrderNumber, s.CandidateID, string(s.Status),
			s.OrderReceived, timeValue(s.OrderReceivedAt), s.CandidateCreated, timeValue(s.CandidateCreatedAt),
			false, nil, false, nil,
			false, nil, false, nil,
			false, nil,
			s.RequiresReview, stringValue(s.ReviewReason), s.ErrorCount, stringValue(s.LastError), timeValue(s.LastErrorAt),
			s.CreatedAt, s.UpdatedAt, nil)
	}
	return rows
}

func timeValue(t *time.Time) driver.Value {
	if t == nil {
		return nil
	}
	return *t
}

func stringValue(s *string) driver.Value {
	if s == nil {
		return nil
	}
	return *s
}

func TestWorkflowRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_states")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	state := &models.WorkflowState{OrderID: "order-1", CandidateID: "cand-1"}
	require.NoError(t, repo.Create(context.Background(), state))
	assert.NotEmpty(t, state.ID)
	assert.Equal(t, models.WorkflowStatusReceived, state.Status)
	assert.False(t, state.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryCreateDuplicateOrderIsConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_states")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "workflow_states_order_id_key"})

	err := repo.Create(context.Background(), &models.WorkflowState{OrderID: "order-1", CandidateID: "cand-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestWorkflowRepositoryFindByOrderID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_states WHERE order_id = $1")).
		WithArgs("order-1").
		WillReturnRows(workflowRows(models.WorkflowState{
			ID: "wf-1", OrderID: "order-1", OrderNumber: "1001", CandidateID: "cand-1",
			Status: models.WorkflowStatusReceived, OrderReceived: true, OrderReceivedAt: &now,
			CreatedAt: now, UpdatedAt: now,
		}))

	state, err := repo.FindByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", state.ID)
	assert.True(t, state.OrderReceived)
	require.NotNil(t, state.OrderReceivedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_states WHERE order_id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByOrderID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE workflow_states SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.WorkflowState{ID: "wf-404", Status: models.WorkflowStatusProcessing})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWorkflowRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	review := true
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_states WHERE status = ANY($1) AND requires_review = $2 ORDER BY created_at DESC LIMIT 10 OFFSET 20")).
		WithArgs(sqlmock.AnyArg(), true).
		WillReturnRows(workflowRows(models.WorkflowState{ID: "wf-1", Status: models.WorkflowStatusError, RequiresReview: true, CreatedAt: now, UpdatedAt: now}))

	states, err := repo.List(context.Background(), models.WorkflowFilter{
		Status:         []models.WorkflowStatus{models.WorkflowStatusError},
		RequiresReview: &review,
		Limit:          10,
		Offset:         20,
	})
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "wf-1", states[0].ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM workflow_states WHERE requires_review = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	total, err := repo.Count(context.Background(), models.WorkflowFilter{RequiresReview: &review})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkflowRepositoryListDetailedJoinsCandidateAndPerson(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewWorkflowRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM workflow_states ORDER BY created_at DESC")).
		WillReturnRows(workflowRows(
			models.WorkflowState{ID: "wf-1", CandidateID: "cand-1", Status: models.WorkflowStatusReceived, CreatedAt: now, UpdatedAt: now},
			models.WorkflowState{ID: "wf-2", CandidateID: "cand-gone", Status: models.WorkflowStatusReceived, CreatedAt: now, UpdatedAt: now},
		))
	mock.ExpectQuery(regexp.QuoteMeta("FROM wset_candidates WHERE id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "person_id", "order_id", "order_number", "course_type", "course_level", "exam_date", "exam_type", "exam_date_defaulted", "birthdate", "gender", "address", "created_at"}).
			AddRow("cand-1", "person-1", "order-1", "1001", "WSET Level 2 Award in Wines", 2, now, "PDF", false, nil, nil, "1 High St, London", now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM people WHERE id = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "phone", "created_at"}).
			AddRow("person-1", "ada@example.com", "Ada", "Lovelace", nil, now))

	details, err := repo.ListDetailed(context.Background(), models.WorkflowFilter{})
	require.NoError(t, err)
	require.Len(t, details, 2)
	require.NotNil(t, details[0].Candidate)
	assert.Equal(t, 2, details[0].Candidate.CourseLevel)
	require.NotNil(t, details[0].Person)
	assert.Equal(t, "Ada Lovelace", details[0].Person.FullName())
	assert.Nil(t, details[1].Candidate)
	require.NoError(t, mock.ExpectationsWereMet())
}
