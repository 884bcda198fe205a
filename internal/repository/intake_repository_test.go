package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
)

func sampleIntake(newPerson bool) *OrderIntake {
	person := &models.Person{Email: " Ada@Example.com ", FirstName: "Ada", LastName: "Lovelace"}
	if !newPerson {
		person.ID = "person-1"
	}
	return &OrderIntake{
		Person:    person,
		NewPerson: newPerson,
		Candidate: &models.WSETCandidate{
			OrderID:     "order-1",
			CourseType:  "WSET Level 2",
			CourseLevel: 2,
			ExamDate:    time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC),
			ExamType:    models.ExamTypePDF,
			Address:     "1 High St, London",
		},
		Workflow: &models.WorkflowState{OrderID: "order-1", Status: models.WorkflowStatusReceived},
	}
}

func TestIntakeRepositoryCreatesAllRowsInOneTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIntakeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO people")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wset_candidates")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_states")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	intake := sampleIntake(true)
	require.NoError(t, repo.CreateIntake(context.Background(), intake))
	assert.Equal(t, "ada@example.com", intake.Person.Email)
	assert.Equal(t, intake.Person.ID, intake.Candidate.PersonID)
	assert.Equal(t, intake.Candidate.ID, intake.Workflow.CandidateID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeRepositoryReusesExistingPerson(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIntakeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wset_candidates")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_states")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	intake := sampleIntake(false)
	require.NoError(t, repo.CreateIntake(context.Background(), intake))
	assert.Equal(t, "person-1", intake.Candidate.PersonID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeRepositoryRollsBackOnCandidateFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIntakeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO people")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wset_candidates")).WillReturnError(errors.New("check constraint violated"))
	mock.ExpectRollback()

	err := repo.CreateIntake(context.Background(), sampleIntake(true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create candidate")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeRepositoryDuplicateOrderIsConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIntakeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wset_candidates")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_states")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "workflow_states_order_id_key"})
	mock.ExpectRollback()

	err := repo.CreateIntake(context.Background(), sampleIntake(false))
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntakeRepositoryDuplicateEmailIsConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIntakeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO people")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "people_email_key"})
	mock.ExpectRollback()

	err := repo.CreateIntake(context.Background(), sampleIntake(true))
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}
