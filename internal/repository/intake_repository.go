package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
)

// OrderIntake groups the rows written when an order is accepted. Person is inserted only when
// NewPerson is set; otherwise it must already exist.
type OrderIntake struct {
	Person    *models.Person
	NewPerson bool
	Candidate *models.WSETCandidate
	Workflow  *models.WorkflowState
}

// IntakeRepository writes an accepted order's person, enrollment and workflow atomically so a
// failed intake leaves nothing behind.
type IntakeRepository struct {
	db *sqlx.DB
}

// NewIntakeRepository constructs the repository.
func NewIntakeRepository(db *sqlx.DB) *IntakeRepository {
	return &IntakeRepository{db: db}
}

// CreateIntake inserts the intake rows in one transaction and links their identifiers.
func (r *IntakeRepository) CreateIntake(ctx context.Context, intake *OrderIntake) (err error) {
	if intake == nil || intake.Person == nil || intake.Candidate == nil || intake.Workflow == nil {
		return fmt.Errorf("create intake: incomplete intake")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin intake tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if intake.NewPerson {
		preparePerson(intake.Person)
		if _, err = tx.NamedExecContext(ctx, insertPersonQuery, intake.Person); err != nil {
			if isUniqueViolation(err, "people_email_key") {
				return appErrors.WrapAs(appErrors.ErrConflict, err, fmt.Sprintf("person %s already exists", intake.Person.Email))
			}
			return fmt.Errorf("create person: %w", err)
		}
	}

	intake.Candidate.PersonID = intake.Person.ID
	prepareCandidate(intake.Candidate)
	if _, err = tx.NamedExecContext(ctx, insertCandidateQuery, intake.Candidate); err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}

	intake.Workflow.CandidateID = intake.Candidate.ID
	prepareWorkflow(intake.Workflow)
	if _, err = tx.NamedExecContext(ctx, insertWorkflowQuery, intake.Workflow); err != nil {
		if isUniqueViolation(err, "workflow_states_order_id_key") {
			return appErrors.WrapAs(appErrors.ErrConflict, err, fmt.Sprintf("workflow for order %s already exists", intake.Workflow.OrderID))
		}
		return fmt.Errorf("create workflow state: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit intake tx: %w", err)
	}
	return nil
}
