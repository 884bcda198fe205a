package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
)

const workflowColumns = `id, order_id, order_number, candidate_id, status,
       order_received, order_received_at, candidate_created, candidate_created_at,
       forms_generated, forms_generated_at, wset_submitted, wset_submitted_at,
       wset_confirmed, wset_confirmed_at, results_received, results_received_at,
       certificates_distributed, certificates_distributed_at,
       requires_review, review_reason, error_count, last_error, last_error_at,
       created_at, updated_at, completed_at`

const insertWorkflowQuery = `INSERT INTO workflow_states
	(id, order_id, order_number, candidate_id, status,
	 order_received, order_received_at, candidate_created, candidate_created_at,
	 forms_generated, forms_generated_at, wset_submitted, wset_submitted_at,
	 wset_confirmed, wset_confirmed_at, results_received, results_received_at,
	 certificates_distributed, certificates_distributed_at,
	 requires_review, review_reason, error_count, last_error, last_error_at,
	 created_at, updated_at, completed_at)
	VALUES (:id, :order_id, :order_number, :candidate_id, :status,
	 :order_received, :order_received_at, :candidate_created, :candidate_created_at,
	 :forms_generated, :forms_generated_at, :wset_submitted, :wset_submitted_at,
	 :wset_confirmed, :wset_confirmed_at, :results_received, :results_received_at,
	 :certificates_distributed, :certificates_distributed_at,
	 :requires_review, :review_reason, :error_count, :last_error, :last_error_at,
	 :created_at, :updated_at, :completed_at)`

// WorkflowRepository persists workflow states.
type WorkflowRepository struct {
	db *sqlx.DB
}

// NewWorkflowRepository constructs the repository.
func NewWorkflowRepository(db *sqlx.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func prepareWorkflow(state *models.WorkflowState) {
	if state.ID == "" {
		state.ID = uuid.NewString()
	}
	if state.Status == "" {
		state.Status = models.WorkflowStatusReceived
	}
	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = state.CreatedAt
	}
}

// Create inserts a workflow state. A second state for the same order yields ErrConflict.
func (r *WorkflowRepository) Create(ctx context.Context, state *models.WorkflowState) error {
	prepareWorkflow(state)
	if _, err := r.db.NamedExecContext(ctx, insertWorkflowQuery, state); err != nil {
		if isUniqueViolation(err, "workflow_states_order_id_key") {
			return appErrors.WrapAs(appErrors.ErrConflict, err, fmt.Sprintf("workflow for order %s already exists", state.OrderID))
		}
		return fmt.Errorf("create workflow state: %w", err)
	}
	return nil
}

// GetByID fetches a workflow state by identifier.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.WorkflowState, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflow_states WHERE id = $1`
	var state models.WorkflowState
	if err := r.db.GetContext(ctx, &state, query, id); err != nil {
		return nil, err
	}
	return &state, nil
}

// FindByOrderID fetches the workflow state created for a source order.
func (r *WorkflowRepository) FindByOrderID(ctx context.Context, orderID string) (*models.WorkflowState, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflow_states WHERE order_id = $1`
	var state models.WorkflowState
	if err := r.db.GetContext(ctx, &state, query, orderID); err != nil {
		return nil, err
	}
	return &state, nil
}

// Update persists every mutable column of a workflow state.
func (r *WorkflowRepository) Update(ctx context.Context, state *models.WorkflowState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	const query = `UPDATE workflow_states SET
	status = :status,
	order_received = :order_received, order_received_at = :order_received_at,
	candidate_created = :candidate_created, candidate_created_at = :candidate_created_at,
	forms_generated = :forms_generated, forms_generated_at = :forms_generated_at,
	wset_submitted = :wset_submitted, wset_submitted_at = :wset_submitted_at,
	wset_confirmed = :wset_confirmed, wset_confirmed_at = :wset_confirmed_at,
	results_received = :results_received, results_received_at = :results_received_at,
	certificates_distributed = :certificates_distributed, certificates_distributed_at = :certificates_distributed_at,
	requires_review = :requires_review, review_reason = :review_reason,
	error_count = :error_count, last_error = :last_error, last_error_at = :last_error_at,
	updated_at = :updated_at, completed_at = :completed_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, state)
	if err != nil {
		return fmt.Errorf("update workflow state: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check workflow update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func buildWorkflowFilter(filter models.WorkflowFilter) (string, []interface{}) {
	args := make([]interface{}, 0, 4)
	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.RequiresReview != nil {
		args = append(args, *filter.RequiresReview)
		conditions = append(conditions, fmt.Sprintf("requires_review = $%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// List returns workflow states matching the filter, newest first. A non-positive limit returns
// every match.
func (r *WorkflowRepository) List(ctx context.Context, filter models.WorkflowFilter) ([]models.WorkflowState, error) {
	where, args := buildWorkflowFilter(filter)
	query := `SELECT ` + workflowColumns + ` FROM workflow_states` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}
	var states []models.WorkflowState
	if err := r.db.SelectContext(ctx, &states, query, args...); err != nil {
		return nil, fmt.Errorf("list workflow states: %w", err)
	}
	return states, nil
}

// Count returns the number of workflow states matching the filter, ignoring pagination.
func (r *WorkflowRepository) Count(ctx context.Context, filter models.WorkflowFilter) (int, error) {
	where, args := buildWorkflowFilter(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM workflow_states`+where, args...); err != nil {
		return 0, fmt.Errorf("count workflow states: %w", err)
	}
	return total, nil
}

// ListDetailed returns workflow states joined with their candidate and person records.
func (r *WorkflowRepository) ListDetailed(ctx context.Context, filter models.WorkflowFilter) ([]models.WorkflowDetail, error) {
	states, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return []models.WorkflowDetail{}, nil
	}

	candidateIDs := make([]string, 0, len(states))
	for _, state := range states {
		candidateIDs = append(candidateIDs, state.CandidateID)
	}
	var candidates []models.WSETCandidate
	if err := r.db.SelectContext(ctx, &candidates, `SELECT `+candidateColumns+` FROM wset_candidates WHERE id = ANY($1)`, pq.Array(candidateIDs)); err != nil {
		return nil, fmt.Errorf("load workflow candidates: %w", err)
	}
	candidateByID := make(map[string]*models.WSETCandidate, len(candidates))
	personIDs := make([]string, 0, len(candidates))
	for i := range candidates {
		candidateByID[candidates[i].ID] = &candidates[i]
		personIDs = append(personIDs, candidates[i].PersonID)
	}

	personByID := map[string]*models.Person{}
	if len(personIDs) > 0 {
		var people []models.Person
		if err := r.db.SelectContext(ctx, &people, `SELECT `+personColumns+` FROM people WHERE id = ANY($1)`, pq.Array(personIDs)); err != nil {
			return nil, fmt.Errorf("load workflow people: %w", err)
		}
		for i := range people {
			personByID[people[i].ID] = &people[i]
		}
	}

	details := make([]models.WorkflowDetail, 0, len(states))
	for _, state := range states {
		detail := models.WorkflowDetail{WorkflowState: state}
		if candidate, ok := candidateByID[state.CandidateID]; ok {
			detail.Candidate = candidate
			detail.Person = personByID[candidate.PersonID]
		}
		details = append(details, detail)
	}
	return details, nil
}
