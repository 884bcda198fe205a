package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wset-admin-api/internal/models"
)

const workflowLogColumns = `l.id, l.workflow_state_id, l.exam_order_id, l.action, l.details, l.performed_by, l.automated, l.created_at`

// WorkflowLogRepository stores the append-only workflow audit trail.
type WorkflowLogRepository struct {
	db *sqlx.DB
}

// NewWorkflowLogRepository constructs the repository.
func NewWorkflowLogRepository(db *sqlx.DB) *WorkflowLogRepository {
	return &WorkflowLogRepository{db: db}
}

// Create appends an entry. Entries are never updated or deleted.
func (r *WorkflowLogRepository) Create(ctx context.Context, entry *models.WorkflowLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if len(entry.Details) == 0 {
		entry.Details = []byte("{}")
	}
	const query = `INSERT INTO workflow_logs
	(id, workflow_state_id, exam_order_id, action, details, performed_by, automated, created_at)
	VALUES (:id, :workflow_state_id, :exam_order_id, :action, :details, :performed_by, :automated, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create workflow log: %w", err)
	}
	return nil
}

// ListByWorkflow returns one workflow's entries, newest first.
func (r *WorkflowLogRepository) ListByWorkflow(ctx context.Context, workflowStateID string, limit, offset int) ([]models.WorkflowLogEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_logs l WHERE l.workflow_state_id = $1
	ORDER BY l.created_at DESC LIMIT %d OFFSET %d`, workflowLogColumns, clampLimit(limit), clampOffset(offset))
	var entries []models.WorkflowLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, workflowStateID); err != nil {
		return nil, fmt.Errorf("list workflow logs: %w", err)
	}
	return entries, nil
}

// CountByWorkflow counts one workflow's entries.
func (r *WorkflowLogRepository) CountByWorkflow(ctx context.Context, workflowStateID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM workflow_logs WHERE workflow_state_id = $1`, workflowStateID); err != nil {
		return 0, fmt.Errorf("count workflow logs: %w", err)
	}
	return total, nil
}

// ListRecent returns the latest entries across all workflows joined with workflow and candidate
// summary fields.
func (r *WorkflowLogRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.WorkflowActivity, error) {
	query := fmt.Sprintf(`SELECT %s, w.order_number, w.status AS workflow_status,
       NULLIF(TRIM(p.first_name || ' ' || p.last_name), '') AS candidate_name
	FROM workflow_logs l
	JOIN workflow_states w ON w.id = l.workflow_state_id
	LEFT JOIN wset_candidates c ON c.id = w.candidate_id
	LEFT JOIN people p ON p.id = c.person_id
	ORDER BY l.created_at DESC LIMIT %d OFFSET %d`, workflowLogColumns, clampLimit(limit), clampOffset(offset))
	var activity []models.WorkflowActivity
	if err := r.db.SelectContext(ctx, &activity, query); err != nil {
		return nil, fmt.Errorf("list recent workflow activity: %w", err)
	}
	return activity, nil
}

// CountAll counts every audit entry.
func (r *WorkflowLogRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM workflow_logs`); err != nil {
		return 0, fmt.Errorf("count workflow logs: %w", err)
	}
	return total, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
