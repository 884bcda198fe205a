package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wset-admin-api/internal/models"
)

const candidateColumns = `id, person_id, order_id, order_number, course_type, course_level, exam_date, exam_type,
       exam_date_defaulted, birthdate, gender, address, created_at`

const insertCandidateQuery = `INSERT INTO wset_candidates
	(id, person_id, order_id, order_number, course_type, course_level, exam_date, exam_type,
	 exam_date_defaulted, birthdate, gender, address, created_at)
	VALUES (:id, :person_id, :order_id, :order_number, :course_type, :course_level, :exam_date, :exam_type,
	 :exam_date_defaulted, :birthdate, :gender, :address, :created_at)`

// CandidateRepository reads exam candidacies.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs the repository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// FindByID returns a candidacy or sql.ErrNoRows.
func (r *CandidateRepository) FindByID(ctx context.Context, id string) (*models.WSETCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM wset_candidates WHERE id = $1`
	var candidate models.WSETCandidate
	if err := r.db.GetContext(ctx, &candidate, query, id); err != nil {
		return nil, err
	}
	return &candidate, nil
}

func prepareCandidate(candidate *models.WSETCandidate) {
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = time.Now().UTC()
	}
}
