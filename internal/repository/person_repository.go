package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wset-admin-api/internal/models"
)

const personColumns = `id, email, first_name, last_name, phone, created_at`

const insertPersonQuery = `INSERT INTO people (id, email, first_name, last_name, phone, created_at)
	VALUES (:id, :email, :first_name, :last_name, :phone, :created_at)`

// PersonRepository persists customer records.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs the repository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func preparePerson(person *models.Person) {
	if person.ID == "" {
		person.ID = uuid.NewString()
	}
	person.Email = strings.ToLower(strings.TrimSpace(person.Email))
	if person.CreatedAt.IsZero() {
		person.CreatedAt = time.Now().UTC()
	}
}

// FindByEmail looks a person up by case-insensitive email.
func (r *PersonRepository) FindByEmail(ctx context.Context, email string) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE LOWER(email) = $1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return nil, err
	}
	return &person, nil
}
