package models

import (
	"strings"
	"time"
)

// ExamType is the exam modality.
type ExamType string

const (
	// ExamTypePDF is an in-person, paper-based proctored sitting.
	ExamTypePDF ExamType = "PDF"
	// ExamTypeRI is a remotely invigilated online sitting.
	ExamTypeRI ExamType = "RI"
)

// Valid reports whether t is a supported modality.
func (t ExamType) Valid() bool {
	return t == ExamTypePDF || t == ExamTypeRI
}

// ParseExamType normalises user input into an ExamType.
func ParseExamType(raw string) (ExamType, bool) {
	t := ExamType(strings.ToUpper(strings.TrimSpace(raw)))
	return t, t.Valid()
}

// Person is the customer record a candidacy belongs to. Email is stored lower-cased.
type Person struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"firstName"`
	LastName  string    `db:"last_name" json:"lastName"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// FullName joins the name parts.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// WSETCandidate is one course enrollment for a specific exam sitting.
type WSETCandidate struct {
	ID                string     `db:"id" json:"id"`
	PersonID          string     `db:"person_id" json:"personId"`
	OrderID           string     `db:"order_id" json:"orderId"`
	OrderNumber       string     `db:"order_number" json:"orderNumber"`
	CourseType        string     `db:"course_type" json:"courseType"`
	CourseLevel       int        `db:"course_level" json:"courseLevel"`
	ExamDate          time.Time  `db:"exam_date" json:"examDate"`
	ExamType          ExamType   `db:"exam_type" json:"examType"`
	ExamDateDefaulted bool       `db:"exam_date_defaulted" json:"examDateDefaulted"`
	Birthdate         *time.Time `db:"birthdate" json:"birthdate,omitempty"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	Address           string     `db:"address" json:"address"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}

// CourseInfo is what the extractor recovers from an order.
type CourseInfo struct {
	CourseType string   `json:"courseType"`
	Level      int      `json:"level"`
	ExamType   ExamType `json:"examType"`
}
