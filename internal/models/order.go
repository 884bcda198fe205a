package models

import (
	"strings"
	"time"
)

// Order is an inbound e-commerce order as delivered by the storefront webhook.
type Order struct {
	ID        string          `json:"id" validate:"required"`
	Number    string          `json:"number"`
	CreatedAt time.Time       `json:"createdAt" validate:"required"`
	Email     string          `json:"email" validate:"required,email"`
	Billing   *Address        `json:"billingAddress,omitempty"`
	Shipping  *Address        `json:"shippingAddress,omitempty"`
	LineItems []LineItem      `json:"lineItems" validate:"dive"`
	Form      *FormSubmission `json:"formSubmission,omitempty"`
}

// Address is a postal address attached to an order.
type Address struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Empty reports whether the address carries no usable postal line.
func (a *Address) Empty() bool {
	return a == nil || (strings.TrimSpace(a.Line1) == "" && strings.TrimSpace(a.City) == "")
}

// Format renders the address as a single comma separated mailing line.
func (a *Address) Format() string {
	if a == nil {
		return ""
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(a.City, a.Region, a.PostalCode), " "))
	return strings.Join(nonEmpty(a.Line1, a.Line2, cityLine, a.Country), ", ")
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LineItem is a single purchased product.
type LineItem struct {
	ProductName string  `json:"productName" validate:"required"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
	UnitPrice   float64 `json:"unitPrice"`
}

// FormSubmission holds the checkout form answers needed for exam-board paperwork.
type FormSubmission struct {
	Birthdate  *string `json:"birthdate,omitempty"`
	Gender     *string `json:"gender,omitempty"`
	ExamDate   *string `json:"examDate,omitempty"`
	CourseType *string `json:"courseType,omitempty"`
}

// ProcessOrderResult reports a successful order intake.
type ProcessOrderResult struct {
	Success         bool     `json:"success"`
	Duplicate       bool     `json:"duplicate"`
	CandidateID     string   `json:"candidateId,omitempty"`
	WorkflowStateID string   `json:"workflowStateId,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}
