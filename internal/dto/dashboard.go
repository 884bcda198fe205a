package dto

import (
	"time"

	"github.com/noah-isme/wset-admin-api/internal/models"
)

// DashboardData captures the aggregated workflow dashboard payload.
type DashboardData struct {
	Workflows           []models.WorkflowDetail   `json:"workflows"`
	DeadlineValidations []WorkflowDeadline        `json:"deadlineValidations"`
	RecentActivity      []models.WorkflowActivity `json:"recentActivity"`
	Stats               DashboardStats            `json:"stats"`
	GeneratedAt         time.Time                 `json:"generatedAt"`
}

// WorkflowDeadline pairs an active workflow with its freshly computed deadline validation.
type WorkflowDeadline struct {
	WorkflowStateID string                    `json:"workflowStateId"`
	OrderNumber     string                    `json:"orderNumber"`
	CandidateName   string                    `json:"candidateName,omitempty"`
	Validation      models.DeadlineValidation `json:"validation"`
}

// DashboardStats summarises workflow counts and deadline urgency.
type DashboardStats struct {
	TotalWorkflows     int `json:"totalWorkflows"`
	ActiveWorkflows    int `json:"activeWorkflows"`
	CompletedWorkflows int `json:"completedWorkflows"`
	ErrorWorkflows     int `json:"errorWorkflows"`
	UrgentDeadlines    int `json:"urgentDeadlines"`
	OverdueDeadlines   int `json:"overdueDeadlines"`
}

// WorkflowStatistics reports throughput over a creation-date range.
type WorkflowStatistics struct {
	From                   time.Time `json:"from"`
	To                     time.Time `json:"to"`
	OrdersReceived         int       `json:"ordersReceived"`
	FormsGenerated         int       `json:"formsGenerated"`
	SubmissionsCompleted   int       `json:"submissionsCompleted"`
	AverageProcessingHours float64   `json:"averageProcessingHours"`
	ErrorRate              float64   `json:"errorRate"`
}
