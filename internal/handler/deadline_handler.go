package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/wset-admin-api/internal/dto"
	"github.com/noah-isme/wset-admin-api/internal/models"
	appErrors "github.com/noah-isme/wset-admin-api/pkg/errors"
	"github.com/noah-isme/wset-admin-api/pkg/response"
)

type deadlineChecker interface {
	Validate(examDate time.Time, examType models.ExamType, level int, asOf time.Time) models.DeadlineValidation
	NextSubmissionDate(examDate time.Time, examType models.ExamType, level int, asOf time.Time) *time.Time
}

// DeadlineHandler answers ad-hoc submission deadline questions.
type DeadlineHandler struct {
	checker  deadlineChecker
	validate *validator.Validate
	now      func() time.Time
}

// NewDeadlineHandler constructs the handler.
func NewDeadlineHandler(checker deadlineChecker, validate *validator.Validate) *DeadlineHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &DeadlineHandler{checker: checker, validate: validate, now: time.Now}
}

// Check godoc
// @Summary Check a submission deadline
// @Tags Deadlines
// @Produce json
// @Param examDate query string true "Exam date (YYYY-MM-DD)"
// @Param examType query string true "PDF or RI"
// @Param level query int true "Qualification level (1-4)"
// @Param asOf query string false "Evaluate as of this date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /deadlines/check [get]
func (h *DeadlineHandler) Check(c *gin.Context) {
	var query dto.DeadlineCheckQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid deadline query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "examDate, examType (PDF or RI) and level (1-4) are required"))
		return
	}
	examDate, err := time.Parse("2006-01-02", query.ExamDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid examDate, expected YYYY-MM-DD"))
		return
	}
	asOf := h.now().UTC()
	if query.AsOf != "" {
		if asOf, err = time.Parse("2006-01-02", query.AsOf); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf, expected YYYY-MM-DD"))
			return
		}
	}
	examType, _ := models.ParseExamType(query.ExamType)

	validation := h.checker.Validate(examDate, examType, query.Level, asOf)
	response.JSON(c, http.StatusOK, dto.DeadlineCheckResponse{
		DeadlineValidation: validation,
		CanSubmitToday:     validation.CanSubmitToday(),
		NextSubmissionDate: h.checker.NextSubmissionDate(examDate, examType, query.Level, asOf),
	}, nil)
}
