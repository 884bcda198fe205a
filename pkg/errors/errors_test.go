package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsCodeForErrorsIs(t *testing.T) {
	err := Clone(ErrDeadlineViolation, "Submission deadline passed")
	wrapped := fmt.Errorf("process order: %w", err)

	assert.True(t, errors.Is(wrapped, ErrDeadlineViolation))
	assert.False(t, errors.Is(wrapped, ErrMissingAddress))
	assert.Equal(t, "Submission deadline passed", FromError(wrapped).Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Nil(t, FromError(nil))
}

func TestWrapAsAttachesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapAs(ErrPersistenceFailure, cause, "failed to create workflow state")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to create workflow state: connection refused", err.Error())
	assert.Equal(t, "PERSISTENCE_FAILURE", err.Code)
}
