package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsufficientStockMessage(t *testing.T) {
	err := NewInsufficientStock("FOB-1", 600, 500)

	assert.Equal(t, CodeInsufficientStock, err.Code)
	assert.Equal(t, "Insufficient stock at FOB-1. Available: 500", err.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus)
	assert.Equal(t, int64(500), err.Details["available"])
}

func TestIsCodeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("record movement: %w", NewSameLocation("HUB"))

	assert.True(t, IsCode(wrapped, CodeSameLocation))
	assert.False(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(errors.New("plain"), CodeSameLocation))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Quantity must be positive", Message(NewInvalidQuantity(-1)))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestTransactionFailedKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewTransactionFailed(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
}
