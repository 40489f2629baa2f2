package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMapsStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NewNotFound("log not found").HTTPStatus)
	assert.Equal(t, http.StatusInsufficientStorage, NewPersistence("save failed", nil).HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, NewInvalidRequest("bad level").HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, New(ErrInternal, "x", nil).HTTPStatus)
}

func TestIsTypeThroughWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("append: %w", NewPersistence("save failed", cause))

	assert.True(t, IsType(err, ErrPersistence))
	assert.False(t, IsType(err, ErrNotFound))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save failed: disk full", Wrap(err).Error())
}

func TestWrapPlainError(t *testing.T) {
	assert.Nil(t, Wrap(nil))
	wrapped := Wrap(errors.New("boom"))
	assert.Equal(t, ErrInternal, wrapped.Type)
}
