package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "validation",
			err:      Validation("id must be a positive integer"),
			expected: "id must be a positive integer",
		},
		{
			name:     "not found",
			err:      NotFound("Item 1 not found"),
			expected: "Item 1 not found",
		},
		{
			name:     "store wraps cause",
			err:      Store(sql.ErrConnDone),
			expected: "DB error: sql: connection is already closed",
		},
		{
			name:     "io wraps cause",
			err:      IO(errors.New("address already in use")),
			expected: "IO error: address already in use",
		},
		{
			name:     "configuration formatted",
			err:      Configurationf("%s must be >= 1", "DB_POOL_MAX_CONNECTIONS"),
			expected: "DB_POOL_MAX_CONNECTIONS must be >= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("Item 7 not found"))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(nil, KindNotFound))
}

func TestUnwrap(t *testing.T) {
	err := Store(sql.ErrNoRows)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("missing")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Store(errors.New("boom"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(IO(errors.New("boom"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Configuration("bad")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "configuration", KindConfiguration.String())
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "store", KindStore.String())
	assert.Equal(t, "io", KindIO.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
