package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathString(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest("GET", "/api/item/abc", nil), map[string]string{"id": "abc"})

	val, err := ParsePathString(req, "id")
	require.NoError(t, err)
	assert.Equal(t, "abc", val)

	_, err = ParsePathString(req, "missing")
	assert.EqualError(t, err, "missing path parameter: missing")
}

func TestParsePathInt32(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expected    int32
		expectError bool
	}{
		{name: "positive", value: "42", expected: 42},
		{name: "negative", value: "-5", expected: -5},
		{name: "max int32", value: "2147483647", expected: 2147483647},
		{name: "overflow", value: "2147483648", expectError: true},
		{name: "not a number", value: "abc", expectError: true},
		{name: "float", value: "1.5", expectError: true},
		{name: "empty", value: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := mux.SetURLVars(httptest.NewRequest("GET", "/", nil), map[string]string{"id": tt.value})

			val, err := ParsePathInt32(req, "id")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, val)
		})
	}
}

func TestParsePositiveInt32(t *testing.T) {
	for _, value := range []string{"0", "-5", "abc", "99999999999"} {
		req := mux.SetURLVars(httptest.NewRequest("GET", "/", nil), map[string]string{"id": value})
		_, err := ParsePositiveInt32(req, "id")
		assert.Error(t, err, value)
	}

	req := mux.SetURLVars(httptest.NewRequest("GET", "/", nil), map[string]string{"id": "7"})
	val, err := ParsePositiveInt32(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int32(7), val)
}
