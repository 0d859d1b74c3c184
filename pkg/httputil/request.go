package httputil

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ParsePathInt32 extracts and parses a 32-bit integer path parameter
func ParsePathInt32(r *http.Request, key string) (int32, error) {
	str, err := ParsePathString(r, key)
	if err != nil {
		return 0, err
	}

	val, err := strconv.ParseInt(str, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %s", key, str)
	}
	return int32(val), nil
}

// ParsePositiveInt32 is ParsePathInt32 that also rejects zero and negative values
func ParsePositiveInt32(r *http.Request, key string) (int32, error) {
	val, err := ParsePathInt32(r, key)
	if err != nil {
		return 0, err
	}
	if val <= 0 {
		return 0, fmt.Errorf("%s must be positive: %d", key, val)
	}
	return val, nil
}
