package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/taskdeck/pkg/apperrors"
)

// maxRequestBody bounds JSON request bodies at 1 MiB.
const maxRequestBody = 1 << 20

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := decoder.Decode(dest); err != nil {
		return apperrors.Validation(fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return "", apperrors.Validation(fmt.Sprintf("missing path parameter: %s", key))
	}
	return str, nil
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key, defaultVal string) string {
	if val := r.URL.Query().Get(key); val != "" {
		return val
	}
	return defaultVal
}

// ParseQueryInt extracts and parses an integer query parameter
func ParseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, apperrors.Validation(fmt.Sprintf("invalid integer for query param %s: %s", key, str))
	}
	return val, nil
}

// Pagination carries offset-based paging parsed from a list request.
type Pagination struct {
	Page     int
	PageSize int
}

// Offset returns the SQL offset for the page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePagination reads page/pageSize query parameters with bounds.
// Defaults: page 1, pageSize 20; pageSize is capped at 100.
func ParsePagination(r *http.Request) (Pagination, error) {
	page, err := ParseQueryInt(r, "page", 1)
	if err != nil {
		return Pagination{}, err
	}
	pageSize, err := ParseQueryInt(r, "pageSize", 20)
	if err != nil {
		return Pagination{}, err
	}
	if page < 1 {
		return Pagination{}, apperrors.Validation("page must be at least 1")
	}
	if pageSize < 1 {
		return Pagination{}, apperrors.Validation("pageSize must be at least 1")
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return Pagination{Page: page, PageSize: pageSize}, nil
}
