package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/factfind/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// paramError is a malformed query parameter, reported as 422.
type paramError struct {
	name string
	msg  string
}

func (e *paramError) Error() string { return fmt.Sprintf("%s: %s", e.name, e.msg) }

func parsePage(r *http.Request) (store.Page, error) {
	page := store.Page{Limit: defaultLimit}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			return page, &paramError{"limit", fmt.Sprintf("must be an integer between 1 and %d", maxLimit)}
		}
		page.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return page, &paramError{"offset", "must be a non-negative integer"}
		}
		page.Offset = n
	}
	return page, nil
}

func requiredParam(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", &paramError{name, "is required"}
	}
	return v, nil
}

func floatParam(r *http.Request, name string) (*float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, &paramError{name, "must be a number"}
	}
	return &f, nil
}

func intParam(r *http.Request, name string) (int64, error) {
	v, err := requiredParam(r, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &paramError{name, "must be an integer"}
	}
	return n, nil
}

// enumParam reads a required parameter that must be one of values.
func enumParam[T ~string](r *http.Request, name string, values []T) (T, error) {
	v, err := requiredParam(r, name)
	if err != nil {
		return "", err
	}
	for _, allowed := range values {
		if T(v) == allowed {
			return allowed, nil
		}
	}
	return "", &paramError{name, fmt.Sprintf("must be one of %v", values)}
}

// rangeFilters turns optional min/max bounds on a numeric path into filters.
func rangeFilters(path string, lo, hi *float64) []store.Filter {
	var filters []store.Filter
	if lo != nil {
		filters = append(filters, store.Gte(path, *lo))
	}
	if hi != nil {
		filters = append(filters, store.Lte(path, *hi))
	}
	return filters
}

// listResponse renders a page under key alongside paging fields and any
// echoed filters.
func listResponse(key string, res store.Result, page store.Page, echo map[string]any) map[string]any {
	items := res.Items
	if items == nil {
		items = []json.RawMessage{}
	}
	body := map[string]any{
		key:        items,
		"total":    res.Total,
		"limit":    page.Limit,
		"offset":   page.Offset,
		"has_more": res.HasMore(page),
	}
	for k, v := range echo {
		body[k] = v
	}
	return body
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	var pe *paramError
	if errors.As(err, &pe) {
		writeError(w, http.StatusUnprocessableEntity, pe.Error())
		return
	}
	s.internalError(w, "bad request", err)
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}
