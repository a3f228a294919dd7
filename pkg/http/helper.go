package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"clinic/pkg/config"
	apperrors "clinic/pkg/errors"
	"clinic/pkg/model"
)

// ExtractPage reads the 1-indexed page and limit query parameters.
func ExtractPage(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	page := config.DefaultPage
	if s := query.Get("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid page parameter: " + s)
		}
		page = v
	}

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	page, limit, _ = config.NormalizePage(page, limit)
	return page, limit, nil
}

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 timestamp.
func ParseDate(value string) (time.Time, error) {
	t, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid date: " + value)
	}
	return t, nil
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.InvalidInput("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("request body is empty")
		}
		return apperrors.InvalidInput("invalid JSON body: " + err.Error())
	}
	return nil
}
