package controller

import (
	"errors"
	"net/http"
	"strconv"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func parseListQuery(r *http.Request) (offset int, limit int, err error) {
	q := r.URL.Query()

	if s := q.Get("offset"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return 0, 0, errors.New("invalid 'offset' (expected integer)")
		}
		if n < 0 {
			return 0, 0, errors.New("'offset' must be >= 0")
		}
		offset = n
	}

	limit = defaultListLimit
	if s := q.Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return 0, 0, errors.New("invalid 'limit' (expected integer)")
		}
		if n <= 0 {
			return 0, 0, errors.New("'limit' must be > 0")
		}
		if n > maxListLimit {
			return 0, 0, errors.New("'limit' must be <= 1000")
		}
		limit = n
	}

	return offset, limit, nil
}

func parseID(r *http.Request) (int64, error) {
	s := r.PathValue("id")
	if s == "" {
		return 0, errors.New("missing id")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id (expected positive integer)")
	}
	return id, nil
}
