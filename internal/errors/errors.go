package gerr

import (
	"errors"
	"net/http"
)

var (
	ErrFilterNotFound   = errors.New("filter not found")
	ErrGroupNotFound    = errors.New("filter group not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidFilter    = errors.New("invalid filter definition")
	ErrBadRequest       = errors.New("bad request")
	ErrRateLimited      = errors.New("too many requests, please slow down")
)

// HTTPStatus maps an error to the response status the api layer sends.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrFilterNotFound), errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidFilter), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
