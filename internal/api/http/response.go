package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	gerr "github.com/jekabolt/grbpwr-catalog/internal/errors"
)

// ErrResponse is the error body of every failed api call.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// errResponse maps err onto a status. Store failures are logged and hidden
// behind a generic message.
func errResponse(r *http.Request, err error) *ErrResponse {
	code := gerr.HTTPStatus(err)
	resp := &ErrResponse{
		Err:            err,
		HTTPStatusCode: code,
		StatusText:     http.StatusText(code),
		ErrorText:      err.Error(),
	}
	if code >= http.StatusInternalServerError {
		slog.Default().ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()),
		)
		resp.ErrorText = "internal error"
	}
	return resp
}

func renderErr(w http.ResponseWriter, r *http.Request, err error) {
	if rerr := render.Render(w, r, errResponse(r, err)); rerr != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", gerr.ErrBadRequest, fmt.Sprintf(format, args...))
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return badRequest("empty body")
	}
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return badRequest("can't decode body: %v", err)
	}
	return nil
}
