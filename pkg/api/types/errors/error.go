package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// ErrorResponse is a body of non-2xx responses.
type ErrorResponse struct {
	// short title of the error, like "Not Found".
	Error string `json:"error,omitempty"`

	// human readable message.
	Message string `json:"message"`

	// what the client can do for the error.
	Advice string `json:"advice,omitempty"`

	Cause error `json:"-"`
}

// UnmarshalJSON accepts both of {"message": "..."} and {"message": {"reason": "...", "advice": "..."}} .
func (er *ErrorResponse) UnmarshalJSON(b []byte) error {
	f := new(struct {
		Error   *string         `json:"error"`
		Message json.RawMessage `json:"message"`
		Advice  *string         `json:"advice"`
	})
	if err := json.Unmarshal(b, f); err != nil {
		return err
	}
	if len(f.Message) == 0 || string(f.Message) == "null" {
		return fmt.Errorf(`required field missing: "message"`)
	}

	plain := ""
	if err := json.Unmarshal(f.Message, &plain); err == nil {
		er.Message = plain
	} else {
		structured := new(struct {
			Reason *string `json:"reason"`
			Advice *string `json:"advice"`
		})
		if err := json.Unmarshal(f.Message, structured); err != nil {
			return err
		}
		if structured.Reason == nil {
			return fmt.Errorf(`required field missing: "message.reason"`)
		}
		er.Message = *structured.Reason
		if structured.Advice != nil {
			er.Advice = *structured.Advice
		}
	}

	if f.Error != nil {
		er.Error = *f.Error
	}
	if f.Advice != nil {
		er.Advice = *f.Advice
	}
	return nil
}

func (e ErrorResponse) String() string {
	lines := []string{e.Message}
	if e.Advice != "" {
		lines = append(lines, e.Advice)
	}
	if e.Cause != nil {
		lines = append(lines, fmt.Sprint(" caused by:", e.Cause.Error()))
	}
	return strings.Join(lines, "\n")
}

type ErrorResponseOption func(in *ErrorResponse) *ErrorResponse

func WithAdvice(advice string) ErrorResponseOption {
	return func(in *ErrorResponse) *ErrorResponse {
		if advice != "" {
			in.Advice = advice
		}
		return in
	}
}

func WithError(err error) ErrorResponseOption {
	return func(in *ErrorResponse) *ErrorResponse {
		if err != nil {
			in.Cause = err
		}
		return in
	}
}

// NewErrorResponse builds an error to be returned from echo handlers.
//
// The title ("error" field) is the status text of code.
func NewErrorResponse(code int, message string, opts ...ErrorResponseOption) *echo.HTTPError {
	resp := ErrorResponse{Error: http.StatusText(code), Message: message}
	for _, opt := range opts {
		resp = *opt(&resp)
	}

	herr := echo.NewHTTPError(code, resp)
	if resp.Cause != nil {
		herr = herr.SetInternal(resp.Cause)
	}
	return herr
}

func NotFound(message string) *echo.HTTPError {
	return NewErrorResponse(http.StatusNotFound, message)
}

func BadRequest(advice string, err error) *echo.HTTPError {
	return NewErrorResponse(
		http.StatusBadRequest,
		"bad request",
		WithAdvice(advice),
		WithError(err),
	)
}

func Unauthorized(advice string, err error) *echo.HTTPError {
	return NewErrorResponse(
		http.StatusUnauthorized,
		"unauthorized",
		WithAdvice(advice),
		WithError(err),
	)
}

func InternalServerError(err error) *echo.HTTPError {
	return NewErrorResponse(
		http.StatusInternalServerError,
		"unexpected error",
		WithError(err),
	)
}
