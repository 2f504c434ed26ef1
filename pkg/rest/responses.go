package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apierr "github.com/opst/mlconsole/pkg/api/types/errors"
	"github.com/opst/mlconsole/pkg/errors/cui"
)

// MessageFor is a summary of error messages for each outcome.
//
// Outcomes not in it are summarized by Outcome.String.
type MessageFor map[Outcome]string

// unmarshal http response which has json content.
//
// args:
//   - resp: http response to be processed.
//   - v: value which response should be.
//   - messageFor: title of error message for HTTP status code range.
//
// return:
//
//	error if...
//	- can not read response body
//	- response body is not shaped of v
//	- status code is in 4xx or 5xx (401 causes ErrUnauthorized)
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	if OutcomeOf(resp) == Succeeded {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			message := fmt.Sprintf("unexpected response: %s (status code = %d)", err.Error(), resp.StatusCode)
			return cui.New(message, cui.WithCause(err))
		}
		return nil
	}
	return errorFromResponse(resp, messageFor)
}

// unmarshalStreamResponse returns the response body when it is succeeded.
//
// Otherwise, the body is consumed and closed.
func unmarshalStreamResponse(resp *http.Response, messageFor MessageFor) (io.ReadCloser, error) {
	if OutcomeOf(resp) == Succeeded {
		return resp.Body, nil
	}
	defer resp.Body.Close()
	return nil, errorFromResponse(resp, messageFor)
}

func unmarshalResponseDiscardingPayload(resp *http.Response, messageFor MessageFor) error {
	rc, err := unmarshalStreamResponse(resp, messageFor)
	if rc != nil {
		io.Copy(io.Discard, rc)
		rc.Close()
	}
	return err
}

// errorFromResponse builds an error for the failed response.
//
// An error response body gives the reason and the advice.
// Other bodies are taken as the reason as they are.
func errorFromResponse(resp *http.Response, messageFor MessageFor) error {
	outcome := OutcomeOf(resp)
	summary, ok := messageFor[outcome]
	if !ok {
		summary = outcome.String()
	}

	options := []cui.Option{}
	if req := resp.Request; req != nil {
		options = append(options, cui.WithRequest(req.Method, req.URL.String()))
	}
	if outcome == Unauthenticated {
		options = append(options, cui.WithCause(ErrUnauthorized))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		options = append(options, cui.WithReason("cannot read server message: "+err.Error()))
		if outcome != Unauthenticated {
			options = append(options, cui.WithCause(err))
		}
		return cui.New(summary, options...)
	}

	eresp := apierr.ErrorResponse{}
	if err := json.Unmarshal(body, &eresp); err == nil {
		options = append(options, cui.WithReason(eresp.Message), cui.WithAdvice(eresp.Advice))
	} else {
		options = append(options, cui.WithReason(string(body)))
	}
	return cui.New(summary, options...)
}
