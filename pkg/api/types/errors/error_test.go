package errors_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	apierr "github.com/opst/mlconsole/pkg/api/types/errors"
)

func TestErrorResponseUnmarshal(t *testing.T) {
	for name, testcase := range map[string]struct {
		body string
		then apierr.ErrorResponse
	}{
		"plain message": {
			body: `{"error":"Not Found","message":"no such report"}`,
			then: apierr.ErrorResponse{Error: "Not Found", Message: "no such report"},
		},
		"structured message": {
			body: `{"message":{"reason":"bad request","advice":"page should be a number"}}`,
			then: apierr.ErrorResponse{Message: "bad request", Advice: "page should be a number"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			got := apierr.ErrorResponse{}
			if err := json.Unmarshal([]byte(testcase.body), &got); err != nil {
				t.Fatal(err)
			}
			if got != testcase.then {
				t.Errorf("got %+v, want %+v", got, testcase.then)
			}
		})
	}

	for name, body := range map[string]string{
		"missing message":   `{"error":"Not Found"}`,
		"missing reason":    `{"message":{"advice":"x"}}`,
		"message is number": `{"message":3}`,
	} {
		t.Run("it rejects: "+name, func(t *testing.T) {
			got := apierr.ErrorResponse{}
			if err := json.Unmarshal([]byte(body), &got); err == nil {
				t.Errorf("no error: %+v", got)
			}
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	cause := errors.New("fake")
	herr := apierr.BadRequest("fix it", cause)

	if herr.Code != http.StatusBadRequest {
		t.Errorf("code = %d", herr.Code)
	}
	resp, ok := herr.Message.(apierr.ErrorResponse)
	if !ok {
		t.Fatalf("message is %T", herr.Message)
	}
	if resp.Error != "Bad Request" || resp.Advice != "fix it" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if !errors.Is(herr, cause) {
		t.Error("cause is not kept as internal error")
	}
}
