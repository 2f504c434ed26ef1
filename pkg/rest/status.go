package rest

import "net/http"

// Outcome classifies a response by what the client does with it.
type Outcome int

const (
	OutcomeUnknown Outcome = iota

	// 2xx. The body is the resource.
	Succeeded

	// 1xx and 3xx which net/http does not resolve. The console API never sends them.
	Unexpected

	// 4xx other than 401. The body is an error response telling why.
	Rejected

	// 401. The session is over.
	Unauthenticated

	// 5xx. The body may be an error response or a page of a proxy.
	ServerFailed
)

func OutcomeOf(resp *http.Response) Outcome {
	switch sc := resp.StatusCode; {
	case sc == http.StatusUnauthorized:
		return Unauthenticated
	case 200 <= sc && sc < 300:
		return Succeeded
	case 100 <= sc && sc < 400:
		return Unexpected
	case 400 <= sc && sc < 500:
		return Rejected
	case 500 <= sc && sc < 600:
		return ServerFailed
	default:
		return OutcomeUnknown
	}
}

// String returns the default summary of errors for the outcome.
func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "success"
	case Unexpected:
		return "unexpected response"
	case Rejected:
		return "request is rejected"
	case Unauthenticated:
		return "unauthorized: sign in again"
	case ServerFailed:
		return "server error"
	default:
		return "unknown response"
	}
}
