// Package cui provides errors whose message is meant to be shown to users as is.
//
// Stores put Error() of these into their error slot.
// The message is built from what failed (summary), why the server says it failed (reason)
// and what the user can do (advice).
package cui

import (
	"errors"
	"strings"
)

type Error struct {
	// what failed, like "report report-001 is not found".
	Summary string

	// why it failed, told by the server.
	Reason string

	// what the user can do, told by the server.
	Advice string

	// request which failed, like "GET https://...". Not shown in Error().
	Request string

	cause error
}

type Option func(*Error) *Error

func New(summary string, options ...Option) *Error {
	err := &Error{Summary: summary}
	for _, o := range options {
		err = o(err)
	}
	return err
}

func WithReason(reason string) Option {
	return func(e *Error) *Error {
		e.Reason = strings.TrimSpace(reason)
		return e
	}
}

func WithAdvice(advice string) Option {
	return func(e *Error) *Error {
		e.Advice = strings.TrimSpace(advice)
		return e
	}
}

func WithRequest(method, url string) Option {
	return func(e *Error) *Error {
		e.Request = method + " " + url
		return e
	}
}

func WithCause(err error) Option {
	return func(e *Error) *Error {
		e.cause = err
		return e
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Error returns lines of summary, reason and advice. Empty ones are omitted.
func (e *Error) Error() string {
	lines := []string{e.Summary}
	if e.Reason != "" && e.Reason != e.Summary {
		lines = append(lines, e.Reason)
	}
	if e.Advice != "" {
		lines = append(lines, "hint: "+e.Advice)
	}
	return strings.Join(lines, "\n")
}

// Verbose returns the message with the request and causes, for logs.
func (e *Error) Verbose() string {
	lines := []string{e.Error()}
	if e.Request != "" {
		lines = append(lines, "request: "+e.Request)
	}
	if e.cause != nil {
		lines = append(lines, "caused by: "+Verbose(e.cause))
	}
	return strings.Join(lines, "\n")
}

// Verbose returns the verbose message of err when it is, or wraps, an *Error.
// Otherwise, it returns err.Error().
func Verbose(err error) string {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		if ce == err {
			return ce.Verbose()
		}
		return err.Error() + "\n" + ce.Verbose()
	}
	return err.Error()
}
