package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkFailure covers transport errors, timeouts and non-2xx replies.
	ErrNetworkFailure = errors.New("network failure")
	// ErrMalformedResponse covers bodies that are not JSON or lack current_weather.weathercode.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is returned for a non-2xx reply. It matches ErrNetworkFailure.
type StatusError struct {
	StatusCode int
	Reason     string
	Raw        string
}

func (e *StatusError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("forecast API returned status %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("forecast API returned status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrNetworkFailure
}

// MalformedResponseError is returned when the body does not fit the expected
// schema. Raw holds the indented body when it was valid JSON, nil otherwise.
type MalformedResponseError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed forecast response: %s: %v", e.Reason, e.Err)
	}
	return "malformed forecast response: " + e.Reason
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// RawBody returns the indented response body carried by err, if any.
func RawBody(err error) (string, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Raw != "" {
		return statusErr.Raw, true
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) && malformed.Raw != "" {
		return malformed.Raw, true
	}
	return "", false
}
