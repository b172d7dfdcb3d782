// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package failure classifies pipeline errors. Every stage that can fail
// returns a *Error carrying a Kind, and the pipeline decides between the
// fallback path and termination by looking only at that Kind.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind names one class of pipeline failure. Kinds are strings so they read
// well in logs and in the run log.
type Kind string

const (
	// KindNone is returned by KindOf for a nil error.
	KindNone Kind = ""

	// KindConfiguration is a missing profile id or partial proxy settings.
	KindConfiguration Kind = "configuration"

	// KindTimeout is a request that exceeded its deadline.
	KindTimeout Kind = "timeout"

	// KindNetwork is a DNS, connection, proxy or TLS failure.
	KindNetwork Kind = "network"

	// KindHTTPStatus is a response outside 2xx.
	KindHTTPStatus Kind = "http_status"

	// KindExtraction is markup that lacks the profile structure entirely.
	KindExtraction Kind = "extraction"

	// KindPersistence is a failure to create the output directory or file.
	KindPersistence Kind = "persistence"

	// KindUnknown is any error that was never classified.
	KindUnknown Kind = "unknown"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind       Kind
	Op         string
	ProfileID  string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.ProfileID != "" {
		msg += fmt.Sprintf(" [profile %s]", e.ProfileID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns a classified error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Configf returns a configuration error with a formatted message.
func Configf(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Op: "config", Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// Recoverable reports whether err should be absorbed by the fallback path.
// Configuration and persistence failures are never recoverable.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindNetwork, KindHTTPStatus, KindExtraction:
		return true
	}
	return false
}

// IsTransport reports whether err is a timeout or network failure.
func IsTransport(err error) bool {
	k := KindOf(err)
	return k == KindTimeout || k == KindNetwork
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}

// IsPersistence reports whether err is a persistence failure.
func IsPersistence(err error) bool {
	return KindOf(err) == KindPersistence
}

// ClassifyTransport maps an error from http.Client.Do to KindTimeout or
// KindNetwork.
func ClassifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
