package client

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gusttavosants/StarWars/pkg/apperr"
)

// ErrNotSupported is returned by write operations; SWAPI is read-only.
var ErrNotSupported = apperr.NotSupported("SWAPI is read-only: write operations are not supported")

// ErrorClass represents a classification of upstream failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassTimeout represents requests that exceeded their deadline.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassNetwork represents connection and transport errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents unreadable or malformed bodies.
	ErrorClassDecode ErrorClass = "decode"
)

// classifyStatus categorizes a non-2xx response.
func classifyStatus(statusCode int) ErrorClass {
	if statusCode >= 400 && statusCode < 500 {
		return ErrorClassClient
	}
	return ErrorClassServer
}

// classifyTransport categorizes an error returned by http.Client.Do.
func classifyTransport(err error) ErrorClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorClassTimeout
	}
	return ErrorClassNetwork
}

// statusForClass returns the status a transport-level failure surfaces as.
func statusForClass(class ErrorClass) int {
	if class == ErrorClassTimeout {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
