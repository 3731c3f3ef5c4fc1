package resilience

import (
	"errors"
	"net"
	"slices"
	"strconv"
	"strings"
	"syscall"
)

// ErrorClass is the retry classification of a transport failure.
type ErrorClass string

const (
	// ClassTransient failures may succeed on a later attempt.
	ClassTransient ErrorClass = "transient"
	// ClassPermanent failures were classified by the transport and will not
	// succeed on retry (bad number, invalid template).
	ClassPermanent ErrorClass = "permanent"
	// ClassUnexpected failures carry no classification and are not retried.
	ClassUnexpected ErrorClass = "unexpected"
)

// DefaultRetryableCodes are the Twilio error codes treated as transient:
// rate limited (20429) and service unavailable classes (20003, 20005).
var DefaultRetryableCodes = []int{20429, 20003, 20005}

// CodedError is implemented by transport errors that carry a provider error
// code.
type CodedError interface {
	error
	ErrorCode() int
}

// StatusCoder is implemented by transport errors that carry the HTTP status
// of the failed response.
type StatusCoder interface {
	error
	HTTPStatus() int
}

// Classifier sorts transport errors into retry classes by provider code.
type Classifier struct {
	retryable []int
}

// NewClassifier returns a Classifier treating the given codes as transient.
// An empty list falls back to DefaultRetryableCodes.
func NewClassifier(retryable []int) *Classifier {
	if len(retryable) == 0 {
		retryable = DefaultRetryableCodes
	}
	return &Classifier{retryable: slices.Clone(retryable)}
}

// Classify returns the class of err. Coded errors are transient when their
// code is retryable and permanent otherwise. Anything else is unexpected.
func (c *Classifier) Classify(err error) ErrorClass {
	var coded CodedError
	if errors.As(err, &coded) {
		if slices.Contains(c.retryable, coded.ErrorCode()) {
			return ClassTransient
		}
		return ClassPermanent
	}
	return ClassUnexpected
}

// Retryable reports whether err is transient.
func (c *Classifier) Retryable(err error) bool {
	return c.Classify(err) == ClassTransient
}

// Code returns the provider code of err as a string, or fallback when err
// carries none.
func Code(err error, fallback string) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return strconv.Itoa(coded.ErrorCode())
	}
	return fallback
}

// IsTransient returns true if the error (or any error in its chain) carries
// a transient HTTP status, or matches common
// transient error patterns (network timeouts, connection resets, DNS
// failures). It suits idempotent reads; sends are classified by Classifier.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) && IsTransientHTTPStatus(sc.HTTPStatus()) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
