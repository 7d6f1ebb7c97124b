package errors

import "net/http"

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 12000-12999: Question module errors
// 13000-13999: Submission & Evaluation module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError  ErrorCode = 10100
	RecordNotFound ErrorCode = 10101

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300

	// ========== Question Module Errors (12000-12999) ==========

	// Question basic (12000-12099)
	QuestionNotFound ErrorCode = 12000

	// Test cases (12100-12199)
	TestCaseNotFound     ErrorCode = 12100
	TestCaseUploadFailed ErrorCode = 12101
	TestCaseInvalid      ErrorCode = 12102

	// ========== Submission & Evaluation Module Errors (13000-13999) ==========

	// Submission (13000-13099)
	SubmissionNotFound   ErrorCode = 13000
	LanguageNotSupported ErrorCode = 13003

	// Evaluation (13100-13199)
	EvalQueueFull       ErrorCode = 13100
	EvalSystemError     ErrorCode = 13101
	GuestRuntimeError   ErrorCode = 13103
	TimeLimitExceeded   ErrorCode = 13104
	MemoryLimitExceeded ErrorCode = 13105
)

var codeMessages = map[ErrorCode]string{
	Success:             "success",
	InternalServerError: "internal server error",
	InvalidParams:       "invalid parameters",
	NotFound:            "resource not found",
	TooManyRequests:     "too many requests",
	ServiceUnavailable:  "service unavailable",
	Timeout:             "operation timed out",

	DatabaseError:  "database error",
	RecordNotFound: "record not found",

	CacheError: "cache error",

	ValidationFailed: "validation failed",

	QuestionNotFound: "question not found",

	TestCaseNotFound:     "test case not found",
	TestCaseUploadFailed: "test case upload failed",
	TestCaseInvalid:      "invalid test case",

	SubmissionNotFound:   "submission not found",
	LanguageNotSupported: "language not supported",

	EvalQueueFull:       "evaluation queue is full",
	EvalSystemError:     "evaluation system error",
	GuestRuntimeError:   "program exited with a runtime error",
	TimeLimitExceeded:   "time limit exceeded",
	MemoryLimitExceeded: "memory limit exceeded",
}

// Message returns the default message for the error code.
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "unknown error"
}

// HTTPStatus maps an error code to its HTTP response status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case Success:
		return http.StatusOK
	case InvalidParams, ValidationFailed, TestCaseInvalid, LanguageNotSupported:
		return http.StatusBadRequest
	case NotFound, RecordNotFound, QuestionNotFound, TestCaseNotFound, SubmissionNotFound:
		return http.StatusNotFound
	case TooManyRequests, EvalQueueFull:
		return http.StatusTooManyRequests
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	case Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
