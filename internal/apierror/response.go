package apierror

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the MIME type for RFC 9457 Problem Details.
const ContentTypeProblemJSON = "application/problem+json"

// DefaultRetryAfter is the retry hint for storage failures, in seconds
const DefaultRetryAfter = 1

// WriteProblem writes a ProblemDetails response to the gin context.
// It sets the correct Content-Type header and, if RetryAfter is set,
// also sets the Retry-After header.
func WriteProblem(c *gin.Context, problem *ProblemDetails) {
	c.Header("Content-Type", ContentTypeProblemJSON)

	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}

	if problem.RetryAfter != nil {
		c.Header("Retry-After", strconv.Itoa(*problem.RetryAfter))
	}

	c.AbortWithStatusJSON(problem.Status, problem)
}

// GetRequestID extracts the request ID from the gin context.
// Returns empty string if not found.
func GetRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// New builds a problem of kind
func New(kind Kind, requestID, detail, userMessage string) *ProblemDetails {
	return &ProblemDetails{
		Type:        kind.Type,
		Title:       kind.Title,
		Status:      kind.Status,
		Detail:      detail,
		RequestID:   requestID,
		UserMessage: userMessage,
	}
}

// withField attaches a single field error
func (p *ProblemDetails) withField(field, message, code string) *ProblemDetails {
	p.Errors = append(p.Errors, FieldError{Field: field, Message: message, Code: code})
	return p
}

// retryable marks a problem the client should retry after seconds
func (p *ProblemDetails) retryable(seconds int) *ProblemDetails {
	p.RetryAfter = &seconds
	p.Action = "retry"
	return p
}

// NewValidationError reports every invalid field of a request at once
func NewValidationError(requestID string, errors []FieldError) *ProblemDetails {
	p := New(KindValidation, requestID, "One or more fields failed validation", "Please check your input and try again")
	p.Errors = errors
	return p
}

// NewFieldError creates a validation error for a single field
func NewFieldError(requestID, field, message, code string) *ProblemDetails {
	return NewValidationError(requestID, []FieldError{{Field: field, Message: message, Code: code}})
}

// NewNotFoundError creates a 404 Not Found response.
func NewNotFoundError(requestID, resource, id string) *ProblemDetails {
	return New(KindNotFound, requestID,
		fmt.Sprintf("%s '%s' was not found", resource, id),
		fmt.Sprintf("The requested %s could not be found", resource))
}

// NewInternalError creates a 500 response. Details of the cause stay in
// the daemon log.
func NewInternalError(requestID string) *ProblemDetails {
	return New(KindInternal, requestID, "An unexpected error occurred", "Something went wrong. Please try again later.")
}

// NewBadRequestError creates a 400 Bad Request response for malformed requests.
func NewBadRequestError(requestID, detail, userMessage string) *ProblemDetails {
	return New(KindBadRequest, requestID, detail, userMessage)
}

// NewInvalidUUIDError rejects a client-supplied event id that is not a UUIDv7
func NewInvalidUUIDError(requestID, field, value string) *ProblemDetails {
	return New(KindInvalidUUID, requestID,
		fmt.Sprintf("Invalid UUIDv7 for field '%s': '%s'", field, value),
		"Invalid identifier format",
	).withField(field, "must be a valid UUIDv7", "invalid_uuid")
}

// NewFutureTimestampError rejects an event id stamped ahead of the clock
func NewFutureTimestampError(requestID, field string) *ProblemDetails {
	return New(KindFutureTimestamp, requestID,
		fmt.Sprintf("Field '%s' contains a timestamp more than 1 minute in the future", field),
		"The timestamp is too far in the future",
	).withField(field, "timestamp cannot be more than 1 minute in the future", "future_timestamp")
}

// NewInvalidDayKeyError rejects a day that is not YYYY-MM-DD
func NewInvalidDayKeyError(requestID, field, value string) *ProblemDetails {
	return New(KindInvalidDayKey, requestID,
		fmt.Sprintf("Field '%s' must be a YYYY-MM-DD day, got '%s'", field, value),
		"Invalid date",
	).withField(field, "must be a YYYY-MM-DD day", "invalid_day_key")
}

// NewStorageUnavailableError reports a failed local store read or write.
// Nothing was applied and the request can be retried.
func NewStorageUnavailableError(requestID string, retryAfter int) *ProblemDetails {
	return New(KindStorageUnavailable, requestID,
		"The local store could not be read or written; no change was applied",
		"Could not save right now. Please try again.",
	).retryable(retryAfter)
}

// NewWidgetQueueError reports an unreadable widget queue
func NewWidgetQueueError(requestID string, retryAfter int) *ProblemDetails {
	return New(KindWidgetQueue, requestID,
		"The widget queue could not be read",
		"Widget entries could not be synced right now.",
	).retryable(retryAfter)
}
