package errors

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs a code with a user-facing message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError classifies infrastructure errors that reach a controller without
// a domain code. Driver details never leak into the message.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "internal server error"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrorInfo{Code: ResourceConflict, Message: "resource already exists"}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return ErrorInfo{Code: ResourceConflict, Message: "referenced resource does not exist"}
	}
	if isTimeout(err) {
		return ErrorInfo{
			Code:    DependencyUnavailable,
			Message: "upstream dependency unavailable, please retry later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultErrorMessage(context)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "timeout")
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "cart"):
		return "cart not found"
	default:
		return "requested resource not found"
	}
}

func defaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"):
		return "failed to create resource, please retry later"
	case strings.Contains(contextLower, "update"):
		return "failed to update resource, please retry later"
	case strings.Contains(contextLower, "delete"):
		return "failed to delete resource, please retry later"
	default:
		return "internal server error, please retry later"
	}
}

// ParseAndRespond classifies err and writes the response with the status
// matching its code.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, err error, context string) {
	info := ParseError(err, context)
	c.JSON(StatusForCode(info.Code), ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
