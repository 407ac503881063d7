// Package mcp exposes the knowledge base over the Model Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	kberrors "github.com/cmos-dev/cmoskb/internal/errors"
)

// Custom MCP error codes.
const (
	// ErrCodeIndexUnavailable means the index is missing or damaged.
	ErrCodeIndexUnavailable = -32001

	// ErrCodeIndexBusy means another process holds the index lock.
	ErrCodeIndexBusy = -32002

	// ErrCodeTimeout means the request was canceled or timed out.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// MCPError is a protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError reports a bad tool argument.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// MapError converts an engine error to an MCPError.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	}

	kbErr, ok := kberrors.As(err)
	if !ok {
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}

	message := kbErr.Message
	if kbErr.Suggestion != "" {
		message = fmt.Sprintf("%s %s", kbErr.Message, kbErr.Suggestion)
	}

	switch {
	case kbErr.Category == kberrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case kbErr.Code == kberrors.ErrCodeIndexLocked:
		return &MCPError{Code: ErrCodeIndexBusy, Message: message}
	case kbErr.Severity == kberrors.SeverityFatal:
		return &MCPError{Code: ErrCodeIndexUnavailable, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
