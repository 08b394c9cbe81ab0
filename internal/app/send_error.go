package app

import (
	"errors"
	"fmt"

	"mindwell/internal/ai"
)

type SendErrorKind string

const (
	SendErrorConfig     SendErrorKind = "config"
	SendErrorAuth       SendErrorKind = "auth"
	SendErrorPermission SendErrorKind = "permission"
	SendErrorRateLimit  SendErrorKind = "rate_limit"
	SendErrorProvider   SendErrorKind = "provider"
	SendErrorTransport  SendErrorKind = "transport"
)

// SendError is a failed completion call, classified for display. Message is
// what the user sees; Err is the underlying cause.
type SendError struct {
	Kind    SendErrorKind
	Message string
	Err     error
}

func (e *SendError) Error() string {
	return e.Message
}

func (e *SendError) Unwrap() error {
	return e.Err
}

const (
	msgNotConfigured = "LLM API key not configured. Please set LLM_API_KEY in your .env file with a valid API key."
	msgUnauthorized  = "Invalid API key. Please check your API credentials."
	msgForbidden     = "Access forbidden. Please verify your API permissions."
	msgRateLimited   = "Rate limit exceeded. Please try again in a moment."
	msgSendFailed    = "Failed to send message. Please try again."
	msgHistoryLoad   = "Failed to load chat history"
)

func classifySendError(err error) *SendError {
	var apiErr *ai.APIError
	switch {
	case errors.Is(err, ErrLLMConfig):
		return &SendError{Kind: SendErrorConfig, Message: msgNotConfigured, Err: err}
	case errors.Is(err, ai.ErrUnauthorized):
		return &SendError{Kind: SendErrorAuth, Message: msgUnauthorized, Err: err}
	case errors.Is(err, ai.ErrForbidden):
		return &SendError{Kind: SendErrorPermission, Message: msgForbidden, Err: err}
	case errors.Is(err, ai.ErrRateLimited):
		return &SendError{Kind: SendErrorRateLimit, Message: msgRateLimited, Err: err}
	case errors.As(err, &apiErr):
		detail := apiErr.Detail
		if detail == "" {
			detail = "Unknown error"
		}
		return &SendError{
			Kind:    SendErrorProvider,
			Message: fmt.Sprintf("API request failed: %d - %s", apiErr.StatusCode, detail),
			Err:     err,
		}
	default:
		return &SendError{Kind: SendErrorTransport, Message: msgSendFailed, Err: err}
	}
}
