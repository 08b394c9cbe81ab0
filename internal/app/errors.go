package app

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrMessageEmpty        = errors.New("message content is empty")
	ErrLLMConfig           = errors.New("llm config is invalid")
	ErrConsentRequired     = errors.New("chat history consent has not been granted")
	ErrHistoryLoad         = errors.New("failed to load chat history")
	ErrSendInProgress      = errors.New("a message is already being sent")
	ErrSessionNotFound     = errors.New("companion session not found")
	ErrCrisisEventNotFound = errors.New("no crisis event awaiting a response")
	ErrTherapistNotFound   = errors.New("therapist not found")
	ErrNotTherapist        = errors.New("only therapists can keep a directory profile")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrRecipientNotFound   = errors.New("recipient not found")
)
