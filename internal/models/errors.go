package models

import (
	"errors"
	"strings"
)

var (
	// ErrTemplateLoad marks a template that could not be read or parsed.
	// Fatal for that one document only.
	ErrTemplateLoad = errors.New("template load failed")

	// ErrFieldWrite marks a single field that could not be written.
	ErrFieldWrite = errors.New("field write failed")

	// ErrUploadFailed means neither remote nor local storage accepted a document.
	ErrUploadFailed = errors.New("upload failed")

	ErrEmptySignature   = errors.New("empty signature")
	ErrInvalidSignature = errors.New("invalid signature image")

	ErrInvalidSubmission = errors.New("invalid submission")

	// ErrPaymentRequired means the checkout session exists but is not paid.
	ErrPaymentRequired = errors.New("payment required")

	// ErrSessionAlreadyUsed means a paid checkout session was already
	// redeemed by another registration.
	ErrSessionAlreadyUsed = errors.New("checkout session already used")

	// ErrPaymentUnavailable means the payment gateway could not be reached
	// or rejected the request.
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")

	ErrUnknownKind = errors.New("unknown document kind")
	ErrNotFound    = errors.New("not found")
)

// ValidationError lists the submission fields that are missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSubmission
}
