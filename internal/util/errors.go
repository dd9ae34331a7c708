package util

import "errors"

var (
	ErrAIKeyMissing     = errors.New("AI API key not configured")
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidOption    = errors.New("value is not a declared option for this field")
	ErrUnknownField     = errors.New("unknown answer field")
	ErrInvalidImport    = errors.New("invalid answers document")
	ErrUnknownFormat    = errors.New("unknown export format")
	ErrStateNotFound    = errors.New("state key not found")
)
