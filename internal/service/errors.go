package service

import "fmt"

// AIStatusError is a non-success reply from the completion service.
type AIStatusError struct {
	StatusCode int
	Body       string
}

func (e *AIStatusError) Error() string {
	return fmt.Sprintf("AI API error (status %d): %s", e.StatusCode, e.Body)
}

// ParseError means the completion could not be read as a JSON object, even after fallback extraction.
type ParseError struct {
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON object in AI response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
