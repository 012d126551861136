package pipeline

import "errors"

// Error kinds returned by Run. Callers test them with errors.Is; the
// underlying cause stays wrapped alongside.
var (
	ErrInput               = errors.New("invalid input")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrParse               = errors.New("parse failed")
	ErrFormat              = errors.New("format failed")
)
