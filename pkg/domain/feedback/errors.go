package feedback

import "errors"

// Validation errors. They are raised before any request is sent.
var (
	// ErrEmptyText indicates a submission without text.
	ErrEmptyText = errors.New("feedback text is required")

	// ErrInvalidCategory indicates a category outside the known set.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrScreenshotTooLarge indicates a screenshot above the upload limit.
	ErrScreenshotTooLarge = errors.New("screenshot exceeds upload limit")
)
