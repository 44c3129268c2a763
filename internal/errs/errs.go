// Package errs holds the error kinds shared by the processing packages.
// Call sites wrap them with context; callers match with errors.Is.
package errs

import "errors"

var (
	// ErrInvalidInput reports an empty image or histogram.
	ErrInvalidInput = errors.New("invalid input")

	// ErrShapeMismatch reports a mask whose dimensions differ from the image.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidParameter reports an out-of-range filter or kernel parameter.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnreadableImage reports a source file that is missing or cannot be decoded.
	ErrUnreadableImage = errors.New("unreadable image")
)
