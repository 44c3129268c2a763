// Package opencv is the gocv backend: an image codec and a Filter2D
// convolver that honour the same contracts as the pure Go implementations.
package opencv

import (
	"fmt"

	"gocv.io/x/gocv"
)

// MaxDimension bounds the side of any Mat built here.
const MaxDimension = 32768

func ValidateMatForOperation(mat gocv.Mat, operation string) error {
	if mat.Empty() {
		return fmt.Errorf("Mat is empty for operation: %s", operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}

	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

func ValidateChannels(mat gocv.Mat, operation string, allowed ...int) error {
	channels := mat.Channels()
	for _, c := range allowed {
		if channels == c {
			return nil
		}
	}
	return fmt.Errorf("%s requires %v channels, got %d", operation, allowed, channels)
}
