package opencv

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"frequency-filters/internal/errs"
)

// Codec reads and writes images through OpenCV's imgcodecs.
type Codec struct{}

func (Codec) read(path string) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open %s: %v: %w", path, err, errs.ErrUnreadableImage)
	}
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if err := ValidateMatForOperation(mat, "IMRead"); err != nil {
		mat.Close()
		return gocv.NewMat(), fmt.Errorf("failed to decode %s: %v: %w", path, err, errs.ErrUnreadableImage)
	}
	return mat, nil
}

func (c Codec) Load(path string) (image.Image, error) {
	mat, err := c.read(path)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat to image conversion failed for %s: %w", path, err)
	}
	return img, nil
}

// LoadGray decodes path and converts it with OpenCV's BGR to gray weights.
func (c Codec) LoadGray(path string) (*image.Gray, error) {
	mat, err := c.read(path)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray, err := ConvertToGrayscale(mat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer gray.Close()

	return MatToGray(gray)
}

func (Codec) Save(path string, img image.Image) error {
	mat, err := ImageToMat(img)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	defer mat.Close()

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("failed to save %s: IMWrite reported failure", path)
	}
	return nil
}
