package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"frequency-filters/internal/raster"
)

// MatToGray copies a single-channel 8-bit Mat into a Go image.
func MatToGray(src gocv.Mat) (*image.Gray, error) {
	if err := ValidateMatForOperation(src, "Mat to gray conversion"); err != nil {
		return nil, err
	}
	if src.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("Mat to gray conversion requires CV_8UC1, got %v", src.Type())
	}

	img := image.NewGray(image.Rect(0, 0, src.Cols(), src.Rows()))
	copy(img.Pix, src.ToBytes())
	return img, nil
}

// ConvertToGrayscale returns a single-channel copy of a 1, 3 or 4 channel Mat.
// Color input is assumed to be BGR(A), as IMRead produces.
func ConvertToGrayscale(src gocv.Mat) (gocv.Mat, error) {
	if err := ValidateMatForOperation(src, "grayscale conversion"); err != nil {
		return gocv.NewMat(), err
	}
	if err := ValidateChannels(src, "grayscale conversion", 1, 3, 4); err != nil {
		return gocv.NewMat(), err
	}

	dst := gocv.NewMat()
	var err error
	switch src.Channels() {
	case 1:
		src.CopyTo(&dst)
	case 3:
		err = gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)
	case 4:
		err = gocv.CvtColor(src, &dst, gocv.ColorBGRAToGray)
	}
	if err != nil {
		dst.Close()
		return gocv.NewMat(), fmt.Errorf("grayscale conversion failed: %w", err)
	}
	return dst, nil
}

// ImageToMat converts a Go image to an 8-bit Mat: CV_8UC1 for *image.Gray,
// BGR CV_8UC3 otherwise.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	if img == nil {
		return gocv.NewMat(), fmt.Errorf("input image is nil")
	}
	b := img.Bounds()
	if err := ValidateDimensions(b.Dx(), b.Dy(), "image to Mat conversion"); err != nil {
		return gocv.NewMat(), err
	}

	if gray, ok := img.(*image.Gray); ok {
		return gocv.ImageGrayToMatGray(raster.Compact(gray))
	}
	return gocv.ImageToMatRGB(img)
}
