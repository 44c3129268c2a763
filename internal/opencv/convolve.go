package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"frequency-filters/internal/processing/gabor"
	"frequency-filters/internal/raster"
)

// Convolver runs gabor kernels through cv::filter2D with a replicated border.
type Convolver struct{}

var _ gabor.Convolver = Convolver{}

func (Convolver) Convolve(img *image.Gray, kernel mat.Matrix) (*image.Gray, error) {
	if err := raster.ValidateGray(img, "filter2D"); err != nil {
		return nil, err
	}
	if err := gabor.ValidateKernel(kernel); err != nil {
		return nil, err
	}

	src, err := ImageToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	k := kernelMat(kernel)
	defer k.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	if err := gocv.Filter2D(src, &dst, -1, k, image.Pt(-1, -1), 0, gocv.BorderReplicate); err != nil {
		return nil, fmt.Errorf("filter2D failed: %w", err)
	}
	return MatToGray(dst)
}

func kernelMat(kernel mat.Matrix) gocv.Mat {
	rows, cols := kernel.Dims()
	k := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV64F)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			k.SetDoubleAt(r, c, kernel.At(r, c))
		}
	}
	return k
}
