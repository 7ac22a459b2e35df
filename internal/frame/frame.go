package frame

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

var ErrEmptyFrame = errors.New("frame is empty")

// Frame is one raster image read from a video source. Its Mat is owned by
// the Frame and released by Close.
type Frame struct {
	index int
	mat   *gocv.Mat
}

func NewFrame(index int, mat *gocv.Mat) (*Frame, error) {
	if mat == nil || mat.Empty() {
		return nil, ErrEmptyFrame
	}

	return &Frame{index: index, mat: mat}, nil
}

func (f *Frame) Mat() *gocv.Mat {
	return f.mat
}

func (f *Frame) Index() int {
	return f.index
}

// Smoothed returns a new single channel copy of the frame blurred with a
// square Gaussian kernel. kernel must be odd.
func (f *Frame) Smoothed(kernel int) (*Frame, error) {
	gray := gocv.NewMat()
	if f.mat.Channels() == 1 {
		f.mat.CopyTo(&gray)
	} else {
		gocv.CvtColor(*f.mat, &gray, gocv.ColorBGRToGray)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(kernel, kernel), 0, 0, gocv.BorderDefault)

	smoothed, err := NewFrame(f.index, &gray)
	if err != nil {
		gray.Close()
		return nil, err
	}
	return smoothed, nil
}

func (f *Frame) Clone() (*Frame, error) {
	clone := f.mat.Clone()

	return NewFrame(f.index, &clone)
}

func (f *Frame) Height() int {
	return f.mat.Rows()
}

func (f *Frame) Width() int {
	return f.mat.Cols()
}

// Size returns the frame dimensions as width, height.
func (f *Frame) Size() image.Point {
	return image.Pt(f.Width(), f.Height())
}

func (f *Frame) Close() {
	if f == nil || f.mat == nil {
		return
	}
	f.mat.Close()
	f.mat = nil
}
