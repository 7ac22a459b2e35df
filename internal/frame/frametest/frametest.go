// Package frametest builds synthetic frames for tests.
package frametest

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"

	"github.com/smadhas/BIDFeeder/internal/frame"
)

var (
	Dark   = color.RGBA{0, 0, 0, 0}
	Bright = color.RGBA{255, 255, 255, 0}
)

// Blank returns a dark BGR frame of the given size.
func Blank(t testing.TB, index, width, height int) *frame.Frame {
	t.Helper()

	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
	f, err := frame.NewFrame(index, &mat)
	if err != nil {
		mat.Close()
		t.Fatalf("blank frame: %v", err)
	}
	return f
}

// WithSquares returns a dark frame with each rectangle filled bright.
func WithSquares(t testing.TB, index, width, height int, squares ...image.Rectangle) *frame.Frame {
	t.Helper()

	f := Blank(t, index, width, height)
	for _, sq := range squares {
		gocv.Rectangle(f.Mat(), sq, Bright, -1)
	}
	return f
}

// Square returns a side x side rectangle with its top-left corner at (x, y).
func Square(x, y, side int) image.Rectangle {
	return image.Rect(x, y, x+side, y+side)
}
