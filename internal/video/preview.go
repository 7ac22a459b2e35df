package video

import (
	"gocv.io/x/gocv"

	"github.com/smadhas/BIDFeeder/internal/frame"
)

// Preview shows frames to an operator. Show returns true when the operator
// asked to stop.
type Preview interface {
	Show(f *frame.Frame) bool
	Close() error
}

// Window is a gocv window that stops on QuitKey.
type Window struct {
	window  *gocv.Window
	quitKey int
}

func NewWindow(title string, quitKey rune) *Window {
	return &Window{
		window:  gocv.NewWindow(title),
		quitKey: int(quitKey),
	}
}

func (w *Window) Show(f *frame.Frame) bool {
	if f == nil || f.Mat() == nil || !w.window.IsOpen() {
		return false
	}
	w.window.IMShow(*f.Mat())
	key := w.window.WaitKey(1)
	return key >= 0 && key&0xFF == w.quitKey
}

func (w *Window) Close() error {
	return w.window.Close()
}
