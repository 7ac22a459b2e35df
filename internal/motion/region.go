package motion

import "image"

// Region is the bounding box of one connected area of changed pixels.
type Region struct {
	Bounds image.Rectangle
}

func (r Region) Area() int {
	return r.Bounds.Dx() * r.Bounds.Dy()
}
