// Package motion decides whether a frame differs from a periodically
// refreshed reference frame.
package motion

import (
	"image"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/smadhas/BIDFeeder/internal/clock"
	"github.com/smadhas/BIDFeeder/internal/frame"
)

// Detector compares frames against a reference snapshot. It is not safe
// for concurrent use.
type Detector struct {
	cfg       Config
	clock     clock.Clock
	reference *frame.Reference
	kernel    gocv.Mat
	resets    int
	log       *slog.Logger
}

func NewDetector(cfg Config, clk clock.Clock, log *slog.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Detector{
		cfg:       cfg,
		clock:     clk,
		reference: frame.NewReference(),
		kernel:    gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
		log:       log,
	}, nil
}

// Detect reports whether f shows motion relative to the reference frame.
//
// When the reference is unset or older than the refresh window, f becomes
// the new reference and is returned unchanged with no motion. Otherwise
// every qualifying region is outlined on a copy of f, which is returned
// instead of f. Callers must close a returned frame that is not f.
func (d *Detector) Detect(f *frame.Frame) (*frame.Frame, bool, error) {
	if f == nil || f.Mat() == nil || f.Mat().Empty() {
		return nil, false, frame.ErrEmptyFrame
	}

	smoothed, err := f.Smoothed(d.cfg.BlurKernel)
	if err != nil {
		return nil, false, err
	}

	now := d.clock.Now()
	if d.needsReset(smoothed, now) {
		d.reference.Replace(smoothed, now)
		d.resets++
		d.log.Debug("reference frame reset",
			slog.Int("frame", f.Index()),
			slog.Int("resets", d.resets))
		return f, false, nil
	}
	defer smoothed.Close()

	regions := d.regions(smoothed)
	if len(regions) == 0 {
		return f, false, nil
	}

	annotated, err := f.Clone()
	if err != nil {
		return nil, false, err
	}
	for _, r := range regions {
		gocv.Rectangle(annotated.Mat(), r.Bounds, d.cfg.BoxColor, d.cfg.BoxThickness)
	}

	d.log.Debug("motion detected",
		slog.Int("frame", f.Index()),
		slog.Int("regions", len(regions)))

	return annotated, true, nil
}

// Regions returns the qualifying regions of f against the current
// reference without touching the reference. It returns nil when no usable
// reference is held.
func (d *Detector) Regions(f *frame.Frame) ([]Region, error) {
	if f == nil || f.Mat() == nil || f.Mat().Empty() {
		return nil, frame.ErrEmptyFrame
	}

	smoothed, err := f.Smoothed(d.cfg.BlurKernel)
	if err != nil {
		return nil, err
	}
	defer smoothed.Close()

	if d.needsReset(smoothed, d.clock.Now()) {
		return nil, nil
	}
	return d.regions(smoothed), nil
}

// Resets is the number of times the reference frame was (re)captured.
func (d *Detector) Resets() int {
	return d.resets
}

func (d *Detector) Close() {
	d.reference.Close()
	d.kernel.Close()
}

func (d *Detector) needsReset(smoothed *frame.Frame, now time.Time) bool {
	if d.reference.Stale(now, d.cfg.RefreshWindow) {
		return true
	}
	return d.reference.Frame().Size() != smoothed.Size()
}

func (d *Detector) regions(smoothed *frame.Frame) []Region {
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.AbsDiff(*d.reference.Frame().Mat(), *smoothed.Mat(), &mask)
	gocv.Threshold(mask, &mask, d.cfg.Delta, 255, gocv.ThresholdBinary)
	for i := 0; i < d.cfg.DilateIterations; i++ {
		gocv.Dilate(mask, &mask, d.kernel)
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var regions []Region
	for i := 0; i < contours.Size(); i++ {
		r := Region{Bounds: gocv.BoundingRect(contours.At(i))}
		if r.Area() < d.cfg.MinRegionArea {
			continue
		}
		regions = append(regions, r)
	}
	return regions
}
