// Package display draws the gesture overlay on camera frames and shows them
// in a preview window.
package display

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/handctl/internal/control"
	"github.com/ayusman/handctl/internal/gesture"
)

// KeyEscape is the key code that closes the preview.
const KeyEscape = 27

// DefaultTitle is the preview window's title.
const DefaultTitle = "handctl"

// Overlay colors.
var (
	colorLeft   = color.RGBA{0, 255, 0, 0}
	colorRight  = color.RGBA{0, 0, 255, 0}
	colorRotate = color.RGBA{255, 0, 0, 0}
	colorGlue   = color.RGBA{255, 0, 255, 0}
	colorPinch  = color.RGBA{0, 255, 0, 0}
)

const (
	markerRadius   = 15
	captionOffset  = 30
	pinchThickness = 3
)

// Preview shows frames in an OpenCV window. The window is created on the
// first Show, so it belongs to whichever goroutine runs the frame loop.
type Preview struct {
	title  string
	window *gocv.Window
}

// NewPreview returns a preview with the given window title.
func NewPreview(title string) *Preview {
	if title == "" {
		title = DefaultTitle
	}
	return &Preview{title: title}
}

// Show draws the overlay on img, displays it and polls the keyboard. It
// returns false once Escape is pressed.
func (p *Preview) Show(img *gocv.Mat, res control.Result) bool {
	if p.window == nil {
		p.window = gocv.NewWindow(p.title)
	}

	Draw(img, res)
	p.window.IMShow(*img)
	return p.window.WaitKey(5)&0xFF != KeyEscape
}

// Close destroys the window if it was opened.
func (p *Preview) Close() error {
	if p.window == nil {
		return nil
	}
	err := p.window.Close()
	p.window = nil
	return err
}

// Draw paints markers for each visible hand onto img in place: a filled
// circle on each wrist, the left gesture as a caption, the smoothed depth
// under the right wrist, and a line between thumb and index while pinching.
func Draw(img *gocv.Mat, res control.Result) {
	w, h := img.Cols(), img.Rows()
	toPixel := func(x, y float64) image.Point {
		return image.Pt(int(x*float64(w)), int(y*float64(h)))
	}

	if l := res.Left; l != nil {
		c := toPixel(l.Wrist.X(), l.Wrist.Y())
		gocv.Circle(img, c, markerRadius, colorLeft, -1)

		switch l.Gesture {
		case gesture.LeftRotate:
			gocv.PutText(img, "ROTATE", image.Pt(c.X, c.Y-captionOffset), gocv.FontHersheySimplex, 0.6, colorRotate, 2)
		case gesture.LeftGlue:
			gocv.PutText(img, "GLUE", image.Pt(c.X, c.Y-captionOffset), gocv.FontHersheySimplex, 0.6, colorGlue, 2)
		}
	}

	if r := res.Right; r != nil {
		c := toPixel(r.Wrist.X(), r.Wrist.Y())
		gocv.Circle(img, c, markerRadius, colorRight, -1)
		gocv.PutText(img, fmt.Sprintf("Z: %.1f", res.Frame.HandZ), image.Pt(c.X, c.Y+captionOffset), gocv.FontHersheySimplex, 0.5, colorRight, 1)

		if r.Gesture == gesture.GrabMove {
			gocv.Line(img,
				toPixel(r.ThumbTip.X(), r.ThumbTip.Y()),
				toPixel(r.IndexTip.X(), r.IndexTip.Y()),
				colorPinch, pinchThickness)
		}
	}
}
