package optimizer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const watermarkPadding = 10

// Watermark draws a text label into the bottom-right corner and re-encodes.
// Images too small to hold the label are returned unlabeled.
func (o *Optimizer) Watermark(src []byte, text string, format Format, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	canvas := imaging.Clone(img)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 216}),
		Face: basicfont.Face7x13,
	}

	labelWidth := drawer.MeasureString(text).Ceil()
	bounds := canvas.Bounds()
	if bounds.Dx() < labelWidth+2*watermarkPadding || bounds.Dy() < basicfont.Face7x13.Height+2*watermarkPadding {
		return encode(canvas, format, quality)
	}

	drawer.Dot = fixed.P(bounds.Max.X-labelWidth-watermarkPadding, bounds.Max.Y-watermarkPadding)
	drawer.DrawString(text)

	return encode(canvas, format, quality)
}
