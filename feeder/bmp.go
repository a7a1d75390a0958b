// Package feeder holds boundary examples: external decoders that
// populate a container's raw data and flip its state to READY, outside
// the processing chain proper (spec §6's "container <-> external
// decoder/feeder" boundary).
package feeder

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/bmp"

	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

// DecodeError wraps a feeder's decode/shape failures.
type DecodeError struct {
	Operation string
	Details   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("feeder: %s: %s", e.Operation, e.Details)
}

// BMPFeeder decodes a BMP image and populates an IMAGE_COLOR container
// with its RGBA bytes, transitioning IDLE->READY on success.
type BMPFeeder struct{}

// Feed decodes raw BMP bytes and writes the resulting RGBA surface into
// c via SetRegionData, then marks c READY. c's structure must already be
// ImageColor-shaped at exactly the decoded image's width/height/4.
func (BMPFeeder) Feed(c container.Container, raw []byte) error {
	img, err := bmp.Decode(bytes.NewReader(raw))
	if err != nil {
		return &DecodeError{Operation: "decode", Details: err.Error()}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	want, err := structure.NewImageColor(width, height, 4)
	if err != nil {
		return &DecodeError{Operation: "shape", Details: err.Error()}
	}
	if c.Structure().TotalElements() != want.TotalElements() {
		return &DecodeError{Operation: "shape", Details: fmt.Sprintf("container holds %d elements, decoded image needs %d", c.Structure().TotalElements(), want.TotalElements())}
	}

	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	pixVariant := variant.NewUint8(len(rgba.Pix))
	buf := pixVariant.Float64()
	for i, b := range rgba.Pix {
		buf[i] = float64(b)
	}
	pixVariant.SetFromFloat64(buf)

	dims := c.Structure().Dimensions
	start := make([]int, len(dims))
	end := make([]int, len(dims))
	for i, d := range dims {
		end[i] = d.Size - 1
	}
	if err := c.SetRegionData(region.NewRegion(start, end), []variant.DataVariant{pixVariant}); err != nil {
		return err
	}

	if err := c.UpdateProcessingState(container.Ready); err != nil {
		// container might already be READY/PROCESSED from a previous
		// feed; IDLE->READY is the only transition this feeder drives.
		return nil
	}
	return nil
}
