package container

import (
	"fmt"
	"log"

	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

// spans returns, for each dimension, the inclusive [start,end] pair
// clamped against the structure's own extent.
func (b *Base) spans(r region.Region) ([]int, []int, error) {
	dims := b.structure.Dimensions
	if len(r.Start) != len(dims) || len(r.End) != len(dims) {
		return nil, nil, &DataRangeError{Operation: "region", Details: fmt.Sprintf("region has %d/%d axes, structure has %d", len(r.Start), len(r.End), len(dims))}
	}
	starts := append([]int(nil), r.Start...)
	ends := append([]int(nil), r.End...)
	for i, d := range dims {
		if starts[i] < 0 || ends[i] >= d.Size || starts[i] > ends[i] {
			return nil, nil, &DataRangeError{Operation: "region", Details: fmt.Sprintf("axis %d span [%d,%d] out of [0,%d)", i, starts[i], ends[i], d.Size)}
		}
	}
	return starts, ends, nil
}

// odometer walks every coordinate in [starts,ends] inclusive, row-major
// (last axis fastest), invoking visit once per coordinate.
func odometer(starts, ends []int, visit func(coords []int)) {
	n := len(starts)
	if n == 0 {
		return
	}
	cur := append([]int(nil), starts...)
	for {
		visit(cur)
		i := n - 1
		for i >= 0 {
			cur[i]++
			if cur[i] <= ends[i] {
				break
			}
			cur[i] = starts[i]
			i--
		}
		if i < 0 {
			return
		}
	}
}

// GetRegionData extracts the sub-span named by r into one fresh
// DataVariant per source channel (length 1 under INTERLEAVED), each
// carrying the source variant's scalar kind.
func (b *Base) GetRegionData(r region.Region) ([]variant.DataVariant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	starts, ends, err := b.spans(r)
	if err != nil {
		return nil, err
	}
	if len(b.data) == 0 {
		return nil, &DataRangeError{Operation: "get-region-data", Details: "container has no data"}
	}

	count := 1
	for i := range starts {
		count *= ends[i] - starts[i] + 1
	}
	// Under PLANAR each channel's variant holds only its own coordinates.
	if ci := b.structure.DimensionIndex(structure.RoleChannel); b.structure.Organization != structure.Interleaved && ci >= 0 {
		count /= ends[ci] - starts[ci] + 1
	}

	out := make([]variant.DataVariant, len(b.data))
	for ci := range b.data {
		out[ci] = newLikeKind(b.data[ci], count)
	}

	idx := make([]int, len(b.data)) // next write index per output variant
	odometer(starts, ends, func(coords []int) {
		if b.structure.Organization == structure.Interleaved { // INTERLEAVED
			lin, e := b.structure.LinearIndex(coords)
			if e != nil {
				return
			}
			src := b.data[0]
			setFloat(&out[0], idx[0], getFloat(src, lin))
			idx[0]++
		} else {
			ch, intra, e := b.structure.ChannelSplit(coords)
			if e != nil || ch < 0 || ch >= len(b.data) {
				return
			}
			setFloat(&out[ch], idx[ch], getFloat(b.data[ch], intra))
			idx[ch]++
		}
	})
	return out, nil
}

// SetRegionData writes data back into the span named by r, matching
// GetRegionData's channel layout. Values are copied through the float64
// view and converted to the container's native scalar kind; the kinds of
// data[i] and of the storage are not compared.
func (b *Base) SetRegionData(r region.Region, data []variant.DataVariant) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	starts, ends, err := b.spans(r)
	if err != nil {
		return err
	}
	if len(data) != len(b.data) {
		return &DataRangeError{Operation: "set-region-data", Details: fmt.Sprintf("expected %d channel(s), got %d", len(b.data), len(data))}
	}

	idx := make([]int, len(b.data)) // next read index per input variant
	var writeErr error
	odometer(starts, ends, func(coords []int) {
		if writeErr != nil {
			return
		}
		if b.structure.Organization == structure.Interleaved {
			lin, e := b.structure.LinearIndex(coords)
			if e != nil {
				writeErr = e
				return
			}
			setFloat(&b.data[0], lin, getFloat(data[0], idx[0]))
			idx[0]++
		} else {
			ch, intra, e := b.structure.ChannelSplit(coords)
			if e != nil {
				writeErr = e
				return
			}
			setFloat(&b.data[ch], intra, getFloat(data[ch], idx[ch]))
			idx[ch]++
		}
	})
	if writeErr != nil {
		return writeErr
	}
	if b.GetProcessingState() == Ready || b.GetProcessingState() == Processed {
		if err := b.UpdateProcessingState(Idle); err != nil {
			log.Printf("container: set-region-data: %v", err)
		} else if err := b.UpdateProcessingState(Ready); err != nil {
			log.Printf("container: set-region-data: %v", err)
		}
	}
	return nil
}

// GetRegionGroupData concatenates GetRegionData over every region in the
// named group, in group order.
func (b *Base) GetRegionGroupData(name string) ([]variant.DataVariant, error) {
	g, ok := b.GetRegionGroup(name)
	if !ok {
		return nil, &DataRangeError{Operation: "get-region-group-data", Details: fmt.Sprintf("no such region group %q", name)}
	}
	var out []variant.DataVariant
	for _, r := range g.Regions {
		chunk, err := b.GetRegionData(r)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// GetSegmentsData extracts each segment's source region in turn.
func (b *Base) GetSegmentsData(segs []region.RegionSegment) ([]variant.DataVariant, error) {
	var out []variant.DataVariant
	for _, s := range segs {
		chunk, err := b.GetRegionData(s.SourceRegion)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// GetFrame returns frame index as a flat double span (spec §4.C
// "span<const double>"), raster order across the non-time dimensions.
func (b *Base) GetFrame(index int) ([]float64, error) {
	nf := b.NumFrames()
	if index < 0 || index >= nf {
		return nil, &DataRangeError{Operation: "get-frame", Details: fmt.Sprintf("frame %d out of [0,%d)", index, nf)}
	}
	dims := b.structure.Dimensions
	timeIdx := -1
	for i, d := range dims {
		if d.Role == structure.RoleTime {
			timeIdx = i
			break
		}
	}
	starts := make([]int, len(dims))
	ends := make([]int, len(dims))
	for i, d := range dims {
		ends[i] = d.Size - 1
	}
	if timeIdx >= 0 {
		starts[timeIdx] = index
		ends[timeIdx] = index
	}
	chunks, err := b.GetRegionData(region.NewRegion(starts, ends))
	if err != nil {
		return nil, err
	}
	var flat []float64
	for _, c := range chunks {
		flat = append(flat, c.Float64()...)
	}
	return flat, nil
}

// GetFrames fills out[0:count] with consecutive frames starting at start.
// Returns the number of frames actually written (fewer than count if the
// container runs out of frames first).
func (b *Base) GetFrames(out [][]float64, start, count int) (int, error) {
	nf := b.NumFrames()
	written := 0
	for i := 0; i < count && start+i < nf; i++ {
		frame, err := b.GetFrame(start + i)
		if err != nil {
			return written, err
		}
		if i < len(out) {
			out[i] = frame
		}
		written++
	}
	return written, nil
}

func (b *Base) GetValueAt(coords []int) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.data) == 0 {
		return 0, &DataRangeError{Operation: "get-value-at", Details: "container has no data"}
	}
	if b.structure.Organization == structure.Interleaved {
		lin, err := b.structure.LinearIndex(coords)
		if err != nil {
			return 0, err
		}
		return getFloat(b.data[0], lin), nil
	}
	ch, intra, err := b.structure.ChannelSplit(coords)
	if err != nil {
		return 0, err
	}
	if ch < 0 || ch >= len(b.data) {
		return 0, &DataRangeError{Operation: "get-value-at", Details: fmt.Sprintf("channel %d out of [0,%d)", ch, len(b.data))}
	}
	return getFloat(b.data[ch], intra), nil
}

func (b *Base) SetValueAt(coords []int, value float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.data) == 0 {
		return &DataRangeError{Operation: "set-value-at", Details: "container has no data"}
	}
	if b.structure.Organization == structure.Interleaved {
		lin, err := b.structure.LinearIndex(coords)
		if err != nil {
			return err
		}
		setFloat(&b.data[0], lin, value)
		return nil
	}
	ch, intra, err := b.structure.ChannelSplit(coords)
	if err != nil {
		return err
	}
	if ch < 0 || ch >= len(b.data) {
		return &DataRangeError{Operation: "set-value-at", Details: fmt.Sprintf("channel %d out of [0,%d)", ch, len(b.data))}
	}
	setFloat(&b.data[ch], intra, value)
	return nil
}

// newLikeKind builds a fresh zeroed DataVariant of src's scalar kind and
// the given length.
func newLikeKind(src variant.DataVariant, n int) variant.DataVariant {
	switch src.Kind() {
	case variant.KindFloat32:
		return variant.NewFloat32(n)
	case variant.KindUint8:
		return variant.NewUint8(n)
	case variant.KindUint16:
		return variant.NewUint16(n)
	case variant.KindUint32:
		return variant.NewUint32(n)
	case variant.KindComplex64:
		return variant.NewComplex64(n)
	case variant.KindComplex128:
		return variant.NewComplex128(n)
	default:
		return variant.NewFloat64(n)
	}
}

// getFloat/setFloat give index-at-a-time access to a DataVariant via its
// double view; used by the odometer-driven copy loops above, which only
// ever need one element at a time and accept the conversion cost.
func getFloat(v variant.DataVariant, i int) float64 {
	fv := v.Float64()
	if i < 0 || i >= len(fv) {
		return 0
	}
	return fv[i]
}

func setFloat(v *variant.DataVariant, i int, x float64) {
	n := v.Len()
	if i < 0 || i >= n {
		return
	}
	buf := v.Float64()
	buf[i] = x
	v.SetFromFloat64(buf)
}
