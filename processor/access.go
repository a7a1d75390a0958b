// Package processor implements Kakshya's processors (spec §4.E-G): the
// contiguous and frame-atomic access processors, the region-organizing
// processors (static and dynamic), and the spatial region processor.
package processor

import (
	"fmt"
	"time"
	"weak"

	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
)

// AttachError is raised when on_attach's validation fails (spec §4.E).
type AttachError struct {
	Operation string
	Details   string
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("processor: %s: %s", e.Operation, e.Details)
}

// ContiguousAccessProcessor treats the container as per-channel linear
// streams and auto-advances the primary dimension on every process call
// (spec §4.E). All channels share one read position (currentPos); there
// is no separate position per channel.
type ContiguousAccessProcessor struct {
	containerRef weak.Pointer[container.Base]

	dims         []structure.Dimension
	layout       structure.MemoryLayout
	totalElems   int
	looping      bool
	hasLoop      bool
	loopRegion   region.Region

	currentPos []int

	// OutputShape is the per-dimension extent each Process call pulls. If
	// left nil before OnAttach, it defaults to 1 per dimension except
	// CHANNEL, which gets its full size. Set before attaching to override
	// (spec §8 scenario 1's "output shape {3, 2}").
	OutputShape []int

	AutoAdvance bool
}

func NewContiguousAccessProcessor() *ContiguousAccessProcessor {
	return &ContiguousAccessProcessor{AutoAdvance: true}
}

// OnAttach caches dims/layout/total elements/looping state, builds the
// default output shape (each dimension size 1, except CHANNEL set to its
// full size), and validates non-empty, non-zero dimensions.
func (p *ContiguousAccessProcessor) OnAttach(c container.Container) error {
	s := c.Structure()
	if len(s.Dimensions) == 0 {
		return &AttachError{Operation: "on-attach", Details: "container has no dimensions"}
	}
	p.dims = append([]structure.Dimension(nil), s.Dimensions...)
	p.layout = s.MemoryLayout
	p.totalElems = s.TotalElements()
	if p.totalElems <= 0 {
		return &AttachError{Operation: "on-attach", Details: "container has zero total elements"}
	}

	p.currentPos = make([]int, len(p.dims))
	for _, d := range p.dims {
		if d.Size <= 0 {
			return &AttachError{Operation: "on-attach", Details: fmt.Sprintf("dimension %q has non-positive size", d.Name)}
		}
	}
	if len(p.OutputShape) == 0 {
		p.OutputShape = make([]int, len(p.dims))
		for i, d := range p.dims {
			if d.Role == structure.RoleChannel {
				p.OutputShape[i] = d.Size
			} else {
				p.OutputShape[i] = 1
			}
		}
	}

	if sc, ok := c.(interface{ IsLooping() bool }); ok {
		p.looping = sc.IsLooping()
	}
	if sc, ok := c.(interface {
		GetLoopRegion() (region.Region, bool)
	}); ok {
		p.loopRegion, p.hasLoop = sc.GetLoopRegion()
	}

	if u, ok := c.(interface{ UnderlyingBase() *container.Base }); ok {
		p.containerRef = weak.Make(u.UnderlyingBase())
	}
	return nil
}

func (p *ContiguousAccessProcessor) OnDetach(c container.Container) {
	p.containerRef = weak.Pointer[container.Base]{}
}

// Attached reports whether the container this processor was last
// attached to is still alive (spec §4.H: a processor's back-reference
// must not itself keep the container alive; ContainerExpired is this
// going false after the container is collected).
func (p *ContiguousAccessProcessor) Attached() bool {
	return p.containerRef.Value() != nil
}

// Process builds a Region from the current position and output shape,
// pulls data via GetRegionData, writes it into processed-data, and
// advances the primary dimension when AutoAdvance is set.
func (p *ContiguousAccessProcessor) Process(c container.Container) error {
	if err := c.UpdateProcessingState(container.Processing); err != nil {
		return err
	}

	start := append([]int(nil), p.currentPos...)
	end := make([]int, len(start))
	for i := range end {
		end[i] = start[i] + p.OutputShape[i] - 1
		if end[i] >= p.dims[i].Size {
			end[i] = p.dims[i].Size - 1
		}
	}
	r := region.NewRegion(start, end)

	data, err := c.GetRegionData(r)
	if err != nil {
		_ = c.UpdateProcessingState(container.Error)
		return err
	}
	c.SetProcessedData(data)

	if p.AutoAdvance {
		p.advance(c)
	}

	return c.UpdateProcessingState(container.Processed)
}

// advance moves the primary (first) dimension forward by its output-shape
// component. With looping disabled it freezes at the dimension's end;
// with looping enabled it wraps modularly within the loop region on
// every advance (same invariant as StreamContainer.AdvanceReadPosition),
// defaulting to the full dimension extent when no explicit loop region
// is set. For stream containers it also pushes the new position back
// via SetReadPositionScalar.
func (p *ContiguousAccessProcessor) advance(c container.Container) {
	if len(p.currentPos) == 0 {
		return
	}
	step := p.OutputShape[0]
	limit := p.dims[0].Size

	if !p.looping {
		next := p.currentPos[0] + step
		if next >= limit {
			p.currentPos[0] = limit - 1 // freeze at end
		} else {
			p.currentPos[0] = next
		}
	} else {
		start, end := 0, limit-1
		if p.hasLoop && len(p.loopRegion.Start) > 0 {
			start, end = p.loopRegion.Start[0], p.loopRegion.End[0]
		}
		span := end - start + 1
		if span <= 0 {
			span = 1
		}
		old := p.currentPos[0]
		if old < start {
			old = start
		}
		offset := ((old - start) + step) % span
		if offset < 0 {
			offset += span
		}
		p.currentPos[0] = start + offset
	}

	if sc, ok := c.(interface{ SetReadPositionScalar(int) error }); ok {
		_ = sc.SetReadPositionScalar(p.currentPos[0])
	}
}

// FrameAtomicAccessProcessor is the video access processor (spec §4.E):
// a single temporal cursor advanced with wall-clock fractional
// accumulation so the native frame rate is preserved regardless of call
// cadence.
type FrameAtomicAccessProcessor struct {
	containerRef weak.Pointer[container.Base]

	FramesPerBatch int
	FrameRate      float64

	currentFrame int
	pending      float64 // fractional frame accumulator, [0,1)
	lastTick     time.Time
	haveTick     bool
}

func NewFrameAtomicAccessProcessor(frameRate float64) *FrameAtomicAccessProcessor {
	return &FrameAtomicAccessProcessor{FramesPerBatch: 1, FrameRate: frameRate}
}

func (p *FrameAtomicAccessProcessor) OnAttach(c container.Container) error {
	if !c.Structure().HasSpatialRole() {
		return &AttachError{Operation: "on-attach", Details: "container has no spatial dimension"}
	}
	if u, ok := c.(interface{ UnderlyingBase() *container.Base }); ok {
		p.containerRef = weak.Make(u.UnderlyingBase())
	}
	p.haveTick = false
	return nil
}

func (p *FrameAtomicAccessProcessor) OnDetach(c container.Container) {
	p.containerRef = weak.Pointer[container.Base]{}
}

// Attached reports whether the container this processor was last
// attached to is still alive.
func (p *FrameAtomicAccessProcessor) Attached() bool {
	return p.containerRef.Value() != nil
}

// PendingFraction exposes the fractional frame accumulator for
// inspection/testing (supplemented accessor; not part of the minimal
// spec surface but natural given the internal field exists).
func (p *FrameAtomicAccessProcessor) PendingFraction() float64 { return p.pending }

func (p *FrameAtomicAccessProcessor) Process(c container.Container) error {
	if err := c.UpdateProcessingState(container.Processing); err != nil {
		return err
	}

	s := c.Structure()
	timeIdx := s.DimensionIndex(structure.RoleTime)

	start := make([]int, len(s.Dimensions))
	end := make([]int, len(s.Dimensions))
	for i, d := range s.Dimensions {
		end[i] = d.Size - 1
	}
	if timeIdx >= 0 {
		start[timeIdx] = p.currentFrame
		batchEnd := p.currentFrame + p.FramesPerBatch - 1
		if batchEnd >= s.Dimensions[timeIdx].Size {
			batchEnd = s.Dimensions[timeIdx].Size - 1
		}
		end[timeIdx] = batchEnd
	}

	data, err := c.GetRegionData(region.NewRegion(start, end))
	if err != nil {
		_ = c.UpdateProcessingState(container.Error)
		return err
	}
	if len(data) == 0 {
		_ = c.UpdateProcessingState(container.Error)
		return &AttachError{Operation: "process", Details: "no data extracted"}
	}
	c.SetProcessedData(data[:1])

	p.tick(c)

	return c.UpdateProcessingState(container.Processed)
}

func (p *FrameAtomicAccessProcessor) tick(c container.Container) {
	now := time.Now()
	if !p.haveTick {
		p.lastTick = now
		p.haveTick = true
		return
	}
	elapsed := now.Sub(p.lastTick).Seconds()
	p.lastTick = now

	p.pending += elapsed * p.FrameRate
	whole := int(p.pending)
	p.pending -= float64(whole)
	if whole <= 0 {
		return
	}
	p.currentFrame += whole
	if sc, ok := c.(interface{ SetReadPositionScalar(int) error }); ok {
		_ = sc.SetReadPositionScalar(p.currentFrame)
	}
}
