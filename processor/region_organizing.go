package processor

import (
	"weak"

	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

// RegionOrganizingProcessor walks a container's region groups in order,
// selecting and extracting one segment per process call, with an optional
// transition at the boundary where the last region wraps back to the
// first (spec §4.F).
type RegionOrganizingProcessor struct {
	OrganizeBase

	// Weights, keyed by organized-region index, for SELECTION_WEIGHTED;
	// absent or mis-sized falls back to modular advance per spec.
	Weights map[int][]float64

	TransitionDurationMs int

	// OnTransitionCallback is invoked for TRANSITION_CALLBACK at a region
	// boundary instead of blending; nil means the boundary is a hard
	// switch, same as TRANSITION_GATED.
	OnTransitionCallback func(current, next *region.OrganizedRegion, c container.Container, output []variant.DataVariant)
}

func NewRegionOrganizingProcessor() *RegionOrganizingProcessor {
	r := &RegionOrganizingProcessor{OrganizeBase: NewOrganizeBase()}
	return r
}

func (p *RegionOrganizingProcessor) OnAttach(c container.Container) error {
	p.attachRef(c)
	p.OrganizedRegions = organizeFromGroups(c)
	if len(p.OrganizedRegions) == 0 {
		return &OrganizeError{Operation: "on-attach", Details: "no regions to organize"}
	}
	p.CurrentRegionIdx = 0
	return nil
}

func (p *RegionOrganizingProcessor) OnDetach(c container.Container) {
	p.containerRef = weak.Pointer[container.Base]{}
}

// Process runs one cycle of §4.F's algorithm: pick the current region,
// select a segment, extract (or blend across a region boundary), and
// advance.
func (p *RegionOrganizingProcessor) Process(c container.Container) error {
	if err := c.UpdateProcessingState(container.Processing); err != nil {
		return err
	}
	if len(p.OrganizedRegions) == 0 {
		_ = c.UpdateProcessingState(container.Error)
		return &OrganizeError{Operation: "process", Details: "no organized regions"}
	}

	current := &p.OrganizedRegions[p.CurrentRegionIdx]
	segIdx := p.selectSegment(current)
	seg := &current.Segments[segIdx]
	current.ActiveSegmentIndex = segIdx

	completed := len(current.CurrentPosition) > 0 && len(seg.EndCoordinates()) > 0 &&
		current.CurrentPosition[0] >= seg.EndCoordinates()[0]

	lastRegion := p.CurrentRegionIdx == len(p.OrganizedRegions)-1
	lastSegment := segIdx == len(current.Segments)-1

	var output []variant.DataVariant
	var err error

	if lastRegion && lastSegment && p.transitionActive(current) {
		next := &p.OrganizedRegions[0]
		output, err = p.applyTransition(current, next, c)
	} else {
		p.CacheRegionIfNeeded(*seg, c)
		if cached, ok := p.Cache.GetCachedSegment(*seg); ok {
			output = cached.Data
		} else {
			output, err = c.GetRegionData(seg.SourceRegion)
		}
	}
	if err != nil {
		_ = c.UpdateProcessingState(container.Error)
		return err
	}
	c.SetProcessedData(output)

	if completed {
		p.advanceRegion()
	} else {
		p.advancePosition(current, 1)
	}

	return c.UpdateProcessingState(container.Processed)
}

func (p *RegionOrganizingProcessor) transitionActive(o *region.OrganizedRegion) bool {
	switch o.TransitionType {
	case region.TransitionCrossfade, region.TransitionOverlap:
		return p.TransitionDurationMs > 0
	case region.TransitionCallback:
		return p.OnTransitionCallback != nil
	default:
		return false
	}
}

// selectSegment applies the region's configured selection pattern.
func (p *RegionOrganizingProcessor) selectSegment(o *region.OrganizedRegion) int {
	n := len(o.Segments)
	if n == 0 {
		return 0
	}
	switch o.SelectionPattern {
	case region.SelectionRandom:
		return p.rng.Intn(n)
	case region.SelectionWeighted:
		weights, ok := p.Weights[p.CurrentRegionIdx]
		if !ok || len(weights) != n {
			return (o.ActiveSegmentIndex + 1) % n
		}
		return weightedPick(p.rng.Float64(), weights)
	case region.SelectionAll:
		return o.ActiveSegmentIndex // caller iterates externally if "all" semantics needed
	default: // SEQUENTIAL and the documented-elsewhere patterns
		return (o.ActiveSegmentIndex + 1) % n
	}
}

func weightedPick(r float64, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	target := r * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if target <= acc {
			return i
		}
	}
	return len(weights) - 1
}

// applyTransition blends current's and next's data over double spans per
// spec §4.F: CROSSFADE linear fade, OVERLAP equal-power mix, IMMEDIATE no
// blending, GATED hard switch, CALLBACK user-invoked.
func (p *RegionOrganizingProcessor) applyTransition(current, next *region.OrganizedRegion, c container.Container) ([]variant.DataVariant, error) {
	curSeg := current.Segments[current.ActiveSegmentIndex]
	nextSeg := next.Segments[0]

	curData, err := c.GetRegionData(curSeg.SourceRegion)
	if err != nil {
		return nil, err
	}
	nextData, err := c.GetRegionData(nextSeg.SourceRegion)
	if err != nil {
		return nil, err
	}

	switch current.TransitionType {
	case region.TransitionCallback:
		if p.OnTransitionCallback != nil {
			p.OnTransitionCallback(current, next, c, curData)
		}
		return curData, nil
	case region.TransitionGated:
		return curData, nil
	case region.TransitionImmediate:
		return curData, nil
	}

	n := len(curData)
	if len(nextData) < n {
		n = len(nextData)
	}
	out := make([]variant.DataVariant, n)
	for i := 0; i < n; i++ {
		a := curData[i].Float64()
		b := nextData[i].Float64()
		m := len(a)
		if len(b) < m {
			m = len(b)
		}
		mixed := make([]float64, m)
		switch current.TransitionType {
		case region.TransitionCrossfade:
			for j := 0; j < m; j++ {
				f := float64(j) / float64(max(1, m-1))
				mixed[j] = a[j]*(1-f) + b[j]*f
			}
		case region.TransitionOverlap:
			for j := 0; j < m; j++ {
				mixed[j] = 0.5*a[j] + 0.5*b[j]
			}
		default:
			copy(mixed, a[:m])
		}
		out[i] = curData[i].Copy()
		out[i].SetFromFloat64(mixed)
	}
	return out, nil
}

// advancePosition ripples the current region's position forward,
// honoring its per-region loop window if one is set (delegates to
// region.OrganizedRegion.AdvancePosition).
func (p *RegionOrganizingProcessor) advancePosition(o *region.OrganizedRegion, steps int) {
	if len(o.CurrentPosition) == 0 {
		return
	}
	o.AdvancePosition(steps, 0)
}

func (p *RegionOrganizingProcessor) advanceRegion() {
	p.CurrentRegionIdx = (p.CurrentRegionIdx + 1) % len(p.OrganizedRegions)
	next := &p.OrganizedRegions[p.CurrentRegionIdx]
	next.State = region.SegmentReady
}

// JumpToRegion moves the cursor directly to the region at index within
// group (matched by name and original enumeration index).
func (p *RegionOrganizingProcessor) JumpToRegion(group string, index int) bool {
	for i, o := range p.OrganizedRegions {
		if o.GroupName == group && o.RegionIndex == index {
			p.CurrentRegionIdx = i
			return true
		}
	}
	return false
}

// JumpToPosition sets the current region/position to whichever organized
// region contains coords, per FindRegionForPosition.
func (p *RegionOrganizingProcessor) JumpToPosition(coords []int) bool {
	idx := p.FindRegionForPosition(coords)
	if idx < 0 {
		return false
	}
	p.CurrentRegionIdx = idx
	p.OrganizedRegions[idx].CurrentPosition = append([]int(nil), coords...)
	return true
}

// FindRegionForPosition scans OrganizedRegions for one whose first
// segment's source region contains coords.
func (p *RegionOrganizingProcessor) FindRegionForPosition(coords []int) int {
	for i, o := range p.OrganizedRegions {
		if len(o.Segments) == 0 {
			continue
		}
		if o.Segments[0].SourceRegion.Contains(coords) {
			return i
		}
	}
	return -1
}
