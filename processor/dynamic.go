package processor

import (
	"sync/atomic"

	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/region"
)

// DynamicRegionProcessor wraps RegionOrganizingProcessor with a
// user-supplied reorganization callback, triggered either by an atomic
// flag or an auto-criterion evaluated every process call (spec §4.F).
type DynamicRegionProcessor struct {
	*RegionOrganizingProcessor

	trigger atomic.Bool

	// Reorganize rebuilds organized, in place, against the current
	// container state.
	Reorganize func(organized *[]region.OrganizedRegion, c container.Container)

	// AutoCriterion, if set, is consulted every Process call in addition
	// to the trigger flag.
	AutoCriterion func(organized []region.OrganizedRegion, c container.Container) bool
}

func NewDynamicRegionProcessor() *DynamicRegionProcessor {
	return &DynamicRegionProcessor{RegionOrganizingProcessor: NewRegionOrganizingProcessor()}
}

// TriggerReorganization arms the atomic flag consulted by
// ShouldReorganize on the next Process call.
func (p *DynamicRegionProcessor) TriggerReorganization() { p.trigger.Store(true) }

// ShouldReorganize combines the atomic trigger flag with the optional
// auto-criterion.
func (p *DynamicRegionProcessor) ShouldReorganize(c container.Container) bool {
	if p.trigger.Load() {
		return true
	}
	if p.AutoCriterion != nil {
		return p.AutoCriterion(p.OrganizedRegions, c)
	}
	return false
}

// Process runs the base region-organizing cycle, but first checks
// ShouldReorganize: on a hit it invokes Reorganize, clears the trigger,
// then repairs CurrentRegionIdx/position by re-finding the region for the
// current primary position, falling back to the first segment's start.
func (p *DynamicRegionProcessor) Process(c container.Container) error {
	if p.ShouldReorganize(c) {
		var prevPos []int
		if p.CurrentRegionIdx < len(p.OrganizedRegions) {
			prevPos = append([]int(nil), p.OrganizedRegions[p.CurrentRegionIdx].CurrentPosition...)
		}
		if p.Reorganize != nil {
			p.Reorganize(&p.OrganizedRegions, c)
		}
		p.trigger.Store(false)
		p.repairPosition(prevPos)
	}
	return p.RegionOrganizingProcessor.Process(c)
}

// repairPosition re-locates prevPos (the primary position captured just
// before Reorganize ran, since reordering OrganizedRegions moves each
// entry's own CurrentPosition along with it) in the reorganized list,
// falling back to the first region's first segment start if it no
// longer falls inside any region.
func (p *DynamicRegionProcessor) repairPosition(prevPos []int) {
	if len(p.OrganizedRegions) == 0 {
		p.CurrentRegionIdx = 0
		return
	}
	if p.CurrentRegionIdx >= len(p.OrganizedRegions) {
		p.CurrentRegionIdx = 0
	}
	if len(prevPos) == 0 {
		return
	}
	if idx := p.FindRegionForPosition(prevPos); idx >= 0 {
		p.CurrentRegionIdx = idx
		return
	}
	p.CurrentRegionIdx = 0
	if segs := p.OrganizedRegions[0].Segments; len(segs) > 0 {
		p.OrganizedRegions[0].CurrentPosition = append([]int(nil), segs[0].SourceRegion.Start...)
	}
}
