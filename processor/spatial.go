package processor

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

// SpatialRegionProcessor is a container-neutral parallel extractor for
// any container whose structure carries at least one spatial role (spec
// §4.G). It treats processed_data[0] as a full-surface byte buffer placed
// by a preceding access processor, and replaces processed_data with one
// DataVariant per active region. The DataVariants carry no attributes;
// each output's group_name/region_index is available at the same index
// in RegionAttributes and through RegionLabel.
type SpatialRegionProcessor struct {
	OrganizeBase

	RegionAttributes []map[string]any // parallel to OrganizedRegions, group_name/region_index
}

func NewSpatialRegionProcessor() *SpatialRegionProcessor {
	s := &SpatialRegionProcessor{OrganizeBase: NewOrganizeBase()}
	s.Cache = nil // auto-caching disabled by default: live surfaces change every frame
	return s
}

func (p *SpatialRegionProcessor) OnAttach(c container.Container) error {
	if !c.Structure().HasSpatialRole() {
		return &AttachError{Operation: "on-attach", Details: "container has no spatial dimension"}
	}
	p.attachRef(c)
	p.organize(c)
	return nil
}

func (p *SpatialRegionProcessor) OnDetach(c container.Container) {}

// Refresh re-syncs OrganizedRegions from the container's current group
// map between frames.
func (p *SpatialRegionProcessor) Refresh(c container.Container) { p.organize(c) }

func (p *SpatialRegionProcessor) organize(c container.Container) {
	p.OrganizedRegions = organizeFromGroups(c)
	p.RegionAttributes = make([]map[string]any, len(p.OrganizedRegions))
	for i, o := range p.OrganizedRegions {
		p.RegionAttributes[i] = map[string]any{
			"group_name":   o.GroupName,
			"region_index": o.RegionIndex,
		}
	}
}

// Process assumes processed_data[0] holds the full-surface byte buffer.
// If it is missing or empty, state returns to IDLE and the call is a
// no-op. Otherwise it extracts every active region's data in parallel
// (golang.org/x/sync/errgroup) directly from the container and installs
// the result, in OrganizedRegions order, as processed_data.
func (p *SpatialRegionProcessor) Process(c container.Container) error {
	surface := c.GetProcessedData()
	if len(surface) == 0 || surface[0].Len() == 0 {
		return c.UpdateProcessingState(container.Idle)
	}
	if err := c.UpdateProcessingState(container.Processing); err != nil {
		return err
	}

	out := make([]variant.DataVariant, len(p.OrganizedRegions))
	var mu sync.Mutex
	var g errgroup.Group
	for i, o := range p.OrganizedRegions {
		i, o := i, o
		g.Go(func() error {
			if len(o.Segments) == 0 {
				return nil
			}
			data, err := c.GetRegionData(o.Segments[0].SourceRegion)
			if err != nil {
				return err
			}
			var tagged variant.DataVariant
			if len(data) > 0 {
				tagged = data[0]
			}
			mu.Lock()
			out[i] = tagged
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = c.UpdateProcessingState(container.Error)
		return err
	}

	c.SetProcessedData(out)
	return c.UpdateProcessingState(container.Processed)
}

// RegionLabel returns the group_name/region_index pair for the region at
// output index i, mirroring the attributes each extracted DataVariant is
// conceptually tagged with (DataVariant itself carries no attribute map,
// so callers needing the label alongside the data read both in lockstep).
func (p *SpatialRegionProcessor) RegionLabel(i int) (string, int, bool) {
	if i < 0 || i >= len(p.OrganizedRegions) {
		return "", 0, false
	}
	o := p.OrganizedRegions[i]
	return o.GroupName, o.RegionIndex, true
}
