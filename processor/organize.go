package processor

import (
	"fmt"
	"math/rand"
	"weak"

	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/region"
)

const defaultCacheBytesLimit = 1 << 20 // 1 MiB, spec §4.F default

// OrganizeBase holds the LRU cache manager, the materialized
// organized-region list, and the current position within it, shared by
// every region-organizing processor.
type OrganizeBase struct {
	containerRef weak.Pointer[container.Base]

	Cache *region.CacheManager

	OrganizedRegions  []region.OrganizedRegion
	CurrentRegionIdx  int

	rng *rand.Rand
}

// NewOrganizeBase builds the shared state with a 64-entry cache ceiling.
// The ceiling counts cached RegionCache values, not bytes; the 1 MiB
// defaultCacheBytesLimit above is not applied (see DESIGN.md).
func NewOrganizeBase() OrganizeBase {
	return OrganizeBase{
		Cache: region.NewCacheManager(64),
		rng:   rand.New(rand.NewSource(1)),
	}
}

func (b *OrganizeBase) attachRef(c container.Container) {
	if u, ok := c.(interface{ UnderlyingBase() *container.Base }); ok {
		b.containerRef = weak.Make(u.UnderlyingBase())
	}
}

func (b *OrganizeBase) Attached() bool { return b.containerRef.Value() != nil }

// CacheRegionIfNeeded caches seg's data only when its volume is at most
// 10% of the cache's entry capacity, spec §4.F's cheap heuristic for
// "small enough to be worth caching".
func (b *OrganizeBase) CacheRegionIfNeeded(seg region.RegionSegment, c container.Container) {
	if seg.SourceRegion.Volume() > b.Cache.MaxSize()/10 {
		return
	}
	if _, ok := b.Cache.GetCachedSegment(seg); ok {
		return
	}
	data, err := c.GetRegionData(seg.SourceRegion)
	if err != nil {
		return
	}
	b.Cache.CacheRegion(region.RegionCache{Data: data, SourceRegion: seg.SourceRegion})
}

// organizeFromGroups enumerates every region in every group attached to
// c, wraps each in an OrganizedRegion whose single segment covers the
// full region, merges group and region attributes, and returns the list
// sorted by the first dimension of each segment's start coordinate
// (spec §4.F's organize_container_data).
func organizeFromGroups(c container.Container) []region.OrganizedRegion {
	groups := c.GetAllRegionGroups()
	var out []region.OrganizedRegion
	for _, g := range groups {
		for i, r := range g.Regions {
			seg := region.NewSegment(r, make([]int, len(r.Start)), spanSizes(r))
			attrs := map[string]any{}
			for k, v := range g.Attributes {
				attrs[k] = v
			}
			for k, v := range r.Attributes {
				attrs[k] = v
			}
			out = append(out, region.OrganizedRegion{
				GroupName:        g.Name,
				RegionIndex:      i,
				Segments:         []region.RegionSegment{seg},
				Attributes:       attrs,
				TransitionType:   g.TransitionType,
				SelectionPattern: g.SelectionPattern,
				CurrentPosition:  append([]int(nil), r.Start...),
			})
		}
	}
	sortByFirstDimStart(out)
	return out
}

func spanSizes(r region.Region) []int {
	sizes := make([]int, len(r.Start))
	for i := range sizes {
		sizes[i] = r.End[i] - r.Start[i] + 1
	}
	return sizes
}

func sortByFirstDimStart(regions []region.OrganizedRegion) {
	for i := 1; i < len(regions); i++ {
		j := i
		for j > 0 && key(regions[j]) < key(regions[j-1]) {
			regions[j], regions[j-1] = regions[j-1], regions[j]
			j--
		}
	}
}

func key(o region.OrganizedRegion) int {
	if len(o.Segments) == 0 || len(o.Segments[0].SourceRegion.Start) == 0 {
		return 0
	}
	return o.Segments[0].SourceRegion.Start[0]
}

// OrganizeError wraps a region-organizing processor's structural
// failures (no organized regions, bad selection weights, etc).
type OrganizeError struct {
	Operation string
	Details   string
}

func (e *OrganizeError) Error() string {
	return fmt.Sprintf("processor: %s: %s", e.Operation, e.Details)
}
