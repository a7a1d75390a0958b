package processor

import (
	"testing"

	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

// TestSpatialParallelExtraction mirrors the "spatial parallel extraction"
// scenario: a container with two rectangular regions in one group; after
// processed_data[0] is primed with a surface buffer, Process must replace
// processed_data with exactly two variants, in region order, equal to the
// rectangular slices, each labeled by group_name/region_index.
func TestSpatialParallelExtraction(t *testing.T) {
	s, err := structure.NewImageColor(4, 4, 1)
	if err != nil {
		t.Fatalf("NewImageColor: %v", err)
	}
	c := container.NewNDContainer(s, variant.KindFloat64)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if err := c.SetValueAt([]int{y, x, 0}, float64(y*4+x)); err != nil {
				t.Fatalf("SetValueAt: %v", err)
			}
		}
	}

	g := region.NewRegionGroup("quadrants")
	g.Add("tl", region.NewRegion([]int{0, 0, 0}, []int{1, 1, 0}))
	g.Add("br", region.NewRegion([]int{2, 2, 0}, []int{3, 3, 0}))
	c.AddRegionGroup(g)

	p := NewSpatialRegionProcessor()
	if err := p.OnAttach(c); err != nil {
		t.Fatalf("OnAttach: %v", err)
	}

	// Prime processed_data[0] with a full-surface buffer so Process
	// doesn't treat the call as a no-op.
	surface := variant.NewUint8(16)
	c.SetProcessedData([]variant.DataVariant{surface})

	if err := c.UpdateProcessingState(container.Ready); err != nil {
		t.Fatalf("UpdateProcessingState(Ready): %v", err)
	}

	if err := p.Process(c); err != nil {
		t.Fatalf("Process: %v", err)
	}

	out := c.GetProcessedData()
	if len(out) != 2 {
		t.Fatalf("processed_data length = %d, want 2", len(out))
	}

	tl, err := c.GetRegionData(region.NewRegion([]int{0, 0, 0}, []int{1, 1, 0}))
	if err != nil {
		t.Fatalf("GetRegionData(tl): %v", err)
	}
	br, err := c.GetRegionData(region.NewRegion([]int{2, 2, 0}, []int{3, 3, 0}))
	if err != nil {
		t.Fatalf("GetRegionData(br): %v", err)
	}

	gotTL, gotBR := out[0].Float64(), out[1].Float64()
	wantTL, wantBR := tl[0].Float64(), br[0].Float64()
	for i := range wantTL {
		if gotTL[i] != wantTL[i] {
			t.Fatalf("tl[%d] = %v, want %v", i, gotTL[i], wantTL[i])
		}
	}
	for i := range wantBR {
		if gotBR[i] != wantBR[i] {
			t.Fatalf("br[%d] = %v, want %v", i, gotBR[i], wantBR[i])
		}
	}

	group, idx, ok := p.RegionLabel(0)
	if !ok || group != "quadrants" || idx != 0 {
		t.Fatalf("RegionLabel(0) = (%q, %d, %v), want (quadrants, 0, true)", group, idx, ok)
	}
	group, idx, ok = p.RegionLabel(1)
	if !ok || group != "quadrants" || idx != 1 {
		t.Fatalf("RegionLabel(1) = (%q, %d, %v), want (quadrants, 1, true)", group, idx, ok)
	}
}
