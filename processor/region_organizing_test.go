package processor

import (
	"testing"

	"github.com/MayaFlux/MayaFlux-sub001/container"
	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

func newLinearContainer(t *testing.T, n int) container.Container {
	t.Helper()
	s, err := structure.NewAudioMono(n)
	if err != nil {
		t.Fatalf("NewAudioMono: %v", err)
	}
	c := container.NewNDContainer(s, variant.KindFloat64)
	for i := 0; i < n; i++ {
		if err := c.SetValueAt([]int{i}, float64(i)); err != nil {
			t.Fatalf("SetValueAt: %v", err)
		}
	}
	return c
}

// TestRegionCrossfade mirrors the "region crossfade" scenario: two
// regions TIME [0..10] and [10..20] in one group, CROSSFADE, duration
// covering the full overlap; the boundary segment's processed data must
// equal a·(1-f) + b·f pointwise with f = i/N.
func TestRegionCrossfade(t *testing.T) {
	c := newLinearContainer(t, 21)

	g := region.NewRegionGroup("g")
	g.TransitionType = region.TransitionCrossfade
	g.Add("a", region.NewRegion([]int{0}, []int{10}))
	g.Add("b", region.NewRegion([]int{10}, []int{20}))
	c.AddRegionGroup(g)

	if err := c.UpdateProcessingState(container.Ready); err != nil {
		t.Fatalf("UpdateProcessingState(Ready): %v", err)
	}

	p := NewRegionOrganizingProcessor()
	p.TransitionDurationMs = 100
	if err := p.OnAttach(c); err != nil {
		t.Fatalf("OnAttach: %v", err)
	}
	// Force the cursor onto the last of the two regions so Process takes
	// the boundary-transition branch.
	p.CurrentRegionIdx = len(p.OrganizedRegions) - 1

	if err := p.Process(c); err != nil {
		t.Fatalf("Process: %v", err)
	}

	out := c.GetProcessedData()
	if len(out) == 0 {
		t.Fatal("expected processed data from the crossfade")
	}
	// CurrentRegionIdx was forced to the last organized region (b, sorted
	// after a since it starts later); the boundary transition blends
	// current (b) into next, which wraps back to the first region (a).
	a, err := c.GetRegionData(region.NewRegion([]int{0}, []int{10}))
	if err != nil {
		t.Fatalf("GetRegionData(a): %v", err)
	}
	b, err := c.GetRegionData(region.NewRegion([]int{10}, []int{20}))
	if err != nil {
		t.Fatalf("GetRegionData(b): %v", err)
	}
	av, bv := a[0].Float64(), b[0].Float64()
	got := out[0].Float64()
	n := len(got)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		want := bv[i]*(1-f) + av[i]*f
		if diff := got[i] - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("index %d: got %v, want %v (f=%v)", i, got[i], want, f)
		}
	}
}

// TestDynamicReorganizationReversal mirrors the "dynamic reorganization"
// scenario: four organized regions, a callback that reverses the list;
// after TriggerReorganization and one Process call the list order is
// reversed and current_region_index repairs to the region containing the
// previous primary position.
func TestDynamicReorganizationReversal(t *testing.T) {
	c := newLinearContainer(t, 40)
	g := region.NewRegionGroup("g")
	for i := 0; i < 4; i++ {
		g.Add("r", region.NewRegion([]int{i * 10}, []int{i*10 + 9}))
	}
	c.AddRegionGroup(g)

	if err := c.UpdateProcessingState(container.Ready); err != nil {
		t.Fatalf("UpdateProcessingState(Ready): %v", err)
	}

	p := NewDynamicRegionProcessor()
	p.Reorganize = func(organized *[]region.OrganizedRegion, c container.Container) {
		list := *organized
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}
	if err := p.OnAttach(c); err != nil {
		t.Fatalf("OnAttach: %v", err)
	}

	p.CurrentRegionIdx = 1 // region covering [10,19]
	p.OrganizedRegions[1].CurrentPosition = []int{15}

	p.TriggerReorganization()
	if err := p.Process(c); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if p.OrganizedRegions[0].Segments[0].SourceRegion.Start[0] != 30 {
		t.Fatalf("expected reversed list to start at region [30,39], got start %v", p.OrganizedRegions[0].Segments[0].SourceRegion.Start)
	}
	if !p.OrganizedRegions[p.CurrentRegionIdx].Segments[0].SourceRegion.Contains([]int{15}) {
		t.Fatalf("expected repaired current_region_index to contain position 15, region is %v", p.OrganizedRegions[p.CurrentRegionIdx].Segments[0].SourceRegion)
	}
}

func TestJumpToRegionAndPosition(t *testing.T) {
	c := newLinearContainer(t, 30)
	g := region.NewRegionGroup("g")
	g.Add("a", region.NewRegion([]int{0}, []int{9}))
	g.Add("b", region.NewRegion([]int{10}, []int{19}))
	g.Add("c", region.NewRegion([]int{20}, []int{29}))
	c.AddRegionGroup(g)

	p := NewRegionOrganizingProcessor()
	if err := p.OnAttach(c); err != nil {
		t.Fatalf("OnAttach: %v", err)
	}

	if !p.JumpToRegion("g", 1) {
		t.Fatal("expected JumpToRegion(g, 1) to find region b")
	}
	if !p.OrganizedRegions[p.CurrentRegionIdx].Segments[0].SourceRegion.Contains([]int{15}) {
		t.Fatal("current region after JumpToRegion(g, 1) should be [10,19]")
	}

	if !p.JumpToPosition([]int{25}) {
		t.Fatal("expected JumpToPosition(25) to find the [20,29] region")
	}
	if !p.OrganizedRegions[p.CurrentRegionIdx].Segments[0].SourceRegion.Contains([]int{25}) {
		t.Fatal("current region after JumpToPosition should contain 25")
	}
}
