package region

import "testing"

func TestRegionVolumeAndContains(t *testing.T) {
	r := NewRegion([]int{0, 0}, []int{2, 3})
	if r.Volume() != 12 {
		t.Fatalf("Volume() = %d, want 12", r.Volume())
	}
	if !r.Contains([]int{1, 2}) {
		t.Fatal("expected [1,2] to be contained")
	}
	if r.Contains([]int{3, 0}) {
		t.Fatal("did not expect [3,0] to be contained")
	}
}

func TestRegionOverlaps(t *testing.T) {
	a := NewRegion([]int{0}, []int{10})
	b := NewRegion([]int{10}, []int{20})
	c := NewRegion([]int{11}, []int{20})
	if !a.Overlaps(b) {
		t.Fatal("[0,10] and [10,20] should overlap at the shared boundary")
	}
	if a.Overlaps(c) {
		t.Fatal("[0,10] and [11,20] should not overlap")
	}
}

func TestRegionSegmentAdvancePositionRipples(t *testing.T) {
	r := NewRegion([]int{0, 0}, []int{1, 2}) // 2x3
	seg := NewSegment(r, []int{0, 0}, []int{2, 3})
	if !seg.AdvancePosition(1, 0) {
		t.Fatal("expected advance to succeed within bounds")
	}
	// second advance on dim 0 overflows its extent of 2 and carries into
	// dim 1: [1 0] -> [0 1].
	if !seg.AdvancePosition(1, 0) {
		t.Fatal("expected ripple-carry advance to succeed")
	}
	// a 3-step advance on dim 0 wraps once more: [0 1] -> [1 2].
	if !seg.AdvancePosition(3, 0) {
		t.Fatal("expected multi-step ripple-carry advance to succeed")
	}
	if seg.CurrentPosition[0] != 1 || seg.CurrentPosition[1] != 2 {
		t.Fatalf("CurrentPosition = %v, want [1 2]", seg.CurrentPosition)
	}
}

func TestRegionGroupSortByDimension(t *testing.T) {
	g := NewRegionGroup("g")
	g.Add("c", NewRegion([]int{20}, []int{25}))
	g.Add("a", NewRegion([]int{0}, []int{5}))
	g.Add("b", NewRegion([]int{10}, []int{15}))

	g.SortByDimension(0)

	want := []string{"a", "b", "c"}
	for i, label := range want {
		if g.Labels[i] != label {
			t.Fatalf("Labels[%d] = %q, want %q", i, g.Labels[i], label)
		}
	}
}

func TestRegionGroupCloneIsDeep(t *testing.T) {
	g := NewRegionGroup("g")
	g.Add("a", NewRegion([]int{0}, []int{5}))
	g.Regions[0].Attributes = map[string]any{"k": 1}

	clone := g.Clone()
	clone.Regions[0].Attributes["k"] = 2
	clone.Regions[0].Start[0] = 99

	if g.Regions[0].Attributes["k"] != 1 {
		t.Fatal("Clone should not share attribute maps with the source")
	}
	if g.Regions[0].Start[0] != 0 {
		t.Fatal("Clone should not share coordinate slices with the source")
	}
}

func TestCacheManagerLRUEviction(t *testing.T) {
	cm := NewCacheManager(3)
	r1 := NewRegion([]int{1}, []int{1})
	r2 := NewRegion([]int{2}, []int{2})
	r3 := NewRegion([]int{3}, []int{3})
	r4 := NewRegion([]int{4}, []int{4})

	cm.CacheRegion(RegionCache{SourceRegion: r1})
	cm.CacheRegion(RegionCache{SourceRegion: r2})
	cm.CacheRegion(RegionCache{SourceRegion: r3})

	if _, ok := cm.GetCachedRegion(r1); !ok {
		t.Fatal("expected R1 to be cached before eviction")
	}

	cm.CacheRegion(RegionCache{SourceRegion: r4})

	if _, ok := cm.GetCachedRegion(r2); ok {
		t.Fatal("expected R2 to be evicted as least-recently-used")
	}
	for _, r := range []Region{r1, r3, r4} {
		if _, ok := cm.GetCachedRegion(r); !ok {
			t.Fatalf("expected %v to remain cached", r)
		}
	}
	if cm.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", cm.Size())
	}
}

func TestCacheManagerAccessCountIncrements(t *testing.T) {
	cm := NewCacheManager(2)
	r := NewRegion([]int{0}, []int{0})
	cm.CacheRegion(RegionCache{SourceRegion: r})

	if _, ok := cm.GetCachedRegion(r); !ok {
		t.Fatal("expected region to be cached")
	}
	c, ok := cm.GetCachedRegion(r)
	if !ok {
		t.Fatal("expected region to remain cached")
	}
	if c.AccessCount < 1 {
		t.Fatalf("AccessCount = %d, want >= 1", c.AccessCount)
	}
}

func TestCacheManagerLoadOrInsertCoalesces(t *testing.T) {
	cm := NewCacheManager(4)
	r := NewRegion([]int{0}, []int{0})

	calls := 0
	load := func() (RegionCache, error) {
		calls++
		return RegionCache{SourceRegion: r}, nil
	}

	if _, err := cm.LoadOrInsert(r, load); err != nil {
		t.Fatalf("LoadOrInsert: %v", err)
	}
	if _, err := cm.LoadOrInsert(r, load); err != nil {
		t.Fatalf("LoadOrInsert: %v", err)
	}
	if calls != 1 {
		t.Fatalf("load invoked %d times, want 1 (second call should hit the cache directly)", calls)
	}
}
