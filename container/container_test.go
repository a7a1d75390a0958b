package container

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

func newTensorContainer(t *testing.T, sizes ...int) *NDContainer {
	t.Helper()
	dims := make([]structure.Dimension, len(sizes))
	for i, n := range sizes {
		dims[i] = structure.Dimension{Name: "d", Size: n, Role: structure.RoleCustom}
	}
	s, err := structure.NewTensor(dims)
	if err != nil {
		t.Fatalf("NewTensor: %v", err)
	}
	return NewNDContainer(s, variant.KindFloat64)
}

func TestValueAtRoundTrip(t *testing.T) {
	c := newTensorContainer(t, 4, 4)
	if err := c.SetValueAt([]int{1, 2}, 42); err != nil {
		t.Fatalf("SetValueAt: %v", err)
	}
	got, err := c.GetValueAt([]int{1, 2})
	if err != nil {
		t.Fatalf("GetValueAt: %v", err)
	}
	if got != 42 {
		t.Fatalf("GetValueAt = %v, want 42", got)
	}
}

func TestSetRegionDataIsNoOpRoundTrip(t *testing.T) {
	c := newTensorContainer(t, 4, 4)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			_ = c.SetValueAt([]int{i, j}, float64(i*4+j))
		}
	}
	r := region.NewRegion([]int{1, 0}, []int{2, 3})
	data, err := c.GetRegionData(r)
	if err != nil {
		t.Fatalf("GetRegionData: %v", err)
	}
	if err := c.SetRegionData(r, data); err != nil {
		t.Fatalf("SetRegionData: %v", err)
	}
	after, err := c.GetRegionData(r)
	if err != nil {
		t.Fatalf("GetRegionData: %v", err)
	}
	before := data[0].Float64()
	got := after[0].Float64()
	for i := range before {
		if before[i] != got[i] {
			t.Fatalf("round trip changed data at %d: %v != %v", i, before[i], got[i])
		}
	}
}

func TestReaderTrackingGatesConsumption(t *testing.T) {
	c := newTensorContainer(t, 4)
	id := c.RegisterDimensionReader(0)
	if !c.HasActiveReaders() {
		t.Fatal("expected an active reader after registration")
	}
	if c.AllDimensionsConsumed() {
		t.Fatal("should not be all-consumed before marking consumption")
	}
	c.MarkDimensionConsumed(0, id)
	if !c.AllDimensionsConsumed() {
		t.Fatal("expected all-consumed after marking the only active reader")
	}
	c.UnregisterDimensionReader(0, id)
	if c.HasActiveReaders() {
		t.Fatal("expected no active readers after unregistering")
	}
}

func TestProcessingTokenExclusiveAcrossGoroutines(t *testing.T) {
	c := newTensorContainer(t, 4)
	c.ResetProcessingToken()

	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	holders := map[int32]int{}
	var inside atomic.Int32 // goroutines currently holding the token

	for ch := int32(0); ch < n; ch++ {
		ch := ch
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.TryAcquireProcessingToken(ch) {
				if k := inside.Add(1); k != 1 {
					t.Errorf("%d goroutines hold the processing token at once, want 1", k)
				}
				mu.Lock()
				holders[ch]++
				mu.Unlock()
				inside.Add(-1)
				c.ResetProcessingToken()
			}
		}()
	}
	wg.Wait()

	total := 0
	mu.Lock()
	for _, n := range holders {
		total += n
	}
	mu.Unlock()
	if total == 0 {
		t.Fatal("expected at least one goroutine to acquire the token")
	}
}

func TestRegionGroupLifecycle(t *testing.T) {
	c := newTensorContainer(t, 10)
	g := region.NewRegionGroup("notes")
	g.Add("a", region.NewRegion([]int{0}, []int{4}))
	c.AddRegionGroup(g)

	if _, ok := c.GetRegionGroup("notes"); !ok {
		t.Fatal("expected region group to be retrievable")
	}
	if c.IsRegionLoaded("notes") {
		t.Fatal("region group should not be loaded by default")
	}
	if err := c.LoadRegion("notes"); err != nil {
		t.Fatalf("LoadRegion: %v", err)
	}
	if !c.IsRegionLoaded("notes") {
		t.Fatal("expected region group to be loaded")
	}
	c.RemoveRegionGroup("notes")
	if _, ok := c.GetRegionGroup("notes"); ok {
		t.Fatal("expected region group to be gone after removal")
	}
}

type recordingProcessor struct {
	got Container
}

func (p *recordingProcessor) Process(c Container) error {
	p.got = c
	return nil
}

func TestProcessDefaultPassesConcreteContainer(t *testing.T) {
	c := newTensorContainer(t, 4)
	rp := &recordingProcessor{}
	c.SetDefaultProcessor(rp)

	if err := c.ProcessDefault(); err != nil {
		t.Fatalf("ProcessDefault: %v", err)
	}
	got, ok := rp.got.(*NDContainer)
	if !ok {
		t.Fatalf("ProcessDefault passed %T, want *NDContainer", rp.got)
	}
	if got != c {
		t.Fatal("ProcessDefault passed a different *NDContainer than the one it was set on")
	}
}

func TestCreateDefaultProcessorUsesFactory(t *testing.T) {
	c := newTensorContainer(t, 4)
	built := 0
	c.SetDefaultProcessorFactory(func() Processor {
		built++
		return &recordingProcessor{}
	})

	p1 := c.CreateDefaultProcessor()
	p2 := c.CreateDefaultProcessor()
	if built != 1 {
		t.Fatalf("factory invoked %d times, want 1 (lazy, cached)", built)
	}
	if p1 != p2 {
		t.Fatal("CreateDefaultProcessor should return the same cached instance on repeat calls")
	}

	if err := c.ProcessDefault(); err != nil {
		t.Fatalf("ProcessDefault: %v", err)
	}
	rp := p1.(*recordingProcessor)
	if _, ok := rp.got.(*NDContainer); !ok {
		t.Fatalf("ProcessDefault passed %T, want *NDContainer", rp.got)
	}
}

func TestClearResetsStateAndData(t *testing.T) {
	c := newTensorContainer(t, 4)
	_ = c.SetValueAt([]int{0}, 1)
	if !c.HasData() {
		t.Fatal("expected HasData() after writing")
	}
	_ = c.UpdateProcessingState(Ready)
	c.Clear()
	if c.HasData() {
		t.Fatal("expected no data after Clear")
	}
	if c.GetProcessingState() != Idle {
		t.Fatalf("GetProcessingState() = %s, want IDLE", c.GetProcessingState())
	}
}
