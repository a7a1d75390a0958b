package container

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/MayaFlux/MayaFlux-sub001/internal/reentrant"
	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

// Container is the N-D data-holding substrate every access and
// region-organizing processor operates over (spec §4.C).
type Container interface {
	Dimensions() []structure.Dimension
	TotalElements() int
	FrameSize() int
	NumFrames() int
	MemoryLayout() structure.MemoryLayout
	SetMemoryLayout(structure.MemoryLayout)
	Structure() structure.Structure
	SetStructure(structure.Structure) error
	HasData() bool
	Clear()

	GetRegionData(r region.Region) ([]variant.DataVariant, error)
	SetRegionData(r region.Region, data []variant.DataVariant) error
	GetRegionGroupData(name string) ([]variant.DataVariant, error)
	GetSegmentsData(segs []region.RegionSegment) ([]variant.DataVariant, error)
	GetFrame(index int) ([]float64, error)
	GetFrames(out [][]float64, start, count int) (int, error)
	GetValueAt(coords []int) (float64, error)
	SetValueAt(coords []int, value float64) error

	Lock()
	Unlock()
	TryLock() bool

	GetProcessedData() []variant.DataVariant
	SetProcessedData(data []variant.DataVariant)

	GetProcessingState() ProcessingState
	UpdateProcessingState(to ProcessingState) error
	RegisterStateChangeCallback(cb StateChangeCallback) int
	UnregisterStateChangeCallback(id int)
	IsReadyForProcessing() bool
	MarkReadyForProcessing(bool)

	AddRegionGroup(g *region.RegionGroup)
	GetRegionGroup(name string) (*region.RegionGroup, bool)
	GetAllRegionGroups() map[string]*region.RegionGroup
	RemoveRegionGroup(name string)
	IsRegionLoaded(name string) bool
	LoadRegion(name string) error
	UnloadRegion(name string)

	RegisterDimensionReader(dim int) int64
	UnregisterDimensionReader(dim int, readerID int64)
	HasActiveReaders() bool
	MarkDimensionConsumed(dim int, readerID int64)
	AllDimensionsConsumed() bool

	ResetProcessingToken()
	TryAcquireProcessingToken(channel int32) bool
	HasProcessingToken(channel int32) bool

	GetDefaultProcessor() Processor
	SetDefaultProcessor(Processor)
	CreateDefaultProcessor() Processor
	ProcessDefault() error
	GetProcessingChain() any
	SetProcessingChain(any)
}

// Processor is the minimal behavior Container needs to run a "default
// processor" against itself (spec §4.C's create_default_processor /
// process_default). The chain package's richer Processor interface
// satisfies this one structurally; container never imports chain.
type Processor interface {
	Process(Container) error
}

// DataRangeError is spec's RangeError taxonomy row as raised by container
// point/range access.
type DataRangeError struct {
	Operation string
	Details   string
}

func (e *DataRangeError) Error() string {
	return fmt.Sprintf("container: %s: %s", e.Operation, e.Details)
}

// readerSlot tracks one dimension's reader registration and consumption.
type readerSlot struct {
	active     atomic.Bool
	readerID   atomic.Int64
	nextID     atomic.Int64
	consumed   atomic.Bool
}

// Base is the shared N-D container implementation embedded by every
// concrete container in this package: plain, sound-stream, and
// video-stream. It owns storage, region groups, the reentrant lock, the
// processing state machine, reader tracking, and the processing token.
type Base struct {
	stateMachine

	mu reentrant.Mutex

	structure structure.Structure
	data      []variant.DataVariant // one per planar channel, or len==1 interleaved

	processedData []variant.DataVariant

	regionGroups map[string]*region.RegionGroup
	loaded       map[string]bool

	readers []readerSlot // one per dimension

	processingToken atomic.Int32 // -1 == free, else holding channel index

	defaultProcessor        Processor
	defaultProcessorFactory func() Processor
	processingChain         any

	outer Container // concrete wrapper embedding this Base, set by SetOuter
}

// SetOuter records the concrete container embedding this Base (NDContainer,
// Stream and its specializations), so ProcessDefault can hand a processor
// the real outer type instead of the bare *Base. Every such constructor
// calls this once, immediately after assembling the wrapper; Go embedding
// gives no virtual dispatch on its own, so without this the wrapper
// identity would be lost.
func (b *Base) SetOuter(c Container) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outer = c
}

// SetDefaultProcessorFactory installs the factory CreateDefaultProcessor
// uses to lazily build a default processor. Not part of the Container
// interface: it is a construction-time detail, set once by whichever
// code assembles the container.
func (b *Base) SetDefaultProcessorFactory(factory func() Processor) {
	b.defaultProcessorFactory = factory
}

// NewBase constructs a Base ready to hold data for the given structure.
// data must already be shaped per structure's organization (one variant
// for INTERLEAVED, one per channel for PLANAR); it may be nil for a
// container that will receive its data later via SetRegionData.
func NewBase(s structure.Structure, data []variant.DataVariant) *Base {
	b := &Base{
		stateMachine: newStateMachine(),
		structure:    s,
		data:         data,
		regionGroups: make(map[string]*region.RegionGroup),
		loaded:       make(map[string]bool),
		readers:      make([]readerSlot, len(s.Dimensions)),
	}
	b.processingToken.Store(-1)
	return b
}

func (b *Base) Dimensions() []structure.Dimension { return b.structure.Dimensions }
func (b *Base) TotalElements() int                { return b.structure.TotalElements() }
func (b *Base) FrameSize() int                    { return b.structure.FrameSize() }

func (b *Base) NumFrames() int {
	total := b.structure.TotalElements()
	fs := b.structure.FrameSize()
	if fs == 0 {
		return 0
	}
	return total / fs
}

func (b *Base) MemoryLayout() structure.MemoryLayout { return b.structure.MemoryLayout }

func (b *Base) SetMemoryLayout(l structure.MemoryLayout) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.structure.MemoryLayout = l
}

func (b *Base) Structure() structure.Structure { return b.structure }

// SetStructure replaces the descriptor. The container drops back to IDLE
// if it was READY, matching spec §4.C's "mutation through set_region_data
// or reset may transition READY<->IDLE".
func (b *Base) SetStructure(s structure.Structure) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.structure = s
	if b.GetProcessingState() == Ready {
		return b.UpdateProcessingState(Idle)
	}
	return nil
}

func (b *Base) HasData() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.data {
		if !d.Zero() && d.Len() > 0 {
			return true
		}
	}
	return false
}

func (b *Base) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	b.processedData = nil
	if err := b.UpdateProcessingState(Idle); err != nil {
		log.Printf("container: clear: %v", err)
	}
}

func (b *Base) Lock()          { b.mu.Lock() }
func (b *Base) Unlock()        { b.mu.Unlock() }
func (b *Base) TryLock() bool  { return b.mu.TryLock() }

func (b *Base) GetProcessedData() []variant.DataVariant {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processedData
}

func (b *Base) SetProcessedData(data []variant.DataVariant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processedData = data
}

// --- Region groups ---

func (b *Base) AddRegionGroup(g *region.RegionGroup) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regionGroups[g.Name] = g
}

func (b *Base) GetRegionGroup(name string) (*region.RegionGroup, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.regionGroups[name]
	return g, ok
}

func (b *Base) GetAllRegionGroups() map[string]*region.RegionGroup {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]*region.RegionGroup, len(b.regionGroups))
	for k, v := range b.regionGroups {
		out[k] = v
	}
	return out
}

func (b *Base) RemoveRegionGroup(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.regionGroups, name)
	delete(b.loaded, name)
}

func (b *Base) IsRegionLoaded(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded[name]
}

func (b *Base) LoadRegion(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.regionGroups[name]; !ok {
		return &DataRangeError{Operation: "load-region", Details: fmt.Sprintf("no such region group %q", name)}
	}
	b.loaded[name] = true
	return nil
}

func (b *Base) UnloadRegion(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loaded[name] = false
}

// --- Reader tracking ---

// RegisterDimensionReader registers a new reader against dim and returns
// its reader id. Out-of-range dims are silently clamped (negative to the
// first dimension slot, too large to the last): registration never fails,
// matching the atomic-counter
// nature of this API.
func (b *Base) RegisterDimensionReader(dim int) int64 {
	slot := b.readerSlot(dim)
	id := slot.nextID.Add(1)
	slot.readerID.Store(id)
	slot.active.Store(true)
	slot.consumed.Store(false)
	return id
}

func (b *Base) UnregisterDimensionReader(dim int, readerID int64) {
	slot := b.readerSlot(dim)
	if slot.readerID.Load() == readerID {
		slot.active.Store(false)
	}
}

func (b *Base) HasActiveReaders() bool {
	for i := range b.readers {
		if b.readers[i].active.Load() {
			return true
		}
	}
	return false
}

func (b *Base) MarkDimensionConsumed(dim int, readerID int64) {
	slot := b.readerSlot(dim)
	if slot.readerID.Load() == readerID {
		slot.consumed.Store(true)
	}
}

func (b *Base) AllDimensionsConsumed() bool {
	for i := range b.readers {
		if b.readers[i].active.Load() && !b.readers[i].consumed.Load() {
			return false
		}
	}
	return true
}

func (b *Base) readerSlot(dim int) *readerSlot {
	if dim < 0 {
		dim = 0
	}
	if dim >= len(b.readers) {
		dim = len(b.readers) - 1
	}
	if dim < 0 {
		// no dimensions at all: fall back to a throwaway slot so callers
		// never index a zero-length slice.
		b.readers = make([]readerSlot, 1)
		dim = 0
	}
	return &b.readers[dim]
}

// --- Processing token ---

func (b *Base) ResetProcessingToken() { b.processingToken.Store(-1) }

// TryAcquireProcessingToken is the single-writer gate of spec §4.H: an
// atomic compare-exchange against the free value -1.
func (b *Base) TryAcquireProcessingToken(channel int32) bool {
	return b.processingToken.CompareAndSwap(-1, channel)
}

func (b *Base) HasProcessingToken(channel int32) bool {
	return b.processingToken.Load() == channel
}

// --- Default processor & chain handle ---

func (b *Base) GetDefaultProcessor() Processor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.defaultProcessor
}

func (b *Base) SetDefaultProcessor(p Processor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaultProcessor = p
}

// CreateDefaultProcessor lazily builds the default processor from the
// installed factory, if one has not already been created, and returns it.
func (b *Base) CreateDefaultProcessor() Processor {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.defaultProcessor == nil && b.defaultProcessorFactory != nil {
		b.defaultProcessor = b.defaultProcessorFactory()
	}
	return b.defaultProcessor
}

// ProcessDefault runs the container's default processor against itself,
// if one has been set or created.
func (b *Base) ProcessDefault() error {
	p := b.GetDefaultProcessor()
	if p == nil {
		return nil
	}
	return p.Process(b.self())
}

// self returns the outer concrete container set by SetOuter, falling back
// to the bare *Base if no wrapper registered one (e.g. a Base used
// standalone in a test).
func (b *Base) self() Container {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outer != nil {
		return b.outer
	}
	return b
}

// UnderlyingBase returns the *Base backing this container. Every concrete
// container (NDContainer, Stream and its specializations) embeds a *Base
// and so promotes this method, giving a single stable pointer identity
// that a processor can hold a weak reference to regardless of which
// wrapper type it was handed (spec §4.H: processor back-references to a
// container must not keep it alive).
func (b *Base) UnderlyingBase() *Base { return b }

// GetProcessingChain returns the opaque chain handle last set by
// SetProcessingChain (typically a *chain.Chain). Container does not
// import the chain package, so this is untyped at this layer.
func (b *Base) GetProcessingChain() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processingChain
}

func (b *Base) SetProcessingChain(c any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processingChain = c
}
