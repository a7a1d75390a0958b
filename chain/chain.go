// Package chain implements the processing chain (spec §4.D): an ordered,
// per-container list of processors with a parallel tag index, run by a
// single call to Process/ProcessFiltered/ProcessTagged/ProcessTyped.
package chain

import (
	"sync"

	"github.com/MayaFlux/MayaFlux-sub001/container"
)

// Processor is anything a Chain can run against a container. OnAttach is
// called once when added to a container's list, OnDetach once when
// removed. Process runs once per chain.Process call.
type Processor interface {
	OnAttach(c container.Container) error
	OnDetach(c container.Container)
	Process(c container.Container) error
}

type entry struct {
	proc Processor
	tag  string
	has  bool
}

// Chain maps containers to their ordered processor list. A single Chain
// may be shared across containers; each container's list is independent,
// and there is no ordering guarantee across containers (spec §4.D).
type Chain struct {
	mu   sync.Mutex
	byCt map[container.Container][]entry
}

func New() *Chain {
	return &Chain{byCt: make(map[container.Container][]entry)}
}

// Add appends processor to c's list, calling OnAttach. tag may be "" for
// no tag.
func (ch *Chain) Add(c container.Container, p Processor, tag string) error {
	if err := p.OnAttach(c); err != nil {
		return err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.byCt[c] = append(ch.byCt[c], entry{proc: p, tag: tag, has: tag != ""})
	return nil
}

// AddAt inserts processor at position pos in c's list (clamped to
// [0,len]), calling OnAttach.
func (ch *Chain) AddAt(c container.Container, p Processor, pos int, tag string) error {
	if err := p.OnAttach(c); err != nil {
		return err
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	list := ch.byCt[c]
	if pos < 0 {
		pos = 0
	}
	if pos > len(list) {
		pos = len(list)
	}
	list = append(list, entry{})
	copy(list[pos+1:], list[pos:])
	list[pos] = entry{proc: p, tag: tag, has: tag != ""}
	ch.byCt[c] = list
	return nil
}

// Remove detaches processor from c's list, calling OnDetach. If the list
// becomes empty, the container's mapping is removed entirely.
func (ch *Chain) Remove(c container.Container, p Processor) {
	ch.mu.Lock()
	list := ch.byCt[c]
	out := list[:0]
	for _, e := range list {
		if e.proc != p {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		delete(ch.byCt, c)
	} else {
		ch.byCt[c] = out
	}
	ch.mu.Unlock()
	p.OnDetach(c)
}

func (ch *Chain) snapshot(c container.Container) []entry {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return append([]entry(nil), ch.byCt[c]...)
}

// Process runs every processor registered against c, in registered order.
// The first error halts the run and is returned.
func (ch *Chain) Process(c container.Container) error {
	for _, e := range ch.snapshot(c) {
		if err := e.proc.Process(c); err != nil {
			return err
		}
	}
	return nil
}

// ProcessFiltered runs only the processors for which predicate returns
// true, in registered order.
func (ch *Chain) ProcessFiltered(c container.Container, predicate func(Processor) bool) error {
	for _, e := range ch.snapshot(c) {
		if !predicate(e.proc) {
			continue
		}
		if err := e.proc.Process(c); err != nil {
			return err
		}
	}
	return nil
}

// ProcessTagged runs only the processors whose tag equals tag.
func (ch *Chain) ProcessTagged(c container.Container, tag string) error {
	for _, e := range ch.snapshot(c) {
		if e.has && e.tag == tag {
			if err := e.proc.Process(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// ProcessTyped runs only the processors whose dynamic type is T.
func ProcessTyped[T Processor](ch *Chain, c container.Container) error {
	for _, e := range ch.snapshot(c) {
		if _, ok := e.proc.(T); ok {
			if err := e.proc.Process(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// List returns a stable snapshot of c's processors in registered order.
func (ch *Chain) List(c container.Container) []Processor {
	snap := ch.snapshot(c)
	out := make([]Processor, len(snap))
	for i, e := range snap {
		out[i] = e.proc
	}
	return out
}
