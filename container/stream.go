package container

import (
	"fmt"
	"sync/atomic"

	"github.com/MayaFlux/MayaFlux-sub001/region"
	"github.com/MayaFlux/MayaFlux-sub001/structure"
)

// StreamContainer extends Container with a temporal read head (spec
// §4.C): sequential and peek reads, looping, and rate conversion between
// frame index and wall-clock time.
type StreamContainer interface {
	Container

	SetReadPosition(coords []int) error
	SetReadPositionScalar(frame int) error
	UpdateReadPositionForChannel(channel, frame int) error
	GetReadPosition() []int
	AdvanceReadPosition(delta int) bool
	IsAtEnd() bool
	ResetReadPosition()

	TemporalRate() float64
	TimeToPosition(seconds float64) int
	PositionToTime(frame int) float64

	SetLooping(bool)
	IsLooping() bool
	SetLoopRegion(r region.Region)
	GetLoopRegion() (region.Region, bool)

	IsReady() bool
	RemainingFrames() int

	ReadSequential(out []float64, n int) (int, error)
	PeekSequential(out []float64, n int, offset int) (int, error)
}

// Stream embeds Base to add the read-head machinery shared by sound and
// video stream containers. Both use the same read-position representation:
// one coordinate per dimension, of which only the primary (index 0) axis
// is moved by the read-head methods. Neither concrete container overrides
// the position-shaped methods.
type Stream struct {
	*Base

	rate float64 // frames (or samples) per second

	readPos []int // one per dimension, primary axis is index 0

	looping    atomic.Bool
	loopRegion region.Region
	hasLoop    bool
}

// NewStream wraps base with a read head ticking at rate units per
// second, primary axis tracked across len(base.Dimensions()) coordinates.
func NewStream(base *Base, rate float64) *Stream {
	return &Stream{
		Base:    base,
		rate:    rate,
		readPos: make([]int, len(base.Dimensions())),
	}
}

func (s *Stream) TemporalRate() float64 { return s.rate }

func (s *Stream) TimeToPosition(seconds float64) int {
	return int(seconds * s.rate)
}

func (s *Stream) PositionToTime(frame int) float64 {
	if s.rate == 0 {
		return 0
	}
	return float64(frame) / s.rate
}

func (s *Stream) SetReadPosition(coords []int) error {
	s.Lock()
	defer s.Unlock()
	if len(coords) != len(s.readPos) {
		return &DataRangeError{Operation: "set-read-position", Details: fmt.Sprintf("expected %d coordinates, got %d", len(s.readPos), len(coords))}
	}
	copy(s.readPos, coords)
	return nil
}

func (s *Stream) SetReadPositionScalar(frame int) error {
	s.Lock()
	defer s.Unlock()
	if len(s.readPos) == 0 {
		return &DataRangeError{Operation: "set-read-position", Details: "container has no dimensions"}
	}
	s.readPos[0] = frame
	return nil
}

// UpdateReadPositionForChannel fails unless the structure has a channel
// axis; otherwise it sets the primary (index 0) coordinate to frame. The
// channel argument is not used: all channels share one read position.
func (s *Stream) UpdateReadPositionForChannel(channel, frame int) error {
	s.Lock()
	defer s.Unlock()
	chIdx := s.Structure().DimensionIndex(structure.RoleChannel)
	if chIdx < 0 || chIdx >= len(s.readPos) {
		return &DataRangeError{Operation: "update-read-position-for-channel", Details: "no channel axis"}
	}
	s.readPos[0] = frame
	return nil
}

func (s *Stream) GetReadPosition() []int {
	s.Lock()
	defer s.Unlock()
	return append([]int(nil), s.readPos...)
}

// AdvanceReadPosition moves the primary axis forward by delta. With
// looping disabled, the cursor advances up to num_frames and freezes
// there. With looping enabled, every advance wraps modularly within the
// loop region [a,b) (spec's looping-wrap invariant: resulting position
// equals a + ((old-a)+delta) mod (b-a)), defaulting to [0, num_frames)
// when no explicit loop region is set.
func (s *Stream) AdvanceReadPosition(delta int) bool {
	s.Lock()
	defer s.Unlock()
	nf := s.NumFrames()
	if len(s.readPos) == 0 {
		return false
	}
	if !s.looping.Load() {
		next := s.readPos[0] + delta
		if next < nf {
			s.readPos[0] = next
			return true
		}
		s.readPos[0] = nf
		return false
	}

	start, end := 0, nf-1
	if s.hasLoop && len(s.loopRegion.Start) > 0 {
		start, end = s.loopRegion.Start[0], s.loopRegion.End[0]
	}
	span := end - start + 1
	if span <= 0 {
		span = 1
	}
	old := s.readPos[0]
	if old < start {
		old = start
	}
	offset := ((old - start) + delta) % span
	if offset < 0 {
		offset += span
	}
	s.readPos[0] = start + offset
	return true
}

func (s *Stream) IsAtEnd() bool {
	s.Lock()
	defer s.Unlock()
	if len(s.readPos) == 0 {
		return true
	}
	return s.readPos[0] >= s.NumFrames()
}

func (s *Stream) ResetReadPosition() {
	s.Lock()
	defer s.Unlock()
	for i := range s.readPos {
		s.readPos[i] = 0
	}
}

func (s *Stream) SetLooping(v bool) { s.looping.Store(v) }
func (s *Stream) IsLooping() bool   { return s.looping.Load() }

func (s *Stream) SetLoopRegion(r region.Region) {
	s.Lock()
	defer s.Unlock()
	s.loopRegion = r
	s.hasLoop = true
}

func (s *Stream) GetLoopRegion() (region.Region, bool) {
	s.Lock()
	defer s.Unlock()
	return s.loopRegion, s.hasLoop
}

func (s *Stream) IsReady() bool {
	return s.GetProcessingState() == Ready || s.GetProcessingState() == Processed
}

func (s *Stream) RemainingFrames() int {
	s.Lock()
	defer s.Unlock()
	nf := s.NumFrames()
	if len(s.readPos) == 0 || s.readPos[0] >= nf {
		return 0
	}
	return nf - s.readPos[0]
}

// ReadSequential pulls up to n frames worth of samples starting at the
// current read position into out, advancing the position by the number
// of frames consumed. Returns the number of frames actually written, which
// is less than n only at end-of-stream with looping disabled (spec §4.C
// invariant on n_consumed).
func (s *Stream) ReadSequential(out []float64, n int) (int, error) {
	written, err := s.peekOrRead(out, n, 0, true)
	return written, err
}

// PeekSequential is ReadSequential without advancing the read position.
func (s *Stream) PeekSequential(out []float64, n int, offset int) (int, error) {
	return s.peekOrRead(out, n, offset, false)
}

func (s *Stream) peekOrRead(out []float64, n int, offset int, advance bool) (int, error) {
	frameSize := s.FrameSize()
	written := 0
	base := s.GetReadPosition()
	for i := 0; i < n; i++ {
		if s.IsAtEnd() && !s.IsLooping() {
			break
		}
		var pos []int
		if advance {
			// The real read position moves every iteration (via
			// AdvanceReadPosition below), so re-fetch it fresh each time.
			pos = s.GetReadPosition()
			if len(pos) == 0 {
				break
			}
			pos[0] += offset
		} else {
			// Peeking never mutates the real position, so the per-frame
			// offset has to be tracked locally against the starting
			// position instead of re-reading an unchanged cursor.
			if len(base) == 0 {
				break
			}
			pos = append([]int(nil), base...)
			pos[0] += offset + i
		}
		frame, err := s.GetFrame(pos[0] % max(1, s.NumFrames()))
		if err != nil {
			break
		}
		for j, v := range frame {
			k := written*frameSize + j
			if k >= len(out) {
				break
			}
			out[k] = v
		}
		written += len(frame) / max(1, frameSize)
		if advance {
			if !s.AdvanceReadPosition(1) {
				break
			}
		}
	}
	return written, nil
}

