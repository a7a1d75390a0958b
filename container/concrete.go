package container

import (
	"sync/atomic"

	"github.com/MayaFlux/MayaFlux-sub001/structure"
	"github.com/MayaFlux/MayaFlux-sub001/variant"
)

// NDContainer is a plain, non-streaming N-D container: tensors, still
// images, spectral frames — anything accessed purely through region and
// point operations.
type NDContainer struct {
	*Base
}

// NewNDContainer builds an NDContainer over s with one DataVariant per
// channel (PLANAR) or a single DataVariant (INTERLEAVED), of kind k.
func NewNDContainer(s structure.Structure, k variant.Kind) *NDContainer {
	c := &NDContainer{Base: NewBase(s, allocateStorage(s, k))}
	c.SetOuter(c)
	return c
}

func allocateStorage(s structure.Structure, k variant.Kind) []variant.DataVariant {
	total := s.TotalElements()
	if s.Organization != structure.Planar {
		return []variant.DataVariant{newKind(k, total)}
	}
	channels := s.ChannelCount()
	if channels <= 0 {
		channels = 1
	}
	perChannel := total / channels
	out := make([]variant.DataVariant, channels)
	for i := range out {
		out[i] = newKind(k, perChannel)
	}
	return out
}

func newKind(k variant.Kind, n int) variant.DataVariant {
	switch k {
	case variant.KindFloat32:
		return variant.NewFloat32(n)
	case variant.KindUint8:
		return variant.NewUint8(n)
	case variant.KindUint16:
		return variant.NewUint16(n)
	case variant.KindUint32:
		return variant.NewUint32(n)
	case variant.KindComplex64:
		return variant.NewComplex64(n)
	case variant.KindComplex128:
		return variant.NewComplex128(n)
	default:
		return variant.NewFloat64(n)
	}
}

// SoundStreamContainer is a StreamContainer over AUDIO_MONO or
// AUDIO_MULTICHANNEL data: a per-dimension read-position vector, with the
// TIME axis as the primary (index 0) coordinate advanced by
// AdvanceReadPosition.
type SoundStreamContainer struct {
	*Stream
}

// NewSoundStreamContainer builds a sound stream at sampleRate Hz.
func NewSoundStreamContainer(s structure.Structure, k variant.Kind, sampleRate float64) *SoundStreamContainer {
	base := NewBase(s, allocateStorage(s, k))
	c := &SoundStreamContainer{Stream: NewStream(base, sampleRate)}
	c.SetOuter(c)
	return c
}

// VideoStreamContainer concretizes the stream container for VIDEO_COLOR
// (spec §4.C): dimensions [TIME, Y, X, CHANNEL=4], interleaved RGBA
// bytes, and a single atomic surface-reader counter alongside the
// per-dimension reader slots of Base. Its read position is Stream's
// per-dimension vector (GetReadPosition returns four coordinates); only
// the TIME coordinate, the frame index, is moved by the read-head methods.
type VideoStreamContainer struct {
	*Stream

	readerActive   atomic.Bool
	readerID       atomic.Int64
	readerNextID   atomic.Int64
	readerConsumed atomic.Bool
}

// NewVideoStreamContainer builds a VIDEO_COLOR stream at frameRate fps.
func NewVideoStreamContainer(width, height, frames int, frameRate float64) *VideoStreamContainer {
	s, err := structure.NewVideoColor(frames, width, height)
	if err != nil {
		// Width/height/frames are caller-supplied positive ints validated
		// by structure.New; a failure here means the caller passed a
		// non-positive dimension, which is a programming error for this
		// fixed-shape constructor.
		panic(err)
	}
	base := NewBase(s, []variant.DataVariant{variant.NewUint8(s.TotalElements())})
	c := &VideoStreamContainer{Stream: NewStream(base, frameRate)}
	c.SetOuter(c)
	return c
}

// RegisterSurfaceReader is the video container's single-counter analogue
// of RegisterDimensionReader (spec §4.C: "reader tracking uses a single
// atomic counter, not per-dimension maps").
func (v *VideoStreamContainer) RegisterSurfaceReader() int64 {
	id := v.readerNextID.Add(1)
	v.readerID.Store(id)
	v.readerActive.Store(true)
	v.readerConsumed.Store(false)
	return id
}

func (v *VideoStreamContainer) UnregisterSurfaceReader(readerID int64) {
	if v.readerID.Load() == readerID {
		v.readerActive.Store(false)
	}
}

func (v *VideoStreamContainer) HasActiveSurfaceReader() bool { return v.readerActive.Load() }

func (v *VideoStreamContainer) MarkSurfaceConsumed(readerID int64) {
	if v.readerID.Load() == readerID {
		v.readerConsumed.Store(true)
	}
}

func (v *VideoStreamContainer) SurfaceConsumed() bool {
	return !v.readerActive.Load() || v.readerConsumed.Load()
}
