// Package variant implements the tagged scalar/complex buffer that Kakshya
// containers use to hold raw and processed sample data.
//
// A container's storage is a set of DataVariant values: one per planar
// channel, or a single one under interleaved organization. The concrete
// scalar type is fixed at construction and enforced on every write.
package variant

import "fmt"

// Kind identifies which scalar/complex type a DataVariant carries.
type Kind int

const (
	KindFloat64 Kind = iota
	KindFloat32
	KindUint8
	KindUint16
	KindUint32
	KindComplex64  // complex built on float32 pairs
	KindComplex128 // complex built on float64 pairs
)

func (k Kind) String() string {
	switch k {
	case KindFloat64:
		return "float64"
	case KindFloat32:
		return "float32"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindComplex64:
		return "complex64"
	case KindComplex128:
		return "complex128"
	default:
		return "unknown"
	}
}

// TypeMismatchError is raised when a copy is attempted between two
// DataVariants of incompatible scalar kinds (spec's DataTypeMismatch).
type TypeMismatchError struct {
	Want Kind
	Got  Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("variant: type mismatch: want %s, got %s", e.Want, e.Got)
}

// DataVariant is a lazily-backed, tagged buffer of one scalar kind.
// The zero value is not usable; construct with one of the New* functions.
type DataVariant struct {
	kind Kind

	f64 []float64
	f32 []float32
	u8  []uint8
	u16 []uint16
	u32 []uint32
	c64 []complex64
	c128 []complex128
}

func NewFloat64(n int) DataVariant   { return DataVariant{kind: KindFloat64, f64: make([]float64, n)} }
func NewFloat32(n int) DataVariant   { return DataVariant{kind: KindFloat32, f32: make([]float32, n)} }
func NewUint8(n int) DataVariant     { return DataVariant{kind: KindUint8, u8: make([]uint8, n)} }
func NewUint16(n int) DataVariant    { return DataVariant{kind: KindUint16, u16: make([]uint16, n)} }
func NewUint32(n int) DataVariant    { return DataVariant{kind: KindUint32, u32: make([]uint32, n)} }
func NewComplex64(n int) DataVariant { return DataVariant{kind: KindComplex64, c64: make([]complex64, n)} }
func NewComplex128(n int) DataVariant {
	return DataVariant{kind: KindComplex128, c128: make([]complex128, n)}
}

// Zero reports whether the variant was never constructed via a New* call.
func (v DataVariant) Zero() bool { return v.f64 == nil && v.f32 == nil && v.u8 == nil && v.u16 == nil && v.u32 == nil && v.c64 == nil && v.c128 == nil }

func (v DataVariant) Kind() Kind { return v.kind }

// Len returns the element count, regardless of underlying scalar kind.
func (v DataVariant) Len() int {
	switch v.kind {
	case KindFloat64:
		return len(v.f64)
	case KindFloat32:
		return len(v.f32)
	case KindUint8:
		return len(v.u8)
	case KindUint16:
		return len(v.u16)
	case KindUint32:
		return len(v.u32)
	case KindComplex64:
		return len(v.c64)
	case KindComplex128:
		return len(v.c128)
	default:
		return 0
	}
}

// Float64 returns a float64 view of the data. For KindFloat64 this is the
// backing slice itself; for every other kind it is a freshly converted
// copy, so writes to it reach the variant only through SetFromFloat64
// (complex kinds contribute their real part). Conversions never fail: the
// DataTypeMismatch policy applies to Copy/CopyFrom below, not to reads,
// since a processor may legitimately want a double view of any variant
// for transition blending (spec §4.F).
func (v DataVariant) Float64() []float64 {
	switch v.kind {
	case KindFloat64:
		return v.f64
	case KindFloat32:
		out := make([]float64, len(v.f32))
		for i, x := range v.f32 {
			out[i] = float64(x)
		}
		return out
	case KindUint8:
		out := make([]float64, len(v.u8))
		for i, x := range v.u8 {
			out[i] = float64(x)
		}
		return out
	case KindUint16:
		out := make([]float64, len(v.u16))
		for i, x := range v.u16 {
			out[i] = float64(x)
		}
		return out
	case KindUint32:
		out := make([]float64, len(v.u32))
		for i, x := range v.u32 {
			out[i] = float64(x)
		}
		return out
	case KindComplex64:
		out := make([]float64, len(v.c64))
		for i, x := range v.c64 {
			out[i] = float64(real(x))
		}
		return out
	case KindComplex128:
		out := make([]float64, len(v.c128))
		for i, x := range v.c128 {
			out[i] = real(x)
		}
		return out
	default:
		return nil
	}
}

// SetFromFloat64 writes back a double view produced by Float64, converting
// to the variant's native scalar kind. Used by transition blending to
// commit a mixed double buffer back into processed-data.
func (v *DataVariant) SetFromFloat64(src []float64) {
	n := min(len(src), v.Len())
	switch v.kind {
	case KindFloat64:
		copy(v.f64, src[:n])
	case KindFloat32:
		for i := 0; i < n; i++ {
			v.f32[i] = float32(src[i])
		}
	case KindUint8:
		for i := 0; i < n; i++ {
			v.u8[i] = uint8(src[i])
		}
	case KindUint16:
		for i := 0; i < n; i++ {
			v.u16[i] = uint16(src[i])
		}
	case KindUint32:
		for i := 0; i < n; i++ {
			v.u32[i] = uint32(src[i])
		}
	case KindComplex64:
		for i := 0; i < n; i++ {
			v.c64[i] = complex(float32(src[i]), imag(v.c64[i]))
		}
	case KindComplex128:
		for i := 0; i < n; i++ {
			v.c128[i] = complex(src[i], imag(v.c128[i]))
		}
	}
}

// Copy copies src into a fresh DataVariant of the same kind and length.
func (v DataVariant) Copy() DataVariant {
	out := v
	switch v.kind {
	case KindFloat64:
		out.f64 = append([]float64(nil), v.f64...)
	case KindFloat32:
		out.f32 = append([]float32(nil), v.f32...)
	case KindUint8:
		out.u8 = append([]uint8(nil), v.u8...)
	case KindUint16:
		out.u16 = append([]uint16(nil), v.u16...)
	case KindUint32:
		out.u32 = append([]uint32(nil), v.u32...)
	case KindComplex64:
		out.c64 = append([]complex64(nil), v.c64...)
	case KindComplex128:
		out.c128 = append([]complex128(nil), v.c128...)
	}
	return out
}

// CopyFrom overwrites v's contents with src's, failing with
// TypeMismatchError if the scalar kinds differ (spec's DataTypeMismatch).
func (v *DataVariant) CopyFrom(src DataVariant) error {
	if v.kind != src.kind {
		return &TypeMismatchError{Want: v.kind, Got: src.kind}
	}
	switch v.kind {
	case KindFloat64:
		copy(v.f64, src.f64)
	case KindFloat32:
		copy(v.f32, src.f32)
	case KindUint8:
		copy(v.u8, src.u8)
	case KindUint16:
		copy(v.u16, src.u16)
	case KindUint32:
		copy(v.u32, src.u32)
	case KindComplex64:
		copy(v.c64, src.c64)
	case KindComplex128:
		copy(v.c128, src.c128)
	}
	return nil
}

// Slice returns the sub-range [start:end) as a fresh DataVariant of the
// same kind, sharing no backing storage with v.
func (v DataVariant) Slice(start, end int) DataVariant {
	out := DataVariant{kind: v.kind}
	switch v.kind {
	case KindFloat64:
		out.f64 = append([]float64(nil), v.f64[start:end]...)
	case KindFloat32:
		out.f32 = append([]float32(nil), v.f32[start:end]...)
	case KindUint8:
		out.u8 = append([]uint8(nil), v.u8[start:end]...)
	case KindUint16:
		out.u16 = append([]uint16(nil), v.u16[start:end]...)
	case KindUint32:
		out.u32 = append([]uint32(nil), v.u32[start:end]...)
	case KindComplex64:
		out.c64 = append([]complex64(nil), v.c64[start:end]...)
	case KindComplex128:
		out.c128 = append([]complex128(nil), v.c128[start:end]...)
	}
	return out
}
