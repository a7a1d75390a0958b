// Package structure implements the Kakshya structure descriptor (spec §3,
// §4.A): modality, organization, memory layout, and the dimension list
// with its semantic roles, plus the index math that every container and
// processor builds on.
package structure

import "fmt"

// Modality is the semantic kind of data a container holds.
type Modality int

const (
	AudioMono Modality = iota
	AudioMultichannel
	Image2D
	ImageColor
	VideoGrayscale
	VideoColor
	Spectral2D
	Volumetric3D
	TensorND
	Unknown
)

func (m Modality) String() string {
	switch m {
	case AudioMono:
		return "AUDIO_1D"
	case AudioMultichannel:
		return "AUDIO_MULTICHANNEL"
	case Image2D:
		return "IMAGE_2D"
	case ImageColor:
		return "IMAGE_COLOR"
	case VideoGrayscale:
		return "VIDEO_GRAYSCALE"
	case VideoColor:
		return "VIDEO_COLOR"
	case Spectral2D:
		return "SPECTRAL_2D"
	case Volumetric3D:
		return "VOLUMETRIC_3D"
	case TensorND:
		return "TENSOR_ND"
	default:
		return "UNKNOWN"
	}
}

// Organization is the physical layout of channel data.
type Organization int

const (
	Interleaved Organization = iota
	Planar
)

func (o Organization) String() string {
	if o == Planar {
		return "PLANAR"
	}
	return "INTERLEAVED"
}

// MemoryLayout is the coordinate-to-linear convention.
type MemoryLayout int

const (
	RowMajor MemoryLayout = iota
	ColumnMajor
)

func (l MemoryLayout) String() string {
	if l == ColumnMajor {
		return "COLUMN_MAJOR"
	}
	return "ROW_MAJOR"
}

// Role is the semantic meaning of a dimension.
type Role int

const (
	RoleTime Role = iota
	RoleChannel
	RoleSpatialX
	RoleSpatialY
	RoleSpatialZ
	RoleFrequency
	RoleCustom
)

func (r Role) String() string {
	switch r {
	case RoleTime:
		return "TIME"
	case RoleChannel:
		return "CHANNEL"
	case RoleSpatialX:
		return "X"
	case RoleSpatialY:
		return "Y"
	case RoleSpatialZ:
		return "Z"
	case RoleFrequency:
		return "FREQUENCY"
	default:
		return "CUSTOM"
	}
}

// Dimension describes one axis of a container's data.
type Dimension struct {
	Name   string
	Size   int
	Stride int
	Role   Role
}

// ValidationError is spec's StructureValidationFailure.
type ValidationError struct {
	Operation string
	Details   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("structure: %s: %s", e.Operation, e.Details)
}

// Structure is the full descriptor a container is built against.
type Structure struct {
	Modality     Modality
	Organization Organization
	MemoryLayout MemoryLayout
	Dimensions   []Dimension
}

// expectedRoles returns the role sequence a modality requires, in order.
// TensorND and Unknown have no fixed shape: the dimension list is accepted
// verbatim for them (spec §4.A edge-case policy).
func expectedRoles(m Modality) ([]Role, bool) {
	switch m {
	case AudioMono:
		return []Role{RoleTime}, true
	case AudioMultichannel:
		return []Role{RoleTime, RoleChannel}, true
	case Image2D:
		return []Role{RoleSpatialY, RoleSpatialX}, true
	case ImageColor:
		return []Role{RoleSpatialY, RoleSpatialX, RoleChannel}, true
	case VideoGrayscale:
		return []Role{RoleTime, RoleSpatialY, RoleSpatialX}, true
	case VideoColor:
		return []Role{RoleTime, RoleSpatialY, RoleSpatialX, RoleChannel}, true
	case Spectral2D:
		return []Role{RoleTime, RoleFrequency}, true
	case Volumetric3D:
		return []Role{RoleSpatialZ, RoleSpatialY, RoleSpatialX}, true
	default: // TensorND, Unknown
		return nil, false
	}
}

// Validate checks that dims matches the role order and arity the modality
// expects. TensorND and Unknown dimension lists are accepted verbatim.
func Validate(m Modality, dims []Dimension) error {
	expected, constrained := expectedRoles(m)
	if !constrained {
		return nil
	}
	if len(dims) != len(expected) {
		return &ValidationError{
			Operation: "validate",
			Details:   fmt.Sprintf("modality %s expects %d dimensions, got %d", m, len(expected), len(dims)),
		}
	}
	for i, role := range expected {
		if dims[i].Role != role {
			return &ValidationError{
				Operation: "validate",
				Details:   fmt.Sprintf("modality %s expects role %s at position %d, got %s", m, role, i, dims[i].Role),
			}
		}
		if dims[i].Size <= 0 {
			return &ValidationError{
				Operation: "validate",
				Details:   fmt.Sprintf("dimension %q has non-positive size %d", dims[i].Name, dims[i].Size),
			}
		}
	}
	return nil
}

// New validates dims against modality and, on success, derives strides for
// the given memory layout, returning a ready Structure.
func New(m Modality, org Organization, layout MemoryLayout, dims []Dimension) (Structure, error) {
	if err := Validate(m, dims); err != nil {
		return Structure{}, err
	}
	out := make([]Dimension, len(dims))
	copy(out, dims)
	withStrides(out, layout)
	return Structure{Modality: m, Organization: org, MemoryLayout: layout, Dimensions: out}, nil
}

// withStrides fills in Stride for each dimension given a memory layout,
// following row-major (last dimension fastest) or column-major (first
// dimension fastest) convention.
func withStrides(dims []Dimension, layout MemoryLayout) {
	n := len(dims)
	if n == 0 {
		return
	}
	if layout == RowMajor {
		stride := 1
		for i := n - 1; i >= 0; i-- {
			dims[i].Stride = stride
			stride *= dims[i].Size
		}
		return
	}
	stride := 1
	for i := 0; i < n; i++ {
		dims[i].Stride = stride
		stride *= dims[i].Size
	}
}

// --- Factory constructors for the common (modality, organization) pairs ---

func NewAudioMono(samples int) (Structure, error) {
	return New(AudioMono, Interleaved, RowMajor, []Dimension{{Name: "time", Size: samples, Role: RoleTime}})
}

func NewAudioMultichannel(org Organization, samples, channels int) (Structure, error) {
	return New(AudioMultichannel, org, RowMajor, []Dimension{
		{Name: "time", Size: samples, Role: RoleTime},
		{Name: "channel", Size: channels, Role: RoleChannel},
	})
}

func NewImageColor(width, height, channels int) (Structure, error) {
	return New(ImageColor, Interleaved, RowMajor, []Dimension{
		{Name: "y", Size: height, Role: RoleSpatialY},
		{Name: "x", Size: width, Role: RoleSpatialX},
		{Name: "channel", Size: channels, Role: RoleChannel},
	})
}

func NewVideoColor(frames, width, height int) (Structure, error) {
	return New(VideoColor, Interleaved, RowMajor, []Dimension{
		{Name: "time", Size: frames, Role: RoleTime},
		{Name: "y", Size: height, Role: RoleSpatialY},
		{Name: "x", Size: width, Role: RoleSpatialX},
		{Name: "channel", Size: 4, Role: RoleChannel},
	})
}

func NewTensor(dims []Dimension) (Structure, error) {
	return New(TensorND, Interleaved, RowMajor, dims)
}

// TotalElements is the product of all dimension sizes.
func (s Structure) TotalElements() int {
	total := 1
	for _, d := range s.Dimensions {
		total *= d.Size
	}
	return total
}

// FrameSize is the product of all non-primary-time dimensions: the number
// of elements in a single "frame" (a cross-section at one time index).
func (s Structure) FrameSize() int {
	total := 1
	for i, d := range s.Dimensions {
		if i == s.timeIndex() {
			continue
		}
		total *= d.Size
	}
	return total
}

func (s Structure) timeIndex() int {
	for i, d := range s.Dimensions {
		if d.Role == RoleTime {
			return i
		}
	}
	return -1
}

// RoleSize returns the size of the first dimension carrying role, and
// whether one was found.
func (s Structure) RoleSize(role Role) (int, bool) {
	for _, d := range s.Dimensions {
		if d.Role == role {
			return d.Size, true
		}
	}
	return 0, false
}

func (s Structure) ChannelCount() int {
	n, ok := s.RoleSize(RoleChannel)
	if !ok {
		return 1
	}
	return n
}

func (s Structure) TimeExtent() int {
	n, _ := s.RoleSize(RoleTime)
	return n
}

func (s Structure) Width() int {
	n, _ := s.RoleSize(RoleSpatialX)
	return n
}

func (s Structure) Height() int {
	n, _ := s.RoleSize(RoleSpatialY)
	return n
}

func (s Structure) PixelCount() int {
	return s.Width() * s.Height()
}

// HasSpatialRole reports whether any dimension carries a spatial role.
// The spatial region processor (spec §4.G) requires this to hold.
func (s Structure) HasSpatialRole() bool {
	for _, d := range s.Dimensions {
		if d.Role == RoleSpatialX || d.Role == RoleSpatialY || d.Role == RoleSpatialZ {
			return true
		}
	}
	return false
}

// DimensionIndex returns the index of the dimension with the given role,
// or -1.
func (s Structure) DimensionIndex(role Role) int {
	for i, d := range s.Dimensions {
		if d.Role == role {
			return i
		}
	}
	return -1
}

// --- Index math ---

// RangeError is spec's RangeError taxonomy row.
type RangeError struct {
	Operation string
	Details   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("structure: %s out of range: %s", e.Operation, e.Details)
}

// LinearIndex computes the flat index for coords under INTERLEAVED
// organization, honoring the configured memory layout. Under PLANAR
// organization use ChannelSplit instead.
func (s Structure) LinearIndex(coords []int) (int, error) {
	if err := s.checkCoords(coords); err != nil {
		return 0, err
	}
	idx := 0
	for i, c := range coords {
		idx += c * s.Dimensions[i].Stride
	}
	return idx, nil
}

func (s Structure) checkCoords(coords []int) error {
	if len(coords) != len(s.Dimensions) {
		return &RangeError{Operation: "coords", Details: fmt.Sprintf("expected %d coordinates, got %d", len(s.Dimensions), len(coords))}
	}
	for i, c := range coords {
		if c < 0 || c >= s.Dimensions[i].Size {
			return &RangeError{Operation: "coords", Details: fmt.Sprintf("coordinate %d (%s) = %d out of [0,%d)", i, s.Dimensions[i].Name, c, s.Dimensions[i].Size)}
		}
	}
	return nil
}

// ChannelSplit maps coords to (channelVariantIndex, intraVariantIndex)
// for PLANAR organization: the channel coordinate selects which variant
// holds the data, and the index within that variant is computed over the
// remaining (non-channel) dimensions using the same memory-layout
// convention, as though the channel dimension did not exist.
func (s Structure) ChannelSplit(coords []int) (channel int, intra int, err error) {
	if err = s.checkCoords(coords); err != nil {
		return 0, 0, err
	}
	chIdx := s.DimensionIndex(RoleChannel)
	if chIdx < 0 {
		return 0, 0, &RangeError{Operation: "channel-split", Details: "structure has no CHANNEL dimension"}
	}
	channel = coords[chIdx]

	var reduced []Dimension
	var reducedCoords []int
	for i, d := range s.Dimensions {
		if i == chIdx {
			continue
		}
		reduced = append(reduced, d)
		reducedCoords = append(reducedCoords, coords[i])
	}
	withStrides(reduced, s.MemoryLayout)
	for i, c := range reducedCoords {
		intra += c * reduced[i].Stride
	}
	return channel, intra, nil
}

// CoordsFromLinear is the inverse of LinearIndex under row-major or
// column-major INTERLEAVED layout.
func (s Structure) CoordsFromLinear(linear int) ([]int, error) {
	total := s.TotalElements()
	if linear < 0 || linear >= total {
		return nil, &RangeError{Operation: "linear", Details: fmt.Sprintf("index %d out of [0,%d)", linear, total)}
	}
	coords := make([]int, len(s.Dimensions))
	if s.MemoryLayout == RowMajor {
		for i := len(s.Dimensions) - 1; i >= 0; i-- {
			coords[i] = linear % s.Dimensions[i].Size
			linear /= s.Dimensions[i].Size
		}
		return coords, nil
	}
	for i := 0; i < len(s.Dimensions); i++ {
		coords[i] = linear % s.Dimensions[i].Size
		linear /= s.Dimensions[i].Size
	}
	return coords, nil
}
