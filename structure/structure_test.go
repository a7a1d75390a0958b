package structure

import "testing"

func TestNewAudioMultichannelStrides(t *testing.T) {
	s, err := NewAudioMultichannel(Interleaved, 10, 2)
	if err != nil {
		t.Fatalf("NewAudioMultichannel: %v", err)
	}
	if s.TotalElements() != 20 {
		t.Fatalf("TotalElements() = %d, want 20", s.TotalElements())
	}
	if s.Dimensions[1].Stride != 1 || s.Dimensions[0].Stride != 2 {
		t.Fatalf("unexpected row-major strides: %+v", s.Dimensions)
	}
}

func TestValidateWrongArity(t *testing.T) {
	_, err := New(AudioMono, Interleaved, RowMajor, []Dimension{
		{Name: "time", Size: 10, Role: RoleTime},
		{Name: "channel", Size: 2, Role: RoleChannel},
	})
	if err == nil {
		t.Fatal("expected ValidationError for AUDIO_1D with two dimensions")
	}
}

func TestValidateWrongRoleOrder(t *testing.T) {
	_, err := New(ImageColor, Interleaved, RowMajor, []Dimension{
		{Name: "x", Size: 4, Role: RoleSpatialX},
		{Name: "y", Size: 4, Role: RoleSpatialY},
		{Name: "channel", Size: 3, Role: RoleChannel},
	})
	if err == nil {
		t.Fatal("expected ValidationError for IMAGE_COLOR with swapped x/y roles")
	}
}

func TestTensorAcceptsArbitraryDimensions(t *testing.T) {
	_, err := NewTensor([]Dimension{
		{Name: "a", Size: 2, Role: RoleCustom},
		{Name: "b", Size: 3, Role: RoleCustom},
		{Name: "c", Size: 4, Role: RoleCustom},
	})
	if err != nil {
		t.Fatalf("TENSOR_ND should accept any dimension list, got %v", err)
	}
}

func TestLinearIndexRowMajorVsColumnMajor(t *testing.T) {
	row, _ := New(TensorND, Interleaved, RowMajor, []Dimension{
		{Name: "a", Size: 2, Role: RoleCustom},
		{Name: "b", Size: 3, Role: RoleCustom},
	})
	col, _ := New(TensorND, Interleaved, ColumnMajor, []Dimension{
		{Name: "a", Size: 2, Role: RoleCustom},
		{Name: "b", Size: 3, Role: RoleCustom},
	})

	rowIdx, err := row.LinearIndex([]int{1, 2})
	if err != nil || rowIdx != 5 {
		t.Fatalf("row-major LinearIndex([1,2]) = (%d,%v), want (5,nil)", rowIdx, err)
	}
	colIdx, err := col.LinearIndex([]int{1, 2})
	if err != nil || colIdx != 5 {
		t.Fatalf("column-major LinearIndex([1,2]) = (%d,%v), want (5,nil)", colIdx, err)
	}
}

func TestLinearIndexOutOfRange(t *testing.T) {
	s, _ := NewAudioMono(10)
	if _, err := s.LinearIndex([]int{10}); err == nil {
		t.Fatal("expected RangeError for coordinate at the boundary")
	}
	if _, err := s.LinearIndex([]int{-1}); err == nil {
		t.Fatal("expected RangeError for negative coordinate")
	}
}

func TestCoordsFromLinearRoundTrip(t *testing.T) {
	s, _ := New(TensorND, Interleaved, RowMajor, []Dimension{
		{Name: "a", Size: 3, Role: RoleCustom},
		{Name: "b", Size: 4, Role: RoleCustom},
		{Name: "c", Size: 2, Role: RoleCustom},
	})
	for lin := 0; lin < s.TotalElements(); lin++ {
		coords, err := s.CoordsFromLinear(lin)
		if err != nil {
			t.Fatalf("CoordsFromLinear(%d): %v", lin, err)
		}
		back, err := s.LinearIndex(coords)
		if err != nil || back != lin {
			t.Fatalf("round trip failed at %d: coords=%v back=%d err=%v", lin, coords, back, err)
		}
	}
}

func TestChannelSplitPlanar(t *testing.T) {
	s, err := New(AudioMultichannel, Planar, RowMajor, []Dimension{
		{Name: "time", Size: 10, Role: RoleTime},
		{Name: "channel", Size: 2, Role: RoleChannel},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ch, intra, err := s.ChannelSplit([]int{7, 1})
	if err != nil {
		t.Fatalf("ChannelSplit: %v", err)
	}
	if ch != 1 || intra != 7 {
		t.Fatalf("ChannelSplit([7,1]) = (%d,%d), want (1,7)", ch, intra)
	}
}

func TestHasSpatialRole(t *testing.T) {
	video, _ := NewVideoColor(5, 4, 4)
	if !video.HasSpatialRole() {
		t.Fatal("VIDEO_COLOR structure should have a spatial role")
	}
	audio, _ := NewAudioMono(10)
	if audio.HasSpatialRole() {
		t.Fatal("AUDIO_1D structure should not have a spatial role")
	}
}

func TestFrameSizeTimesNumFramesEqualsTotal(t *testing.T) {
	video, _ := NewVideoColor(8, 6, 4)
	frames := video.TimeExtent()
	if video.FrameSize()*frames != video.TotalElements() {
		t.Fatalf("frame_size*num_frames = %d, total_elements = %d", video.FrameSize()*frames, video.TotalElements())
	}
}
