package tensor

import "testing"

// fakeBackend satisfies only what tensor construction needs; the real
// backend lives in its own package and is tested there.
type fakeBackend struct{ Backend }

func (fakeBackend) Device() Device { return CPU }

func TestFromSlice(t *testing.T) {
	backend := fakeBackend{}

	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if !x.Shape().Equal(Shape{2, 3}) {
		t.Errorf("shape = %v, want [2 3]", x.Shape())
	}
	if x.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %v, want 6", x.At(1, 2))
	}
}

func TestFromSlice_LengthMismatch(t *testing.T) {
	backend := fakeBackend{}

	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 3}, backend); err == nil {
		t.Fatal("expected error for mismatched data length")
	}
}

func TestTensor_Slice(t *testing.T) {
	backend := fakeBackend{}

	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	s := x.Slice(1, 1, 3)
	if !s.Shape().Equal(Shape{2, 2}) {
		t.Fatalf("slice shape = %v, want [2 2]", s.Shape())
	}
	want := []float32{2, 3, 5, 6}
	for i, v := range s.Data() {
		if v != want[i] {
			t.Errorf("slice data = %v, want %v", s.Data(), want)
			break
		}
	}
}

func TestBoolTensor(t *testing.T) {
	backend := fakeBackend{}

	mask := New[bool](Shape{2, 2}, backend)
	mask.SetAt(true, 0, 1)
	if !mask.At(0, 1) || mask.At(1, 0) {
		t.Errorf("bool tensor read/write mismatch: %v", mask.Data())
	}
}
