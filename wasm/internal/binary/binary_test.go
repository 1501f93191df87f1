package binary

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func TestReaderReadByte(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	r := NewReader(data)

	for i, want := range data {
		if r.Position() != i {
			t.Errorf("position before read %d: got %d, want %d", i, r.Position(), i)
		}
		b, err := r.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		if b != want {
			t.Errorf("ReadByte %d: got 0x%02x, want 0x%02x", i, b, want)
		}
	}

	_, err := r.ReadByte()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestReaderReadBytes(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05})

	got, err := r.ReadBytes(3)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("ReadBytes: got %v, want [1 2 3]", got)
	}
	if r.Len() != 2 {
		t.Errorf("Len: got %d, want 2", r.Len())
	}

	_, err = r.ReadBytes(10)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderPositionWithBase(t *testing.T) {
	r := NewReaderAt([]byte{0x80}, 100)
	if r.Position() != 100 {
		t.Errorf("Position: got %d, want 100", r.Position())
	}
	_, err := r.ReadU32()
	var perr *ParseError
	if err == nil || errors.As(err, &perr) {
		t.Fatalf("expected plain wrapped error, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated LEB128 should report ErrUnexpectedEOF, got %v", err)
	}
}

func TestReaderReadU32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		got, err := NewReader(tt.encoded).ReadU32()
		if err != nil {
			t.Errorf("ReadU32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadU32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadU32Overflow(t *testing.T) {
	for _, enc := range [][]byte{
		{0xff, 0xff, 0xff, 0xff, 0x1f},
		{0x80, 0x80, 0x80, 0x80, 0x80, 0x00},
	} {
		if _, err := NewReader(enc).ReadU32(); !errors.Is(err, ErrOverflow) {
			t.Errorf("ReadU32(%v): expected overflow, got %v", enc, err)
		}
	}
}

func TestReaderReadS32(t *testing.T) {
	tests := []struct {
		encoded []byte
		want    int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x0a}, 10},
		{[]byte{0x7f}, -1},
		{[]byte{0x40}, -64},
		{[]byte{0x80, 0x7f}, -128},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x07}, math.MaxInt32},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, math.MinInt32},
	}

	for _, tt := range tests {
		got, err := NewReader(tt.encoded).ReadS32()
		if err != nil {
			t.Errorf("ReadS32(%v): %v", tt.encoded, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ReadS32(%v): got %d, want %d", tt.encoded, got, tt.want)
		}
	}
}

func TestReaderReadName(t *testing.T) {
	got, err := NewReader([]byte{0x04, 't', 'e', 's', 't'}).ReadName()
	if err != nil {
		t.Fatalf("ReadName: %v", err)
	}
	if got != "test" {
		t.Errorf("ReadName: got %q, want %q", got, "test")
	}

	_, err = NewReader([]byte{0x02, 0xff, 0xfe}).ReadName()
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestReaderReadU32LE(t *testing.T) {
	got, err := NewReader([]byte{0x00, 0x61, 0x73, 0x6d}).ReadU32LE()
	if err != nil {
		t.Fatalf("ReadU32LE: %v", err)
	}
	if got != 0x6d736100 {
		t.Errorf("ReadU32LE: got 0x%08x", got)
	}
}

func TestReaderReadRemaining(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	_, _ = r.ReadByte()
	rest := r.ReadRemaining()
	if !bytes.Equal(rest, []byte{2, 3, 4}) {
		t.Errorf("ReadRemaining: got %v", rest)
	}
	if r.Len() != 0 {
		t.Errorf("Len after ReadRemaining: got %d", r.Len())
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU32LE(0x6d736100)
	w.WriteU32(624485)
	w.WriteS32(-128)
	w.WriteS32(math.MinInt32)
	w.WriteName("test")
	w.WriteVec([]byte("Test section!"))
	w.Byte(0x0b)

	r := NewReader(w.Bytes())
	if v, _ := r.ReadU32LE(); v != 0x6d736100 {
		t.Errorf("U32LE: got 0x%x", v)
	}
	if v, _ := r.ReadU32(); v != 624485 {
		t.Errorf("U32: got %d", v)
	}
	if v, _ := r.ReadS32(); v != -128 {
		t.Errorf("S32: got %d", v)
	}
	if v, _ := r.ReadS32(); v != math.MinInt32 {
		t.Errorf("S32 min: got %d", v)
	}
	if v, _ := r.ReadName(); v != "test" {
		t.Errorf("Name: got %q", v)
	}
	if v, _ := r.ReadVec(); string(v) != "Test section!" {
		t.Errorf("Vec: got %q", v)
	}
	if b, _ := r.ReadByte(); b != 0x0b {
		t.Errorf("Byte: got 0x%02x", b)
	}
	if r.Len() != 0 {
		t.Errorf("trailing bytes: %d", r.Len())
	}
}

func TestParseError(t *testing.T) {
	r := NewReaderAt([]byte{}, 8)
	err := r.WrapError("section header", io.ErrUnexpectedEOF)

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Position != 8 || perr.Section != "section header" {
		t.Errorf("ParseError = %+v", perr)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("ParseError should unwrap to cause")
	}
	want := "wasm: section header at position 8: unexpected EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
