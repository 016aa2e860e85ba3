package bitfield

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		word     uint32
		hi, lo   int
		expected uint32
	}{
		{"cond field", 0xE0000000, 31, 28, 0xE},
		{"low byte", 0x000000FF, 7, 0, 0xFF},
		{"single bit set", 0x00000002, 1, 1, 1},
		{"single bit clear", 0x00000002, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extract(tt.word, tt.hi, tt.lo); got != tt.expected {
				t.Errorf("Extract(0x%08X, %d, %d) = 0x%X, want 0x%X", tt.word, tt.hi, tt.lo, got, tt.expected)
			}
		})
	}
}

func TestInsert(t *testing.T) {
	word := uint32(0)
	word = Insert(word, 31, 28, 0xA)
	if Extract(word, 31, 28) != 0xA {
		t.Errorf("Insert/Extract round trip failed: got 0x%X", Extract(word, 31, 28))
	}
	// Insert must not disturb other bits.
	word = Insert(word, 3, 0, 0xF)
	if Extract(word, 31, 28) != 0xA || Extract(word, 3, 0) != 0xF {
		t.Errorf("Insert disturbed unrelated bits: word=0x%08X", word)
	}
}

func TestBit(t *testing.T) {
	word := uint32(1 << 5)
	if !Bit(word, 5) {
		t.Error("expected bit 5 set")
	}
	if Bit(word, 4) {
		t.Error("expected bit 4 clear")
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		name     string
		v        uint32
		width    int
		expected uint32
	}{
		{"24-bit negative branch offset", 0x00FFFFFF, 24, 0xFFFFFFFF},
		{"24-bit positive", 0x00000001, 24, 0x00000001},
		{"12-bit negative", 0x800, 12, 0xFFFFF800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SignExtend(tt.v, tt.width); got != tt.expected {
				t.Errorf("SignExtend(0x%X, %d) = 0x%08X, want 0x%08X", tt.v, tt.width, got, tt.expected)
			}
		})
	}
}

func TestFieldView(t *testing.T) {
	fv := NewFieldView(
		Field{"cond", 31, 28},
		Field{"rd", 15, 12},
	)

	word := uint32(0xE000D000)
	if got := fv.Get(word, "cond"); got != 0xE {
		t.Errorf("cond = 0x%X, want 0xE", got)
	}
	if got := fv.Get(word, "rd"); got != 0xD {
		t.Errorf("rd = 0x%X, want 0xD", got)
	}

	word = fv.Set(word, "rd", 0x3)
	if got := fv.Get(word, "rd"); got != 0x3 {
		t.Errorf("rd after Set = 0x%X, want 0x3", got)
	}
}
