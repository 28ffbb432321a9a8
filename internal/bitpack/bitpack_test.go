package bitpack

import (
	"reflect"
	"testing"
)

func TestWidthSelection(t *testing.T) {
	cases := []struct {
		paletteSize int
		want        int
	}{
		{0, 4}, {1, 4}, {2, 4}, {15, 4}, {16, 4},
		{17, 5}, {32, 5}, {33, 6}, {256, 8}, {257, 9},
	}
	for _, c := range cases {
		if got := Width(c.paletteSize); got != c.want {
			t.Errorf("Width(%d) = %d, want %d", c.paletteSize, got, c.want)
		}
	}
}

func TestEncodeDecodeSequentialValues(t *testing.T) {
	entries := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	words, err := Encode(entries, 4)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(words) != 1 {
		t.Fatalf("expected 1 word, got %d", len(words))
	}
	if words[0] != 0xFEDCBA9876543210 {
		t.Fatalf("expected word 0xFEDCBA9876543210, got 0x%016X", words[0])
	}

	got, err := Decode(words, len(entries), 4)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Fatalf("decode mismatch: got %v, want %v", got, entries)
	}
}

func TestEncodeDecodeRoundTripVariousWidths(t *testing.T) {
	for _, width := range []int{4, 5, 6, 8, 9, 12} {
		max := (1 << uint(width)) - 1
		entries := make([]int, 4096)
		for i := range entries {
			entries[i] = (i * 7) % (max + 1)
		}
		words, err := Encode(entries, width)
		if err != nil {
			t.Fatalf("width %d: Encode: %v", width, err)
		}
		got, err := Decode(words, len(entries), width)
		if err != nil {
			t.Fatalf("width %d: Decode: %v", width, err)
		}
		if !reflect.DeepEqual(got, entries) {
			t.Fatalf("width %d: round trip mismatch", width)
		}
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	_, err := Encode([]int{16}, 4) // 16 needs 5 bits, not 4
	if err == nil {
		t.Fatal("expected ErrOutOfRange")
	}
}

func TestSignedLongRoundTrip(t *testing.T) {
	words := []uint64{0xFEDCBA9876543210, 0x0000000000000001}
	longs := ToSignedLongs(words)
	if longs[0] >= 0 {
		t.Fatalf("expected word with high bit set to be negative as int64, got %d", longs[0])
	}
	back := FromSignedLongs(longs)
	if !reflect.DeepEqual(back, words) {
		t.Fatalf("signed round trip mismatch: got %v, want %v", back, words)
	}
}

func TestDecodeCorruptLength(t *testing.T) {
	_, err := Decode([]uint64{1, 2}, 16, 4) // only needs 1 word, tolerate 1 extra
	if err != nil {
		t.Fatalf("expected tolerance of one padding word, got %v", err)
	}
	_, err = Decode([]uint64{1, 2, 3, 4}, 16, 4) // 3 extra words: corrupt
	if err == nil {
		t.Fatal("expected ErrCorruptLength")
	}
}
