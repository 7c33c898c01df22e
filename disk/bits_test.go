package disk

import (
	"bytes"
	"testing"
)

func TestPackUnpackCells(t *testing.T) {
	in := []byte{0x01, 0x80, 0x22, 0x09, 0xFF}
	bits := unpackCells(in)
	if len(bits) != 40 {
		t.Fatalf("got %d cells", len(bits))
	}
	if bits[0] != 1 || bits[1] != 0 || bits[15] != 1 {
		t.Fatalf("cells not LSB first: % d", bits[:16])
	}
	if out := packCells(bits); !bytes.Equal(out, in) {
		t.Fatalf("pack(unpack) = % X", out)
	}
}

func TestFindPatternWraps(t *testing.T) {
	bits := []byte{1, 0, 0, 0, 0, 0, 1, 1}
	// 1,1,1 only exists across the end of the ring
	if got := findPattern(bits, 0x7, 3); got != 6 {
		t.Fatalf("findPattern = %d, want 6", got)
	}
	if got := findPattern(bits, 0x5, 3); got != -1 {
		t.Fatalf("found a pattern that is not there at %d", got)
	}
}

func TestSpreadGCRHalfCells(t *testing.T) {
	out := SpreadGCR([]byte{0xFF, 0xD5})
	if len(out) != 4 {
		t.Fatalf("got %d bytes", len(out))
	}
	bits := unpackCells(out)
	for i := 0; i < len(bits); i += 2 {
		if bits[i] != 0 {
			t.Fatalf("clock half-cell %d is set", i)
		}
	}
	if got := latchNibbles(gcrDataBits(bits)); !bytes.Equal(got, []byte{0xFF, 0xD5}) {
		t.Fatalf("latched % X", got)
	}
}

func TestNibblesFromCellsRealigns(t *testing.T) {
	nibbles := append(bytes.Repeat([]byte{0xFF}, 20), 0xD5, 0xAA, 0x96, 0xAB, 0xCD, 0xEF)
	nibbles = append(nibbles, bytes.Repeat([]byte{0xFF}, 10)...)
	cells := SpreadGCR(nibbles)

	for _, shift := range []int{0, 1, 7, 100, 301} {
		got := NibblesFromCells(shiftCells(cells, shift))
		i := bytes.Index(got, []byte{0xD5, 0xAA, 0x96, 0xAB, 0xCD, 0xEF})
		if i != 0 {
			t.Errorf("shift %d: prologue at %d in % X", shift, i, got)
		}
	}
}

func TestAgatWordsFromCells(t *testing.T) {
	syms := []Symbol{0xAA, 0xAA, 0xAA, SymbolDesync, AGAT_RESYNC, 0x95, 0x6A, 0x01, 0xAA}
	cells := EncodeAgatMFMSymbols(syms)

	for _, shift := range []int{0, 3, 16, 21} {
		words, ok := AgatWordsFromCells(shiftCells(cells, shift))
		if !ok {
			t.Fatalf("shift %d: no mark found", shift)
		}
		s := aimTrack(words)
		if !s.MarkAt(0) || s.ByteAt(1) != 0xFF || s.ByteAt(2) != 0x95 || s.ByteAt(3) != 0x6A || s.ByteAt(4) != 0x01 {
			t.Errorf("shift %d: words not framed: % X", shift, words)
		}
	}

	if _, ok := AgatWordsFromCells(EncodeAgatMFMSymbols([]Symbol{1, 2, 3, 4})); ok {
		t.Errorf("found a mark in plain data")
	}
}

// insertCells adds n empty cells before cell at.
func insertCells(cells []byte, at, n int) []byte {
	bits := unpackCells(cells)
	out := make([]byte, 0, len(bits)+n)
	out = append(out, bits[:at]...)
	out = append(out, make([]byte, n)...)
	out = append(out, bits[at:]...)
	return packCells(out)
}

func TestAgatFramingRestartsAtEveryDesync(t *testing.T) {
	syms := []Symbol{0xAA, 0xAA, SymbolDesync, AGAT_RESYNC, 0x95, 0x6A, 0x11, 0xAA, 0xAA, 0xAA,
		SymbolDesync, AGAT_RESYNC, 0x6A, 0x95, 0x22, 0x5A, 0xAA, 0xAA}
	cells := EncodeAgatMFMSymbols(syms)

	for _, slip := range []int{1, 3, 9} {
		// slip the framing inside the gap between the two fields
		words, ok := AgatWordsFromCells(insertCells(cells, 8*16+5, slip))
		if !ok {
			t.Fatalf("slip %d: no mark found", slip)
		}
		s := aimTrack(words)
		second := -1
		for i := 1; i < len(words); i++ {
			if s.MarkAt(i) {
				second = i
				break
			}
		}
		if second < 0 || s.ByteAt(second+2) != 0x6A || s.ByteAt(second+3) != 0x95 || s.ByteAt(second+4) != 0x22 {
			t.Errorf("slip %d: second field lost: % X", slip, words)
		}
	}
}

func TestGCRPhaseFollowsSlips(t *testing.T) {
	nibbles := append(bytes.Repeat([]byte{0xFF}, 12), 0xD5, 0xAA, 0x96, 0xAB, 0xCD, 0xEF)
	nibbles = append(nibbles, bytes.Repeat([]byte{0xFF}, 12)...)
	nibbles = append(nibbles, 0xD5, 0xAA, 0xAD, 0x96, 0xE5, 0xFE)
	nibbles = append(nibbles, bytes.Repeat([]byte{0xFF}, 8)...)
	cells := SpreadGCR(nibbles)

	// every offset inside the second gap, both a phase flip and a framing slip
	for at := 19 * 16; at < 29*16; at++ {
		for _, n := range []int{1, 2, 3} {
			got := NibblesFromCells(insertCells(cells, at, n))
			if !bytes.Contains(got, []byte{0xD5, 0xAA, 0x96, 0xAB, 0xCD, 0xEF}) ||
				!bytes.Contains(got, []byte{0xD5, 0xAA, 0xAD, 0x96, 0xE5, 0xFE}) {
				t.Fatalf("%d cells at %d: % X", n, at, got)
			}
		}
	}
}
