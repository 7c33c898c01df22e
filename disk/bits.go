package disk

// Cell streams are stored LSB-first: bit 0 of byte 0 is the first cell in
// time. The helpers below unpack them to one cell per byte so alignment
// can happen at any bit offset.

// GCR_PROLOGUE_BITS is D5 AA 96 as 24 data bits.
const GCR_PROLOGUE_BITS = 0xD5AA96

// GCR_SYNC_BITS opens both prologues and never occurs off a nibble boundary.
const GCR_SYNC_BITS = 0xD5AA

// AGAT_DESYNC_CELLS is the desync pair 0x22 0x09 in time order.
const AGAT_DESYNC_CELLS = 0x4490

func unpackCells(cells []byte) []byte {
	out := make([]byte, len(cells)*8)
	for i, b := range cells {
		for j := 0; j < 8; j++ {
			out[i*8+j] = (b >> uint(j)) & 1
		}
	}
	return out
}

// packCells is the inverse of unpackCells. A trailing partial byte is
// padded with zero cells.
func packCells(bits []byte) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v != 0 {
			out[i>>3] |= 1 << uint(i&7)
		}
	}
	return out
}

// findPattern returns the first position in the circular bit ring where the
// width bits starting there equal pattern (first bit most significant).
func findPattern(bits []byte, pattern uint64, width int) int {
	n := len(bits)
	if n < width {
		return -1
	}
	mask := uint64(1)<<uint(width) - 1
	var reg uint64
	for i := 0; i < n+width-1; i++ {
		reg = (reg<<1 | uint64(bits[i%n])) & mask
		if i >= width-1 && reg == pattern {
			return (i - width + 1) % n
		}
	}
	return -1
}

// rotate returns the ring starting at start.
func rotate(bits []byte, start int) []byte {
	if start <= 0 || start >= len(bits) {
		return bits
	}
	out := make([]byte, 0, len(bits))
	out = append(out, bits[start:]...)
	return append(out, bits[:start]...)
}

// SpreadGCR renders a nibble stream as half-cells: every data bit is
// preceded by an empty cell, so one nibble fills two stream bytes.
func SpreadGCR(nibbles []byte) []byte {
	out := make([]byte, 0, 2*len(nibbles))
	for _, n := range nibbles {
		var w uint16
		for i := 7; i >= 0; i-- {
			w = w<<2 | uint16((n>>uint(i))&1)
		}
		// w holds the cells with the first one in bit 15
		out = append(out, bitReverse(byte(w>>8)), bitReverse(byte(w)))
	}
	return out
}

// gcrDataBits drops the empty half-cells. A set cell where a clock is due
// can only be data, so the phase follows a slip anywhere in the track.
func gcrDataBits(cells []byte) []byte {
	out := make([]byte, 0, len(cells)/2+1)
	for i := 0; i+1 < len(cells); {
		if cells[i] != 0 {
			out = append(out, 1)
			i++
			continue
		}
		out = append(out, cells[i+1])
		i += 2
	}
	return out
}

// markPositions flags every ring position where pattern starts.
func markPositions(bits []byte, pattern uint64, width int) []bool {
	n := len(bits)
	at := make([]bool, n)
	if n < width {
		return at
	}
	mask := uint64(1)<<uint(width) - 1
	var reg uint64
	for i := 0; i < n+width-1; i++ {
		reg = (reg<<1 | uint64(bits[i%n])) & mask
		if i >= width-1 && reg == pattern {
			at[(i-width+1)%n] = true
		}
	}
	return at
}

// latchNibbles shifts data bits through a read latch the way the disk
// controller does: a byte is complete once its top bit is set. The latch
// is cleared at every D5 AA so each field starts on its own framing.
func latchNibbles(bits []byte) []byte {
	sync := markPositions(bits, GCR_SYNC_BITS, 16)
	out := make([]byte, 0, len(bits)/8+1)
	var reg byte
	for i, b := range bits {
		if sync[i] {
			reg = 0
		}
		reg = reg<<1 | b
		if reg&0x80 != 0 {
			out = append(out, reg)
			reg = 0
		}
	}
	return out
}

// NibblesFromCells recovers a GCR nibble stream from half-cell track data,
// starting at the first address prologue found at any bit offset.
func NibblesFromCells(cells []byte) []byte {
	bits := gcrDataBits(unpackCells(cells))
	if start := findPattern(bits, GCR_PROLOGUE_BITS, 24); start > 0 {
		bits = rotate(bits, start)
	}
	return latchNibbles(bits)
}

// cellByte packs the eight cells at pos into one stream byte.
func cellByte(bits []byte, pos int) byte {
	var b byte
	for j := 0; j < 8; j++ {
		b |= bits[pos+j] << uint(j)
	}
	return b
}

// AgatWordsFromCells frames an Agat MFM cell stream into AIM style words.
// Framing starts at the first desync and restarts at every desync found at
// any bit offset, so a slipped cell only costs the field it lands in. ok is
// false if the stream has no desync.
func AgatWordsFromCells(cells []byte) ([]uint16, bool) {
	bits := unpackCells(cells)
	start := findPattern(bits, AGAT_DESYNC_CELLS, 16)
	if start < 0 {
		return nil, false
	}
	bits = rotate(bits, start)
	marks := markPositions(bits, AGAT_DESYNC_CELLS, 16)

	out := make([]uint16, 0, len(bits)/16)
	pos := 0
	for pos+16 <= len(bits) {
		if marks[pos] {
			out = append(out, AIM_MARK<<8|AGAT_DESYNC_BYTE)
			pos += 16
			continue
		}
		next := -1
		for q := pos + 1; q < pos+16; q++ {
			if marks[q] {
				next = q
				break
			}
		}
		if next >= 0 {
			pos = next
			continue
		}
		out = append(out, uint16(DecodeAgatMFMByte(cellByte(bits, pos), cellByte(bits, pos+8))))
		pos += 16
	}
	return out, true
}

// shiftCells delays a cell stream by n cells, wrapping the tail round.
func shiftCells(cells []byte, n int) []byte {
	bits := unpackCells(cells)
	if len(bits) == 0 {
		return cells
	}
	n %= len(bits)
	return packCells(rotate(bits, len(bits)-n))
}
