package disk

// Agat MFM streams are kept in the bit order HFE stores them: the first cell
// of every stream byte is its least significant bit. One data byte becomes
// sixteen cells, i.e. two stream bytes.

// Stream bytes of the 0xA4 desync mark with its last clock suppressed.
const (
	AGAT_DESYNC_HI = 0x22
	AGAT_DESYNC_LO = 0x09
)

const AGAT_DESYNC_BYTE = 0xA4

// AGAT_RESYNC follows every desync on tracks this package writes. Readers
// also accept the mark directly after the desync.
const AGAT_RESYNC = Symbol(0xFF)
const AGAT_GAP_BYTE = 0xAA
const AGAT_EPILOGUE = 0x5A

var AGAT_ADDRESS_MARK = [2]byte{0x95, 0x6A}
var AGAT_DATA_MARK = [2]byte{0x6A, 0x95}

// agatMFMEncode is indexed by (last&1)<<8 | b; the high half is the first
// stream byte.
var agatMFMEncode [512]uint16

// agatMFMDecode is indexed by streamByte>>1 and yields the data nibble.
var agatMFMDecode [128]byte

var bitReverseTable [256]byte

func init() {
	for i := 0; i < 256; i++ {
		var r byte
		for j := 0; j < 8; j++ {
			if i&(1<<j) != 0 {
				r |= 1 << (7 - j)
			}
		}
		bitReverseTable[i] = r
	}

	for prev := 0; prev < 2; prev++ {
		for b := 0; b < 256; b++ {
			w := mfmCells(byte(b), prev)
			agatMFMEncode[prev<<8|b] = uint16(bitReverseTable[w>>8])<<8 | uint16(bitReverseTable[w&0xFF])
		}
	}

	// After reversal a stream byte reads d4 c4 d5 c5 d6 c6 d7 c7 from bit 7
	// down, so the shifted index holds all four data cells.
	for i := 0; i < 128; i++ {
		agatMFMDecode[i] = byte(i&1)<<3 | byte((i>>2)&1)<<2 | byte((i>>4)&1)<<1 | byte((i>>6)&1)
	}
}

// mfmCells returns the 16 clock/data cells of b in time order, first cell in
// bit 15. A clock cell is set only between two zero data bits.
func mfmCells(b byte, prev int) uint16 {
	var w uint16
	for i := 7; i >= 0; i-- {
		d := int(b>>uint(i)) & 1
		c := 0
		if prev == 0 && d == 0 {
			c = 1
		}
		w = w<<2 | uint16(c<<1|d)
		prev = d
	}
	return w
}

// EncodeAgatMFMByte appends the two stream bytes of b. last is the byte
// encoded before b; the returned value is the new last byte.
func EncodeAgatMFMByte(dst []byte, b, last byte) ([]byte, byte) {
	w := agatMFMEncode[int(last&1)<<8|int(b)]
	return append(dst, byte(w>>8), byte(w)), b
}

// EncodeAgatMFMArray appends count copies of b.
func EncodeAgatMFMArray(dst []byte, b byte, count int, last byte) ([]byte, byte) {
	for i := 0; i < count; i++ {
		dst, last = EncodeAgatMFMByte(dst, b, last)
	}
	return dst, last
}

// EncodeAgatMFMData appends data and returns its Agat checksum alongside the
// new last byte.
func EncodeAgatMFMData(dst []byte, data []byte, last byte) ([]byte, byte, byte) {
	for _, b := range data {
		dst, last = EncodeAgatMFMByte(dst, b, last)
	}
	return dst, last, AgatChecksum(data)
}

// AgatChecksum is the Agat data field sum: an 8 bit add where the carry out
// of the previous step is folded back in before the next byte.
func AgatChecksum(data []byte) byte {
	crc := 0
	for _, b := range data {
		if crc > 0xFF {
			crc++
		}
		crc &= 0xFF
		crc += int(b)
	}
	return byte(crc)
}

func DecodeAgatMFMNibble(s byte) byte {
	return agatMFMDecode[s>>1]
}

func DecodeAgatMFMByte(hi, lo byte) byte {
	return DecodeAgatMFMNibble(hi)<<4 | DecodeAgatMFMNibble(lo)
}

// Symbol is one Agat track byte before cell encoding. SymbolMark flags a
// byte written with a missing clock.
type Symbol uint16

const SymbolMark Symbol = 0x100

const SymbolDesync = SymbolMark | AGAT_DESYNC_BYTE

func (s Symbol) Byte() byte {
	return byte(s)
}

func (s Symbol) IsMark() bool {
	return s&SymbolMark != 0
}

// EncodeAgatMFMSymbols renders a whole track of symbols to MFM stream bytes.
func EncodeAgatMFMSymbols(syms []Symbol) []byte {
	out := make([]byte, 0, 2*len(syms))
	var last byte
	for _, s := range syms {
		if s.IsMark() {
			out = append(out, AGAT_DESYNC_HI, AGAT_DESYNC_LO)
			last = s.Byte()
			continue
		}
		out, last = EncodeAgatMFMByte(out, s.Byte(), last)
	}
	return out
}

func bitReverse(b byte) byte {
	return bitReverseTable[b]
}

func reverseBits(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = bitReverseTable[b]
	}
	return out
}
