package disk

const GCR_DATA_BYTES = 343
const GCR_AUX_BYTES = 0x56
const GCR_ADDRESS_BYTES = 8

var NIBBLE_62 = [64]byte{
	0x96, 0x97, 0x9a, 0x9b, 0x9d, 0x9e, 0x9f, 0xa6,
	0xa7, 0xab, 0xac, 0xad, 0xae, 0xaf, 0xb2, 0xb3,
	0xb4, 0xb5, 0xb6, 0xb7, 0xb9, 0xba, 0xbb, 0xbc,
	0xbd, 0xbe, 0xbf, 0xcb, 0xcd, 0xce, 0xcf, 0xd3,
	0xd6, 0xd7, 0xd9, 0xda, 0xdb, 0xdc, 0xdd, 0xde,
	0xdf, 0xe5, 0xe6, 0xe7, 0xe9, 0xea, 0xeb, 0xec,
	0xed, 0xee, 0xef, 0xf2, 0xf3, 0xf4, 0xf5, 0xf6,
	0xf7, 0xf9, 0xfa, 0xfb, 0xfc, 0xfd, 0xfe, 0xff}

const invalidNibble = 0xFF

// denibble62 is indexed by nibble&0x7F; every disk nibble has bit 7 set.
var denibble62 [128]byte

// swap2 exchanges bits 0 and 1 of a 2-bit group.
var swap2 = [4]byte{0, 2, 1, 3}

func init() {
	for i := range denibble62 {
		denibble62[i] = invalidNibble
	}
	for v, n := range NIBBLE_62 {
		denibble62[n&0x7F] = byte(v)
	}
}

// EncodeGCR62 appends the 343 nibbles for a 256 byte sector to dst.
func EncodeGCR62(dst []byte, data []byte) []byte {
	var temp [GCR_DATA_BYTES - 1]byte

	for k := 0; k < GCR_AUX_BYTES; k++ {
		lo := data[k]
		mid := data[k+GCR_AUX_BYTES]
		hi := data[(k+2*GCR_AUX_BYTES)&0xFF]
		temp[k] = swap2[lo&3] | swap2[mid&3]<<2 | swap2[hi&3]<<4
	}
	for i := 0; i < 256; i++ {
		temp[GCR_AUX_BYTES+i] = data[i] >> 2
	}

	var last byte
	for _, v := range temp {
		dst = append(dst, NIBBLE_62[v^last])
		last = v
	}
	// Last data value doubles as the checksum.
	return append(dst, NIBBLE_62[last])
}

// DecodeGCR62 decodes 343 nibbles into out (256 bytes). The data is always
// written; the result reports whether the checksum and every nibble were
// valid.
func DecodeGCR62(enc []byte, out []byte) bool {
	if len(enc) < GCR_DATA_BYTES || len(out) < 256 {
		return false
	}

	ok := true
	var last byte

	next := func(n byte) byte {
		v := denibble62[n&0x7F]
		if n&0x80 == 0 || v == invalidNibble {
			ok = false
			v = 0
		}
		last ^= v
		return last
	}

	for i := 0; i < 256; i++ {
		out[i] = 0
	}

	for k := 0; k < GCR_AUX_BYTES; k++ {
		v := next(enc[k])
		out[k] |= swap2[v&3]
		out[k+GCR_AUX_BYTES] |= swap2[(v>>2)&3]
		if k+2*GCR_AUX_BYTES < 256 {
			out[k+2*GCR_AUX_BYTES] |= swap2[(v>>4)&3]
		}
	}
	for i := 0; i < 256; i++ {
		out[i] |= next(enc[GCR_AUX_BYTES+i]) << 2
	}

	sum := enc[GCR_DATA_BYTES-1]
	if sum&0x80 == 0 || denibble62[sum&0x7F] != last {
		ok = false
	}
	return ok
}

// Code44 appends the odd/even 4-and-4 form of b.
func Code44(dst []byte, b byte) []byte {
	return append(dst, 0xAA|(b>>1), 0xAA|b)
}

func Decode44(odd, even byte) byte {
	return (odd&0x55)<<1 | (even & 0x55)
}

// Address is a decoded GCR address field.
type Address struct {
	Volume, Track, Sector, Checksum byte
}

func (a Address) Valid() bool {
	return a.Volume^a.Track^a.Sector == a.Checksum
}

func EncodeAddress(dst []byte, volume, track, sector byte) []byte {
	dst = Code44(dst, volume)
	dst = Code44(dst, track)
	dst = Code44(dst, sector)
	return Code44(dst, volume^track^sector)
}

func DecodeAddress(enc []byte) Address {
	return Address{
		Volume:   Decode44(enc[0], enc[1]),
		Track:    Decode44(enc[2], enc[3]),
		Sector:   Decode44(enc[4], enc[5]),
		Checksum: Decode44(enc[6], enc[7]),
	}
}
