package disk

import "github.com/pkg/errors"

var GCR_ADDRESS_PROLOGUE = []byte{0xD5, 0xAA, 0x96}
var GCR_DATA_PROLOGUE = []byte{0xD5, 0xAA, 0xAD}
var GCR_EPILOGUE = []byte{0xDE, 0xAA, 0xEB}

const GCR_GAP_BYTE = 0xFF

// Field lengths excluding gaps, lead-in and slot padding.
const gcrSectorFields = 3 + GCR_ADDRESS_BYTES + 3 + 3 + GCR_DATA_BYTES + 3
const agatSectorFields = 2 + 2 + 3 + 1 + 2 + 2 + 256 + 1 + 1

// TrackLayout is the byte geometry of one physical track. Lengths count
// nibbles for GCR tracks and data bytes (before MFM) for Agat tracks.
type TrackLayout struct {
	Name         string
	TrackBytes   int
	Gap0         int
	Gap1         int
	Gap2         int
	GapByte      byte
	SectorLeadIn []byte // written before every address field
	SlotBytes    int    // fixed sector slot size, 0 for packed sectors
	SlotPad      byte
}

// SectorBytes is the space one sector occupies on the track.
func (l TrackLayout) SectorBytes(enc Encoding) int {
	n := len(l.SectorLeadIn) + l.Gap1 + l.Gap2
	switch enc {
	case EncodingAgatMFM:
		n += agatSectorFields
	default:
		n += gcrSectorFields
	}
	if l.SlotBytes > n {
		n = l.SlotBytes
	}
	return n
}

// Gap3 is the filler after the last sector that brings the track to exactly
// TrackBytes. A negative value means the geometry does not fit.
func (l TrackLayout) Gap3(sectors int, enc Encoding) int {
	return l.TrackBytes - (l.Gap0 + sectors*l.SectorBytes(enc))
}

func (l TrackLayout) Validate(sectors int, enc Encoding) error {
	if l.SlotBytes > 0 && l.SlotBytes < len(l.SectorLeadIn)+l.Gap1+l.Gap2+gcrSectorFields && enc == EncodingGCR {
		return errors.Wrapf(ErrGeometry, "%s: sector does not fit a %d byte slot", l.Name, l.SlotBytes)
	}
	if g := l.Gap3(sectors, enc); g < 0 {
		return errors.Wrapf(ErrGeometry, "%s: %d sectors overrun the track by %d bytes", l.Name, sectors, -g)
	}
	return nil
}

func fill(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// NIB_LAYOUT reproduces 416 byte sector slots, 6656 nibbles per track.
var NIB_LAYOUT = TrackLayout{
	Name:         "nib",
	TrackBytes:   TRACK_NIBBLE_LENGTH,
	Gap1:         6,
	Gap2:         32,
	GapByte:      GCR_GAP_BYTE,
	SectorLeadIn: fill(GCR_GAP_BYTE, 15),
	SlotBytes:    NIB_SLOT_BYTES,
}

// Ten-bit self-sync bytes packed back to back.
var nicSelfSync = []byte{0x03, 0xFC, 0xFF, 0x3F, 0xCF, 0xF3, 0xFC, 0xFF, 0x3F, 0xCF, 0xF3, 0xFC}

// NIC_LAYOUT is 512 byte slots: 416 bytes of sector followed by zeros.
var NIC_LAYOUT = TrackLayout{
	Name:         "nic",
	TrackBytes:   NIC_TRACK_LENGTH,
	Gap1:         5,
	Gap2:         14,
	GapByte:      GCR_GAP_BYTE,
	SectorLeadIn: append(fill(GCR_GAP_BYTE, 22), nicSelfSync...),
	SlotBytes:    NIC_SLOT_BYTES,
	SlotPad:      0x00,
}

// GCR_BITSTREAM_LAYOUT fits one revolution at 300 RPM, 4us cells.
var GCR_BITSTREAM_LAYOUT = TrackLayout{
	Name:       "gcr-300rpm",
	TrackBytes: 6250,
	Gap0:       40,
	Gap1:       6,
	Gap2:       18,
	GapByte:    GCR_GAP_BYTE,
}

// AGAT_MFM_LAYOUT fits one revolution at 300 RPM, 250 kbit/s.
var AGAT_MFM_LAYOUT = TrackLayout{
	Name:       "agat-mfm",
	TrackBytes: 6250,
	Gap0:       40,
	Gap1:       11,
	Gap2:       13,
	GapByte:    AGAT_GAP_BYTE,
}

// AIM_LAYOUT is the Agat layout in a 6464 word AIM track.
var AIM_LAYOUT = TrackLayout{
	Name:       "aim",
	TrackBytes: AIM_TRACK_WORDS,
	Gap0:       40,
	Gap1:       11,
	Gap2:       13,
	GapByte:    AGAT_GAP_BYTE,
}

// BitstreamLayout picks the layout for cell based containers.
func BitstreamLayout(enc Encoding) TrackLayout {
	if enc == EncodingAgatMFM {
		return AGAT_MFM_LAYOUT
	}
	return GCR_BITSTREAM_LAYOUT
}
