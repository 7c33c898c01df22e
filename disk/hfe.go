package disk

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

const HFE_V1_SIGNATURE = "HXCPICFE"
const HFE_V3_SIGNATURE = "HXCHFEV3"
const HFE_BLOCK_SIZE = 512
const HFE_SIDE_BYTES = HFE_BLOCK_SIZE / 2

// HFE track encodings.
const (
	HFE_ENC_ISOIBM_MFM = 0x00
	HFE_ENC_AMIGA_MFM  = 0x01
	HFE_ENC_ISOIBM_FM  = 0x02
	HFE_ENC_EMU_FM     = 0x03
	HFE_ENC_UNKNOWN    = 0xFF
)

// HeaderHFE is the v1 header. Fields are read at fixed offsets.
type HeaderHFE struct {
	Signature       string
	Revision        int
	Tracks          int
	Sides           int
	Encoding        int
	BitRate         int
	RPM             int
	Interface       InterfaceMode
	TrackListOffset int // in blocks
	WriteAllowed    bool
}

type TrackEntryHFE struct {
	Offset   int // in blocks
	TrackLen int // bytes, both sides
}

func ParseHeaderHFE(data []byte) (HeaderHFE, error) {
	var h HeaderHFE
	if len(data) < HFE_BLOCK_SIZE {
		return h, errors.Wrapf(ErrTruncated, "%d byte header", len(data))
	}
	h.Signature = string(data[0:8])
	switch h.Signature {
	case HFE_V1_SIGNATURE:
	case HFE_V3_SIGNATURE:
		return h, errors.Wrapf(ErrUnsupported, "HFE v3 stream opcodes")
	default:
		return h, errors.Wrapf(ErrSignature, "%q", h.Signature)
	}
	h.Revision = int(data[8])
	h.Tracks = int(data[9])
	h.Sides = int(data[10])
	h.Encoding = int(data[11])
	h.BitRate = int(binary.LittleEndian.Uint16(data[12:]))
	h.RPM = int(binary.LittleEndian.Uint16(data[14:]))
	h.Interface = InterfaceMode(data[16])
	h.TrackListOffset = int(binary.LittleEndian.Uint16(data[18:]))
	h.WriteAllowed = data[20] != 0x00
	return h, nil
}

// Bytes emits the header block padded with 0xFF.
func (h HeaderHFE) Bytes() []byte {
	out := bytes.Repeat([]byte{0xFF}, HFE_BLOCK_SIZE)
	copy(out, HFE_V1_SIGNATURE)
	out[8] = byte(h.Revision)
	out[9] = byte(h.Tracks)
	out[10] = byte(h.Sides)
	out[11] = byte(h.Encoding)
	binary.LittleEndian.PutUint16(out[12:], uint16(h.BitRate))
	binary.LittleEndian.PutUint16(out[14:], uint16(h.RPM))
	out[16] = byte(h.Interface)
	out[17] = 0x00
	binary.LittleEndian.PutUint16(out[18:], uint16(h.TrackListOffset))
	out[20] = 0x00
	if h.WriteAllowed {
		out[20] = 0xFF
	}
	// single step, then both track 0 alternate encodings left unset
	out[21] = 0xFF
	return out
}

// hfeEncoding is the header encoding byte for a disk type. Agat MFM is not
// IBM MFM but HxC tools treat it as such for timing.
func hfeEncoding(enc Encoding) int {
	if enc == EncodingAgatMFM {
		return HFE_ENC_ISOIBM_MFM
	}
	return HFE_ENC_UNKNOWN
}

type hfeContainer struct{}

var HFE Container = hfeContainer{}

func (hfeContainer) Name() string         { return "hfe" }
func (hfeContainer) Description() string  { return "HxC HFE v1 bitstream image" }
func (hfeContainer) Extensions() []string { return []string{"hfe"} }

func (hfeContainer) Supports(id DiskTypeID) bool {
	return id == DT_140K || id == DT_840K
}

func (hfeContainer) Probe(data []byte) DiskTypeID {
	h, err := ParseHeaderHFE(data)
	if err != nil {
		return DT_NONE
	}
	return diskTypeForGeometry(h.Tracks, h.Sides)
}

// demuxHFE splits interleaved 512 byte blocks into per side streams.
func demuxHFE(raw []byte, sides, sideLen int) [][]byte {
	out := make([][]byte, sides)
	for s := range out {
		out[s] = make([]byte, 0, sideLen)
	}
	for off := 0; off < len(raw); off += HFE_BLOCK_SIZE {
		for s := 0; s < sides; s++ {
			lo := off + s*HFE_SIDE_BYTES
			hi := lo + HFE_SIDE_BYTES
			if hi > len(raw) {
				hi = len(raw)
			}
			if lo < hi {
				out[s] = append(out[s], raw[lo:hi]...)
			}
		}
	}
	for s := range out {
		if len(out[s]) > sideLen {
			out[s] = out[s][:sideLen]
		}
	}
	return out
}

// muxHFE is the inverse of demuxHFE. Missing sides are filled with zeros.
func muxHFE(sides [][]byte) ([]byte, int) {
	sideLen := 0
	for _, s := range sides {
		if len(s) > sideLen {
			sideLen = len(s)
		}
	}
	blocks := (sideLen + HFE_SIDE_BYTES - 1) / HFE_SIDE_BYTES
	out := make([]byte, blocks*HFE_BLOCK_SIZE)
	for b := 0; b < blocks; b++ {
		for s := 0; s < 2; s++ {
			if s >= len(sides) {
				continue
			}
			lo := b * HFE_SIDE_BYTES
			if lo >= len(sides[s]) {
				continue
			}
			hi := lo + HFE_SIDE_BYTES
			if hi > len(sides[s]) {
				hi = len(sides[s])
			}
			copy(out[b*HFE_BLOCK_SIZE+s*HFE_SIDE_BYTES:], sides[s][lo:hi])
		}
	}
	return out, 2 * sideLen
}

func (hfeContainer) Open(data []byte, hint DiskTypeID) (*TrackSet, error) {
	h, err := ParseHeaderHFE(data)
	if err != nil {
		return nil, err
	}
	id := diskTypeForGeometry(h.Tracks, h.Sides)
	if id == DT_NONE {
		return nil, errors.Wrapf(ErrGeometry, "%d tracks, %d sides", h.Tracks, h.Sides)
	}
	if err := checkHint("hfe", hint, id); err != nil {
		return nil, err
	}
	dt := GetDiskType(id)

	list := h.TrackListOffset * HFE_BLOCK_SIZE
	if list < HFE_BLOCK_SIZE || list+4*h.Tracks > len(data) {
		return nil, errors.Wrapf(ErrTruncated, "track list at block %d", h.TrackListOffset)
	}

	ts := newTrackSet(dt)
	for t := 0; t < h.Tracks; t++ {
		e := TrackEntryHFE{
			Offset:   int(binary.LittleEndian.Uint16(data[list+4*t:])),
			TrackLen: int(binary.LittleEndian.Uint16(data[list+4*t+2:])),
		}
		start := e.Offset * HFE_BLOCK_SIZE
		end := start + alignUp(e.TrackLen, HFE_BLOCK_SIZE)
		if start < HFE_BLOCK_SIZE || end > len(data) {
			return nil, errors.Wrapf(ErrTruncated, "track %d at block %d, %d bytes", t, e.Offset, e.TrackLen)
		}
		sides := demuxHFE(data[start:end], 2, e.TrackLen/2)
		for s := 0; s < h.Sides; s++ {
			ts.set(t, s, cellTrack(dt.Encoding, sides[s]))
		}
	}
	return ts, nil
}

func (hfeContainer) EncodeTrack(img *Image, track, head int, il Interleave) ([]byte, error) {
	return encodeCells(img, track, head, il)
}

func (c hfeContainer) Assemble(dt DiskType, tracks [][]byte) ([]byte, error) {
	if !c.Supports(dt.ID) || len(tracks) != dt.Tracks*dt.Heads {
		return nil, errors.Wrapf(ErrGeometry, "hfe: %d tracks for %s", len(tracks), dt)
	}
	h := HeaderHFE{
		Revision:        0,
		Tracks:          dt.Tracks,
		Sides:           dt.Heads,
		Encoding:        hfeEncoding(dt.Encoding),
		BitRate:         dt.BitRate,
		RPM:             dt.RPM,
		Interface:       dt.Interface,
		TrackListOffset: 1,
		WriteAllowed:    true,
	}

	out := bytes.NewBuffer(h.Bytes())
	list := make([]byte, alignUp(4*dt.Tracks, HFE_BLOCK_SIZE))
	body := &bytes.Buffer{}
	block := 1 + len(list)/HFE_BLOCK_SIZE
	for t := 0; t < dt.Tracks; t++ {
		raw, trackLen := muxHFE(tracks[t*dt.Heads : (t+1)*dt.Heads])
		if trackLen > 0xFFFF {
			return nil, errors.Wrapf(ErrGeometry, "track %d is %d bytes", t, trackLen)
		}
		binary.LittleEndian.PutUint16(list[4*t:], uint16(block))
		binary.LittleEndian.PutUint16(list[4*t+2:], uint16(trackLen))
		body.Write(raw)
		block += len(raw) / HFE_BLOCK_SIZE
	}
	out.Write(list)
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
