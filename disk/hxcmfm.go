package disk

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

/*
	HxC MFM layout, little endian:

	0x00 "HXCMFM\0"
	0x07 tracks u16
	0x09 sides u8
	0x0A rpm u16
	0x0C bitrate u16 (kbit/s)
	0x0E interface mode u8
	0x0F track list offset u32

	Track list entries are 11 bytes: track u16, side u8, size u32,
	offset u32. Track data is MSB first.
*/

var MAGIC_HXC_MFM = []byte("HXCMFM\x00")

const HXC_MFM_HEADER_SIZE = 19
const HXC_MFM_ENTRY_SIZE = 11
const HXC_MFM_ALIGN = 512

type HeaderMFM struct {
	Tracks          int
	Sides           int
	RPM             int
	BitRate         int
	Interface       InterfaceMode
	TrackListOffset int
}

type TrackEntryMFM struct {
	Track  int
	Side   int
	Size   int
	Offset int
}

func ParseHeaderMFM(data []byte) (HeaderMFM, error) {
	var h HeaderMFM
	if len(data) < HXC_MFM_HEADER_SIZE {
		return h, errors.Wrapf(ErrTruncated, "%d byte header", len(data))
	}
	if !bytes.Equal(data[:len(MAGIC_HXC_MFM)], MAGIC_HXC_MFM) {
		return h, errors.Wrapf(ErrSignature, "%q", data[:len(MAGIC_HXC_MFM)])
	}
	h.Tracks = int(binary.LittleEndian.Uint16(data[0x07:]))
	h.Sides = int(data[0x09])
	h.RPM = int(binary.LittleEndian.Uint16(data[0x0A:]))
	h.BitRate = int(binary.LittleEndian.Uint16(data[0x0C:]))
	h.Interface = InterfaceMode(data[0x0E])
	h.TrackListOffset = int(binary.LittleEndian.Uint32(data[0x0F:]))
	return h, nil
}

func (h HeaderMFM) Bytes() []byte {
	out := make([]byte, HXC_MFM_HEADER_SIZE)
	copy(out, MAGIC_HXC_MFM)
	binary.LittleEndian.PutUint16(out[0x07:], uint16(h.Tracks))
	out[0x09] = byte(h.Sides)
	binary.LittleEndian.PutUint16(out[0x0A:], uint16(h.RPM))
	binary.LittleEndian.PutUint16(out[0x0C:], uint16(h.BitRate))
	out[0x0E] = byte(h.Interface)
	binary.LittleEndian.PutUint32(out[0x0F:], uint32(h.TrackListOffset))
	return out
}

func parseTrackEntryMFM(b []byte) TrackEntryMFM {
	return TrackEntryMFM{
		Track:  int(binary.LittleEndian.Uint16(b[0:])),
		Side:   int(b[2]),
		Size:   int(binary.LittleEndian.Uint32(b[3:])),
		Offset: int(binary.LittleEndian.Uint32(b[7:])),
	}
}

func (e TrackEntryMFM) bytes() []byte {
	out := make([]byte, HXC_MFM_ENTRY_SIZE)
	binary.LittleEndian.PutUint16(out[0:], uint16(e.Track))
	out[2] = byte(e.Side)
	binary.LittleEndian.PutUint32(out[3:], uint32(e.Size))
	binary.LittleEndian.PutUint32(out[7:], uint32(e.Offset))
	return out
}

type hxcMFMContainer struct{}

var HXC_MFM Container = hxcMFMContainer{}

func (hxcMFMContainer) Name() string         { return "mfm" }
func (hxcMFMContainer) Description() string  { return "HxC MFM bitstream image" }
func (hxcMFMContainer) Extensions() []string { return []string{"mfm"} }

func (hxcMFMContainer) Supports(id DiskTypeID) bool {
	return id == DT_140K || id == DT_840K
}

func (hxcMFMContainer) Probe(data []byte) DiskTypeID {
	h, err := ParseHeaderMFM(data)
	if err != nil {
		return DT_NONE
	}
	return diskTypeForGeometry(h.Tracks, h.Sides)
}

func (c hxcMFMContainer) Open(data []byte, hint DiskTypeID) (*TrackSet, error) {
	h, err := ParseHeaderMFM(data)
	if err != nil {
		return nil, err
	}
	id := diskTypeForGeometry(h.Tracks, h.Sides)
	if id == DT_NONE {
		return nil, errors.Wrapf(ErrGeometry, "%d tracks, %d sides", h.Tracks, h.Sides)
	}
	if err := checkHint("mfm", hint, id); err != nil {
		return nil, err
	}
	dt := GetDiskType(id)

	count := h.Tracks * h.Sides
	end := h.TrackListOffset + count*HXC_MFM_ENTRY_SIZE
	if h.TrackListOffset < HXC_MFM_HEADER_SIZE || end > len(data) {
		return nil, errors.Wrapf(ErrTruncated, "track list at %d for %d entries", h.TrackListOffset, count)
	}

	ts := newTrackSet(dt)
	for i := 0; i < count; i++ {
		e := parseTrackEntryMFM(data[h.TrackListOffset+i*HXC_MFM_ENTRY_SIZE:])
		if e.Track >= h.Tracks || e.Side >= h.Sides {
			return nil, errors.Wrapf(ErrGeometry, "track entry %d names track %d side %d", i, e.Track, e.Side)
		}
		if e.Offset < 0 || e.Size < 0 || e.Offset+e.Size > len(data) {
			return nil, errors.Wrapf(ErrTruncated, "track %d side %d at %d+%d", e.Track, e.Side, e.Offset, e.Size)
		}
		ts.set(e.Track, e.Side, cellTrack(dt.Encoding, reverseBits(data[e.Offset:e.Offset+e.Size])))
	}
	return ts, nil
}

func (hxcMFMContainer) EncodeTrack(img *Image, track, head int, il Interleave) ([]byte, error) {
	return encodeCells(img, track, head, il)
}

func alignUp(n, a int) int {
	return (n + a - 1) / a * a
}

func (c hxcMFMContainer) Assemble(dt DiskType, tracks [][]byte) ([]byte, error) {
	if !c.Supports(dt.ID) || len(tracks) != dt.Tracks*dt.Heads {
		return nil, errors.Wrapf(ErrGeometry, "mfm: %d tracks for %s", len(tracks), dt)
	}
	h := HeaderMFM{
		Tracks:          dt.Tracks,
		Sides:           dt.Heads,
		RPM:             dt.RPM,
		BitRate:         dt.BitRate,
		Interface:       dt.Interface,
		TrackListOffset: HXC_MFM_HEADER_SIZE,
	}

	offset := alignUp(HXC_MFM_HEADER_SIZE+len(tracks)*HXC_MFM_ENTRY_SIZE, HXC_MFM_ALIGN)
	out := bytes.NewBuffer(h.Bytes())
	for i, t := range tracks {
		e := TrackEntryMFM{Track: i / dt.Heads, Side: i % dt.Heads, Size: len(t), Offset: offset}
		out.Write(e.bytes())
		offset = alignUp(offset+len(t), HXC_MFM_ALIGN)
	}
	for _, t := range tracks {
		out.Write(make([]byte, alignUp(out.Len(), HXC_MFM_ALIGN)-out.Len()))
		out.Write(reverseBits(t))
	}
	return out.Bytes(), nil
}
