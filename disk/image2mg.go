package disk

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

/*
	2MG format loader...
*/

const PREAMBLE_2MG_SIZE = 0x40

var MAGIC_2MG = []byte("2IMG")

const CREATOR_2MG = "NBM8"

// 2MG image formats.
const (
	FORMAT_2MG_DOS    = 0x00
	FORMAT_2MG_PRODOS = 0x01
	FORMAT_2MG_NIB    = 0x02
)

const FLAG_2MG_VOLUME_VALID = 0x100

type Header2MG struct {
	Data [PREAMBLE_2MG_SIZE]byte
}

func (h *Header2MG) SetData(data []byte) {
	copy(h.Data[:], data)
}

func (h *Header2MG) u16(off int) int {
	return int(binary.LittleEndian.Uint16(h.Data[off:]))
}

func (h *Header2MG) u32(off int) int {
	return int(binary.LittleEndian.Uint32(h.Data[off:]))
}

func (h *Header2MG) GetID() string {
	return string(h.Data[0x00:0x04])
}

func (h *Header2MG) GetCreatorID() string {
	return string(h.Data[0x04:0x08])
}

func (h *Header2MG) GetHeaderSize() int {
	return h.u16(0x08)
}

func (h *Header2MG) GetVersion() int {
	return h.u16(0x0A)
}

func (h *Header2MG) GetImageFormat() int {
	return h.u32(0x0C)
}

func (h *Header2MG) GetDOSFlags() int {
	return h.u32(0x10)
}

func (h *Header2MG) GetProDOSBlocks() int {
	return h.u32(0x14)
}

func (h *Header2MG) GetDiskDataStart() int {
	return h.u32(0x18)
}

func (h *Header2MG) GetDiskDataLength() int {
	return h.u32(0x1C)
}

// GetVolume returns the DOS volume number, or 0 when the header has none.
func (h *Header2MG) GetVolume() byte {
	flags := h.GetDOSFlags()
	if flags&FLAG_2MG_VOLUME_VALID == 0 {
		return 0
	}
	return byte(flags)
}

func NewHeader2MG(format, blocks, dataLen int, volume byte) *Header2MG {
	h := &Header2MG{}
	copy(h.Data[0x00:], MAGIC_2MG)
	copy(h.Data[0x04:], CREATOR_2MG)
	binary.LittleEndian.PutUint16(h.Data[0x08:], PREAMBLE_2MG_SIZE)
	binary.LittleEndian.PutUint16(h.Data[0x0A:], 1)
	binary.LittleEndian.PutUint32(h.Data[0x0C:], uint32(format))
	binary.LittleEndian.PutUint32(h.Data[0x10:], uint32(FLAG_2MG_VOLUME_VALID|int(volume)))
	binary.LittleEndian.PutUint32(h.Data[0x14:], uint32(blocks))
	binary.LittleEndian.PutUint32(h.Data[0x18:], PREAMBLE_2MG_SIZE)
	binary.LittleEndian.PutUint32(h.Data[0x1C:], uint32(dataLen))
	return h
}

func Is2MG(data []byte) bool {
	return len(data) >= PREAMBLE_2MG_SIZE && bytes.Equal(data[:4], MAGIC_2MG)
}

// Load2MG unwraps a 2MG file. Nibble payloads are decoded through the nib
// container with opts; the report is nil for sector payloads.
func Load2MG(data []byte, opts Options) (*Image, *Report, error) {
	if !Is2MG(data) {
		return nil, nil, errors.Wrapf(ErrSignature, "no 2IMG magic")
	}
	h := &Header2MG{}
	h.SetData(data[:PREAMBLE_2MG_SIZE])

	start := h.GetDiskDataStart()
	size := h.GetDiskDataLength()
	if start < PREAMBLE_2MG_SIZE || start > len(data) {
		return nil, nil, errors.Wrapf(ErrTruncated, "data offset %d", start)
	}
	if size == 0 || start+size > len(data) {
		size = len(data) - start
	}
	payload := data[start : start+size]

	switch h.GetImageFormat() {
	case FORMAT_2MG_NIB:
		return Decode(NIB, payload, opts)
	case FORMAT_2MG_DOS, FORMAT_2MG_PRODOS:
		id := DiskTypeForSize(len(payload))
		if id == DT_NONE {
			return nil, nil, errors.Wrapf(ErrBadSize, "2mg payload of %d bytes", len(payload))
		}
		order := SectorOrderDOS33
		if h.GetImageFormat() == FORMAT_2MG_PRODOS && id == DT_140K {
			order = SectorOrderProDOS
		}
		img, err := NewImageFromData(id, order, append([]byte(nil), payload...))
		if err != nil {
			return nil, nil, err
		}
		if v := h.GetVolume(); v != 0 {
			img.Volume = v
		}
		return img, nil, nil
	}
	return nil, nil, errors.Wrapf(ErrUnsupported, "2mg image format %d", h.GetImageFormat())
}

// Save2MG wraps the image in a 2MG header, ProDOS order for 140k images.
func Save2MG(img *Image) ([]byte, error) {
	format := FORMAT_2MG_DOS
	target := img
	if img.Type.ID == DT_140K {
		format = FORMAT_2MG_PRODOS
		var err error
		if target, err = img.Reorder(SectorOrderProDOS); err != nil {
			return nil, err
		}
	}
	blocks := 0
	if format == FORMAT_2MG_PRODOS {
		blocks = len(target.Data) / 512
	}
	h := NewHeader2MG(format, blocks, len(target.Data), target.Volume)
	out := make([]byte, 0, PREAMBLE_2MG_SIZE+len(target.Data))
	out = append(out, h.Data[:]...)
	return append(out, target.Data...), nil
}
