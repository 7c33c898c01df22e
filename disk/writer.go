package disk

import (
	"bytes"

	"github.com/pkg/errors"
)

func writeJunkBytes(output *bytes.Buffer, b byte, n int) {
	for c := 0; c < n; c++ {
		output.WriteByte(b)
	}
}

func writeGCRAddressBlock(output *bytes.Buffer, volume, track, sector byte) {
	output.Write(GCR_ADDRESS_PROLOGUE)
	output.Write(EncodeAddress(nil, volume, track, sector))
	output.Write(GCR_EPILOGUE)
}

func writeGCRDataBlock(output *bytes.Buffer, data []byte) {
	output.Write(GCR_DATA_PROLOGUE)
	output.Write(EncodeGCR62(make([]byte, 0, GCR_DATA_BYTES), data))
	output.Write(GCR_EPILOGUE)
}

// BuildGCRTrack renders one track of a 140k image as a nibble stream of
// exactly layout.TrackBytes. Address fields carry the physical sector
// number; the data comes from the logical sector it maps to.
func BuildGCRTrack(img *Image, track, head int, il Interleave, layout TrackLayout) ([]byte, error) {
	sectors := img.Type.Sectors
	if err := layout.Validate(sectors, EncodingGCR); err != nil {
		return nil, err
	}
	if len(il) != sectors {
		return nil, errors.Wrapf(ErrGeometry, "interleave of %d for %d sectors", len(il), sectors)
	}

	output := bytes.NewBuffer(make([]byte, 0, layout.TrackBytes))
	writeJunkBytes(output, layout.GapByte, layout.Gap0)

	for physical := 0; physical < sectors; physical++ {
		start := output.Len()
		data, err := img.Sector(track, head, il[physical])
		if err != nil {
			return nil, err
		}
		output.Write(layout.SectorLeadIn)
		writeGCRAddressBlock(output, img.Volume, byte(track), byte(physical))
		writeJunkBytes(output, layout.GapByte, layout.Gap1)
		writeGCRDataBlock(output, data)
		writeJunkBytes(output, layout.GapByte, layout.Gap2)
		if layout.SlotBytes > 0 {
			writeJunkBytes(output, layout.SlotPad, layout.SlotBytes-(output.Len()-start))
		}
	}

	writeJunkBytes(output, layout.GapByte, layout.Gap3(sectors, EncodingGCR))
	return output.Bytes(), nil
}

func appendSymbols(dst []Symbol, b byte, n int) []Symbol {
	for i := 0; i < n; i++ {
		dst = append(dst, Symbol(b))
	}
	return dst
}

func appendBytes(dst []Symbol, data ...byte) []Symbol {
	for _, b := range data {
		dst = append(dst, Symbol(b))
	}
	return dst
}

// BuildAgatTrack renders one track side of an 840k image as symbols, ready
// for MFM cells or AIM words. The result is exactly layout.TrackBytes long.
func BuildAgatTrack(img *Image, track, head int, il Interleave, layout TrackLayout) ([]Symbol, error) {
	sectors := img.Type.Sectors
	if err := layout.Validate(sectors, EncodingAgatMFM); err != nil {
		return nil, err
	}
	if len(il) != sectors {
		return nil, errors.Wrapf(ErrGeometry, "interleave of %d for %d sectors", len(il), sectors)
	}

	syms := make([]Symbol, 0, layout.TrackBytes)
	syms = appendSymbols(syms, layout.GapByte, layout.Gap0)

	trackID := AgatTrackID(track, head)
	for physical := 0; physical < sectors; physical++ {
		data, err := img.Sector(track, head, il[physical])
		if err != nil {
			return nil, err
		}
		syms = append(syms, SymbolDesync, AGAT_RESYNC)
		syms = appendBytes(syms, AGAT_ADDRESS_MARK[0], AGAT_ADDRESS_MARK[1])
		syms = appendBytes(syms, img.Volume, trackID, byte(physical), AGAT_EPILOGUE)
		syms = appendSymbols(syms, layout.GapByte, layout.Gap1)

		syms = append(syms, SymbolDesync, AGAT_RESYNC)
		syms = appendBytes(syms, AGAT_DATA_MARK[0], AGAT_DATA_MARK[1])
		syms = appendBytes(syms, data...)
		syms = appendBytes(syms, AgatChecksum(data), AGAT_EPILOGUE)
		syms = appendSymbols(syms, layout.GapByte, layout.Gap2)
	}

	return appendSymbols(syms, layout.GapByte, layout.Gap3(sectors, EncodingAgatMFM)), nil
}

// AIMWords turns symbols into AIM words.
func AIMWords(syms []Symbol) []uint16 {
	out := make([]uint16, len(syms))
	for i, s := range syms {
		if s.IsMark() {
			out[i] = AIM_MARK<<8 | uint16(s.Byte())
			continue
		}
		out[i] = uint16(s.Byte())
	}
	return out
}
