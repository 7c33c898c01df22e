package disk

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const AIM_TRACK_WORDS = 6464
const AIM_TRACK_SIDES = AGAT_840K_TRACKS * AGAT_840K_HEADS
const AIM_TRACK_BYTES = AIM_TRACK_WORDS * 2
const AIM_DISK_BYTES = AIM_TRACK_SIDES * AIM_TRACK_BYTES

// aimContainer is the Agat 840k word capture: 160 track sides of 6464
// little endian words each, ordered cylinder*2+head.
type aimContainer struct{}

var AIM Container = aimContainer{}

func (aimContainer) Name() string { return "aim" }

func (aimContainer) Description() string {
	return "Agat 840KB word capture (6464 words per track side)"
}

func (aimContainer) Extensions() []string { return []string{"aim"} }

func (aimContainer) Supports(id DiskTypeID) bool {
	return id == DT_840K
}

func (aimContainer) Probe(data []byte) DiskTypeID {
	if len(data) == AIM_DISK_BYTES {
		return DT_840K
	}
	return DT_NONE
}

func (aimContainer) Open(data []byte, hint DiskTypeID) (*TrackSet, error) {
	if err := checkHint("aim", hint, DT_840K); err != nil {
		return nil, err
	}
	if len(data) != AIM_DISK_BYTES {
		return nil, errors.Wrapf(ErrBadSize, "%d bytes, expected %d", len(data), AIM_DISK_BYTES)
	}
	ts := newTrackSet(GetDiskType(DT_840K))
	for side := 0; side < AIM_TRACK_SIDES; side++ {
		raw := data[side*AIM_TRACK_BYTES : (side+1)*AIM_TRACK_BYTES]
		words := make(aimTrack, AIM_TRACK_WORDS)
		for i := range words {
			words[i] = binary.LittleEndian.Uint16(raw[2*i:])
		}
		ts.set(side/AGAT_840K_HEADS, side%AGAT_840K_HEADS, words)
	}
	return ts, nil
}

func (aimContainer) EncodeTrack(img *Image, track, head int, il Interleave) ([]byte, error) {
	syms, err := BuildAgatTrack(img, track, head, il, AIM_LAYOUT)
	if err != nil {
		return nil, err
	}
	words := AIMWords(syms)
	out := make([]byte, 2*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint16(out[2*i:], w)
	}
	return out, nil
}

func (aimContainer) Assemble(dt DiskType, tracks [][]byte) ([]byte, error) {
	if dt.ID != DT_840K || len(tracks) != AIM_TRACK_SIDES {
		return nil, errors.Wrapf(ErrGeometry, "aim holds 840k disks only")
	}
	out := make([]byte, 0, AIM_DISK_BYTES)
	for i, t := range tracks {
		if len(t) != AIM_TRACK_BYTES {
			return nil, errors.Wrapf(ErrGeometry, "track side %d is %d bytes", i, len(t))
		}
		out = append(out, t...)
	}
	return out, nil
}
