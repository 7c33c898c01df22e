package disk

import "github.com/pkg/errors"

const TRACK_NIBBLE_LENGTH = 0x1A00
const NIB_SLOT_BYTES = 416
const DISK_NIBBLE_LENGTH = TRACK_NIBBLE_LENGTH * STD_TRACKS_PER_DISK

// nibbleContainer is a headerless file of fixed length GCR tracks.
type nibbleContainer struct {
	name        string
	description string
	extensions  []string
	layout      TrackLayout
}

var NIB Container = &nibbleContainer{
	name:        "nib",
	description: "Apple II nibble image (6656 bytes per track)",
	extensions:  []string{"nib"},
	layout:      NIB_LAYOUT,
}

func (n *nibbleContainer) Name() string         { return n.name }
func (n *nibbleContainer) Description() string  { return n.description }
func (n *nibbleContainer) Extensions() []string { return n.extensions }

func (n *nibbleContainer) Supports(id DiskTypeID) bool {
	return id == DT_140K
}

func (n *nibbleContainer) size() int {
	return n.layout.TrackBytes * STD_TRACKS_PER_DISK
}

func (n *nibbleContainer) Probe(data []byte) DiskTypeID {
	if len(data) == n.size() {
		return DT_140K
	}
	return DT_NONE
}

func (n *nibbleContainer) Open(data []byte, hint DiskTypeID) (*TrackSet, error) {
	if err := checkHint(n.name, hint, DT_140K); err != nil {
		return nil, err
	}
	if len(data) != n.size() {
		return nil, errors.Wrapf(ErrBadSize, "%d bytes, expected %d", len(data), n.size())
	}
	ts := newTrackSet(GetDiskType(DT_140K))
	tb := n.layout.TrackBytes
	for t := 0; t < STD_TRACKS_PER_DISK; t++ {
		ts.set(t, 0, gcrTrack(data[t*tb:(t+1)*tb]))
	}
	return ts, nil
}

func (n *nibbleContainer) EncodeTrack(img *Image, track, head int, il Interleave) ([]byte, error) {
	return BuildGCRTrack(img, track, head, il, n.layout)
}

func (n *nibbleContainer) Assemble(dt DiskType, tracks [][]byte) ([]byte, error) {
	if !n.Supports(dt.ID) {
		return nil, errors.Wrapf(ErrGeometry, "%s cannot hold %s", n.name, dt)
	}
	out := make([]byte, 0, n.size())
	for i, t := range tracks {
		if len(t) != n.layout.TrackBytes {
			return nil, errors.Wrapf(ErrGeometry, "track %d is %d bytes, expected %d", i, len(t), n.layout.TrackBytes)
		}
		out = append(out, t...)
	}
	return out, nil
}
