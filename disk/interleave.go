package disk

import (
	"strings"

	"github.com/pkg/errors"
)

type SectorOrder int

const (
	SectorOrderDOS33 SectorOrder = iota
	SectorOrderProDOS
	SectorOrderCPM
	SectorOrderLinear
)

func (so SectorOrder) String() string {
	switch so {
	case SectorOrderDOS33:
		return "DOS"
	case SectorOrderProDOS:
		return "ProDOS"
	case SectorOrderCPM:
		return "CP/M"
	}
	return "Linear"
}

func ParseSectorOrder(s string) (SectorOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dos", "do", "dos33", "dsk":
		return SectorOrderDOS33, nil
	case "prodos", "po":
		return SectorOrderProDOS, nil
	case "cpm", "cp/m":
		return SectorOrderCPM, nil
	case "raw", "linear", "physical":
		return SectorOrderLinear, nil
	}
	return SectorOrderLinear, errors.Errorf("unknown sector order %q", s)
}

// Interleave maps the physical sector number found in an address field to
// the logical sector slot in the image.
type Interleave []int

var DOS_33_SECTOR_ORDER = Interleave{
	0x00, 0x07, 0x0E, 0x06, 0x0D, 0x05, 0x0C, 0x04,
	0x0B, 0x03, 0x0A, 0x02, 0x09, 0x01, 0x08, 0x0F,
}

var PRODOS_SECTOR_ORDER = Interleave{
	0x00, 0x08, 0x01, 0x09, 0x02, 0x0a, 0x03, 0x0b,
	0x04, 0x0c, 0x05, 0x0d, 0x06, 0x0e, 0x07, 0x0f,
}

// CP/M logical sector n sits at physical sector 3n mod 16.
var CPM_SECTOR_ORDER = Interleave{
	0x00, 0x0b, 0x06, 0x01, 0x0c, 0x07, 0x02, 0x0d,
	0x08, 0x03, 0x0e, 0x09, 0x04, 0x0f, 0x0a, 0x05,
}

var LINEAR_SECTOR_ORDER = Interleave{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
}

var AGAT_840K_SECTOR_ORDER = Interleave{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
	0x10, 0x11, 0x12, 0x13, 0x14,
}

// InterleaveFor selects the table for a disk type / sector order pairing.
func InterleaveFor(id DiskTypeID, order SectorOrder) (Interleave, error) {
	switch id {
	case DT_140K:
		switch order {
		case SectorOrderDOS33:
			return DOS_33_SECTOR_ORDER, nil
		case SectorOrderProDOS:
			return PRODOS_SECTOR_ORDER, nil
		case SectorOrderCPM:
			return CPM_SECTOR_ORDER, nil
		case SectorOrderLinear:
			return LINEAR_SECTOR_ORDER, nil
		}
	case DT_840K:
		// Agat 840K DOS keeps sectors in physical order.
		switch order {
		case SectorOrderDOS33, SectorOrderLinear:
			return AGAT_840K_SECTOR_ORDER, nil
		}
	}
	return nil, errors.Wrapf(ErrGeometry, "no %s sector order for %v disks", order, id)
}

// Logical returns the logical slot for a physical sector, or -1.
func (il Interleave) Logical(physical int) int {
	if physical < 0 || physical >= len(il) {
		return -1
	}
	return il[physical]
}

// Physical returns the physical sector holding a logical slot, or -1.
func (il Interleave) Physical(logical int) int {
	for p, l := range il {
		if l == logical {
			return p
		}
	}
	return -1
}

func (il Interleave) Inverse() Interleave {
	inv := make(Interleave, len(il))
	for i := range inv {
		inv[i] = -1
	}
	for p, l := range il {
		if l >= 0 && l < len(il) {
			inv[l] = p
		}
	}
	return inv
}

// Valid reports whether the table is a permutation of [0, len).
func (il Interleave) Valid() bool {
	seen := make([]bool, len(il))
	for _, l := range il {
		if l < 0 || l >= len(il) || seen[l] {
			return false
		}
		seen[l] = true
	}
	return true
}
