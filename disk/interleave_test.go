package disk

import (
	"testing"

	"github.com/pkg/errors"
)

func TestInterleaveBijective(t *testing.T) {
	pairs := []struct {
		id    DiskTypeID
		order SectorOrder
	}{
		{DT_140K, SectorOrderDOS33},
		{DT_140K, SectorOrderProDOS},
		{DT_140K, SectorOrderCPM},
		{DT_140K, SectorOrderLinear},
		{DT_840K, SectorOrderDOS33},
		{DT_840K, SectorOrderLinear},
	}
	for _, p := range pairs {
		il, err := InterleaveFor(p.id, p.order)
		if err != nil {
			t.Fatalf("%v/%v: %v", p.id, p.order, err)
		}
		dt := GetDiskType(p.id)
		if len(il) != dt.Sectors {
			t.Errorf("%v/%v: table has %d entries, want %d", p.id, p.order, len(il), dt.Sectors)
		}
		if !il.Valid() {
			t.Errorf("%v/%v: table is not a permutation", p.id, p.order)
		}
		inv := il.Inverse()
		for phys := range il {
			if inv[il[phys]] != phys {
				t.Errorf("%v/%v: inverse broken at %d", p.id, p.order, phys)
			}
			if il.Physical(il.Logical(phys)) != phys {
				t.Errorf("%v/%v: Physical(Logical(%d)) mismatch", p.id, p.order, phys)
			}
		}
	}
}

func TestInterleaveRejectsUnknownPairing(t *testing.T) {
	_, err := InterleaveFor(DT_840K, SectorOrderProDOS)
	if errors.Cause(err) != ErrGeometry {
		t.Fatalf("expected ErrGeometry, got %v", err)
	}
}

func TestInterleaveValidDetectsDuplicates(t *testing.T) {
	if (Interleave{0, 1, 1}).Valid() {
		t.Errorf("duplicate entry accepted")
	}
	if (Interleave{0, 3, 1}).Valid() {
		t.Errorf("out of range entry accepted")
	}
	if (Interleave{0, 1, 2}).Logical(5) != -1 {
		t.Errorf("out of range physical should give -1")
	}
}

func TestCPMOrderIsSkewThree(t *testing.T) {
	for l := 0; l < 16; l++ {
		if got := CPM_SECTOR_ORDER.Physical(l); got != (l*3)%16 {
			t.Errorf("logical %d at physical %d, want %d", l, got, (l*3)%16)
		}
	}
}

func TestParseSectorOrder(t *testing.T) {
	for in, want := range map[string]SectorOrder{
		"do":     SectorOrderDOS33,
		"PO":     SectorOrderProDOS,
		"cpm":    SectorOrderCPM,
		"raw":    SectorOrderLinear,
		" dos  ": SectorOrderDOS33,
	} {
		got, err := ParseSectorOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseSectorOrder(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSectorOrder("zigzag"); err == nil {
		t.Errorf("expected error for unknown order")
	}
}
