package disk

import (
	"testing"

	"github.com/pkg/errors"
)

func TestLayoutGap3(t *testing.T) {
	cases := []struct {
		layout  TrackLayout
		enc     Encoding
		sectors int
		sector  int
		gap3    int
	}{
		{NIB_LAYOUT, EncodingGCR, 16, 416, 0},
		{NIC_LAYOUT, EncodingGCR, 16, 512, 0},
		{GCR_BITSTREAM_LAYOUT, EncodingGCR, 16, 387, 18},
		{AGAT_MFM_LAYOUT, EncodingAgatMFM, 21, 294, 36},
		{AIM_LAYOUT, EncodingAgatMFM, 21, 294, 250},
	}
	for _, c := range cases {
		if got := c.layout.SectorBytes(c.enc); got != c.sector {
			t.Errorf("%s: sector bytes %d, want %d", c.layout.Name, got, c.sector)
		}
		if got := c.layout.Gap3(c.sectors, c.enc); got != c.gap3 {
			t.Errorf("%s: gap3 %d, want %d", c.layout.Name, got, c.gap3)
		}
		if err := c.layout.Validate(c.sectors, c.enc); err != nil {
			t.Errorf("%s: %v", c.layout.Name, err)
		}
	}
}

func TestLayoutOverrun(t *testing.T) {
	err := NIB_LAYOUT.Validate(17, EncodingGCR)
	if errors.Cause(err) != ErrGeometry {
		t.Fatalf("17 sectors in a nib track: %v", err)
	}
	small := NIC_LAYOUT
	small.SlotBytes = 400
	if errors.Cause(small.Validate(16, EncodingGCR)) != ErrGeometry {
		t.Fatalf("oversized sector accepted in a 400 byte slot")
	}
}

func TestBuiltTracksHaveExactLength(t *testing.T) {
	gcr, _ := NewImage(DT_140K, SectorOrderDOS33)
	for _, l := range []TrackLayout{NIB_LAYOUT, NIC_LAYOUT, GCR_BITSTREAM_LAYOUT} {
		tr, err := BuildGCRTrack(gcr, 34, 0, DOS_33_SECTOR_ORDER, l)
		if err != nil {
			t.Fatalf("%s: %v", l.Name, err)
		}
		if len(tr) != l.TrackBytes {
			t.Errorf("%s: %d bytes, want %d", l.Name, len(tr), l.TrackBytes)
		}
	}

	agat, _ := NewImage(DT_840K, SectorOrderDOS33)
	for _, l := range []TrackLayout{AGAT_MFM_LAYOUT, AIM_LAYOUT} {
		syms, err := BuildAgatTrack(agat, 79, 1, AGAT_840K_SECTOR_ORDER, l)
		if err != nil {
			t.Fatalf("%s: %v", l.Name, err)
		}
		if len(syms) != l.TrackBytes {
			t.Errorf("%s: %d symbols, want %d", l.Name, len(syms), l.TrackBytes)
		}
	}
}

func TestNICSlotPadding(t *testing.T) {
	img, _ := NewImage(DT_140K, SectorOrderDOS33)
	tr, err := BuildGCRTrack(img, 0, 0, DOS_33_SECTOR_ORDER, NIC_LAYOUT)
	if err != nil {
		t.Fatal(err)
	}
	for s := 0; s < 16; s++ {
		slot := tr[s*NIC_SLOT_BYTES : (s+1)*NIC_SLOT_BYTES]
		for i := 416; i < NIC_SLOT_BYTES; i++ {
			if slot[i] != 0x00 {
				t.Fatalf("slot %d byte %d is %02X", s, i, slot[i])
			}
		}
		if slot[22] != 0x03 || slot[33] != 0xFC || slot[34] != 0xD5 {
			t.Fatalf("slot %d lead-in wrong: % X", s, slot[20:37])
		}
	}
}
