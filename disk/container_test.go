package disk

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func encoded(t *testing.T, c Container, img *Image) []byte {
	t.Helper()
	data, err := Encode(c, img, DefaultOptions())
	if err != nil {
		t.Fatalf("%s: %v", c.Name(), err)
	}
	return data
}

func TestContainerSizes(t *testing.T) {
	small, _ := NewImage(DT_140K, SectorOrderDOS33)
	big, _ := NewImage(DT_840K, SectorOrderDOS33)

	cases := []struct {
		c    Container
		img  *Image
		size int
	}{
		{NIB, small, 232960},
		{NIC, small, 286720},
		{AIM, big, 2068480},
	}
	for _, tc := range cases {
		if got := len(encoded(t, tc.c, tc.img)); got != tc.size {
			t.Errorf("%s: %d bytes, want %d", tc.c.Name(), got, tc.size)
		}
	}
}

func TestDetectContainer(t *testing.T) {
	small, _ := NewImage(DT_140K, SectorOrderDOS33)
	big, _ := NewImage(DT_840K, SectorOrderDOS33)

	cases := []struct {
		c    Container
		img  *Image
		name string
	}{
		{NIB, small, "game.bin"},
		{NIC, small, "game.bin"},
		{HFE, small, "disk.img"},
		{HFE, big, "disk.img"},
		{HXC_MFM, big, "x"},
		{AIM, big, "x"},
	}
	for _, tc := range cases {
		c, id, err := DetectContainer(encoded(t, tc.c, tc.img), tc.name)
		if err != nil {
			t.Fatalf("%s: %v", tc.c.Name(), err)
		}
		if c != tc.c || id != tc.img.Type.ID {
			t.Errorf("%s detected as %s/%v", tc.c.Name(), c.Name(), id)
		}
	}

	c, id, err := DetectContainer([]byte("short"), "broken.HFE")
	if err != nil || c != HFE || id != DT_NONE {
		t.Errorf("extension fallback: %v %v %v", c, id, err)
	}
	if _, _, err := DetectContainer([]byte("short"), "notes.txt"); errors.Cause(err) != ErrUnsupported {
		t.Errorf("unknown file: %v", err)
	}
}

func TestLookupContainer(t *testing.T) {
	for _, name := range []string{"nib", ".NIC", "hfe", "mfm", "aim"} {
		if _, err := LookupContainer(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := LookupContainer("woz"); errors.Cause(err) != ErrUnsupported {
		t.Errorf("woz: %v", err)
	}
}

func TestHFEHeader(t *testing.T) {
	big, _ := NewImage(DT_840K, SectorOrderDOS33)
	data := encoded(t, HFE, big)

	h, err := ParseHeaderHFE(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.Tracks != 80 || h.Sides != 2 || h.Encoding != HFE_ENC_ISOIBM_MFM ||
		h.BitRate != 250 || h.RPM != 300 || h.Interface != IFM_GenericShugart_DD || h.TrackListOffset != 1 {
		t.Fatalf("unexpected header %+v", h)
	}
	for i := 26; i < HFE_BLOCK_SIZE; i++ {
		if data[i] != 0xFF {
			t.Fatalf("header padding byte %d is %02X", i, data[i])
		}
	}
	tl := binary.LittleEndian.Uint16(data[HFE_BLOCK_SIZE+2:])
	if tl != 25000 {
		t.Fatalf("track length %d", tl)
	}

	small, _ := NewImage(DT_140K, SectorOrderDOS33)
	h, _ = ParseHeaderHFE(encoded(t, HFE, small))
	if h.Tracks != 35 || h.Sides != 1 || h.Encoding != HFE_ENC_UNKNOWN {
		t.Fatalf("unexpected 140k header %+v", h)
	}
}

func TestHFERejectsBadInput(t *testing.T) {
	small, _ := NewImage(DT_140K, SectorOrderDOS33)
	good := encoded(t, HFE, small)
	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), good...)
		f(b)
		return b
	}

	cases := []struct {
		name string
		data []byte
		opts Options
		want error
	}{
		{"tracks", mutate(func(b []byte) { b[9] = 40 }), DefaultOptions(), ErrGeometry},
		{"sides", mutate(func(b []byte) { b[10] = 2 }), DefaultOptions(), ErrGeometry},
		{"hint", good, Options{Type: DT_840K}, ErrGeometry},
		{"signature", mutate(func(b []byte) { copy(b, "NOTANHFE") }), DefaultOptions(), ErrSignature},
		{"v3", mutate(func(b []byte) { copy(b, HFE_V3_SIGNATURE) }), DefaultOptions(), ErrUnsupported},
		{"truncated", good[:len(good)/2], DefaultOptions(), ErrTruncated},
		{"header", good[:100], DefaultOptions(), ErrTruncated},
	}
	for _, tc := range cases {
		_, _, err := Decode(HFE, tc.data, tc.opts)
		if errors.Cause(err) != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestHxCMFMHeader(t *testing.T) {
	small, _ := NewImage(DT_140K, SectorOrderDOS33)
	data := encoded(t, HXC_MFM, small)

	h, err := ParseHeaderMFM(data)
	if err != nil {
		t.Fatal(err)
	}
	if h.Tracks != 35 || h.Sides != 1 || h.RPM != 300 || h.BitRate != 250 || h.TrackListOffset != HXC_MFM_HEADER_SIZE {
		t.Fatalf("unexpected header %+v", h)
	}
	e := parseTrackEntryMFM(data[h.TrackListOffset+3*HXC_MFM_ENTRY_SIZE:])
	if e.Track != 3 || e.Side != 0 || e.Size != 12500 || e.Offset%HXC_MFM_ALIGN != 0 {
		t.Fatalf("unexpected entry %+v", e)
	}

	bad := append([]byte(nil), data...)
	binary.LittleEndian.PutUint16(bad[0x07:], 80)
	if _, _, err := Decode(HXC_MFM, bad, DefaultOptions()); errors.Cause(err) != ErrGeometry {
		t.Errorf("geometry: %v", err)
	}
	bad = append([]byte(nil), data...)
	bad[0] = 'X'
	if _, _, err := Decode(HXC_MFM, bad, DefaultOptions()); errors.Cause(err) != ErrSignature {
		t.Errorf("signature: %v", err)
	}
	if _, _, err := Decode(HXC_MFM, data[:len(data)-1000], DefaultOptions()); errors.Cause(err) != ErrTruncated {
		t.Errorf("truncated: %v", err)
	}
}

func TestRawContainersRejectSize(t *testing.T) {
	for _, c := range []Container{NIB, NIC, AIM} {
		if _, _, err := Decode(c, make([]byte, 1000), DefaultOptions()); errors.Cause(err) != ErrBadSize {
			t.Errorf("%s: %v", c.Name(), err)
		}
	}
	if _, _, err := Decode(NIB, make([]byte, DISK_NIBBLE_LENGTH), Options{Type: DT_840K}); errors.Cause(err) != ErrGeometry {
		t.Errorf("nib with 840k hint: %v", err)
	}
}

func TestMissingHxCTrackIsReported(t *testing.T) {
	small, _ := NewImage(DT_140K, SectorOrderDOS33)
	data := encoded(t, HXC_MFM, small)
	// point entry 7 at track 8 so track 7 never appears
	entry := data[HXC_MFM_HEADER_SIZE+7*HXC_MFM_ENTRY_SIZE:]
	binary.LittleEndian.PutUint16(entry, 8)

	_, report, err := Decode(HXC_MFM, data, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if report.Tracks[7].Errors() != 16 || report.Errors() != 16 {
		t.Fatalf("%s", report)
	}
}

func TestLogicalImages(t *testing.T) {
	img := patternImage(t, DT_140K, SectorOrderDOS33, 20)

	po, err := SaveImage(img, "out.po")
	if err != nil {
		t.Fatal(err)
	}
	back, _, err := LoadImage(po, "in.po", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if back.Order != SectorOrderProDOS {
		t.Fatalf("order %v", back.Order)
	}
	dos, err := back.Reorder(SectorOrderDOS33)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dos.Data, img.Data) {
		t.Fatalf("dsk -> po -> dsk changed the data")
	}

	// ProDOS block 0 is DOS sectors 0 and 14 of track 0
	s0, _ := img.Sector(0, 0, 0)
	s14, _ := img.Sector(0, 0, 14)
	if !bytes.Equal(po[:256], s0) || !bytes.Equal(po[256:512], s14) {
		t.Fatalf("block 0 is not DOS sectors 0 and 14")
	}

	if _, _, err := LoadImage(make([]byte, 1234), "x.dsk", DefaultOptions()); errors.Cause(err) != ErrBadSize {
		t.Errorf("bad size: %v", err)
	}
	if _, _, err := LoadImage(img.Data, "x.txt", DefaultOptions()); errors.Cause(err) != ErrUnsupported {
		t.Errorf("bad extension: %v", err)
	}
	big := patternImage(t, DT_840K, SectorOrderDOS33, 21)
	if _, err := big.Reorder(SectorOrderProDOS); errors.Cause(err) != ErrGeometry {
		t.Errorf("840k prodos reorder: %v", err)
	}
}

func TestImage2MG(t *testing.T) {
	img := patternImage(t, DT_140K, SectorOrderDOS33, 22)
	img.Volume = 33

	data, err := SaveImage(img, "disk.2mg")
	if err != nil {
		t.Fatal(err)
	}
	h := &Header2MG{}
	h.SetData(data)
	if h.GetID() != "2IMG" || h.GetImageFormat() != FORMAT_2MG_PRODOS || h.GetProDOSBlocks() != 280 ||
		h.GetDiskDataStart() != PREAMBLE_2MG_SIZE || h.GetDiskDataLength() != STD_DISK_BYTES || h.GetVolume() != 33 {
		t.Fatalf("unexpected header % X", h.Data)
	}

	back, report, err := LoadImage(data, "whatever.bin", DefaultOptions())
	if err != nil || report != nil {
		t.Fatalf("load: %v %v", err, report)
	}
	dos, _ := back.Reorder(SectorOrderDOS33)
	if !bytes.Equal(dos.Data, img.Data) || back.Volume != 33 {
		t.Fatalf("2mg round trip changed the image")
	}

	// a 2mg wrapping a nibble image decodes through the nib container
	nib := encoded(t, NIB, img)
	wrapped := append(NewHeader2MG(FORMAT_2MG_NIB, 0, len(nib), 0).Data[:], nib...)
	out, report, err := LoadImage(wrapped, "n.2mg", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if report == nil || !report.Clean() || !bytes.Equal(out.Data, img.Data) {
		t.Fatalf("nib payload did not decode cleanly")
	}
}

func TestReportText(t *testing.T) {
	img, _ := NewImage(DT_140K, SectorOrderDOS33)
	data := encoded(t, NIB, img)
	data[TRACK_NIBBLE_LENGTH*2+nibDataAt+3] ^= 0x80

	_, report, err := Decode(NIB, data, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	msg := report.Message()
	if !strings.Contains(msg, "errors in 1 sectors") || !strings.Contains(msg, "1 checksum") {
		t.Errorf("message %q", msg)
	}
	if p := report.Problems(); len(p) != 1 || !strings.Contains(p[0], "track 2 head 0 sector 0") {
		t.Errorf("problems %v", p)
	}
	if !strings.Contains(report.String(), "T02.0: X . .") {
		t.Errorf("track line missing:\n%s", report)
	}
	if s := (SectorAddressChecksum | SectorMissing).String(); s != "address checksum, not found" {
		t.Errorf("status string %q", s)
	}
}

func TestDump(t *testing.T) {
	buf := &bytes.Buffer{}
	Dump(buf, []byte("HELLO, WORLD!\x00"), 0x100)
	want := "0100: 48 45 4C 4C 4F 2C 20 57 4F 52 4C 44 HELLO, WORLD\n" +
		"010C: 21 00                               !.\n"
	if buf.String() != want {
		t.Fatalf("got\n%q\nwant\n%q", buf.String(), want)
	}
}
