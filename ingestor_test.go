package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paleotronic/nibm8/disk"
)

func TestScannerTallies(t *testing.T) {
	dir := t.TempDir()
	img := testImage(t)

	good, err := disk.Encode(disk.NIB, img, disk.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	bad := append([]byte(nil), good...)
	bad[nibFirstDataNibble+100] ^= 0x01
	hfe, err := disk.Encode(disk.HFE, img, disk.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	twoMG, _ := disk.Save2MG(img)

	os.MkdirAll(filepath.Join(dir, "sub"), 0755)
	files := map[string][]byte{
		"good.nib":     good,
		"sub/bad.NIB":  bad,
		"sub/disk.hfe": hfe,
		"disk.2mg":     twoMG,
		"broken.nic":   []byte("not a disk"),
		"readme.txt":   []byte("ignored"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatal(err)
		}
	}

	s := newScanner(disk.DefaultOptions(), 3)
	if err := s.walk(dir); err != nil {
		t.Fatal(err)
	}

	if len(s.results) != 5 {
		t.Fatalf("scanned %d files", len(s.results))
	}
	if n := s.tallies["nib"]; n == nil || n.Files != 2 || n.Clean != 1 || n.Damaged != 1 {
		t.Fatalf("nib tally %+v", n)
	}
	if h := s.tallies["hfe"]; h == nil || h.Clean != 1 {
		t.Fatalf("hfe tally %+v", h)
	}
	if m := s.tallies["2mg"]; m == nil || m.Clean != 1 {
		t.Fatalf("2mg tally %+v", m)
	}
	if f := s.tallies["?"]; f == nil || f.Failed != 1 {
		t.Fatalf("failed tally %+v", f)
	}
	if !s.damaged() {
		t.Fatalf("damage not noticed")
	}

	buf := &bytes.Buffer{}
	s.print(buf, time.Second, true)
	out := buf.String()
	if !strings.Contains(out, "BAD   "+filepath.Join(dir, "sub/bad.NIB")) || !strings.Contains(out, "Total") {
		t.Fatalf("scan output:\n%s", out)
	}
}
