package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paleotronic/nibm8/disk"
	"github.com/pkg/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCommandsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	img := testImage(t)

	src := filepath.Join(dir, "source.dsk")
	if err := os.WriteFile(src, img.Data, 0644); err != nil {
		t.Fatal(err)
	}

	nib := filepath.Join(dir, "disk.nib")
	if _, err := run(t, "write", src, nib); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(nib)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != disk.DISK_NIBBLE_LENGTH {
		t.Fatalf("nib is %d bytes", len(data))
	}

	out, err := run(t, "detect", nib, src)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !strings.Contains(out, "disk.nib: nib") || !strings.Contains(out, "source.dsk: DOS order sector image") ||
		!strings.Contains(out, disk.Checksum(img.Data)) {
		t.Fatalf("detect output:\n%s", out)
	}

	out, err = run(t, "verify", nib)
	if err != nil || !strings.Contains(out, "no errors") {
		t.Fatalf("verify: %v\n%s", err, out)
	}

	po := filepath.Join(dir, "decoded.po")
	if _, err := run(t, "read", nib, po); err != nil {
		t.Fatalf("read: %v", err)
	}
	want, _ := img.Reorder(disk.SectorOrderProDOS)
	got, _ := os.ReadFile(po)
	if !bytes.Equal(got, want.Data) {
		t.Fatalf("read produced different sectors")
	}

	hfe := filepath.Join(dir, "again.hfe")
	if _, err := run(t, "convert", po, hfe); err != nil {
		t.Fatalf("convert: %v", err)
	}
	out, err = run(t, "verify", hfe)
	if err != nil || !strings.Contains(out, "hfe:") {
		t.Fatalf("verify hfe: %v\n%s", err, out)
	}
}

func TestVerifyReportsDamage(t *testing.T) {
	dir := t.TempDir()
	img := testImage(t)
	data, err := disk.Encode(disk.NIB, img, disk.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	data[nibFirstDataNibble+100] ^= 0x01
	bad := filepath.Join(dir, "bad.nib")
	os.WriteFile(bad, data, 0644)

	out, err := run(t, "verify", bad)
	if errors.Cause(err) != disk.ErrIntegrity {
		t.Fatalf("verify of a damaged disk returned %v", err)
	}
	if !strings.Contains(out, "track 0 head 0 sector 0") || !strings.Contains(out, "data checksum") {
		t.Fatalf("verify output:\n%s", out)
	}
}

func TestReadRejectsTrackOutput(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "read", filepath.Join(dir, "in.nib"), filepath.Join(dir, "out.nic")); errors.Cause(err) != disk.ErrUnsupported {
		t.Fatalf("read into a track image: %v", err)
	}
	if _, err := run(t, "write", filepath.Join(dir, "in.nib"), filepath.Join(dir, "out.nic")); errors.Cause(err) != disk.ErrUnsupported {
		t.Fatalf("write from a track image: %v", err)
	}
}
