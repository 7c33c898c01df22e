package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paleotronic/nibm8/disk"
)

func request(t *testing.T, method, url string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newRouter(disk.DefaultOptions()).ServeHTTP(rec, req)
	return rec
}

func TestServeFormats(t *testing.T) {
	rec := request(t, http.MethodGet, "/formats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var formats []formatInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &formats); err != nil {
		t.Fatal(err)
	}
	if len(formats) != len(disk.Containers()) {
		t.Fatalf("got %d formats", len(formats))
	}
	for _, f := range formats {
		if f.Name == "aim" && (len(f.DiskTypes) != 1 || f.DiskTypes[0] != "840k") {
			t.Errorf("aim disk types %v", f.DiskTypes)
		}
	}
}

func TestServeEncodeDecode(t *testing.T) {
	img := testImage(t)

	rec := request(t, http.MethodPost, "/encode/nib?volume=33", img.Data)
	if rec.Code != http.StatusOK {
		t.Fatalf("encode: %d %s", rec.Code, rec.Body)
	}
	nib := rec.Body.Bytes()
	if len(nib) != disk.DISK_NIBBLE_LENGTH {
		t.Fatalf("encode returned %d bytes", len(nib))
	}

	rec = request(t, http.MethodPost, "/decode/nib", nib)
	if rec.Code != http.StatusOK {
		t.Fatalf("decode: %d %s", rec.Code, rec.Body)
	}
	if !bytes.Equal(rec.Body.Bytes(), img.Data) {
		t.Fatalf("decode returned different sectors")
	}
	if rec.Header().Get("X-Volume") != "33" || rec.Header().Get("X-Decode-Errors") != "0" {
		t.Fatalf("headers %v", rec.Header())
	}

	rec = request(t, http.MethodPost, "/decode/nib?order=prodos", nib)
	want, _ := img.Reorder(disk.SectorOrderProDOS)
	if !bytes.Equal(rec.Body.Bytes(), want.Data) {
		t.Fatalf("prodos decode returned different sectors")
	}
}

func TestServeReport(t *testing.T) {
	img := testImage(t)
	nib, err := disk.Encode(disk.NIB, img, disk.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	nib[nibFirstDataNibble+100] ^= 0x01

	rec := request(t, http.MethodPost, "/report/nib", nib)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: %d %s", rec.Code, rec.Body)
	}
	var info reportInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Clean || info.Errors != 1 || len(info.Problems) != 1 || len(info.Tracks) != 35 {
		t.Fatalf("unexpected report %+v", info)
	}

	rec = request(t, http.MethodPost, "/report/nib?strict=true", nib)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("strict report status %d", rec.Code)
	}
}

func TestServeDetect(t *testing.T) {
	img := testImage(t)
	nib, _ := disk.Encode(disk.NIB, img, disk.DefaultOptions())

	rec := request(t, http.MethodPost, "/detect?name=game.nib", nib)
	var info detectInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Kind != "container" || info.Container != "nib" || info.DiskType != "140k" || info.SHA256 != disk.Checksum(nib) {
		t.Fatalf("unexpected detect %+v", info)
	}

	rec = request(t, http.MethodPost, "/detect?name=game.po", img.Data)
	json.Unmarshal(rec.Body.Bytes(), &info)
	if info.Kind != "sector" || info.DiskType != "140k" {
		t.Fatalf("unexpected detect %+v", info)
	}
}

func TestServeErrors(t *testing.T) {
	cases := []struct {
		method, url string
		body        []byte
		status      int
	}{
		{http.MethodPost, "/encode/woz", make([]byte, disk.STD_DISK_BYTES), http.StatusUnsupportedMediaType},
		{http.MethodPost, "/encode/nib", make([]byte, 1000), http.StatusBadRequest},
		{http.MethodPost, "/encode/nib?type=840k", make([]byte, disk.STD_DISK_BYTES), http.StatusBadRequest},
		{http.MethodPost, "/encode/aim", make([]byte, disk.STD_DISK_BYTES), http.StatusBadRequest},
		{http.MethodPost, "/decode/nib", make([]byte, 1000), http.StatusBadRequest},
		{http.MethodPost, "/decode/nib?volume=999", nil, http.StatusBadRequest},
		{http.MethodPost, "/detect?name=notes.txt", []byte("hello"), http.StatusUnsupportedMediaType},
		{http.MethodGet, "/decode/nib", nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rec := request(t, tc.method, tc.url, tc.body)
		if rec.Code != tc.status {
			t.Errorf("%s %s: status %d, want %d (%s)", tc.method, tc.url, rec.Code, tc.status, rec.Body)
		}
	}
}
